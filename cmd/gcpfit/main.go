// Command gcpfit fits a GDAL geotransform to a ground control point file and
// prints it with per-point residuals.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"affine-overlay/internal/gcp"
	"affine-overlay/internal/logging"

	"github.com/spf13/cobra"
)

func main() {
	cobra.CheckErr(NewCmd().ExecuteContext(context.Background()))
}

// NewCmd builds the gcpfit command.
func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "gcpfit [flags] <gcps.json|gcps.yaml>",
		Short:        "Fit a geotransform to ground control points",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         doFit,
	}
	cmd.Flags().Float64("width", 0, "image width; with --height prints the footprint")
	cmd.Flags().Float64("height", 0, "image height")
	cmd.Flags().Bool("geojson", false, "print the footprint as GeoJSON instead of WKT")
	cmd.Flags().String("log-level", "warn", "log `<Level>`")
	return cmd
}

func doFit(cmd *cobra.Command, args []string) error {
	level, _ := cmd.Flags().GetString("log-level")
	log := logging.New(cmd.ErrOrStderr(), logging.Options{Level: level})

	gcps, err := readGCPs(args[0])
	if err != nil {
		return err
	}
	log.Debug().Int("count", len(gcps)).Str("path", args[0]).Msg("read gcps")

	gt, err := gcp.FitGeoTransform(gcps)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "GeoTransform: %.10g, %.10g, %.10g, %.10g, %.10g, %.10g\n",
		gt[0], gt[1], gt[2], gt[3], gt[4], gt[5])

	res := gcp.Residuals(gcps, gt)
	for i, g := range gcps {
		fmt.Fprintf(out, "  GCP %d: pixel (%.2f, %.2f) -> (%.8f, %.8f) residual %.3g\n",
			i, g.Pixel.X, g.Pixel.Y, g.World.Lon(), g.World.Lat(), res[i])
	}
	fmt.Fprintf(out, "RMS: %.3g\n", gcp.RMS(res))

	w, _ := cmd.Flags().GetFloat64("width")
	h, _ := cmd.Flags().GetFloat64("height")
	if w > 0 && h > 0 {
		asGeoJSON, _ := cmd.Flags().GetBool("geojson")
		if asGeoJSON {
			data, err := gcp.FootprintGeoJSON(gt, w, h).MarshalJSON()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Footprint: %s\n", data)
		} else {
			wkt, err := gcp.FootprintWKT(gt, w, h)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Footprint: %s\n", wkt)
		}
	}
	return nil
}

func readGCPs(path string) ([]gcp.GCP, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open gcps: %w", err)
	}
	defer f.Close()

	var read func(io.Reader) ([]gcp.GCP, error) = gcp.ReadJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		read = gcp.ReadYAML
	}
	return read(f)
}
