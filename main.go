// Package main provides the affine-overlay command: place an image on a map
// with three control points and export them as ground control points.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"affine-overlay/internal/app"
	"affine-overlay/internal/config"
	"affine-overlay/internal/image"
	"affine-overlay/internal/logging"
	"affine-overlay/internal/version"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	cobra.CheckErr(NewCmd().ExecuteContext(context.Background()))
}

// NewCmd builds the root command.
func NewCmd() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "affine-overlay [command] [flags]",
		Short:         "Align an image over a map with three control points",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}
	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "`<File>` configuration file (yaml, json or toml)")
	pf.String("log-level", "info", "log `<Level>`: trace, debug, info, warn, error")
	pf.String("log-file", "", "also write logs to `<File>`")
	pf.Float64("lng", 0, "map center longitude")
	pf.Float64("lat", 0, "map center latitude")
	pf.Float64("zoom", 2, "map zoom level")
	pf.Int("width", 800, "viewport width in pixels")
	pf.Int("height", 600, "viewport height in pixels")
	pf.Float64("opacity", 0.5, "overlay opacity")
	pf.StringArrayP("drag", "d", nil, "drag a marker by pixels, `<Index:DX,DY>`, repeatable")
	pf.Float64Slice("pan", nil, "pan the map by `<DX,DY>` pixels after dragging")

	bindFlag(pf.Lookup("log-level"), "log.level")
	bindFlag(pf.Lookup("log-file"), "log.file")
	bindFlag(pf.Lookup("lng"), "map.center.lng")
	bindFlag(pf.Lookup("lat"), "map.center.lat")
	bindFlag(pf.Lookup("zoom"), "map.zoom")
	bindFlag(pf.Lookup("width"), "map.width")
	bindFlag(pf.Lookup("height"), "map.height")
	bindFlag(pf.Lookup("opacity"), "overlay.opacity")

	gcpsCmd := &cobra.Command{
		Use:   "gcps [flags] <image>",
		Short: "Print ground control points for the placed image",
		Args:  cobra.ExactArgs(1),
		RunE:  doGCPs,
	}
	addOutputFlags(gcpsCmd)

	previewCmd := &cobra.Command{
		Use:   "preview [flags] <image> <out.png>",
		Short: "Render the map viewport with the overlay and markers to a PNG",
		Args:  cobra.ExactArgs(2),
		RunE:  doPreview,
	}
	previewCmd.Flags().String("basemap", "", "viewport-sized `<Image>` drawn under the overlay")
	previewCmd.Flags().String("blend", "Normal", "overlay blend `<Mode>`: Normal, Multiply, Screen, Overlay, Difference")
	bindFlag(previewCmd.Flags().Lookup("basemap"), "map.basemap")
	bindFlag(previewCmd.Flags().Lookup("blend"), "overlay.blend")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("affine-overlay", version.String())
		},
	}

	rootCmd.AddCommand(
		gcpsCmd,
		previewCmd,
		newGUICmd(),
		versionCmd,
	)
	return rootCmd
}

// bindFlag makes the flag override the config key when set.
func bindFlag(f *pflag.Flag, key string) {
	cobra.CheckErr(viper.BindPFlag(key, f))
}

// addOutputFlags adds --format and --output. Several commands share the
// output keys, so they are bound when the command runs.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "gdal", "output `<Format>`: gdal, json, yaml, geojson, wkt, footprint")
	cmd.Flags().StringP("output", "o", "", "write to `<File>` instead of stdout")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		bindFlag(cmd.Flags().Lookup("format"), "output.format")
		bindFlag(cmd.Flags().Lookup("output"), "output.path")
	}
}

func doGCPs(cmd *cobra.Command, args []string) error {
	s, log, err := openSession(cmd, args[0])
	if err != nil {
		return err
	}
	defer s.Close()
	return writeGCPs(cmd, s, log)
}

// writeGCPs exports the session's control points in the configured format
// to the output path, or stdout when none is set.
func writeGCPs(cmd *cobra.Command, s *app.Session, log zerolog.Logger) error {
	cfg := s.Config()
	var w io.Writer = cmd.OutOrStdout()
	if cfg.Output.Path != "" {
		f, err := os.Create(cfg.Output.Path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", cfg.Output.Path, err)
		}
		defer f.Close()
		w = f
	}
	if err := s.Export(w, cfg.Output.Format); err != nil {
		return err
	}
	log.Debug().Str("format", cfg.Output.Format).Msg("exported gcps")
	return nil
}

func doPreview(cmd *cobra.Command, args []string) error {
	s, log, err := openSession(cmd, args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	out, err := s.Preview()
	if err != nil {
		return err
	}
	if err := image.SavePNG(args[1], out); err != nil {
		return err
	}
	log.Info().Str("path", args[1]).Msg("preview written")
	return nil
}

// openSession loads configuration, places the image and replays the drag and
// pan flags.
func openSession(cmd *cobra.Command, imagePath string) (*app.Session, zerolog.Logger, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	cfg.Overlay.Image = imagePath

	log := logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		NoColor: cfg.Log.NoColor,
	})

	s, err := app.NewSession(cfg, log)
	if err != nil {
		return nil, log, err
	}
	if err := s.LoadImage(imagePath); err != nil {
		return nil, log, err
	}

	drags, err := cmd.Flags().GetStringArray("drag")
	if err != nil {
		return nil, log, err
	}
	for _, arg := range drags {
		d, err := app.ParseDrag(arg)
		if err != nil {
			return nil, log, err
		}
		if err := s.ApplyDrag(d); err != nil {
			return nil, log, err
		}
	}

	pan, err := cmd.Flags().GetFloat64Slice("pan")
	if err != nil {
		return nil, log, err
	}
	if len(pan) == 2 {
		s.PanBy(pan[0], pan[1])
	} else if len(pan) != 0 {
		return nil, log, fmt.Errorf("--pan wants DX,DY, got %d values", len(pan))
	}
	return s, log, nil
}
