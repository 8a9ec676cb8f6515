// Package gcp holds ground control points and their export formats.
//
// A GCP pairs a pixel/line position in the source image with a world
// position given as (longitude, latitude).
package gcp

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"affine-overlay/pkg/geometry"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"
)

// GCP is one image-to-world correspondence.
type GCP struct {
	Pixel geometry.Point2D
	World orb.Point
}

// wire is the serialized form shared by JSON and YAML.
type wire struct {
	ImageLocation [2]float64 `json:"image_location" yaml:"image_location,flow"`
	WorldLocation [2]float64 `json:"world_location" yaml:"world_location,flow"`
}

func (g GCP) toWire() wire {
	return wire{
		ImageLocation: [2]float64{g.Pixel.X, g.Pixel.Y},
		WorldLocation: [2]float64{g.World.Lon(), g.World.Lat()},
	}
}

func (w wire) toGCP() GCP {
	return GCP{
		Pixel: geometry.NewPoint2D(w.ImageLocation[0], w.ImageLocation[1]),
		World: orb.Point(w.WorldLocation),
	}
}

// MarshalJSON encodes the GCP as {"image_location":[x,y],"world_location":[lng,lat]}.
func (g GCP) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.toWire())
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (g *GCP) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*g = w.toGCP()
	return nil
}

// MarshalYAML encodes the GCP with the same keys as JSON.
func (g GCP) MarshalYAML() (interface{}, error) {
	return g.toWire(), nil
}

// UnmarshalYAML decodes the form written by MarshalYAML.
func (g *GCP) UnmarshalYAML(node *yaml.Node) error {
	var w wire
	if err := node.Decode(&w); err != nil {
		return err
	}
	*g = w.toGCP()
	return nil
}

// WriteJSON writes gcps as an indented JSON array.
func WriteJSON(w io.Writer, gcps []GCP) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(gcps); err != nil {
		return fmt.Errorf("failed to encode gcps: %w", err)
	}
	return nil
}

// ReadJSON reads a JSON array written by WriteJSON.
func ReadJSON(r io.Reader) ([]GCP, error) {
	var gcps []GCP
	if err := json.NewDecoder(r).Decode(&gcps); err != nil {
		return nil, fmt.Errorf("failed to decode gcps: %w", err)
	}
	return gcps, nil
}

// WriteYAML writes gcps as a YAML sequence.
func WriteYAML(w io.Writer, gcps []GCP) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(gcps); err != nil {
		return fmt.Errorf("failed to encode gcps: %w", err)
	}
	return enc.Close()
}

// ReadYAML reads a YAML sequence written by WriteYAML.
func ReadYAML(r io.Reader) ([]GCP, error) {
	var gcps []GCP
	if err := yaml.NewDecoder(r).Decode(&gcps); err != nil {
		return nil, fmt.Errorf("failed to decode gcps: %w", err)
	}
	return gcps, nil
}

// TranslateArgs returns gdal_translate arguments, one
// "-gcp pixel line easting northing" group per point.
func TranslateArgs(gcps []GCP) []string {
	args := make([]string, 0, len(gcps)*5)
	for _, g := range gcps {
		args = append(args, "-gcp",
			formatFloat(g.Pixel.X), formatFloat(g.Pixel.Y),
			formatFloat(g.World.Lon()), formatFloat(g.World.Lat()))
	}
	return args
}

// TranslateCommand returns a full gdal_translate command line that attaches
// gcps to src in EPSG:4326 and writes a GeoTIFF to dst.
func TranslateCommand(src, dst string, gcps []GCP) string {
	parts := []string{"gdal_translate", "-of", "GTiff", "-a_srs", "EPSG:4326"}
	parts = append(parts, TranslateArgs(gcps)...)
	parts = append(parts, quote(src), quote(dst))
	return strings.Join(parts, " ")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t'\"$\\") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return s
}
