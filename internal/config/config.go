// Package config loads settings from an optional file, the environment and
// command-line flags bound onto viper keys.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. AFFINE_OVERLAY_MAP_ZOOM.
const EnvPrefix = "AFFINE_OVERLAY"

// Output formats understood by the gcps command.
var Formats = []string{"gdal", "json", "yaml", "geojson", "wkt", "footprint"}

var ErrInvalid = errors.New("invalid configuration")

// Config is the full application configuration.
type Config struct {
	Map     MapConfig     `mapstructure:"map"`
	Overlay OverlayConfig `mapstructure:"overlay"`
	Log     LogConfig     `mapstructure:"log"`
	Output  OutputConfig  `mapstructure:"output"`
}

// MapConfig describes the initial map view.
type MapConfig struct {
	Center  CenterConfig `mapstructure:"center"`
	Zoom    float64      `mapstructure:"zoom"`
	Width   int          `mapstructure:"width"`
	Height  int          `mapstructure:"height"`
	Basemap string       `mapstructure:"basemap"` // Optional viewport-sized image drawn under the overlay in previews
}

// CenterConfig is a longitude/latitude pair.
type CenterConfig struct {
	Lng float64 `mapstructure:"lng"`
	Lat float64 `mapstructure:"lat"`
}

// OverlayConfig configures the image overlay.
type OverlayConfig struct {
	Image     string  `mapstructure:"image"`
	Opacity   float64 `mapstructure:"opacity"`
	Surface   string  `mapstructure:"surface"`
	IconColor string  `mapstructure:"icon_color"`
	Blend     string  `mapstructure:"blend"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
	NoColor bool   `mapstructure:"no_color"`
}

// OutputConfig selects what and where the gcps command writes.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"`
}

// SetDefaults registers default values on the global viper instance.
func SetDefaults() {
	viper.SetDefault("map.center.lng", 0.0)
	viper.SetDefault("map.center.lat", 0.0)
	viper.SetDefault("map.zoom", 2.0)
	viper.SetDefault("map.width", 800)
	viper.SetDefault("map.height", 600)
	viper.SetDefault("map.basemap", "")

	viper.SetDefault("overlay.image", "")
	viper.SetDefault("overlay.opacity", 0.5)
	viper.SetDefault("overlay.surface", "affine-overlay")
	viper.SetDefault("overlay.icon_color", "#2a81cb")
	viper.SetDefault("overlay.blend", "Normal")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", "")
	viper.SetDefault("log.no_color", false)

	viper.SetDefault("output.format", "gdal")
	viper.SetDefault("output.path", "")
}

// Load reads configuration. path may be empty, in which case only defaults,
// environment and bound flags apply.
func Load(path string) (*Config, error) {
	SetDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Map.Width <= 0 || c.Map.Height <= 0 {
		return fmt.Errorf("%w: map size %dx%d", ErrInvalid, c.Map.Width, c.Map.Height)
	}
	if c.Overlay.Opacity < 0 || c.Overlay.Opacity > 1 {
		return fmt.Errorf("%w: overlay opacity %v outside [0,1]", ErrInvalid, c.Overlay.Opacity)
	}
	if c.Overlay.Surface == "" {
		return fmt.Errorf("%w: empty overlay surface id", ErrInvalid)
	}
	if !IsFormat(c.Output.Format) {
		return fmt.Errorf("%w: unknown output format %q (want one of %s)",
			ErrInvalid, c.Output.Format, strings.Join(Formats, ", "))
	}
	return nil
}

// IsFormat reports whether f is a known output format.
func IsFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}
