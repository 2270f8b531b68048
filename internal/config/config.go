// Package config loads the daemon configuration from YAML.
package config

import (
	"fmt"

	"contour-tracer/internal/contour"
	"contour-tracer/internal/pipeline"
	"contour-tracer/pkg/colorutil"
	"contour-tracer/pkg/geometry"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Contour  ContourConfig  `mapstructure:"contour"`
	Overlay  OverlayConfig  `mapstructure:"overlay"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Server   ServerConfig   `mapstructure:"server"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"` // debug or release
}

type ContourConfig struct {
	Isovalue            int    `mapstructure:"isovalue"`
	StepSize            int    `mapstructure:"step_size"`
	BinaryInterpolation bool   `mapstructure:"binary_interpolation"`
	Hull                string `mapstructure:"hull"` // graham, jarvis or none
}

type OverlayConfig struct {
	ContourColor string `mapstructure:"contour_color"` // rrggbb
	HullColor    string `mapstructure:"hull_color"`
	Thickness    int    `mapstructure:"thickness"`
}

type PipelineConfig struct {
	Publish   string `mapstructure:"publish"` // batch or command
	LegacyBMP bool   `mapstructure:"legacy_bmp"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configPath, filling unset keys with defaults. An empty path
// returns the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.mode", "debug")

	v.SetDefault("contour.isovalue", contour.DefaultIsovalue)
	v.SetDefault("contour.step_size", contour.DefaultStep)
	v.SetDefault("contour.binary_interpolation", true)
	v.SetDefault("contour.hull", "graham")

	v.SetDefault("overlay.contour_color", "ff0000")
	v.SetDefault("overlay.hull_color", "00ff00")
	v.SetDefault("overlay.thickness", 1)

	v.SetDefault("pipeline.publish", "batch")
	v.SetDefault("pipeline.legacy_bmp", false)

	v.SetDefault("server.addr", ":8080")
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Log.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("log.mode: unknown mode %q", c.Log.Mode)
	}
	if _, err := c.ContourParams(); err != nil {
		return fmt.Errorf("contour: %w", err)
	}
	if _, err := c.OverlayStyle(); err != nil {
		return fmt.Errorf("overlay: %w", err)
	}
	if _, err := pipeline.ParsePublishMode(c.Pipeline.Publish); err != nil {
		return fmt.Errorf("pipeline.publish: %w", err)
	}
	return nil
}

// ContourParams converts the contour section to tracing parameters.
func (c *Config) ContourParams() (contour.Params, error) {
	hull, err := geometry.ParseHullAlgorithm(c.Contour.Hull)
	if err != nil {
		return contour.Params{}, err
	}
	p := contour.Params{
		Isovalue:            c.Contour.Isovalue,
		Step:                c.Contour.StepSize,
		BinaryInterpolation: c.Contour.BinaryInterpolation,
		Hull:                hull,
	}
	return p, p.Validate()
}

// OverlayStyle converts the overlay section to a drawing style.
func (c *Config) OverlayStyle() (contour.Style, error) {
	line, err := colorutil.ParseHex(c.Overlay.ContourColor)
	if err != nil {
		return contour.Style{}, err
	}
	hull, err := colorutil.ParseHex(c.Overlay.HullColor)
	if err != nil {
		return contour.Style{}, err
	}
	if c.Overlay.Thickness < 1 {
		return contour.Style{}, fmt.Errorf("thickness %d must be at least 1", c.Overlay.Thickness)
	}
	return contour.Style{Contour: line, Hull: hull, Thickness: c.Overlay.Thickness}, nil
}

// PipelineOptions assembles the processor options of a validated config.
func (c *Config) PipelineOptions(log *zap.Logger) (pipeline.Options, error) {
	params, err := c.ContourParams()
	if err != nil {
		return pipeline.Options{}, err
	}
	style, err := c.OverlayStyle()
	if err != nil {
		return pipeline.Options{}, err
	}
	mode, err := pipeline.ParsePublishMode(c.Pipeline.Publish)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Params:    params,
		Style:     style,
		Publish:   mode,
		LegacyBMP: c.Pipeline.LegacyBMP,
		Logger:    log,
	}, nil
}
