// Package config handles mdltool configuration loading and management.
package config

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mdl/pkg/mdl"
)

// Config holds all tool settings.
type Config struct {
	MDL      MDLConfig      `yaml:"mdl" toml:"mdl"`
	Walkmesh WalkmeshConfig `yaml:"walkmesh" toml:"walkmesh"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// MDLConfig holds parser and serializer settings.
type MDLConfig struct {
	FPS              int  `yaml:"fps" toml:"fps"`
	Triangulate      bool `yaml:"triangulate" toml:"triangulate"`
	ExportAnimations bool `yaml:"export_animations" toml:"export_animations"`
}

// WalkmeshConfig holds walkmesh export settings.
type WalkmeshConfig struct {
	Export bool   `yaml:"export" toml:"export"` // write the companion walkmesh when formatting a model
	Dir    string `yaml:"dir" toml:"dir"`       // output directory, empty for next to the model
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		MDL: MDLConfig{
			FPS:              mdl.DefaultFPS,
			Triangulate:      true,
			ExportAnimations: true,
		},
		Walkmesh: WalkmeshConfig{
			Export: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Options builds the parser and serializer options. log may be nil.
func (c *Config) Options(log *zap.Logger) *mdl.Options {
	if log == nil {
		log = zap.NewNop()
	}
	return &mdl.Options{
		FPS:              c.MDL.FPS,
		Triangulate:      c.MDL.Triangulate,
		ExportAnimations: c.MDL.ExportAnimations,
		Logger:           log,
	}
}
