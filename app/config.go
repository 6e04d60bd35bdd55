package app

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FrameErrorPolicy decides what LoopRunner does with a failed frame.
type FrameErrorPolicy string

const (
	// Halt stops the App and returns the frame error.
	Halt FrameErrorPolicy = "halt"
	// Drop logs the error and continues with the next frame.
	Drop FrameErrorPolicy = "drop"
)

// ErrUnknownConfigFormat is returned by LoadConfig for file extensions other
// than .toml, .yaml and .yml.
var ErrUnknownConfigFormat = errors.New("app: unknown config format")

// Config holds the runtime settings of an App and its plugins.
type Config struct {
	// Workers bounds parallel passes; zero or less means one per CPU.
	Workers int `toml:"workers" yaml:"workers"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level" yaml:"log_level"`
	// LogFormat is text or json.
	LogFormat string `toml:"log_format" yaml:"log_format"`
	// MaxFrames stops LoopRunner after this many frames; zero runs forever.
	MaxFrames uint64 `toml:"max_frames" yaml:"max_frames"`
	// FrameRate paces LoopRunner in frames per second; zero is unpaced.
	FrameRate float64 `toml:"frame_rate" yaml:"frame_rate"`
	// OnFrameError is halt or drop.
	OnFrameError FrameErrorPolicy `toml:"on_frame_error" yaml:"on_frame_error"`
	// MetricsAddr, when set, is the listen address of the /metrics endpoint.
	MetricsAddr string `toml:"metrics_addr" yaml:"metrics_addr"`
	// InitialCapacity is the entity capacity the world starts with.
	InitialCapacity int `toml:"initial_capacity" yaml:"initial_capacity"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		Workers:         0,
		LogLevel:        "info",
		LogFormat:       "text",
		OnFrameError:    Halt,
		InitialCapacity: 1024,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("app: log_format %q: want text or json", c.LogFormat)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.OnFrameError {
	case Halt, Drop:
	default:
		return fmt.Errorf("app: on_frame_error %q: want halt or drop", c.OnFrameError)
	}
	if c.FrameRate < 0 {
		return fmt.Errorf("app: frame_rate %v is negative", c.FrameRate)
	}
	if c.InitialCapacity < 0 {
		return fmt.Errorf("app: initial_capacity %d is negative", c.InitialCapacity)
	}
	return nil
}

// LoadConfig reads a TOML or YAML file, chosen by extension, on top of
// DefaultConfig and validates the result. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("app: read config: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
	default:
		return cfg, fmt.Errorf("%w: %q", ErrUnknownConfigFormat, ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("app: parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}
