// Package config defines the pipeline configuration. Thresholds, chunking
// and directory conventions are loaded once and passed by value into each
// stage; no stage reads ambient global state.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the full pipeline configuration
type Config struct {
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Load       LoadConfig       `yaml:"load"`
	Export     ExportConfig     `yaml:"export"`
	Plots      PlotsConfig      `yaml:"plots"`
}

// ThresholdsConfig holds the classifier acceptance cuts
type ThresholdsConfig struct {
	RMax float64 `yaml:"r_max"` // maximum residual statistic
	VMax float64 `yaml:"v_max"` // maximum Vgfb
}

// LoadConfig controls the fit-record loader
type LoadConfig struct {
	DropUVBands bool `yaml:"drop_uv_bands"` // no-UV MS variant: drop GALEX bands at load
	Workers     int  `yaml:"workers"`       // parallel file parsers, 0 = GOMAXPROCS
}

// ExportConfig controls the chunked VOSA ASCII output
type ExportConfig struct {
	ChunkSize int    `yaml:"chunk_size"` // objects per output file
	Subset    string `yaml:"subset"`     // good, bad, or all
}

// PlotsConfig controls the SED figure sink
type PlotsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// VOSA rejects uploads above 1000 objects per file
const maxChunkSize = 1000

// Default returns the configuration used when no file is given.
// V_max 15 matches the upstream fit-acceptance rule (Vgfb < 15).
func Default() Config {
	return Config{
		Thresholds: ThresholdsConfig{RMax: 1.0, VMax: 15.0},
		Load:       LoadConfig{DropUVBands: false, Workers: 0},
		Export:     ExportConfig{ChunkSize: maxChunkSize, Subset: "good"},
		Plots:      PlotsConfig{Enabled: true},
	}
}

// Load reads a YAML config file over the defaults
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges
func (c Config) Validate() error {
	if c.Thresholds.RMax <= 0 {
		return fmt.Errorf("thresholds.r_max must be positive, got %g", c.Thresholds.RMax)
	}
	if c.Thresholds.VMax <= 0 {
		return fmt.Errorf("thresholds.v_max must be positive, got %g", c.Thresholds.VMax)
	}
	if c.Export.ChunkSize <= 0 {
		return fmt.Errorf("export.chunk_size must be positive, got %d", c.Export.ChunkSize)
	}
	if c.Export.ChunkSize > maxChunkSize {
		return fmt.Errorf("export.chunk_size %d exceeds the VOSA limit of %d objects per file",
			c.Export.ChunkSize, maxChunkSize)
	}
	switch c.Export.Subset {
	case "good", "bad", "all":
	default:
		return fmt.Errorf("export.subset must be good, bad, or all, got %q", c.Export.Subset)
	}
	if c.Load.Workers < 0 {
		return fmt.Errorf("load.workers must be >= 0, got %d", c.Load.Workers)
	}
	return nil
}

// EffectiveWorkers resolves the loader worker count
func (c Config) EffectiveWorkers() int {
	if c.Load.Workers > 0 {
		return c.Load.Workers
	}
	return runtime.GOMAXPROCS(0)
}
