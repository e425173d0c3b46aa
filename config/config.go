// Package config loads the YAML configuration of the kand CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Noofbiz/kand/concepts"
	"github.com/Noofbiz/kand/datasets"
)

// DatasetConfig selects and tunes the dataset to load.
type DatasetConfig struct {
	Variant    string `yaml:"variant"`
	BasePath   string `yaml:"base_path"`
	Split      string `yaml:"split"`
	Finetuning int    `yaml:"finetuning"`
	Workers    int    `yaml:"workers,omitempty"`
	FeatureDim int    `yaml:"feature_dim,omitempty"`
	CachePath  string `yaml:"cache_path,omitempty"`
}

// MaskConfig holds the policy applied by the mask and report commands.
type MaskConfig struct {
	Policy      string `yaml:"policy,omitempty"`
	Object      int    `yaml:"object,omitempty"`
	Samples     []int  `yaml:"samples,omitempty"`
	Figures     []int  `yaml:"figures,omitempty"`
	Objects     []int  `yaml:"objects,omitempty"`
	RetainLimit int    `yaml:"retain_limit,omitempty"`
}

// ReportConfig holds report output settings.
type ReportConfig struct {
	OutDir string `yaml:"out_dir"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level   string `yaml:"level"`
	NoColor bool   `yaml:"no_color,omitempty"`
}

// Config holds kand configuration.
type Config struct {
	Version string        `yaml:"version"`
	Dataset DatasetConfig `yaml:"dataset"`
	Mask    MaskConfig    `yaml:"mask,omitempty"`
	Report  ReportConfig  `yaml:"report,omitempty"`
	Log     LogConfig     `yaml:"log,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Version: "1",
		Dataset: DatasetConfig{
			Variant:  string(datasets.VariantKAND),
			BasePath: "data/kandinsky",
			Split:    "train",
		},
		Mask: MaskConfig{
			RetainLimit: concepts.DefaultRetainLimit,
		},
		Report: ReportConfig{
			OutDir: "output",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path over the defaults. A missing file
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", filepath.Base(path), err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks the fields that cannot be repaired by defaults.
func (c Config) Validate() error {
	if _, err := datasets.ParseVariant(c.Dataset.Variant); err != nil {
		return fmt.Errorf("dataset.variant: %w", err)
	}
	if c.Dataset.Split == "" {
		return fmt.Errorf("dataset.split must not be empty")
	}
	if c.Dataset.Finetuning < 0 {
		return fmt.Errorf("dataset.finetuning must not be negative")
	}
	if c.Mask.RetainLimit < 0 {
		return fmt.Errorf("mask.retain_limit must not be negative")
	}
	return nil
}

// Options converts the dataset section into loader options.
func (c Config) Options() datasets.Options {
	return datasets.Options{
		Finetuning: c.Dataset.Finetuning,
		Workers:    c.Dataset.Workers,
		FeatureDim: c.Dataset.FeatureDim,
		CachePath:  c.Dataset.CachePath,
	}
}

// Policy converts the mask section into policy parameters. Name, Start and
// Scope are filled in by the dataset convention.
func (c Config) Policy() concepts.Policy {
	return concepts.Policy{
		Object:      c.Mask.Object,
		Samples:     c.Mask.Samples,
		FigureIdx:   c.Mask.Figures,
		ObjectIdx:   c.Mask.Objects,
		RetainLimit: c.Mask.RetainLimit,
	}
}
