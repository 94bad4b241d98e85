// Package config provides configuration loading for the exploration
// pipeline. It handles loading configuration from YAML files and
// provides notebook-faithful default values.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/patchscope/pkg/errors"
)

// Config represents the pipeline configuration loaded from YAML.
type Config struct {
	// Data holds input stack paths and sampling parameters.
	Data struct {
		// ImagePath is the multi-page TIFF stack of grayscale images.
		ImagePath string `yaml:"imagePath"`

		// MaskPath is the multi-page TIFF stack of label masks.
		MaskPath string `yaml:"maskPath"`

		// NumClasses bounds valid mask values to [0, numClasses).
		NumClasses int `yaml:"numClasses"`

		// BatchSize is the number of slices sampled per run.
		BatchSize int `yaml:"batchSize"`

		// Seed drives batch sampling; negative means time-based.
		Seed int64 `yaml:"seed"`
	} `yaml:"data"`

	// Model holds the feature extractor paths.
	Model struct {
		// ModelPath is the ONNX export of the frozen transformer.
		ModelPath string `yaml:"modelPath"`

		// MetadataPath is the JSON metadata written at export time.
		MetadataPath string `yaml:"metadataPath"`
	} `yaml:"model"`

	// PCA parameters for the RGB projection.
	PCA struct {
		Components int  `yaml:"components"`
		Whiten     bool `yaml:"whiten"`
	} `yaml:"pca"`

	// UMAP parameters for the 2D embedding.
	UMAP struct {
		Neighbors   int     `yaml:"neighbors"`
		MinDist     float64 `yaml:"minDist"`
		Components  int     `yaml:"components"`
		Epochs      int     `yaml:"epochs"`
		Init        string  `yaml:"init"`
		Seed        int64   `yaml:"seed"`
		Standardize bool    `yaml:"standardize"`
	} `yaml:"umap"`

	// KMeans parameters for patch clustering.
	KMeans struct {
		Clusters int     `yaml:"clusters"`
		MaxIter  int     `yaml:"maxIter"`
		Tol      float64 `yaml:"tol"`
		NInit    int     `yaml:"nInit"`
		Seed     int64   `yaml:"seed"`
	} `yaml:"kmeans"`

	// Output parameters.
	Output struct {
		// Dir receives the panels, scatter plots and report.
		Dir string `yaml:"dir"`

		// UpscaleFactor grows grid images for inspection.
		UpscaleFactor int `yaml:"upscaleFactor"`

		// Verbose lowers the log level to debug.
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Data.ImagePath = "data/images.tif"
	cfg.Data.MaskPath = "data/masks.tif"
	cfg.Data.NumClasses = 7
	cfg.Data.BatchSize = 12
	cfg.Data.Seed = 42

	cfg.Model.ModelPath = "models/dinov2_small_patch.onnx"
	cfg.Model.MetadataPath = "models/dinov2_small_patch.json"

	cfg.PCA.Components = 3
	cfg.PCA.Whiten = true

	cfg.UMAP.Neighbors = 15
	cfg.UMAP.MinDist = 0.1
	cfg.UMAP.Components = 2
	cfg.UMAP.Epochs = 200
	cfg.UMAP.Init = "pca"
	cfg.UMAP.Seed = 42
	cfg.UMAP.Standardize = false

	cfg.KMeans.Clusters = 7
	cfg.KMeans.MaxIter = 300
	cfg.KMeans.Tol = 1e-4
	cfg.KMeans.NInit = 10
	cfg.KMeans.Seed = 42

	cfg.Output.Dir = "out"
	cfg.Output.UpscaleFactor = 8
	cfg.Output.Verbose = false

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "patchscope: config: read file")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "patchscope: config: parse YAML")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return errors.Wrap(err, "patchscope: config: create directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "patchscope: config: marshal YAML")
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.Wrap(err, "patchscope: config: write file")
	}
	return nil
}

// Validate checks the configuration invariants that do not depend on the
// input files.
func (c *Config) Validate() error {
	if c.Data.NumClasses <= 0 {
		return errors.NewValidationError("data.numClasses", "must be positive", c.Data.NumClasses)
	}
	if c.Data.BatchSize <= 0 {
		return errors.NewValidationError("data.batchSize", "must be positive", c.Data.BatchSize)
	}
	if c.PCA.Components <= 0 {
		return errors.NewValidationError("pca.components", "must be positive", c.PCA.Components)
	}
	if c.UMAP.Neighbors < 2 {
		return errors.NewValidationError("umap.neighbors", "must be at least 2", c.UMAP.Neighbors)
	}
	if c.UMAP.Components <= 0 {
		return errors.NewValidationError("umap.components", "must be positive", c.UMAP.Components)
	}
	if c.KMeans.Clusters <= 0 {
		return errors.NewValidationError("kmeans.clusters", "must be positive", c.KMeans.Clusters)
	}
	if c.Output.UpscaleFactor <= 0 {
		return errors.NewValidationError("output.upscaleFactor", "must be positive", c.Output.UpscaleFactor)
	}
	return nil
}
