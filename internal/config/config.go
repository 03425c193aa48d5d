// Package config provides configuration management for ProdLens pipeline runs
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the configuration for a pipeline run
type Config struct {
	// Input / Output Configuration
	InputPath   string `json:"input_path" yaml:"input_path"`   // CSV file, directory or glob of raw catalog exports
	OutputPath  string `json:"output_path" yaml:"output_path"` // Directory for Parquet outputs
	Compression string `json:"compression" yaml:"compression"` // Parquet compression codec (snappy, gzip, lz4, zstd, uncompressed)

	// Feature Derivation Configuration
	SegmentPolicy           string  `json:"segment_policy" yaml:"segment_policy"`                       // Price segment policy: tertile or fixed
	SuccessRatingThreshold  float64 `json:"success_rating_threshold" yaml:"success_rating_threshold"`   // Minimum rating for the success label
	SuccessReviewPercentile float64 `json:"success_review_percentile" yaml:"success_review_percentile"` // Review-count percentile for the success label (0-1)

	// Reporting Configuration
	TopN int `json:"top_n" yaml:"top_n"` // Rows per report section

	// Model Configuration
	TrainModels   bool    `json:"train_models" yaml:"train_models"`     // Train regression and classification models
	RunClustering bool    `json:"run_clustering" yaml:"run_clustering"` // Run product clustering
	ClusterCount  int     `json:"cluster_count" yaml:"cluster_count"`   // Number of k-means clusters
	CVFolds       int     `json:"cv_folds" yaml:"cv_folds"`             // Cross-validation folds
	TestFraction  float64 `json:"test_fraction" yaml:"test_fraction"`   // Held-out fraction for evaluation
	Seed          int64   `json:"seed" yaml:"seed"`                     // Seed for splits and clustering

	// Debugging Configuration
	VerboseLogging bool `json:"verbose_logging" yaml:"verbose_logging"` // Enable debug-level logging
}

// Default configuration values
const (
	DefaultCompression             = "snappy"
	DefaultSegmentPolicy           = "tertile"
	DefaultSuccessRatingThreshold  = 4.0
	DefaultSuccessReviewPercentile = 0.70
	DefaultTopN                    = 10
	DefaultClusterCount            = 5
	DefaultCVFolds                 = 5
	DefaultTestFraction            = 0.2
	DefaultSeed                    = 42
)

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		Compression:             DefaultCompression,
		SegmentPolicy:           DefaultSegmentPolicy,
		SuccessRatingThreshold:  DefaultSuccessRatingThreshold,
		SuccessReviewPercentile: DefaultSuccessReviewPercentile,
		TopN:                    DefaultTopN,
		TrainModels:             true,
		RunClustering:           true,
		ClusterCount:            DefaultClusterCount,
		CVFolds:                 DefaultCVFolds,
		TestFraction:            DefaultTestFraction,
		Seed:                    DefaultSeed,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("InputPath must be set")
	}

	switch strings.ToLower(c.SegmentPolicy) {
	case "tertile", "fixed":
	default:
		return fmt.Errorf("SegmentPolicy must be tertile or fixed, got %q", c.SegmentPolicy)
	}

	switch strings.ToLower(c.Compression) {
	case "snappy", "gzip", "lz4", "zstd", "uncompressed":
	default:
		return fmt.Errorf("Compression must be snappy, gzip, lz4, zstd or uncompressed, got %q", c.Compression)
	}

	if c.SuccessRatingThreshold < 1 || c.SuccessRatingThreshold > 5 {
		return fmt.Errorf("SuccessRatingThreshold must be between 1 and 5, got %f", c.SuccessRatingThreshold)
	}

	if c.SuccessReviewPercentile <= 0 || c.SuccessReviewPercentile >= 1 {
		return fmt.Errorf("SuccessReviewPercentile must be between 0 and 1 exclusive, got %f", c.SuccessReviewPercentile)
	}

	if c.TopN <= 0 {
		return fmt.Errorf("TopN must be positive, got %d", c.TopN)
	}

	if c.ClusterCount <= 0 {
		return fmt.Errorf("ClusterCount must be positive, got %d", c.ClusterCount)
	}

	if c.CVFolds < 2 {
		return fmt.Errorf("CVFolds must be at least 2, got %d", c.CVFolds)
	}

	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return fmt.Errorf("TestFraction must be between 0 and 1 exclusive, got %f", c.TestFraction)
	}

	return nil
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.Compression == "" {
		c.Compression = defaults.Compression
	}
	if c.SegmentPolicy == "" {
		c.SegmentPolicy = defaults.SegmentPolicy
	}
	if c.SuccessRatingThreshold == 0 {
		c.SuccessRatingThreshold = defaults.SuccessRatingThreshold
	}
	if c.SuccessReviewPercentile == 0 {
		c.SuccessReviewPercentile = defaults.SuccessReviewPercentile
	}
	if c.TopN == 0 {
		c.TopN = defaults.TopN
	}
	if c.ClusterCount == 0 {
		c.ClusterCount = defaults.ClusterCount
	}
	if c.CVFolds == 0 {
		c.CVFolds = defaults.CVFolds
	}
	if c.TestFraction == 0 {
		c.TestFraction = defaults.TestFraction
	}
	if c.Seed == 0 {
		c.Seed = defaults.Seed
	}

	// Note: Boolean fields are intentionally not set to defaults here
	// This allows distinguishing between explicitly set false and unset values
	// Use NewConfig() directly if you need boolean defaults

	return c
}

// LoadFromJSON loads configuration from JSON data
func LoadFromJSON(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a file (supports JSON and YAML)
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config.WithDefaults(), nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() Config {
	config := NewConfig()

	if val := os.Getenv("PRODLENS_INPUT_PATH"); val != "" {
		config.InputPath = val
	}

	if val := os.Getenv("PRODLENS_OUTPUT_PATH"); val != "" {
		config.OutputPath = val
	}

	if val := os.Getenv("PRODLENS_COMPRESSION"); val != "" {
		config.Compression = val
	}

	if val := os.Getenv("PRODLENS_SEGMENT_POLICY"); val != "" {
		config.SegmentPolicy = val
	}

	if val := os.Getenv("PRODLENS_SUCCESS_RATING_THRESHOLD"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.SuccessRatingThreshold = parsed
		}
	}

	if val := os.Getenv("PRODLENS_SUCCESS_REVIEW_PERCENTILE"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.SuccessReviewPercentile = parsed
		}
	}

	if val := os.Getenv("PRODLENS_TOP_N"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.TopN = parsed
		}
	}

	if val := os.Getenv("PRODLENS_TRAIN_MODELS"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.TrainModels = parsed
		}
	}

	if val := os.Getenv("PRODLENS_RUN_CLUSTERING"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.RunClustering = parsed
		}
	}

	if val := os.Getenv("PRODLENS_CLUSTER_COUNT"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.ClusterCount = parsed
		}
	}

	if val := os.Getenv("PRODLENS_CV_FOLDS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.CVFolds = parsed
		}
	}

	if val := os.Getenv("PRODLENS_TEST_FRACTION"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.TestFraction = parsed
		}
	}

	if val := os.Getenv("PRODLENS_SEED"); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.Seed = parsed
		}
	}

	if val := os.Getenv("PRODLENS_VERBOSE_LOGGING"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.VerboseLogging = parsed
		}
	}

	return config
}
