package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodlens/prodlens/internal/config"
)

func TestConfig_DefaultValues(t *testing.T) {
	cfg := config.NewConfig()

	assert.Equal(t, "snappy", cfg.Compression)
	assert.Equal(t, "tertile", cfg.SegmentPolicy)
	assert.InDelta(t, 4.0, cfg.SuccessRatingThreshold, 0.001)
	assert.InDelta(t, 0.70, cfg.SuccessReviewPercentile, 0.001)
	assert.Equal(t, 10, cfg.TopN)
	assert.True(t, cfg.TrainModels)
	assert.True(t, cfg.RunClustering)
	assert.Equal(t, 5, cfg.ClusterCount)
	assert.Equal(t, 5, cfg.CVFolds)
	assert.InDelta(t, 0.2, cfg.TestFraction, 0.001)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.False(t, cfg.VerboseLogging)
}

func validConfig() config.Config {
	cfg := config.NewConfig()
	cfg.InputPath = "data/catalog.csv"
	return cfg
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*config.Config)
		expectedError string
	}{
		{
			name:   "valid config",
			mutate: func(c *config.Config) {},
		},
		{
			name:          "missing input path",
			mutate:        func(c *config.Config) { c.InputPath = "" },
			expectedError: "InputPath must be set",
		},
		{
			name:          "unknown segment policy",
			mutate:        func(c *config.Config) { c.SegmentPolicy = "quartile" },
			expectedError: "SegmentPolicy must be tertile or fixed",
		},
		{
			name:          "unknown compression",
			mutate:        func(c *config.Config) { c.Compression = "brotli" },
			expectedError: "Compression must be",
		},
		{
			name:          "rating threshold out of range",
			mutate:        func(c *config.Config) { c.SuccessRatingThreshold = 5.5 },
			expectedError: "SuccessRatingThreshold must be between 1 and 5",
		},
		{
			name:          "review percentile out of range",
			mutate:        func(c *config.Config) { c.SuccessReviewPercentile = 1.0 },
			expectedError: "SuccessReviewPercentile must be between 0 and 1",
		},
		{
			name:          "non-positive top n",
			mutate:        func(c *config.Config) { c.TopN = 0 },
			expectedError: "TopN must be positive",
		},
		{
			name:          "non-positive cluster count",
			mutate:        func(c *config.Config) { c.ClusterCount = -1 },
			expectedError: "ClusterCount must be positive",
		},
		{
			name:          "too few folds",
			mutate:        func(c *config.Config) { c.CVFolds = 1 },
			expectedError: "CVFolds must be at least 2",
		},
		{
			name:          "test fraction out of range",
			mutate:        func(c *config.Config) { c.TestFraction = 1.0 },
			expectedError: "TestFraction must be between 0 and 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.expectedError == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			}
		})
	}
}

func TestConfig_CaseInsensitivePolicyAndCompression(t *testing.T) {
	cfg := validConfig()
	cfg.SegmentPolicy = "Fixed"
	cfg.Compression = "ZSTD"
	assert.NoError(t, cfg.Validate())
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := config.Config{InputPath: "in.csv"}.WithDefaults()

	assert.Equal(t, "snappy", cfg.Compression)
	assert.Equal(t, "tertile", cfg.SegmentPolicy)
	assert.InDelta(t, 4.0, cfg.SuccessRatingThreshold, 0.001)
	assert.Equal(t, 10, cfg.TopN)
	assert.Equal(t, 5, cfg.ClusterCount)
	assert.Equal(t, int64(42), cfg.Seed)
	// explicitly set values survive
	assert.Equal(t, "in.csv", cfg.InputPath)
}

func TestConfig_WithDefaultsPreservesNonZero(t *testing.T) {
	cfg := config.Config{
		InputPath:    "in.csv",
		Compression:  "zstd",
		ClusterCount: 8,
	}.WithDefaults()

	assert.Equal(t, "zstd", cfg.Compression)
	assert.Equal(t, 8, cfg.ClusterCount)
}

func TestLoadFromJSON(t *testing.T) {
	data := []byte(`{
		"input_path": "data/catalog.csv",
		"output_path": "out",
		"segment_policy": "fixed",
		"cluster_count": 7
	}`)

	cfg, err := config.LoadFromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, "data/catalog.csv", cfg.InputPath)
	assert.Equal(t, "out", cfg.OutputPath)
	assert.Equal(t, "fixed", cfg.SegmentPolicy)
	assert.Equal(t, 7, cfg.ClusterCount)
	// defaults filled in for omitted fields
	assert.Equal(t, "snappy", cfg.Compression)
	assert.Equal(t, 5, cfg.CVFolds)
}

func TestLoadFromJSON_Invalid(t *testing.T) {
	_, err := config.LoadFromJSON([]byte(`{not json`))
	assert.Error(t, err)
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `input_path: data/catalog.csv
output_path: out
segment_policy: fixed
top_n: 25
verbose_logging: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "data/catalog.csv", cfg.InputPath)
	assert.Equal(t, "fixed", cfg.SegmentPolicy)
	assert.Equal(t, 25, cfg.TopN)
	assert.True(t, cfg.VerboseLogging)
	assert.Equal(t, "snappy", cfg.Compression)
}

func TestLoadFromFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("input_path = 'x'\n"), 0o644))

	_, err := config.LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config file format")
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := config.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PRODLENS_INPUT_PATH", "env/catalog.csv")
	t.Setenv("PRODLENS_SEGMENT_POLICY", "fixed")
	t.Setenv("PRODLENS_CLUSTER_COUNT", "9")
	t.Setenv("PRODLENS_TEST_FRACTION", "0.3")
	t.Setenv("PRODLENS_TRAIN_MODELS", "false")
	t.Setenv("PRODLENS_VERBOSE_LOGGING", "true")

	cfg := config.LoadFromEnv()

	assert.Equal(t, "env/catalog.csv", cfg.InputPath)
	assert.Equal(t, "fixed", cfg.SegmentPolicy)
	assert.Equal(t, 9, cfg.ClusterCount)
	assert.InDelta(t, 0.3, cfg.TestFraction, 0.001)
	assert.False(t, cfg.TrainModels)
	assert.True(t, cfg.VerboseLogging)
}

func TestLoadFromEnv_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("PRODLENS_CLUSTER_COUNT", "lots")
	t.Setenv("PRODLENS_TEST_FRACTION", "a third")

	cfg := config.LoadFromEnv()
	assert.Equal(t, 5, cfg.ClusterCount)
	assert.InDelta(t, 0.2, cfg.TestFraction, 0.001)
}
