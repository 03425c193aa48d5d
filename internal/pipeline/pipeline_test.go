package pipeline_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodlens/prodlens/internal/config"
	"github.com/prodlens/prodlens/internal/errors"
	pio "github.com/prodlens/prodlens/internal/io"
	"github.com/prodlens/prodlens/internal/pipeline"
	"github.com/prodlens/prodlens/internal/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	records := testutil.CreateRawRecords(testutil.WithProductCount(150))
	input := testutil.WriteCatalogCSV(t, dir, records)

	cfg := config.NewConfig()
	cfg.InputPath = input
	cfg.OutputPath = filepath.Join(dir, "out")
	return cfg
}

func TestNewSessionValidatesConfig(t *testing.T) {
	_, err := pipeline.NewSession(config.Config{}, testLogger())
	assert.Error(t, err)
}

func TestNewSessionAppliesDefaults(t *testing.T) {
	cfg := config.Config{InputPath: "in.csv"}
	session, err := pipeline.NewSession(cfg, testLogger())
	require.NoError(t, err)

	effective := session.Config()
	assert.Equal(t, "snappy", effective.Compression)
	assert.Equal(t, 5, effective.ClusterCount)
}

func TestRunFullPipeline(t *testing.T) {
	cfg := testConfig(t)

	session, err := pipeline.NewSession(cfg, testLogger())
	require.NoError(t, err)

	result, err := session.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 150, result.RawRows)
	assert.Equal(t, 150, result.CleanStats.Kept)
	assert.Len(t, result.Products, 150)
	assert.Positive(t, result.SuccessReviewThreshold)

	require.NotNil(t, result.Reports)
	assert.NotEmpty(t, result.Reports.Categories)
	assert.NotEmpty(t, result.Reports.Elasticity)

	require.NotNil(t, result.Regression)
	assert.Positive(t, result.Regression.TrainRows)

	require.NotNil(t, result.Clusters)
	assert.Len(t, result.Clusters.Assignments, 150)

	// derived fields populated
	for _, p := range result.Products {
		assert.NotEmpty(t, p.PriceSegment)
		assert.NotEmpty(t, p.RatingCategory)
		assert.Positive(t, p.QualityScore)
	}
}

func TestRunPersistsParquetOutputs(t *testing.T) {
	cfg := testConfig(t)

	session, err := pipeline.NewSession(cfg, testLogger())
	require.NoError(t, err)

	result, err := session.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, filepath.Join(cfg.OutputPath, pipeline.ProcessedFileName), result.ProcessedPath)
	require.Equal(t, filepath.Join(cfg.OutputPath, pipeline.ClustersFileName), result.ClustersPath)

	restored, err := pio.ReadProductsFile(context.Background(), result.ProcessedPath)
	require.NoError(t, err)
	assert.Len(t, restored, len(result.Products))

	info, err := os.Stat(result.ClustersPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRunSkipsDisabledStages(t *testing.T) {
	cfg := testConfig(t)
	cfg.TrainModels = false
	cfg.RunClustering = false
	cfg.OutputPath = ""

	session, err := pipeline.NewSession(cfg, testLogger())
	require.NoError(t, err)

	result, err := session.Run(context.Background())
	require.NoError(t, err)

	assert.Nil(t, result.Regression)
	assert.Nil(t, result.Classification)
	assert.Nil(t, result.Clusters)
	assert.Empty(t, result.ProcessedPath)
	assert.Empty(t, result.ClustersPath)
}

func TestRunEmptyWorkingSetFails(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "catalog.csv")
	// header plus rows that cannot survive cleaning
	content := "name,main_category,ratings,no_of_ratings,discount_price,actual_price\n" +
		"A,,4.0,10,₹100,₹200\n" +
		"B,c,FREE,10,₹100,₹200\n"
	require.NoError(t, os.WriteFile(input, []byte(content), 0o644))

	cfg := config.NewConfig()
	cfg.InputPath = input

	session, err := pipeline.NewSession(cfg, testLogger())
	require.NoError(t, err)

	_, err = session.Run(context.Background())
	assert.Error(t, err)
}

func TestRunHonorsContextCancellation(t *testing.T) {
	cfg := testConfig(t)

	session, err := pipeline.NewSession(cfg, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = session.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReleasedSessionRefusesRun(t *testing.T) {
	cfg := testConfig(t)

	session, err := pipeline.NewSession(cfg, testLogger())
	require.NoError(t, err)

	session.Release()
	session.Release() // idempotent

	_, err = session.Run(context.Background())
	assert.ErrorIs(t, err, errors.ErrSessionReleased)
}

func TestRunFixedSegmentPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.SegmentPolicy = "fixed"
	cfg.OutputPath = ""

	session, err := pipeline.NewSession(cfg, testLogger())
	require.NoError(t, err)

	result, err := session.Run(context.Background())
	require.NoError(t, err)

	for _, p := range result.Products {
		assert.Contains(t, []string{"Budget", "Economy", "Mid-Range", "Premium", "Luxury"}, p.PriceSegment)
	}
}

func TestResultSuccessRate(t *testing.T) {
	cfg := testConfig(t)
	cfg.TrainModels = false
	cfg.RunClustering = false
	cfg.OutputPath = ""

	session, err := pipeline.NewSession(cfg, testLogger())
	require.NoError(t, err)

	result, err := session.Run(context.Background())
	require.NoError(t, err)

	rate := result.SuccessRate()
	assert.GreaterOrEqual(t, rate, 0.0)
	assert.LessOrEqual(t, rate, 1.0)
}
