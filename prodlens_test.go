package prodlens_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodlens/prodlens"
	"github.com/prodlens/prodlens/internal/testutil"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := prodlens.NewConfig()
	assert.Equal(t, "tertile", cfg.SegmentPolicy)
	assert.Equal(t, "snappy", cfg.Compression)
}

func TestNewSessionRejectsInvalidConfig(t *testing.T) {
	_, err := prodlens.NewSession(prodlens.Config{}, nil)
	assert.Error(t, err)
}

func TestSessionEndToEnd(t *testing.T) {
	dir := t.TempDir()
	records := testutil.CreateRawRecords(testutil.WithProductCount(120))
	input := testutil.WriteCatalogCSV(t, dir, records)

	cfg := prodlens.NewConfig()
	cfg.InputPath = input
	cfg.TrainModels = false
	cfg.RunClustering = false

	session, err := prodlens.NewSession(cfg, nil)
	require.NoError(t, err)
	defer session.Release()

	result, err := session.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, result.RawRows)
	require.NotNil(t, result.Reports)

	var buf bytes.Buffer
	prodlens.RenderReports(&buf, result, 5)
	assert.NotEmpty(t, buf.String())
}

func TestRenderReportsNilSafe(t *testing.T) {
	var buf bytes.Buffer
	prodlens.RenderReports(&buf, nil, 5)
	assert.Empty(t, buf.String())
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, prodlens.Version())
}
