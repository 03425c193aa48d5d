// Package prodlens turns raw scraped product catalog exports into cleaned
// datasets, derived metrics, market reports and trained models.
// This package is the sole public API for the library.
package prodlens

import (
	"context"
	"io"
	"log/slog"

	"github.com/prodlens/prodlens/internal/config"
	"github.com/prodlens/prodlens/internal/ml"
	"github.com/prodlens/prodlens/internal/pipeline"
	"github.com/prodlens/prodlens/internal/report"
	"github.com/prodlens/prodlens/internal/version"
)

// Config configures a pipeline run.
type Config = config.Config

// Result collects everything a pipeline run produced.
type Result = pipeline.Result

// Reports is the set of aggregate market reports.
type Reports = report.Bundle

// RegressionMetrics reports held-out evaluation of the rating model.
type RegressionMetrics = ml.RegressionMetrics

// ClassificationMetrics reports model selection and held-out evaluation
// of the success classifier.
type ClassificationMetrics = ml.ClassificationMetrics

// ClusterResult is the outcome of product clustering.
type ClusterResult = ml.ClusterResult

// NewConfig returns a configuration with default values.
func NewConfig() Config {
	return config.NewConfig()
}

// LoadConfig loads a configuration from a JSON or YAML file.
func LoadConfig(path string) (Config, error) {
	return config.LoadFromFile(path)
}

// LoadConfigFromEnv loads a configuration from PRODLENS_* environment
// variables on top of the defaults.
func LoadConfigFromEnv() Config {
	return config.LoadFromEnv()
}

// Session is the public handle for one pipeline run.
type Session struct {
	inner *pipeline.Session
}

// NewSession validates the configuration and prepares a run. A nil logger
// falls back to slog.Default().
func NewSession(cfg Config, logger *slog.Logger) (*Session, error) {
	inner, err := pipeline.NewSession(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Session{inner: inner}, nil
}

// Config returns the effective configuration of the session.
func (s *Session) Config() Config {
	return s.inner.Config()
}

// Run executes the full pipeline: load, clean, derive, report, model
// and persist.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	return s.inner.Run(ctx)
}

// Release ends the session. Safe to call more than once; a released
// session refuses further runs.
func (s *Session) Release() {
	s.inner.Release()
}

// RenderReports writes the report bundle of a run in tabular text form.
func RenderReports(w io.Writer, result *Result, topN int) {
	if result == nil || result.Reports == nil {
		return
	}
	result.Reports.Render(w, topN)
}

// Version returns the library version string.
func Version() string {
	return version.Version
}
