// Package pipeline orchestrates the catalog analytics run: load, clean,
// derive, report, model and persist.
package pipeline

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/prodlens/prodlens/internal/catalog"
	"github.com/prodlens/prodlens/internal/clean"
	"github.com/prodlens/prodlens/internal/config"
	"github.com/prodlens/prodlens/internal/errors"
	"github.com/prodlens/prodlens/internal/feature"
	pio "github.com/prodlens/prodlens/internal/io"
	"github.com/prodlens/prodlens/internal/ml"
	"github.com/prodlens/prodlens/internal/report"
)

// Output file names under Config.OutputPath.
const (
	ProcessedFileName = "processed_data.parquet"
	ClustersFileName  = "product_clusters.parquet"
)

// Result collects everything a pipeline run produced.
type Result struct {
	RawRows                int
	CleanStats             clean.Stats
	Products               []catalog.Product
	SuccessReviewThreshold float64
	Reports                *report.Bundle

	Regression     *ml.RegressionMetrics
	Classification *ml.ClassificationMetrics
	Clusters       *ml.ClusterResult

	ProcessedPath string
	ClustersPath  string
}

// Session runs the pipeline for one configuration. It owns the Arrow
// allocator used for persistence and must be released after use.
type Session struct {
	cfg      config.Config
	logger   *slog.Logger
	mem      memory.Allocator
	released bool
}

// NewSession validates the configuration and prepares a run.
func NewSession(cfg config.Config, logger *slog.Logger) (*Session, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.NewInvalidInputError("session", err.Error())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{cfg: cfg, logger: logger, mem: memory.NewGoAllocator()}, nil
}

// Config returns the effective configuration of the session.
func (s *Session) Config() config.Config {
	return s.cfg
}

// Release ends the session. Subsequent runs fail with ErrSessionReleased.
// Safe to call more than once.
func (s *Session) Release() {
	s.released = true
	s.mem = nil
}

// Run executes the full pipeline. Model stages are skipped when disabled
// in the configuration; persistence is skipped when OutputPath is empty.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	if s.released {
		return nil, errors.ErrSessionReleased
	}
	raws, err := pio.LoadCatalog(s.cfg.InputPath, pio.DefaultCSVOptions())
	if err != nil {
		return nil, err
	}
	s.logger.Info("loaded raw catalog", "rows", len(raws), "input", s.cfg.InputPath)

	products, stats := clean.Records(raws)
	s.logger.Info("cleaned working set",
		"kept", stats.Kept, "duplicates", stats.Duplicates, "dropped", stats.Dropped)
	if len(products) == 0 {
		return nil, errors.ErrEmptyCatalog
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	derived := feature.Derive(products, s.featureOptions())
	workingSet := catalog.NewCatalog(derived.Products)
	s.logger.Debug("derived features",
		"products", workingSet.Len(),
		"categories", len(workingSet.Categories()),
		"review_threshold", derived.SuccessReviewThreshold)
	result := &Result{
		RawRows:                len(raws),
		CleanStats:             stats,
		Products:               derived.Products,
		SuccessReviewThreshold: derived.SuccessReviewThreshold,
	}

	result.Reports = report.Build(derived.Products, s.cfg.TopN)
	s.logger.Info("built reports",
		"categories", len(result.Reports.Categories),
		"opportunities", len(result.Reports.Opportunities))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.cfg.TrainModels {
		if err := s.trainModels(derived.Products, result); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.cfg.RunClustering {
		clusters, err := ml.ClusterProducts(derived.Products, s.cfg.ClusterCount, s.cfg.Seed)
		if err != nil {
			return nil, err
		}
		result.Clusters = clusters
		s.logger.Info("clustered products", "clusters", len(clusters.Summaries))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.cfg.OutputPath != "" {
		if err := s.persist(result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (s *Session) featureOptions() feature.Options {
	opts := feature.DefaultOptions()
	if strings.EqualFold(s.cfg.SegmentPolicy, string(feature.SegmentFixed)) {
		opts.SegmentPolicy = feature.SegmentFixed
	}
	opts.SuccessRatingThreshold = s.cfg.SuccessRatingThreshold
	opts.SuccessReviewPercentile = s.cfg.SuccessReviewPercentile
	return opts
}

func (s *Session) trainConfig() ml.TrainConfig {
	cfg := ml.DefaultTrainConfig()
	cfg.TestFraction = s.cfg.TestFraction
	cfg.Folds = s.cfg.CVFolds
	cfg.Seed = s.cfg.Seed
	return cfg
}

// trainModels fits the rating regression and the success classifier.
// A degenerate working set (too few rows, single-class label) downgrades
// the stage to a warning instead of failing the run.
func (s *Session) trainModels(products []catalog.Product, result *Result) error {
	trainCfg := s.trainConfig()

	_, regMetrics, err := ml.TrainRatingRegression(products, trainCfg)
	if err != nil {
		s.logger.Warn("rating regression skipped", "reason", err)
	} else {
		result.Regression = &regMetrics
		s.logger.Info("trained rating regression",
			"rmse", regMetrics.RMSE, "train_rows", regMetrics.TrainRows, "test_rows", regMetrics.TestRows)
	}

	_, clsMetrics, err := ml.TrainSuccessClassifier(products, trainCfg)
	if err != nil {
		s.logger.Warn("success classifier skipped", "reason", err)
	} else {
		result.Classification = &clsMetrics
		s.logger.Info("trained success classifier",
			"auc", clsMetrics.AUC, "cv_auc", clsMetrics.CVAUC,
			"lambda", clsMetrics.Best.Lambda, "alpha", clsMetrics.Best.Alpha)
	}

	return nil
}

func (s *Session) persist(result *Result) error {
	opts := pio.DefaultParquetOptions()
	opts.Compression = strings.ToLower(s.cfg.Compression)
	opts.Allocator = s.mem

	processedPath := filepath.Join(s.cfg.OutputPath, ProcessedFileName)
	if err := pio.WriteProductsFile(processedPath, result.Products, opts); err != nil {
		return err
	}
	result.ProcessedPath = processedPath
	s.logger.Info("wrote processed data", "path", processedPath, "rows", len(result.Products))

	if result.Clusters == nil {
		return nil
	}
	clustersPath := filepath.Join(s.cfg.OutputPath, ClustersFileName)
	if err := pio.WriteClustersFile(clustersPath, result.Products, result.Clusters.Assignments, opts); err != nil {
		return err
	}
	result.ClustersPath = clustersPath
	s.logger.Info("wrote product clusters", "path", clustersPath)
	return nil
}

// SuccessRate reports the share of successful products, NaN when the
// working set is empty.
func (r *Result) SuccessRate() float64 {
	if len(r.Products) == 0 {
		return math.NaN()
	}
	successful := 0
	for i := range r.Products {
		if r.Products[i].Successful {
			successful++
		}
	}
	return float64(successful) / float64(len(r.Products))
}
