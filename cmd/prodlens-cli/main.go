package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prodlens/prodlens"
	"github.com/prodlens/prodlens/internal/version"
)

func customUsage() {
	fmt.Fprintf(os.Stderr, "ProdLens Catalog Analytics CLI (version %s)\n\n", version.Version)
	fmt.Fprintf(os.Stderr, "Usage: prodlens-cli [options]\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	fmt.Fprintf(os.Stderr, "  --input PATH\n\t\tCSV file, directory or glob of raw catalog exports (required)\n")
	fmt.Fprintf(os.Stderr, "  --output DIR\n\t\tDirectory for Parquet outputs (omit to skip persistence)\n")
	fmt.Fprintf(os.Stderr, "  --config FILE\n\t\tJSON or YAML configuration file\n")
	fmt.Fprintf(os.Stderr, "  --reports\n\t\tPrint the report bundle to stdout (default: true)\n")
	fmt.Fprintf(os.Stderr, "  --train\n\t\tTrain regression and classification models (default: true)\n")
	fmt.Fprintf(os.Stderr, "  --cluster\n\t\tRun product clustering (default: true)\n")
	fmt.Fprintf(os.Stderr, "  --top N\n\t\tRows per report section (default: 10)\n")
	fmt.Fprintf(os.Stderr, "  --segment-policy POLICY\n\t\tPrice segment policy: tertile or fixed (default: tertile)\n")
	fmt.Fprintf(os.Stderr, "  --verbose\n\t\tEnable debug-level logging\n")
	fmt.Fprintf(os.Stderr, "  -v, --version\n\t\tPrint version information and exit\n")
	fmt.Fprintf(os.Stderr, "  -h, --help\n\t\tShow this help message and exit\n")
}

func main() {
	versionFlag := flag.Bool("v", false, "Print version and exit")
	flag.BoolVar(versionFlag, "version", false, "Print version and exit") // alias
	inputFlag := flag.String("input", "", "CSV file, directory or glob of raw catalog exports")
	outputFlag := flag.String("output", "", "Directory for Parquet outputs")
	configFlag := flag.String("config", "", "JSON or YAML configuration file")
	reportsFlag := flag.Bool("reports", true, "Print the report bundle to stdout")
	trainFlag := flag.Bool("train", true, "Train regression and classification models")
	clusterFlag := flag.Bool("cluster", true, "Run product clustering")
	topFlag := flag.Int("top", 0, "Rows per report section")
	segmentFlag := flag.String("segment-policy", "", "Price segment policy: tertile or fixed")
	verboseFlag := flag.Bool("verbose", false, "Enable debug-level logging")

	//nolint:reassign // Standard Go pattern for customizing flag usage message
	flag.Usage = customUsage

	flag.Parse()

	if *versionFlag {
		fmt.Print(version.Info().String())
		return
	}

	cfg, err := buildConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "prodlens-cli: %v\n", err)
		os.Exit(1)
	}
	if *inputFlag != "" {
		cfg.InputPath = *inputFlag
	}
	if *outputFlag != "" {
		cfg.OutputPath = *outputFlag
	}
	if *topFlag > 0 {
		cfg.TopN = *topFlag
	}
	if *segmentFlag != "" {
		cfg.SegmentPolicy = *segmentFlag
	}
	cfg.TrainModels = *trainFlag
	cfg.RunClustering = *clusterFlag
	if *verboseFlag {
		cfg.VerboseLogging = true
	}

	if cfg.InputPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.VerboseLogging {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	session, err := prodlens.NewSession(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "prodlens-cli: %v\n", err)
		os.Exit(1)
	}
	defer session.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	result, err := session.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "prodlens-cli: %v\n", err)
		os.Exit(1)
	}
	logger.Info("pipeline finished",
		"raw_rows", result.RawRows,
		"kept", result.CleanStats.Kept,
		"elapsed", time.Since(start))

	if *reportsFlag {
		prodlens.RenderReports(os.Stdout, result, cfg.TopN)
	}
}

// buildConfig layers environment variables over defaults, then the config
// file over both.
func buildConfig(path string) (prodlens.Config, error) {
	cfg := prodlens.LoadConfigFromEnv()
	if path == "" {
		return cfg, nil
	}
	fileCfg, err := prodlens.LoadConfig(path)
	if err != nil {
		return prodlens.Config{}, err
	}
	return fileCfg, nil
}
