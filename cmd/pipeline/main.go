package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"purchase-intent-lab/internal/domain"
	"purchase-intent-lab/internal/label"
	"purchase-intent-lab/internal/observability"
	"purchase-intent-lab/internal/pipeline"
	"purchase-intent-lab/internal/reporting"
	"purchase-intent-lab/internal/split"
	"purchase-intent-lab/internal/storage"
	chstore "purchase-intent-lab/internal/storage/clickhouse"
	"purchase-intent-lab/internal/storage/memory"
	"purchase-intent-lab/internal/storage/migrations"
	pgstore "purchase-intent-lab/internal/storage/postgres"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Window flags (YYYY-MM-DD, both ends inclusive)
	trainStart := flag.String("train-start", "2016-08-01", "Train window start date")
	trainEnd := flag.String("train-end", "2017-01-31", "Train window end date")
	evaluateStart := flag.String("evaluate-start", "2017-02-01", "Evaluate window start date")
	evaluateEnd := flag.String("evaluate-end", "2017-04-30", "Evaluate window end date")
	scoreStart := flag.String("score-start", "2017-05-01", "Score window start date")
	scoreEnd := flag.String("score-end", "2017-06-30", "Score window end date")

	// Run parameters
	labelDefinition := flag.String("label-definition", string(label.PurchaseExcludesFirstSession),
		"Label definition: purchase_excludes_first_session or purchase_any_nonfirst_transaction_flag")
	threshold := flag.Float64("threshold", 0.5, "Decision threshold for predicted_label")
	topKFraction := flag.Float64("top-k", 0.10, "Fraction of the ranked score partition to report on")
	features := flag.String("features", "", "Comma-separated feature columns (empty for the full set)")
	outputDir := flag.String("output-dir", "out", "Directory for REPORT.md and CSV outputs (empty to disable)")

	// Storage
	postgresDSN := flag.String("postgres-dsn", envOr("POSTGRES_DSN", ""), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", envOr("CLICKHOUSE_DSN", ""), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")
	fixtures := flag.Bool("fixtures", false, "Seed the in-memory store with the built-in fixture cohort")

	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	verbose := flag.Bool("verbose", false, "Log each pipeline phase")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[pipeline] ", log.LstdFlags)

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	windows, err := parseWindows(*trainStart, *trainEnd, *evaluateStart, *evaluateEnd, *scoreStart, *scoreEnd)
	if err != nil {
		logger.Fatalf("Error: %v", err)
	}

	cfg := pipeline.RunConfig{
		Windows:         windows,
		FeatureColumns:  splitColumns(*features),
		LabelDefinition: label.Definition(*labelDefinition),
		Threshold:       *threshold,
		TopKFraction:    *topKFraction,
		OutputDir:       *outputDir,
	}

	started := time.Now()
	report, err := run(ctx, logger, cfg, *postgresDSN, *clickhouseDSN, *useMemory, *fixtures, *verbose)
	elapsed := time.Since(started).Seconds()

	if err != nil {
		observability.RecordPipelineRun("error", elapsed)
		logger.Fatalf("Error: %v", err)
	}
	observability.RecordPipelineRun("success", elapsed)
	observability.DefaultMetrics.LastSuccessfulRun.SetToCurrentTime()

	printSummary(logger, report, cfg.OutputDir)
}

func run(ctx context.Context, logger *log.Logger, cfg pipeline.RunConfig, postgresDSN, clickhouseDSN string, useMemory, fixtures bool, verbose bool) (*reporting.Report, error) {
	// Create stores (use interfaces)
	var sessionStore storage.SessionStore = memory.NewSessionStore()
	var featureVectorStore storage.FeatureVectorStore = memory.NewFeatureVectorStore()
	var predictionStore storage.PredictionStore = memory.NewPredictionStore()
	var modelStore storage.ModelStore = memory.NewModelStore()

	if !useMemory {
		// Require DSNs when not using memory
		if postgresDSN == "" {
			return nil, fmt.Errorf("--postgres-dsn is required when not using --use-memory (sessions and models)")
		}
		if clickhouseDSN == "" {
			return nil, fmt.Errorf("--clickhouse-dsn is required when not using --use-memory (feature vectors and predictions)")
		}

		// PostgreSQL for the session log and model artifacts
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return nil, fmt.Errorf("run postgres migrations: %w", err)
		}

		sessionStore = pgstore.NewSessionStore(pool)
		modelStore = pgstore.NewModelStore(pool)

		// ClickHouse for feature vectors and predictions
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			return nil, fmt.Errorf("run clickhouse migrations: %w", err)
		}
		defer conn.Close()

		featureVectorStore = chstore.NewFeatureVectorStore(conn)
		predictionStore = chstore.NewPredictionStore(conn)
	}

	if fixtures {
		if !useMemory {
			return nil, fmt.Errorf("--fixtures only makes sense with --use-memory")
		}
		seeded := append(pipeline.FixtureSessions(), pipeline.SyntheticCohort(cfg.Windows, 20)...)
		if err := sessionStore.InsertBulk(ctx, seeded); err != nil {
			return nil, fmt.Errorf("seed fixture sessions: %w", err)
		}
		logger.Printf("Seeded %d fixture sessions", len(seeded))
	}

	runner := pipeline.New(pipeline.Options{
		SessionStore:       sessionStore,
		FeatureVectorStore: featureVectorStore,
		PredictionStore:    predictionStore,
		ModelStore:         modelStore,
		Verbose:            verbose,
	})

	report, err := runner.Run(ctx, cfg)
	if err != nil {
		return nil, err
	}

	observability.DefaultMetrics.ModelsTrained.Inc()
	observability.DefaultMetrics.SessionsRanked.Add(float64(report.DataSummary.RankedPredictions))
	observability.DefaultMetrics.ReportsGenerated.Inc()

	return report, nil
}

// parseWindows builds the three-window split from the date flags.
func parseWindows(trainStart, trainEnd, evaluateStart, evaluateEnd, scoreStart, scoreEnd string) (split.Config, error) {
	var cfg split.Config

	pairs := []struct {
		name       string
		start, end string
		dst        *domain.DateWindow
	}{
		{split.PartitionTrain, trainStart, trainEnd, &cfg.Train},
		{split.PartitionEvaluate, evaluateStart, evaluateEnd, &cfg.Evaluate},
		{split.PartitionScore, scoreStart, scoreEnd, &cfg.Score},
	}

	for _, p := range pairs {
		start, err := domain.ParseDay(p.start)
		if err != nil {
			return split.Config{}, fmt.Errorf("parse %s window start: %w", p.name, err)
		}
		end, err := domain.ParseDay(p.end)
		if err != nil {
			return split.Config{}, fmt.Errorf("parse %s window end: %w", p.name, err)
		}
		*p.dst = domain.DateWindow{Start: start, End: end}
	}

	return cfg, nil
}

func splitColumns(s string) []string {
	if s == "" {
		return nil
	}
	var cols []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

func printSummary(logger *log.Logger, report *reporting.Report, outputDir string) {
	logger.Printf("Run complete: model %s, %d train / %d evaluate / %d score vectors, %d predictions",
		report.ModelID,
		report.DataSummary.TrainVectors,
		report.DataSummary.EvaluateVectors,
		report.DataSummary.ScoreVectors,
		report.DataSummary.RankedPredictions)

	if report.Evaluation != nil && report.Evaluation.Defined {
		logger.Printf("ROC-AUC: %.4f (%s)", report.Evaluation.ROCAUC, report.Evaluation.Bucket)
	}
	for _, w := range report.Warnings {
		logger.Printf("Warning: %s", w)
	}
	if outputDir != "" {
		logger.Printf("Report written to %s", filepath.Join(outputDir, pipeline.ReportFileName))
	}
}

// envOr returns the environment variable's value, or fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
