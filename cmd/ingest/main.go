package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"purchase-intent-lab/internal/ingest"
	"purchase-intent-lab/internal/observability"
	"purchase-intent-lab/internal/storage"
	"purchase-intent-lab/internal/storage/memory"
	"purchase-intent-lab/internal/storage/migrations"
	pgstore "purchase-intent-lab/internal/storage/postgres"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Parse flags
	source := flag.String("source", "file", "Session source: file or ws")
	filePath := flag.String("file", "", "Path to a JSONL session export (file source)")
	wsURL := flag.String("ws-url", envOr("INGEST_WS_URL", ""), "WebSocket session feed URL (ws source)")
	postgresDSN := flag.String("postgres-dsn", envOr("POSTGRES_DSN", ""), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	batchSize := flag.Int("batch-size", 500, "Rows per bulk insert")
	flushInterval := flag.Duration("flush-interval", 5*time.Second, "Max time a partial batch is held")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
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

	if err := run(ctx, logger, *source, *filePath, *wsURL, *postgresDSN, *useMemory, *batchSize, *flushInterval); err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

func run(ctx context.Context, logger *log.Logger, source, filePath, wsURL, postgresDSN string, useMemory bool, batchSize int, flushInterval time.Duration) error {
	// Create session source
	var sessionSource ingest.SessionSource
	switch source {
	case "file":
		if filePath == "" {
			return fmt.Errorf("--file is required for the file source")
		}
		sessionSource = ingest.NewFileSource(filePath)
	case "ws":
		if wsURL == "" {
			return fmt.Errorf("--ws-url is required for the ws source")
		}
		sessionSource = ingest.NewWSSource(wsURL)
	default:
		return fmt.Errorf("unknown source: %s (must be file or ws)", source)
	}

	// Require --postgres-dsn unless --use-memory is explicitly set
	if !useMemory && postgresDSN == "" {
		return fmt.Errorf("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	// Create store
	var sessionStore storage.SessionStore = memory.NewSessionStore()

	if !useMemory {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run postgres migrations: %w", err)
		}

		sessionStore = pgstore.NewSessionStore(pool)
	}

	runner := ingest.NewRunner(ingest.RunnerOptions{
		Source:        sessionSource,
		Store:         sessionStore,
		BatchSize:     batchSize,
		FlushInterval: flushInterval,
		Logger:        logger,
	})

	logger.Printf("Starting ingestion from %s source...", source)
	stored, err := runner.Run(ctx)
	logger.Printf("Ingestion finished: %d sessions stored", stored)
	return err
}

// envOr returns the environment variable's value, or fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
