package ingest

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"purchase-intent-lab/internal/domain"
	"purchase-intent-lab/internal/observability"
	"purchase-intent-lab/internal/storage"
)

// Runner drains a session source into the event log. Sessions are buffered
// and written in batches; a flush ticker bounds how long a partial batch
// can sit in memory.
type Runner struct {
	source        SessionSource
	store         storage.SessionStore
	batchSize     int
	flushInterval time.Duration
	logger        *log.Logger

	buffer []*domain.Session
	stored int
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Source SessionSource
	Store  storage.SessionStore

	BatchSize     int           // Default: 500 rows per bulk insert
	FlushInterval time.Duration // Default: 5s
	Logger        *log.Logger
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	batchSize := opts.BatchSize
	if batchSize == 0 {
		batchSize = 500
	}

	flushInterval := opts.FlushInterval
	if flushInterval == 0 {
		flushInterval = 5 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[ingest] ", log.LstdFlags)
	}

	return &Runner{
		source:        opts.Source,
		store:         opts.Store,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        logger,
	}
}

// Run drains the source until it closes or the context is cancelled.
// Returns the number of sessions stored.
func (r *Runner) Run(ctx context.Context) (int, error) {
	sessions, err := r.source.Subscribe(ctx)
	if err != nil {
		return 0, err
	}
	r.logger.Println("Subscribed to session feed")

	flushTicker := time.NewTicker(r.flushInterval)
	defer flushTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.flush(context.WithoutCancel(ctx))
			r.logger.Printf("Runner stopping, %d sessions stored", r.stored)
			return r.stored, ctx.Err()

		case session, ok := <-sessions:
			if !ok {
				r.flush(ctx)
				r.logger.Printf("Feed drained, %d sessions stored", r.stored)
				return r.stored, nil
			}
			observability.RecordSessionReceived()
			r.buffer = append(r.buffer, session)
			observability.UpdateSessionBuffer(len(r.buffer))
			if len(r.buffer) >= r.batchSize {
				r.flush(ctx)
			}

		case <-flushTicker.C:
			r.flush(ctx)
		}
	}
}

// flush writes the buffered batch. Bulk insert is all-or-nothing on
// duplicates, so a rejected batch falls back to per-row inserts that skip
// already-stored sessions.
func (r *Runner) flush(ctx context.Context) {
	if len(r.buffer) == 0 {
		return
	}

	batch := r.buffer
	r.buffer = nil
	observability.UpdateSessionBuffer(0)

	err := r.store.InsertBulk(ctx, batch)
	if err == nil {
		r.stored += len(batch)
		observability.RecordSessionsStored(len(batch))
		observability.DefaultMetrics.LastSuccessfulIngestion.SetToCurrentTime()
		return
	}
	if !errors.Is(err, storage.ErrDuplicateKey) {
		r.logger.Printf("Error storing batch of %d sessions: %v", len(batch), err)
		return
	}

	for _, session := range batch {
		if err := r.store.Insert(ctx, session); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				observability.RecordDuplicateSession()
				continue
			}
			r.logger.Printf("Error storing session %s/%d: %v", session.VisitorID, session.VisitID, err)
			continue
		}
		r.stored++
		observability.RecordSessionsStored(1)
	}
	observability.DefaultMetrics.LastSuccessfulIngestion.SetToCurrentTime()
}
