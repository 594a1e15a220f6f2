package storage

import (
	"context"
	"time"

	"purchase-intent-lab/internal/domain"
)

// SessionStore provides access to the raw session event log.
// Sessions are keyed by (visitor_id, visit_id) and are immutable once logged.
type SessionStore interface {
	// Insert adds a new session with its nested hits.
	// Returns ErrDuplicateKey if (visitor_id, visit_id) exists.
	Insert(ctx context.Context, s *domain.Session) error

	// InsertBulk adds multiple sessions atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, sessions []*domain.Session) error

	// GetByVisitorID retrieves all sessions for a visitor,
	// ordered by session_date ASC, visit_id ASC.
	GetByVisitorID(ctx context.Context, visitorID string) ([]*domain.Session, error)

	// GetByDateRange retrieves sessions with session_date within [start, end] (inclusive),
	// ordered by visitor_id ASC, visit_id ASC.
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Session, error)

	// GetAll retrieves every session, ordered by visitor_id ASC, visit_id ASC.
	// The label generator uses this to scan full visitor history regardless
	// of the feature-extraction windows.
	GetAll(ctx context.Context) ([]*domain.Session, error)
}

// FeatureVectorStore provides access to the labeled feature table.
type FeatureVectorStore interface {
	// InsertBulk adds multiple vectors. Fails entire batch on duplicate session_id.
	InsertBulk(ctx context.Context, vectors []*domain.FeatureVector) error

	// GetByDateRange retrieves vectors with session_date within [start, end]
	// (inclusive), ordered by session_id ASC.
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*domain.FeatureVector, error)

	// GetAll retrieves every vector, ordered by session_id ASC.
	GetAll(ctx context.Context) ([]*domain.FeatureVector, error)
}

// PredictionStore provides access to scored ranking output.
type PredictionStore interface {
	// InsertBulk adds multiple predictions.
	// Fails entire batch on duplicate (model_id, session_id).
	InsertBulk(ctx context.Context, predictions []*domain.Prediction) error

	// GetByModelID retrieves all predictions for a model, ordered by
	// predicted_probability DESC, session_id ASC (the published ranking order).
	GetByModelID(ctx context.Context, modelID string) ([]*domain.Prediction, error)
}

// ModelArtifact is a serialized, immutable model produced by training.
type ModelArtifact struct {
	ModelID    string
	SchemaHash string // hash of the ordered feature-column set
	TrainedAt  time.Time
	Payload    []byte // opaque serialized model
}

// ModelStore provides access to trained model artifacts.
type ModelStore interface {
	// Insert adds a new artifact. Returns ErrDuplicateKey if model_id exists.
	Insert(ctx context.Context, m *ModelArtifact) error

	// GetByID retrieves an artifact by model id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, modelID string) (*ModelArtifact, error)

	// GetLatestBySchema retrieves the most recently trained artifact for a
	// schema hash. Returns ErrNotFound if none exists.
	GetLatestBySchema(ctx context.Context, schemaHash string) (*ModelArtifact, error)
}
