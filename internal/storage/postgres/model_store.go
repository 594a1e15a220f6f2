package postgres

import (
	"context"
	"fmt"

	"purchase-intent-lab/internal/storage"
)

// ModelStore implements storage.ModelStore using PostgreSQL.
type ModelStore struct {
	pool *Pool
}

// NewModelStore creates a new ModelStore.
func NewModelStore(pool *Pool) *ModelStore {
	return &ModelStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ModelStore = (*ModelStore)(nil)

// Insert adds a new artifact. Returns ErrDuplicateKey if model_id exists.
func (s *ModelStore) Insert(ctx context.Context, m *storage.ModelArtifact) error {
	query := `
		INSERT INTO models (model_id, schema_hash, trained_at, payload)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, m.ModelID, m.SchemaHash, m.TrainedAt, m.Payload)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert model: %w", err)
	}
	return nil
}

// GetByID retrieves an artifact by model id. Returns ErrNotFound if not exists.
func (s *ModelStore) GetByID(ctx context.Context, modelID string) (*storage.ModelArtifact, error) {
	query := `
		SELECT model_id, schema_hash, trained_at, payload
		FROM models
		WHERE model_id = $1
	`

	var m storage.ModelArtifact
	err := s.pool.QueryRow(ctx, query, modelID).Scan(&m.ModelID, &m.SchemaHash, &m.TrainedAt, &m.Payload)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get model by id: %w", err)
	}

	m.TrainedAt = m.TrainedAt.UTC()
	return &m, nil
}

// GetLatestBySchema retrieves the most recently trained artifact for a
// schema hash. Returns ErrNotFound if none exists.
func (s *ModelStore) GetLatestBySchema(ctx context.Context, schemaHash string) (*storage.ModelArtifact, error) {
	query := `
		SELECT model_id, schema_hash, trained_at, payload
		FROM models
		WHERE schema_hash = $1
		ORDER BY trained_at DESC, model_id ASC
		LIMIT 1
	`

	var m storage.ModelArtifact
	err := s.pool.QueryRow(ctx, query, schemaHash).Scan(&m.ModelID, &m.SchemaHash, &m.TrainedAt, &m.Payload)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest model by schema: %w", err)
	}

	m.TrainedAt = m.TrainedAt.UTC()
	return &m, nil
}
