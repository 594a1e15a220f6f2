package memory

import (
	"context"
	"sync"

	"purchase-intent-lab/internal/storage"
)

// ModelStore is an in-memory implementation of storage.ModelStore.
type ModelStore struct {
	mu   sync.RWMutex
	data map[string]*storage.ModelArtifact // keyed by model_id
}

// NewModelStore creates a new in-memory model store.
func NewModelStore() *ModelStore {
	return &ModelStore{
		data: make(map[string]*storage.ModelArtifact),
	}
}

// Insert adds a new artifact. Returns ErrDuplicateKey if model_id exists.
func (s *ModelStore) Insert(_ context.Context, m *storage.ModelArtifact) error {
	if m == nil || m.ModelID == "" || m.SchemaHash == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[m.ModelID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[m.ModelID] = copyArtifact(m)
	return nil
}

// GetByID retrieves an artifact by model id. Returns ErrNotFound if not exists.
func (s *ModelStore) GetByID(_ context.Context, modelID string) (*storage.ModelArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.data[modelID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return copyArtifact(m), nil
}

// GetLatestBySchema retrieves the most recently trained artifact for a schema hash.
func (s *ModelStore) GetLatestBySchema(_ context.Context, schemaHash string) (*storage.ModelArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *storage.ModelArtifact
	for _, m := range s.data {
		if m.SchemaHash != schemaHash {
			continue
		}
		if latest == nil || m.TrainedAt.After(latest.TrainedAt) {
			latest = m
		}
	}

	if latest == nil {
		return nil, storage.ErrNotFound
	}

	return copyArtifact(latest), nil
}

func copyArtifact(m *storage.ModelArtifact) *storage.ModelArtifact {
	c := *m
	if m.Payload != nil {
		c.Payload = make([]byte, len(m.Payload))
		copy(c.Payload, m.Payload)
	}
	return &c
}

var _ storage.ModelStore = (*ModelStore)(nil)
