package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"purchase-intent-lab/internal/domain"
	"purchase-intent-lab/internal/storage"
)

// FeatureVectorStore is an in-memory implementation of storage.FeatureVectorStore.
type FeatureVectorStore struct {
	mu   sync.RWMutex
	data map[string]*domain.FeatureVector // keyed by session_id
}

// NewFeatureVectorStore creates a new in-memory feature vector store.
func NewFeatureVectorStore() *FeatureVectorStore {
	return &FeatureVectorStore{
		data: make(map[string]*domain.FeatureVector),
	}
}

// InsertBulk adds multiple vectors. Fails entire batch on duplicate session_id.
func (s *FeatureVectorStore) InsertBulk(_ context.Context, vectors []*domain.FeatureVector) error {
	if len(vectors) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(vectors))
	for _, v := range vectors {
		if v == nil || v.SessionID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[v.SessionID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[v.SessionID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[v.SessionID] = struct{}{}
	}

	for _, v := range vectors {
		c := *v
		s.data[v.SessionID] = &c
	}

	return nil
}

// GetByDateRange retrieves vectors within [start, end] (inclusive), ordered by session_id ASC.
func (s *FeatureVectorStore) GetByDateRange(_ context.Context, start, end time.Time) ([]*domain.FeatureVector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	window := domain.DateWindow{Start: domain.Day(start), End: domain.Day(end)}

	var result []*domain.FeatureVector
	for _, v := range s.data {
		if window.Contains(v.SessionDate) {
			c := *v
			result = append(result, &c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].SessionID < result[j].SessionID
	})

	return result, nil
}

// GetAll retrieves every vector, ordered by session_id ASC.
func (s *FeatureVectorStore) GetAll(_ context.Context) ([]*domain.FeatureVector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.FeatureVector, 0, len(s.data))
	for _, v := range s.data {
		c := *v
		result = append(result, &c)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].SessionID < result[j].SessionID
	})

	return result, nil
}

var _ storage.FeatureVectorStore = (*FeatureVectorStore)(nil)
