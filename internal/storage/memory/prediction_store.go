package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"purchase-intent-lab/internal/domain"
	"purchase-intent-lab/internal/storage"
)

// PredictionStore is an in-memory implementation of storage.PredictionStore.
type PredictionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Prediction // keyed by model_id|session_id
}

// NewPredictionStore creates a new in-memory prediction store.
func NewPredictionStore() *PredictionStore {
	return &PredictionStore{
		data: make(map[string]*domain.Prediction),
	}
}

func predictionKey(modelID, sessionID string) string {
	return fmt.Sprintf("%s|%s", modelID, sessionID)
}

// InsertBulk adds multiple predictions. Fails entire batch on duplicate (model_id, session_id).
func (s *PredictionStore) InsertBulk(_ context.Context, predictions []*domain.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(predictions))
	for _, p := range predictions {
		if p == nil || p.SessionID == "" || p.ModelID == "" {
			return storage.ErrInvalidInput
		}
		key := predictionKey(p.ModelID, p.SessionID)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, p := range predictions {
		c := *p
		s.data[predictionKey(p.ModelID, p.SessionID)] = &c
	}

	return nil
}

// GetByModelID retrieves all predictions for a model in published ranking
// order: predicted_probability DESC, session_id ASC.
func (s *PredictionStore) GetByModelID(_ context.Context, modelID string) ([]*domain.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Prediction
	for _, p := range s.data {
		if p.ModelID == modelID {
			c := *p
			result = append(result, &c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].PredictedProbability != result[j].PredictedProbability {
			return result[i].PredictedProbability > result[j].PredictedProbability
		}
		return result[i].SessionID < result[j].SessionID
	})

	return result, nil
}

var _ storage.PredictionStore = (*PredictionStore)(nil)
