package clickhouse

import (
	"context"
	"fmt"

	"purchase-intent-lab/internal/domain"
	"purchase-intent-lab/internal/storage"
)

// PredictionStore implements storage.PredictionStore using ClickHouse.
type PredictionStore struct {
	conn *Conn
}

// NewPredictionStore creates a new PredictionStore.
func NewPredictionStore(conn *Conn) *PredictionStore {
	return &PredictionStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PredictionStore = (*PredictionStore)(nil)

// InsertBulk adds multiple predictions.
// Fails entire batch on duplicate (model_id, session_id).
func (s *PredictionStore) InsertBulk(ctx context.Context, predictions []*domain.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		modelID   string
		sessionID string
	}
	seen := make(map[key]struct{}, len(predictions))
	for _, p := range predictions {
		k := key{p.ModelID, p.SessionID}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing rows
	for _, p := range predictions {
		exists, err := s.exists(ctx, p.ModelID, p.SessionID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO predictions (
			model_id, session_id, predicted_label, predicted_probability
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range predictions {
		err = batch.Append(
			p.ModelID, p.SessionID, boolToUInt8(p.PredictedLabel), p.PredictedProbability,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByModelID retrieves all predictions for a model, ordered by
// predicted_probability DESC, session_id ASC (the published ranking order).
func (s *PredictionStore) GetByModelID(ctx context.Context, modelID string) ([]*domain.Prediction, error) {
	query := `
		SELECT model_id, session_id, predicted_label, predicted_probability
		FROM predictions
		WHERE model_id = ?
		ORDER BY predicted_probability DESC, session_id ASC
	`

	rows, err := s.conn.Query(ctx, query, modelID)
	if err != nil {
		return nil, fmt.Errorf("query predictions by model id: %w", err)
	}
	defer rows.Close()

	var predictions []*domain.Prediction
	for rows.Next() {
		var (
			p     domain.Prediction
			label uint8
		)
		if err := rows.Scan(&p.ModelID, &p.SessionID, &label, &p.PredictedProbability); err != nil {
			return nil, fmt.Errorf("scan prediction row: %w", err)
		}
		p.PredictedLabel = label != 0
		predictions = append(predictions, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prediction rows: %w", err)
	}

	return predictions, nil
}

// exists checks if a prediction with the given key exists.
func (s *PredictionStore) exists(ctx context.Context, modelID, sessionID string) (bool, error) {
	query := `SELECT count(*) FROM predictions WHERE model_id = ? AND session_id = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, modelID, sessionID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
