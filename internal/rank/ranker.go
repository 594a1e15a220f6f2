// Package rank scores the held-out partition and produces the ranked
// prediction table with top-K business metrics.
package rank

import (
	"context"
	"fmt"
	"sort"

	"purchase-intent-lab/internal/classifier"
	"purchase-intent-lab/internal/domain"
)

// Ranker scores feature vectors and orders them by predicted probability.
type Ranker struct {
	clf       classifier.Classifier
	threshold float64
}

// NewRanker creates a ranker with the given decision threshold.
// The threshold must be validated by the caller before any scoring.
func NewRanker(clf classifier.Classifier, threshold float64) *Ranker {
	return &Ranker{clf: clf, threshold: threshold}
}

// Rank scores every vector and returns predictions in published order:
// predicted_probability DESC, ties broken by session_id ASC so identical
// inputs always produce identical rankings.
func (r *Ranker) Rank(ctx context.Context, model *classifier.Model, modelID string, vectors []*domain.FeatureVector, schema classifier.Schema) ([]*domain.Prediction, error) {
	probs, err := r.clf.Score(ctx, model, vectors, schema)
	if err != nil {
		return nil, fmt.Errorf("score partition: %w", err)
	}

	predictions := make([]*domain.Prediction, len(vectors))
	for i, v := range vectors {
		predictions[i] = &domain.Prediction{
			SessionID:            v.SessionID,
			ModelID:              modelID,
			PredictedLabel:       probs[i] >= r.threshold,
			PredictedProbability: probs[i],
		}
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		if predictions[i].PredictedProbability != predictions[j].PredictedProbability {
			return predictions[i].PredictedProbability > predictions[j].PredictedProbability
		}
		return predictions[i].SessionID < predictions[j].SessionID
	})

	return predictions, nil
}
