package classifier

import (
	"context"

	"purchase-intent-lab/internal/domain"
)

// Stub is a deterministic Classifier for pipeline tests. It performs no
// learning: scores are a fixed monotone function of checkout progress and
// bounce, so rankings and metrics are exactly predictable. It enforces the
// same schema contract as the real implementation.
type Stub struct{}

// NewStub creates a stub classifier.
func NewStub() *Stub { return &Stub{} }

var _ Classifier = (*Stub)(nil)

// Train records the schema and returns a model with no learned parameters.
func (s *Stub) Train(_ context.Context, vectors []*domain.FeatureVector, schema Schema) (*Model, error) {
	if len(vectors) == 0 {
		return nil, ErrNoTrainingData
	}
	return &Model{
		SchemaColumns: append([]string(nil), schema.Columns...),
		SchemaHash:    schema.Hash(),
		Vocabularies:  map[string][]string{},
	}, nil
}

// Score maps checkout progress to a probability: progress/10 + 0.05,
// halved when the session bounced.
func (s *Stub) Score(_ context.Context, model *Model, vectors []*domain.FeatureVector, schema Schema) ([]float64, error) {
	if err := model.checkSchema(schema); err != nil {
		return nil, err
	}

	probs := make([]float64, len(vectors))
	for i, v := range vectors {
		p := float64(v.LatestCheckoutProgress)/10 + 0.05
		if v.Bounced {
			p /= 2
		}
		probs[i] = p
	}
	return probs, nil
}
