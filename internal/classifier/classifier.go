// Package classifier defines the trainable-classifier capability consumed by
// the pipeline and provides a deterministic logistic regression as the
// default implementation.
package classifier

import (
	"context"
	"errors"

	"purchase-intent-lab/internal/domain"
)

// Errors returned by classifier implementations.
var (
	// ErrSchemaMismatch is returned when Score is called with a feature
	// schema different from the model's training schema. Fatal, no fallback:
	// changing the feature set requires retraining.
	ErrSchemaMismatch = errors.New("feature schema does not match model training schema")

	// ErrNoTrainingData is returned when Train is called with zero examples.
	ErrNoTrainingData = errors.New("no training examples")

	// ErrSingleClass is returned when the training partition contains only
	// one label value; a discriminative model cannot be fit.
	ErrSingleClass = errors.New("training partition contains a single class")
)

// Classifier is the trainable binary classifier contract.
// Train fits a model on labeled vectors under a fixed named column schema.
// Score returns one probability in [0,1] per input row and must reject any
// schema that differs from the model's training schema.
type Classifier interface {
	Train(ctx context.Context, vectors []*domain.FeatureVector, schema Schema) (*Model, error)
	Score(ctx context.Context, model *Model, vectors []*domain.FeatureVector, schema Schema) ([]float64, error)
}
