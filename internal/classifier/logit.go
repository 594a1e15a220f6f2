package classifier

import (
	"context"
	"math"

	"purchase-intent-lab/internal/domain"
)

// Training hyperparameters. Full-batch gradient descent with zero
// initialization keeps training fully deterministic for a given input order;
// the pipeline always presents vectors sorted by session_id.
const (
	defaultEpochs       = 400
	defaultLearningRate = 0.1
	defaultL2           = 0.001
)

// LogisticRegression is the default Classifier implementation: an L2-regularized
// logistic regression fit by deterministic full-batch gradient descent.
type LogisticRegression struct {
	Epochs       int
	LearningRate float64
	L2           float64
}

// NewLogisticRegression creates a logistic regression with default hyperparameters.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		Epochs:       defaultEpochs,
		LearningRate: defaultLearningRate,
		L2:           defaultL2,
	}
}

var _ Classifier = (*LogisticRegression)(nil)

// Train fits the model on labeled vectors under the given schema.
// Returns ErrNoTrainingData for an empty partition and ErrSingleClass when
// all labels agree.
func (lr *LogisticRegression) Train(ctx context.Context, vectors []*domain.FeatureVector, schema Schema) (*Model, error) {
	if len(vectors) == 0 {
		return nil, ErrNoTrainingData
	}

	positives := 0
	for _, v := range vectors {
		if v.Label {
			positives++
		}
	}
	if positives == 0 || positives == len(vectors) {
		return nil, ErrSingleClass
	}

	stats, vocab := fitEncoding(vectors, schema)

	encoded := make([][]float64, len(vectors))
	labels := make([]float64, len(vectors))
	for i, v := range vectors {
		encoded[i] = encode(v, stats, vocab, schema)
		if v.Label {
			labels[i] = 1
		}
	}

	dim := dimension(stats, vocab, schema)
	weights := make([]float64, dim)
	bias := 0.0
	n := float64(len(vectors))

	grad := make([]float64, dim)
	for epoch := 0; epoch < lr.Epochs; epoch++ {
		// Training is one opaque unit of work, but check for cancellation
		// between epochs so an aborted run stops promptly.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for d := range grad {
			grad[d] = lr.L2 * weights[d]
		}
		gradBias := 0.0

		for i, x := range encoded {
			p := sigmoid(dot(weights, x) + bias)
			diff := (p - labels[i]) / n
			for d := range x {
				grad[d] += diff * x[d]
			}
			gradBias += diff
		}

		for d := range weights {
			weights[d] -= lr.LearningRate * grad[d]
		}
		bias -= lr.LearningRate * gradBias
	}

	return &Model{
		SchemaColumns: append([]string(nil), schema.Columns...),
		SchemaHash:    schema.Hash(),
		NumericStats:  stats,
		Vocabularies:  vocab,
		Weights:       weights,
		Bias:          bias,
	}, nil
}

// Score returns one probability per input row. The request schema must hash
// to the model's training schema or ErrSchemaMismatch is returned.
func (lr *LogisticRegression) Score(ctx context.Context, model *Model, vectors []*domain.FeatureVector, schema Schema) ([]float64, error) {
	if err := model.checkSchema(schema); err != nil {
		return nil, err
	}

	probs := make([]float64, len(vectors))
	for i, v := range vectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		x := encode(v, model.NumericStats, model.Vocabularies, schema)
		probs[i] = sigmoid(dot(model.Weights, x) + model.Bias)
	}

	return probs, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(w, x []float64) float64 {
	var sum float64
	for i := range w {
		sum += w[i] * x[i]
	}
	return sum
}
