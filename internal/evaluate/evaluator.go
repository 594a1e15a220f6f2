package evaluate

import (
	"context"
	"errors"
	"fmt"

	"purchase-intent-lab/internal/classifier"
	"purchase-intent-lab/internal/domain"
)

// QualityBucket maps a ROC-AUC scalar onto a coarse model-quality label.
type QualityBucket string

const (
	QualityGood      QualityBucket = "good"
	QualityFair      QualityBucket = "fair"
	QualityDecent    QualityBucket = "decent"
	QualityNotGreat  QualityBucket = "not great"
	QualityPoor      QualityBucket = "poor"
	QualityUndefined QualityBucket = "undefined"
)

// BucketFor maps ROC-AUC to its quality bucket via fixed thresholds.
func BucketFor(auc float64) QualityBucket {
	switch {
	case auc > 0.9:
		return QualityGood
	case auc > 0.8:
		return QualityFair
	case auc > 0.7:
		return QualityDecent
	case auc > 0.6:
		return QualityNotGreat
	default:
		return QualityPoor
	}
}

// Report is the read-only evaluation result. When Defined is false the
// partition contained a single class and ROCAUC carries no meaning.
type Report struct {
	Defined   bool
	ROCAUC    float64
	Bucket    QualityBucket
	Rows      int
	Positives int
}

// Evaluator scores the evaluation partition and reports ROC-AUC.
type Evaluator struct {
	clf classifier.Classifier
}

// NewEvaluator creates an evaluator backed by the given classifier.
func NewEvaluator(clf classifier.Classifier) *Evaluator {
	return &Evaluator{clf: clf}
}

// Evaluate scores the labeled vectors with the model and computes ROC-AUC.
// A single-class partition yields an explicit undefined report, not an error;
// schema mismatch and scoring failures propagate.
func (e *Evaluator) Evaluate(ctx context.Context, model *classifier.Model, vectors []*domain.FeatureVector, schema classifier.Schema) (*Report, error) {
	scores, err := e.clf.Score(ctx, model, vectors, schema)
	if err != nil {
		return nil, fmt.Errorf("score evaluate partition: %w", err)
	}

	labels := make([]bool, len(vectors))
	positives := 0
	for i, v := range vectors {
		labels[i] = v.Label
		if v.Label {
			positives++
		}
	}

	auc, err := ROCAUC(scores, labels)
	if err != nil {
		if errors.Is(err, ErrUndefinedMetric) {
			return &Report{
				Defined:   false,
				Bucket:    QualityUndefined,
				Rows:      len(vectors),
				Positives: positives,
			}, nil
		}
		return nil, err
	}

	return &Report{
		Defined:   true,
		ROCAUC:    auc,
		Bucket:    BucketFor(auc),
		Rows:      len(vectors),
		Positives: positives,
	}, nil
}
