package rank

import (
	"fmt"
	"math"

	"purchase-intent-lab/internal/domain"
)

// TopKReport holds the rank-based business metrics over a scored partition
// with known true labels. Read-only aggregate, never persisted as state.
type TopKReport struct {
	TopKFraction        float64
	K                   int
	PrecisionAtK        float64
	LiftAtK             float64
	CoverageAtK         float64
	OverallPositiveRate float64
	TotalRows           int
	TotalPositives      int
}

// ComputeTopK computes precision/lift/coverage over the top-K fraction of an
// already-ranked prediction list. labels maps session_id to the true label.
// K is ceil(fraction * rows), at least 1 when rows exist. Lift is 0 when the
// partition has no positives (the rate ratio is undefined there and the
// report carries OverallPositiveRate = 0 to make that visible).
func ComputeTopK(ranked []*domain.Prediction, labels map[string]bool, fraction float64) (*TopKReport, error) {
	if fraction <= 0 || fraction > 1 {
		return nil, fmt.Errorf("top-k fraction %f outside (0, 1]", fraction)
	}

	report := &TopKReport{TopKFraction: fraction, TotalRows: len(ranked)}
	if len(ranked) == 0 {
		return report, nil
	}

	for _, p := range ranked {
		if labels[p.SessionID] {
			report.TotalPositives++
		}
	}
	report.OverallPositiveRate = float64(report.TotalPositives) / float64(len(ranked))

	k := int(math.Ceil(fraction * float64(len(ranked))))
	if k < 1 {
		k = 1
	}
	report.K = k

	positivesInTopK := 0
	for _, p := range ranked[:k] {
		if labels[p.SessionID] {
			positivesInTopK++
		}
	}

	report.PrecisionAtK = float64(positivesInTopK) / float64(k)
	if report.OverallPositiveRate > 0 {
		report.LiftAtK = report.PrecisionAtK / report.OverallPositiveRate
		report.CoverageAtK = float64(positivesInTopK) / float64(report.TotalPositives)
	}

	return report, nil
}
