// Package evaluate computes rank-based evaluation metrics for scored
// partitions.
package evaluate

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUndefinedMetric is returned when ROC-AUC is requested on a partition
// with zero positive or zero negative labels. The metric is undefined there
// and must never be reported as 0.0 or NaN.
var ErrUndefinedMetric = errors.New("metric undefined on a single-class partition")

// ROCAUC computes the area under the ROC curve for paired scores and labels
// using the rank-statistic (Mann-Whitney) formulation with midranks for
// tied scores. Equivalent to integrating TPR over FPR across all thresholds.
func ROCAUC(scores []float64, labels []bool) (float64, error) {
	if len(scores) != len(labels) {
		return 0, fmt.Errorf("scores and labels length mismatch: %d vs %d", len(scores), len(labels))
	}

	positives := 0
	for _, l := range labels {
		if l {
			positives++
		}
	}
	negatives := len(labels) - positives
	if positives == 0 || negatives == 0 {
		return 0, ErrUndefinedMetric
	}

	type scored struct {
		score float64
		label bool
	}
	rows := make([]scored, len(scores))
	for i := range scores {
		rows[i] = scored{scores[i], labels[i]}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].score < rows[j].score })

	// Sum of positive ranks, averaging ranks within tie groups
	var rankSum float64
	i := 0
	for i < len(rows) {
		j := i
		for j < len(rows) && rows[j].score == rows[i].score {
			j++
		}
		// 1-based ranks i+1..j share the midrank
		midrank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if rows[k].label {
				rankSum += midrank
			}
		}
		i = j
	}

	nPos := float64(positives)
	nNeg := float64(negatives)
	auc := (rankSum - nPos*(nPos+1)/2) / (nPos * nNeg)
	return auc, nil
}
