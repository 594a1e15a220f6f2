package classifier

import (
	"math"
	"sort"

	"purchase-intent-lab/internal/domain"
)

// fitEncoding captures numeric standardization stats and categorical
// vocabularies from the training vectors. Vocabularies are sorted so the
// encoded dimension order is deterministic.
func fitEncoding(vectors []*domain.FeatureVector, schema Schema) ([]NumericStat, map[string][]string) {
	numeric := schema.Numeric()
	stats := make([]NumericStat, 0, len(numeric))
	for _, col := range numeric {
		var sum, sumSq float64
		for _, v := range vectors {
			x, _ := v.NumericValue(col)
			sum += x
			sumSq += x * x
		}
		n := float64(len(vectors))
		mean := sum / n
		variance := sumSq/n - mean*mean
		std := math.Sqrt(math.Max(variance, 0))
		if std == 0 {
			std = 1
		}
		stats = append(stats, NumericStat{Column: col, Mean: mean, Std: std})
	}

	vocab := make(map[string][]string)
	for _, col := range schema.Categorical() {
		seen := make(map[string]struct{})
		for _, v := range vectors {
			val, _ := v.CategoricalValue(col)
			seen[val] = struct{}{}
		}
		values := make([]string, 0, len(seen))
		for val := range seen {
			values = append(values, val)
		}
		sort.Strings(values)
		vocab[col] = values
	}

	return stats, vocab
}

// dimension returns the encoded vector length for a model's encoding.
func dimension(stats []NumericStat, vocab map[string][]string, schema Schema) int {
	dim := len(stats)
	for _, col := range schema.Categorical() {
		dim += len(vocab[col])
	}
	return dim
}

// encode converts a feature vector into a dense float vector: standardized
// numeric columns first, then one-hot categorical columns. Values unseen in
// training leave their column's block all zero.
func encode(v *domain.FeatureVector, stats []NumericStat, vocab map[string][]string, schema Schema) []float64 {
	out := make([]float64, 0, dimension(stats, vocab, schema))

	for _, st := range stats {
		x, _ := v.NumericValue(st.Column)
		out = append(out, (x-st.Mean)/st.Std)
	}

	for _, col := range schema.Categorical() {
		values := vocab[col]
		val, _ := v.CategoricalValue(col)
		idx := sort.SearchStrings(values, val)
		for i := range values {
			if i == idx && idx < len(values) && values[idx] == val {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}

	return out
}
