package reporting

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"purchase-intent-lab/internal/domain"
	"purchase-intent-lab/internal/rank"
)

// RenderPredictionsCSV renders the ranked prediction table. Rows keep the
// published order of the input slice.
func RenderPredictionsCSV(predictions []*domain.Prediction) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write([]string{"session_id", "model_id", "predicted_label", "predicted_probability"}); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range predictions {
		row := []string{
			p.SessionID,
			p.ModelID,
			strconv.FormatBool(p.PredictedLabel),
			strconv.FormatFloat(p.PredictedProbability, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return sb.String(), nil
}

// RenderTopKCSV renders the top-K metrics as a single-row CSV.
func RenderTopKCSV(report *rank.TopKReport) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	header := []string{"top_k_fraction", "k", "precision_at_k", "lift_at_k", "coverage_at_k", "overall_positive_rate", "total_rows", "total_positives"}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	row := []string{
		strconv.FormatFloat(report.TopKFraction, 'f', 2, 64),
		strconv.Itoa(report.K),
		strconv.FormatFloat(report.PrecisionAtK, 'f', 6, 64),
		strconv.FormatFloat(report.LiftAtK, 'f', 6, 64),
		strconv.FormatFloat(report.CoverageAtK, 'f', 6, 64),
		strconv.FormatFloat(report.OverallPositiveRate, 'f', 6, 64),
		strconv.Itoa(report.TotalRows),
		strconv.Itoa(report.TotalPositives),
	}
	if err := w.Write(row); err != nil {
		return "", fmt.Errorf("write csv row: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return sb.String(), nil
}
