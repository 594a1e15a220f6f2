package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the run report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Return-Visit Purchase Prediction Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Model: %s | Schema: %s\n\n", r.ModelID, shortHash(r.SchemaHash)))
	sb.WriteString(fmt.Sprintf("Label definition: `%s`\n\n", r.LabelDefinition))

	sb.WriteString("## Windows\n\n")
	sb.WriteString("| Partition | Range |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| train | %s |\n", r.TrainWindow))
	sb.WriteString(fmt.Sprintf("| evaluate | %s |\n", r.EvaluateWindow))
	sb.WriteString(fmt.Sprintf("| score | %s |\n\n", r.ScoreWindow))

	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Sessions Scanned | %d |\n", r.DataSummary.SessionsScanned))
	sb.WriteString(fmt.Sprintf("| Visitors Labeled | %d |\n", r.DataSummary.VisitorsLabeled))
	sb.WriteString(fmt.Sprintf("| Positive Visitors | %d |\n", r.DataSummary.PositiveVisitors))
	sb.WriteString(fmt.Sprintf("| Train Vectors | %d |\n", r.DataSummary.TrainVectors))
	sb.WriteString(fmt.Sprintf("| Evaluate Vectors | %d |\n", r.DataSummary.EvaluateVectors))
	sb.WriteString(fmt.Sprintf("| Score Vectors | %d |\n", r.DataSummary.ScoreVectors))
	sb.WriteString(fmt.Sprintf("| Dropped (no label) | %d |\n", r.DataSummary.DroppedNoLabel))
	sb.WriteString(fmt.Sprintf("| Ranked Predictions | %d |\n\n", r.DataSummary.RankedPredictions))

	sb.WriteString("## Feature Columns\n\n")
	for _, col := range r.FeatureColumns {
		sb.WriteString(fmt.Sprintf("- `%s`\n", col))
	}
	sb.WriteString("\n")

	sb.WriteString("## Evaluation\n\n")
	switch {
	case r.Evaluation == nil:
		sb.WriteString("Evaluate partition was empty; no evaluation performed.\n\n")
	case !r.Evaluation.Defined:
		sb.WriteString("ROC-AUC: **undefined** (single-class evaluate partition)\n\n")
		sb.WriteString(fmt.Sprintf("Rows: %d, positives: %d\n\n", r.Evaluation.Rows, r.Evaluation.Positives))
	default:
		sb.WriteString(fmt.Sprintf("ROC-AUC: **%.4f** (%s)\n\n", r.Evaluation.ROCAUC, r.Evaluation.Bucket))
		sb.WriteString(fmt.Sprintf("Rows: %d, positives: %d\n\n", r.Evaluation.Rows, r.Evaluation.Positives))
	}

	sb.WriteString("## Top-K Business Metrics\n\n")
	if r.TopK == nil {
		sb.WriteString("Score partition was empty; no ranking metrics computed.\n\n")
	} else {
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Top-K Fraction | %.2f |\n", r.TopK.TopKFraction))
		sb.WriteString(fmt.Sprintf("| K | %d |\n", r.TopK.K))
		sb.WriteString(fmt.Sprintf("| Precision@K | %.4f |\n", r.TopK.PrecisionAtK))
		sb.WriteString(fmt.Sprintf("| Lift@K | %.4f |\n", r.TopK.LiftAtK))
		sb.WriteString(fmt.Sprintf("| Coverage@K | %.4f |\n", r.TopK.CoverageAtK))
		sb.WriteString(fmt.Sprintf("| Overall Positive Rate | %.4f |\n\n", r.TopK.OverallPositiveRate))
	}

	if len(r.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
