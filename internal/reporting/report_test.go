package reporting

import (
	"strings"
	"testing"
	"time"

	"purchase-intent-lab/internal/domain"
	"purchase-intent-lab/internal/evaluate"
	"purchase-intent-lab/internal/rank"
)

func sampleReport() *Report {
	return &Report{
		GeneratedAt:     time.Date(2017, 7, 1, 12, 0, 0, 0, time.UTC),
		LabelDefinition: "purchase_excludes_first_session",
		ModelID:         "model-abc",
		SchemaHash:      "0123456789abcdef0123456789abcdef",
		FeatureColumns:  []string{domain.ColBounced, domain.ColCountry},
		TrainWindow:     "2016-08-01 .. 2017-01-31",
		EvaluateWindow:  "2017-02-01 .. 2017-04-30",
		ScoreWindow:     "2017-05-01 .. 2017-06-30",
		DataSummary: DataSummary{
			SessionsScanned:   100,
			VisitorsLabeled:   40,
			TrainVectors:      30,
			EvaluateVectors:   5,
			ScoreVectors:      5,
			RankedPredictions: 5,
		},
		Evaluation: &evaluate.Report{
			Defined:   true,
			ROCAUC:    0.8421,
			Bucket:    evaluate.QualityFair,
			Rows:      5,
			Positives: 2,
		},
		TopK: &rank.TopKReport{
			TopKFraction:        0.1,
			K:                   1,
			PrecisionAtK:        1.0,
			LiftAtK:             2.5,
			CoverageAtK:         0.5,
			OverallPositiveRate: 0.4,
			TotalRows:           5,
			TotalPositives:      2,
		},
		Warnings: []string{"score partition smaller than K"},
	}
}

func TestRenderMarkdown_Sections(t *testing.T) {
	out := RenderMarkdown(sampleReport())

	for _, want := range []string{
		"## Windows",
		"## Data Summary",
		"## Evaluation",
		"ROC-AUC: **0.8421**",
		"## Top-K Business Metrics",
		"| Lift@K | 2.5000 |",
		"## Warnings",
		"score partition smaller than K",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_UndefinedEvaluation(t *testing.T) {
	r := sampleReport()
	r.Evaluation = &evaluate.Report{Defined: false, Bucket: evaluate.QualityUndefined, Rows: 3}

	out := RenderMarkdown(r)
	if !strings.Contains(out, "ROC-AUC: **undefined**") {
		t.Error("Expected explicit undefined ROC-AUC rendering")
	}
}

func TestRenderMarkdown_EmptyPartitions(t *testing.T) {
	r := sampleReport()
	r.Evaluation = nil
	r.TopK = nil

	out := RenderMarkdown(r)
	if !strings.Contains(out, "no evaluation performed") {
		t.Error("Expected empty-evaluate notice")
	}
	if !strings.Contains(out, "no ranking metrics computed") {
		t.Error("Expected empty-score notice")
	}
}

func TestRenderPredictionsCSV(t *testing.T) {
	predictions := []*domain.Prediction{
		{SessionID: "s1", ModelID: "m1", PredictedLabel: true, PredictedProbability: 0.91},
		{SessionID: "s2", ModelID: "m1", PredictedLabel: false, PredictedProbability: 0.12},
	}

	out, err := RenderPredictionsCSV(predictions)
	if err != nil {
		t.Fatalf("RenderPredictionsCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "session_id,model_id,predicted_label,predicted_probability" {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if lines[1] != "s1,m1,true,0.910000" {
		t.Errorf("Unexpected first row: %s", lines[1])
	}
}

func TestRenderTopKCSV(t *testing.T) {
	out, err := RenderTopKCSV(&rank.TopKReport{
		TopKFraction: 0.1, K: 3, PrecisionAtK: 1, LiftAtK: 2.5,
		CoverageAtK: 0.75, OverallPositiveRate: 0.4, TotalRows: 30, TotalPositives: 12,
	})
	if err != nil {
		t.Fatalf("RenderTopKCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header + 1 row, got %d lines", len(lines))
	}
	if lines[1] != "0.10,3,1.000000,2.500000,0.750000,0.400000,30,12" {
		t.Errorf("Unexpected row: %s", lines[1])
	}
}
