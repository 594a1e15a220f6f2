package rank

import (
	"context"
	"math"
	"testing"

	"purchase-intent-lab/internal/classifier"
	"purchase-intent-lab/internal/domain"
)

func stubModel(t *testing.T, schema classifier.Schema) (*classifier.Stub, *classifier.Model) {
	t.Helper()
	stub := classifier.NewStub()
	model, err := stub.Train(context.Background(), []*domain.FeatureVector{{SessionID: "seed"}}, schema)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	return stub, model
}

func defaultSchema(t *testing.T) classifier.Schema {
	t.Helper()
	schema, err := classifier.NewSchema(domain.DefaultFeatureColumns)
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}
	return schema
}

func TestRank_OrderAndThreshold(t *testing.T) {
	ctx := context.Background()
	schema := defaultSchema(t)
	stub, model := stubModel(t, schema)

	// Stub probability = progress/10 + 0.05
	vectors := []*domain.FeatureVector{
		{SessionID: "s-low", LatestCheckoutProgress: 1},  // 0.15
		{SessionID: "s-high", LatestCheckoutProgress: 6}, // 0.65
		{SessionID: "s-mid", LatestCheckoutProgress: 4},  // 0.45
	}

	ranker := NewRanker(stub, 0.5)
	predictions, err := ranker.Rank(ctx, model, "m1", vectors, schema)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}

	want := []string{"s-high", "s-mid", "s-low"}
	for i, w := range want {
		if predictions[i].SessionID != w {
			t.Errorf("Position %d: expected %s, got %s", i, w, predictions[i].SessionID)
		}
	}

	if !predictions[0].PredictedLabel {
		t.Error("0.65 >= 0.5 must predict true")
	}
	if predictions[1].PredictedLabel {
		t.Error("0.45 < 0.5 must predict false")
	}
}

func TestRank_TieBreakBySessionID(t *testing.T) {
	ctx := context.Background()
	schema := defaultSchema(t)
	stub, model := stubModel(t, schema)

	// Identical progress -> identical probabilities
	vectors := []*domain.FeatureVector{
		{SessionID: "s-c", LatestCheckoutProgress: 3},
		{SessionID: "s-a", LatestCheckoutProgress: 3},
		{SessionID: "s-b", LatestCheckoutProgress: 3},
	}

	ranker := NewRanker(stub, 0.5)
	predictions, err := ranker.Rank(ctx, model, "m1", vectors, schema)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}

	want := []string{"s-a", "s-b", "s-c"}
	for i, w := range want {
		if predictions[i].SessionID != w {
			t.Errorf("Position %d: expected %s, got %s", i, w, predictions[i].SessionID)
		}
	}
}

func TestComputeTopK_Metrics(t *testing.T) {
	// 10 rows, 4 positives; top-3 contains 3 positives
	ranked := []*domain.Prediction{
		{SessionID: "r1", PredictedProbability: 0.9},
		{SessionID: "r2", PredictedProbability: 0.8},
		{SessionID: "r3", PredictedProbability: 0.7},
		{SessionID: "r4", PredictedProbability: 0.6},
		{SessionID: "r5", PredictedProbability: 0.5},
		{SessionID: "r6", PredictedProbability: 0.4},
		{SessionID: "r7", PredictedProbability: 0.3},
		{SessionID: "r8", PredictedProbability: 0.2},
		{SessionID: "r9", PredictedProbability: 0.1},
		{SessionID: "r10", PredictedProbability: 0.05},
	}
	labels := map[string]bool{"r1": true, "r2": true, "r3": true, "r8": true}

	report, err := ComputeTopK(ranked, labels, 0.3)
	if err != nil {
		t.Fatalf("ComputeTopK failed: %v", err)
	}

	if report.K != 3 {
		t.Errorf("Expected K=3, got %d", report.K)
	}
	if report.PrecisionAtK != 1.0 {
		t.Errorf("Expected precision 1.0, got %f", report.PrecisionAtK)
	}
	if report.OverallPositiveRate != 0.4 {
		t.Errorf("Expected positive rate 0.4, got %f", report.OverallPositiveRate)
	}
	if math.Abs(report.LiftAtK-2.5) > 1e-12 {
		t.Errorf("Expected lift 2.5, got %f", report.LiftAtK)
	}
	if report.CoverageAtK != 0.75 {
		t.Errorf("Expected coverage 0.75, got %f", report.CoverageAtK)
	}
}

func TestComputeTopK_UniformScoresLiftOne(t *testing.T) {
	// A classifier with uniform scores ranks arbitrarily; with positives
	// spread evenly, lift at any K is 1.
	var ranked []*domain.Prediction
	labels := map[string]bool{}
	for i := 0; i < 10; i++ {
		id := string(rune('a' + i))
		ranked = append(ranked, &domain.Prediction{SessionID: id, PredictedProbability: 0.5})
		labels[id] = i%2 == 0 // alternate positives
	}

	report, err := ComputeTopK(ranked, labels, 0.2)
	if err != nil {
		t.Fatalf("ComputeTopK failed: %v", err)
	}

	if math.Abs(report.LiftAtK-1.0) > 1e-12 {
		t.Errorf("Expected lift 1.0 for uniform scores, got %f", report.LiftAtK)
	}
}

func TestComputeTopK_BetterThanRandomLiftAtLeastOne(t *testing.T) {
	// A ranking that concentrates positives at the top must yield lift >= 1
	ranked := []*domain.Prediction{
		{SessionID: "p1", PredictedProbability: 0.9},
		{SessionID: "p2", PredictedProbability: 0.8},
		{SessionID: "n1", PredictedProbability: 0.3},
		{SessionID: "n2", PredictedProbability: 0.2},
	}
	labels := map[string]bool{"p1": true, "p2": true}

	report, err := ComputeTopK(ranked, labels, 0.5)
	if err != nil {
		t.Fatalf("ComputeTopK failed: %v", err)
	}
	if report.LiftAtK < 1 {
		t.Errorf("Expected lift >= 1, got %f", report.LiftAtK)
	}
}

func TestComputeTopK_NoPositives(t *testing.T) {
	ranked := []*domain.Prediction{
		{SessionID: "a", PredictedProbability: 0.9},
		{SessionID: "b", PredictedProbability: 0.1},
	}

	report, err := ComputeTopK(ranked, map[string]bool{}, 0.5)
	if err != nil {
		t.Fatalf("ComputeTopK failed: %v", err)
	}
	if report.LiftAtK != 0 || report.OverallPositiveRate != 0 {
		t.Errorf("Expected zeroed lift and rate, got %+v", report)
	}
}

func TestComputeTopK_InvalidFraction(t *testing.T) {
	if _, err := ComputeTopK(nil, nil, 0); err == nil {
		t.Error("Expected error for fraction 0")
	}
	if _, err := ComputeTopK(nil, nil, 1.5); err == nil {
		t.Error("Expected error for fraction > 1")
	}
}
