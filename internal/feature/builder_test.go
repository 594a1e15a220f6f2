package feature

import (
	"testing"
	"time"

	"purchase-intent-lab/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func window(start, end string) domain.DateWindow {
	return domain.DateWindow{Start: day(start), End: day(end)}
}

func summary(sessionID, visitorID string, date string, firstVisit bool) *domain.SessionSummary {
	return &domain.SessionSummary{
		SessionID:    sessionID,
		VisitorID:    visitorID,
		VisitID:      1,
		SessionDate:  day(date),
		IsFirstVisit: firstVisit,
	}
}

func TestBuild_JoinsLabels(t *testing.T) {
	summaries := []*domain.SessionSummary{
		summary("s-a", "A", "2017-06-01", true),
		summary("s-b", "B", "2017-06-02", true),
	}
	labels := map[string]bool{"A": true, "B": false}

	result := Build(summaries, labels, window("2017-06-01", "2017-06-30"))

	if len(result.Vectors) != 2 {
		t.Fatalf("Expected 2 vectors, got %d", len(result.Vectors))
	}
	if !result.Vectors[0].Label || result.Vectors[1].Label {
		t.Errorf("Labels joined incorrectly: %v, %v", result.Vectors[0].Label, result.Vectors[1].Label)
	}
}

func TestBuild_FirstVisitOnly(t *testing.T) {
	summaries := []*domain.SessionSummary{
		summary("s-a", "A", "2017-06-01", true),
		summary("s-a2", "A", "2017-06-10", false), // return visit, excluded
	}
	labels := map[string]bool{"A": true}

	result := Build(summaries, labels, window("2017-06-01", "2017-06-30"))

	if len(result.Vectors) != 1 {
		t.Fatalf("Expected 1 vector, got %d", len(result.Vectors))
	}
	if result.SkippedNonFirst != 1 {
		t.Errorf("Expected 1 non-first skip, got %d", result.SkippedNonFirst)
	}
	for _, v := range result.Vectors {
		if v.SessionID == "s-a2" {
			t.Error("Non-first session leaked into the feature table")
		}
	}
}

func TestBuild_WindowFilter(t *testing.T) {
	summaries := []*domain.SessionSummary{
		summary("s-a", "A", "2017-05-31", true),
		summary("s-b", "B", "2017-06-01", true),
		summary("s-c", "C", "2017-06-30", true),
		summary("s-d", "D", "2017-07-01", true),
	}
	labels := map[string]bool{"A": false, "B": false, "C": false, "D": false}

	result := Build(summaries, labels, window("2017-06-01", "2017-06-30"))

	if len(result.Vectors) != 2 {
		t.Fatalf("Expected 2 vectors inside window, got %d", len(result.Vectors))
	}
	if result.SkippedOutOfWindow != 2 {
		t.Errorf("Expected 2 out-of-window skips, got %d", result.SkippedOutOfWindow)
	}
}

func TestBuild_InnerJoinDropsUnlabeled(t *testing.T) {
	summaries := []*domain.SessionSummary{
		summary("s-a", "A", "2017-06-01", true),
		summary("s-x", "X", "2017-06-02", true), // visitor missing from label map
	}
	labels := map[string]bool{"A": true}

	result := Build(summaries, labels, window("2017-06-01", "2017-06-30"))

	if len(result.Vectors) != 1 {
		t.Fatalf("Expected 1 vector, got %d", len(result.Vectors))
	}
	if result.DroppedNoLabel != 1 {
		t.Errorf("Expected 1 dropped-no-label, got %d", result.DroppedNoLabel)
	}
}

func TestBuild_NoDuplicateVectors(t *testing.T) {
	summaries := []*domain.SessionSummary{
		summary("s-a", "A", "2017-06-01", true),
		summary("s-a", "A", "2017-06-01", true),
	}
	labels := map[string]bool{"A": true}

	result := Build(summaries, labels, window("2017-06-01", "2017-06-30"))

	if len(result.Vectors) != 1 {
		t.Errorf("Expected deduped single vector, got %d", len(result.Vectors))
	}
}

func TestBuild_DeterministicOrder(t *testing.T) {
	summaries := []*domain.SessionSummary{
		summary("s-c", "C", "2017-06-03", true),
		summary("s-a", "A", "2017-06-01", true),
		summary("s-b", "B", "2017-06-02", true),
	}
	labels := map[string]bool{"A": false, "B": false, "C": false}

	first := Build(summaries, labels, window("2017-06-01", "2017-06-30"))
	second := Build(summaries, labels, window("2017-06-01", "2017-06-30"))

	want := []string{"s-a", "s-b", "s-c"}
	for i, w := range want {
		if first.Vectors[i].SessionID != w {
			t.Errorf("Position %d: expected %s, got %s", i, w, first.Vectors[i].SessionID)
		}
		if second.Vectors[i].SessionID != first.Vectors[i].SessionID {
			t.Errorf("Rerun produced different order at %d", i)
		}
	}
}
