package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"purchase-intent-lab/internal/domain"
	"purchase-intent-lab/internal/storage"
)

func testVector(sessionID string, date time.Time) *domain.FeatureVector {
	return &domain.FeatureVector{
		SessionID:   sessionID,
		VisitorID:   "visitor-" + sessionID,
		VisitID:     1,
		SessionDate: date,
		Pageviews:   3,
		Label:       true,
	}
}

func TestFeatureVectorStore_InsertBulkAndGetAll(t *testing.T) {
	store := NewFeatureVectorStore()
	ctx := context.Background()

	date := time.Date(2016, 9, 5, 0, 0, 0, 0, time.UTC)
	vectors := []*domain.FeatureVector{
		testVector("s-b", date),
		testVector("s-a", date),
	}
	if err := store.InsertBulk(ctx, vectors); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 vectors, got %d", len(result))
	}
	if result[0].SessionID != "s-a" || result[1].SessionID != "s-b" {
		t.Errorf("Expected session_id ASC order, got %s, %s", result[0].SessionID, result[1].SessionID)
	}
}

func TestFeatureVectorStore_DuplicateKey(t *testing.T) {
	store := NewFeatureVectorStore()
	ctx := context.Background()

	date := time.Date(2016, 9, 5, 0, 0, 0, 0, time.UTC)
	if err := store.InsertBulk(ctx, []*domain.FeatureVector{testVector("s1", date)}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, []*domain.FeatureVector{testVector("s1", date)})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	err = store.InsertBulk(ctx, []*domain.FeatureVector{
		testVector("s2", date),
		testVector("s2", date),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}
}

func TestFeatureVectorStore_GetByDateRange(t *testing.T) {
	store := NewFeatureVectorStore()
	ctx := context.Background()

	vectors := []*domain.FeatureVector{
		testVector("s-jan", time.Date(2017, 1, 15, 0, 0, 0, 0, time.UTC)),
		testVector("s-feb", time.Date(2017, 2, 1, 0, 0, 0, 0, time.UTC)),
		testVector("s-apr", time.Date(2017, 4, 30, 0, 0, 0, 0, time.UTC)),
		testVector("s-may", time.Date(2017, 5, 1, 0, 0, 0, 0, time.UTC)),
	}
	if err := store.InsertBulk(ctx, vectors); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// Both boundaries inclusive
	result, err := store.GetByDateRange(ctx,
		time.Date(2017, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2017, 4, 30, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("GetByDateRange failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 vectors in range, got %d", len(result))
	}
	if result[0].SessionID != "s-apr" || result[1].SessionID != "s-feb" {
		t.Errorf("Unexpected rows: %s, %s", result[0].SessionID, result[1].SessionID)
	}
}

func TestFeatureVectorStore_CopyIsolation(t *testing.T) {
	store := NewFeatureVectorStore()
	ctx := context.Background()

	v := testVector("s1", time.Date(2016, 9, 5, 0, 0, 0, 0, time.UTC))
	if err := store.InsertBulk(ctx, []*domain.FeatureVector{v}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// Mutating the caller's copy must not affect stored data
	v.Pageviews = 99

	result, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if result[0].Pageviews != 3 {
		t.Errorf("Stored vector mutated through caller reference: pageviews %d", result[0].Pageviews)
	}

	// Mutating a read result must not affect stored data either
	result[0].Label = false
	again, _ := store.GetAll(ctx)
	if !again[0].Label {
		t.Error("Stored vector mutated through read result")
	}
}
