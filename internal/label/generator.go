// Package label computes the per-visitor "will buy on a return visit"
// training target from full session history.
package label

import (
	"context"
	"fmt"
	"sort"

	"purchase-intent-lab/internal/domain"
	"purchase-intent-lab/internal/storage"
)

// Definition selects how a purchase on the visitor's very first session is
// treated. The source query conflated "completed a transaction" with
// "transaction on a non-first visit" through a nullability flag, so the
// choice is pinned by configuration instead of guessed.
type Definition string

const (
	// PurchaseExcludesFirstSession counts a purchase only when it happens on
	// a session that is not the visitor's chronologically-first session
	// (ordered by session_date, then visit_id).
	PurchaseExcludesFirstSession Definition = "purchase_excludes_first_session"

	// PurchaseAnyNonFirstTransactionFlag trusts the raw new-visit flag: a
	// purchase counts whenever the purchasing session's is_first_visit flag
	// is not set to true. Reproduces the source's "newVisits IS NULL" filter,
	// including its behavior on rows where the flag is missing.
	PurchaseAnyNonFirstTransactionFlag Definition = "purchase_any_nonfirst_transaction_flag"
)

// Valid reports whether d is a known label definition.
func (d Definition) Valid() bool {
	return d == PurchaseExcludesFirstSession || d == PurchaseAnyNonFirstTransactionFlag
}

// Generator computes visitor labels from the full event log.
type Generator struct {
	sessionStore storage.SessionStore
	definition   Definition
}

// NewGenerator creates a label generator with the given definition.
func NewGenerator(sessionStore storage.SessionStore, definition Definition) (*Generator, error) {
	if !definition.Valid() {
		return nil, fmt.Errorf("unknown label definition %q", definition)
	}
	return &Generator{sessionStore: sessionStore, definition: definition}, nil
}

// Generate scans every session in the store, grouped by visitor, and returns
// a complete visitor_id -> label map. The scan is deliberately unrestricted
// by date so the label is a pure function of full history, independent of
// any feature-extraction window applied downstream.
func (g *Generator) Generate(ctx context.Context) (map[string]bool, error) {
	sessions, err := g.sessionStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sessions for labeling: %w", err)
	}

	byVisitor := make(map[string][]*domain.Session)
	for _, s := range sessions {
		byVisitor[s.VisitorID] = append(byVisitor[s.VisitorID], s)
	}

	labels := make(map[string]bool, len(byVisitor))
	for visitorID, visitorSessions := range byVisitor {
		labels[visitorID] = LabelVisitor(visitorSessions, g.definition)
	}

	return labels, nil
}

// LabelVisitor computes one visitor's label from their sessions under the
// given definition. Exposed for direct use on pre-grouped history.
func LabelVisitor(sessions []*domain.Session, definition Definition) bool {
	if len(sessions) == 0 {
		return false
	}

	switch definition {
	case PurchaseAnyNonFirstTransactionFlag:
		for _, s := range sessions {
			if s.HasPurchase() && (s.IsFirstVisit == nil || !*s.IsFirstVisit) {
				return true
			}
		}
		return false

	case PurchaseExcludesFirstSession:
		ordered := make([]*domain.Session, len(sessions))
		copy(ordered, sessions)
		sort.Slice(ordered, func(i, j int) bool {
			if !ordered[i].SessionDate.Equal(ordered[j].SessionDate) {
				return ordered[i].SessionDate.Before(ordered[j].SessionDate)
			}
			return ordered[i].VisitID < ordered[j].VisitID
		})

		// ordered[0] is the visitor's first session; purchases there do not count
		for _, s := range ordered[1:] {
			if s.HasPurchase() {
				return true
			}
		}
		return false

	default:
		// NewGenerator rejects unknown definitions; reaching this is a
		// programming error, not a data condition.
		panic(fmt.Sprintf("unknown label definition %q", definition))
	}
}
