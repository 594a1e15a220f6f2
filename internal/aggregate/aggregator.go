// Package aggregate flattens raw nested session rows into session-grain
// summaries. It is the only place the pipeline's implicit null defaults are
// applied; see defaults.go for the full table.
package aggregate

import (
	"sort"

	"purchase-intent-lab/internal/domain"
	"purchase-intent-lab/internal/idhash"
)

// Summarize folds one raw session into a SessionSummary.
// latest_checkout_progress is the maximum action_type across the session's
// hits; a session with zero hits cannot occur by construction, but if one
// does the progress resolves to 0 rather than failing.
func Summarize(s *domain.Session) *domain.SessionSummary {
	progress := domain.ActionNone
	for _, h := range s.Hits {
		if h.ActionType > progress {
			progress = h.ActionType
		}
	}

	return &domain.SessionSummary{
		SessionID:              idhash.ComputeSessionID(s.VisitorID, s.VisitID),
		VisitorID:              s.VisitorID,
		VisitID:                s.VisitID,
		SessionDate:            domain.Day(s.SessionDate),
		IsFirstVisit:           defaultBool(s.IsFirstVisit),
		Bounced:                defaultBool(s.Bounced),
		TimeOnSiteSec:          defaultInt64(s.TimeOnSiteSec),
		Pageviews:              defaultInt64(s.Pageviews),
		TrafficSource:          s.TrafficSource,
		TrafficMedium:          s.TrafficMedium,
		ChannelGrouping:        s.ChannelGrouping,
		DeviceCategory:         s.DeviceCategory,
		Country:                defaultString(s.Country),
		Transactions:           defaultInt64(s.Transactions),
		LatestCheckoutProgress: progress,
	}
}

// SummarizeAll groups raw rows by the session natural key and emits exactly
// one summary per (visitor_id, visit_id). Duplicate raw rows for the same
// key are merged: hit sequences are concatenated and the associative
// aggregates (max progress, counts) absorb them. Output is ordered by
// visitor_id ASC, visit_id ASC.
func SummarizeAll(sessions []*domain.Session) []*domain.SessionSummary {
	type key struct {
		visitorID string
		visitID   int64
	}

	merged := make(map[key]*domain.Session)
	order := make([]key, 0, len(sessions))
	for _, s := range sessions {
		k := key{s.VisitorID, s.VisitID}
		existing, ok := merged[k]
		if !ok {
			c := *s
			c.Hits = append([]domain.Hit(nil), s.Hits...)
			merged[k] = &c
			order = append(order, k)
			continue
		}
		existing.Hits = append(existing.Hits, s.Hits...)
		if existing.Transactions == nil {
			existing.Transactions = s.Transactions
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].visitorID != order[j].visitorID {
			return order[i].visitorID < order[j].visitorID
		}
		return order[i].visitID < order[j].visitID
	})

	result := make([]*domain.SessionSummary, 0, len(order))
	for _, k := range order {
		result = append(result, Summarize(merged[k]))
	}
	return result
}
