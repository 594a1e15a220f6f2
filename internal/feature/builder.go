// Package feature joins session summaries with visitor labels into the flat
// labeled table the classifier consumes.
package feature

import (
	"sort"

	"purchase-intent-lab/internal/domain"
)

// BuildResult carries the labeled table plus join bookkeeping for the run report.
type BuildResult struct {
	Vectors []*domain.FeatureVector

	// DroppedNoLabel counts first-visit sessions whose visitor had no
	// computable label. Should stay zero when the label pass covered all
	// visitors; reported rather than silently swallowed.
	DroppedNoLabel int

	// SkippedNonFirst counts sessions excluded because they are not
	// first-time visits.
	SkippedNonFirst int

	// SkippedOutOfWindow counts first-visit sessions outside the window.
	SkippedOutOfWindow int
}

// Build produces exactly one FeatureVector per first-visit session inside
// the window, inner-joined with the visitor label map. Duplicate summaries
// for the same session id keep the first occurrence. Output is ordered by
// session_id ASC so reruns over the same snapshot are bit-identical.
func Build(summaries []*domain.SessionSummary, labels map[string]bool, window domain.DateWindow) *BuildResult {
	result := &BuildResult{}
	seen := make(map[string]struct{}, len(summaries))

	for _, s := range summaries {
		if !s.IsFirstVisit {
			result.SkippedNonFirst++
			continue
		}
		if !window.Contains(s.SessionDate) {
			result.SkippedOutOfWindow++
			continue
		}
		if _, dup := seen[s.SessionID]; dup {
			continue
		}

		label, ok := labels[s.VisitorID]
		if !ok {
			result.DroppedNoLabel++
			continue
		}

		seen[s.SessionID] = struct{}{}
		result.Vectors = append(result.Vectors, &domain.FeatureVector{
			SessionID:              s.SessionID,
			VisitorID:              s.VisitorID,
			VisitID:                s.VisitID,
			SessionDate:            s.SessionDate,
			Bounced:                s.Bounced,
			TimeOnSiteSec:          s.TimeOnSiteSec,
			Pageviews:              s.Pageviews,
			TrafficSource:          s.TrafficSource,
			TrafficMedium:          s.TrafficMedium,
			ChannelGrouping:        s.ChannelGrouping,
			DeviceCategory:         s.DeviceCategory,
			Country:                s.Country,
			LatestCheckoutProgress: s.LatestCheckoutProgress,
			Label:                  label,
		})
	}

	sort.Slice(result.Vectors, func(i, j int) bool {
		return result.Vectors[i].SessionID < result.Vectors[j].SessionID
	})

	return result
}
