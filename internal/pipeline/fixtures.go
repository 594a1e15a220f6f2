package pipeline

import (
	"fmt"
	"time"

	"purchase-intent-lab/internal/domain"
	"purchase-intent-lab/internal/split"
)

// FixtureWindows returns the canonical window layout used by fixture runs:
// six months of training, three of evaluation, two of scoring.
func FixtureWindows() split.Config {
	return split.Config{
		Train: domain.DateWindow{
			Start: time.Date(2016, 8, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2017, 1, 31, 0, 0, 0, 0, time.UTC),
		},
		Evaluate: domain.DateWindow{
			Start: time.Date(2017, 2, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2017, 4, 30, 0, 0, 0, 0, time.UTC),
		},
		Score: domain.DateWindow{
			Start: time.Date(2017, 5, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2017, 6, 30, 0, 0, 0, 0, time.UTC),
		},
	}
}

// FixtureSessions returns a small deterministic session log covering the
// labeling edge cases:
//   - visitor-returns-and-buys: browses on the first visit, purchases on a
//     later one. Positive under both label definitions.
//   - visitor-buys-first-visit: purchases on the only (first) visit.
//     Negative under the chronological definition.
//   - visitor-never-buys: bounces on the only visit. Negative.
func FixtureSessions() []*domain.Session {
	return []*domain.Session{
		{
			VisitorID:       "visitor-returns-and-buys",
			VisitID:         1001,
			SessionDate:     time.Date(2016, 9, 5, 0, 0, 0, 0, time.UTC),
			IsFirstVisit:    boolPtr(true),
			Bounced:         boolPtr(false),
			TimeOnSiteSec:   int64Ptr(420),
			Pageviews:       int64Ptr(12),
			TrafficSource:   "google",
			TrafficMedium:   "organic",
			ChannelGrouping: "Organic Search",
			DeviceCategory:  "desktop",
			Country:         strPtr("United States"),
			Hits: []domain.Hit{
				{HitNumber: 1, ActionType: domain.ActionProductDetail, ProductCount: 1},
				{HitNumber: 2, ActionType: domain.ActionAddToCart, ProductCount: 1},
			},
		},
		{
			VisitorID:       "visitor-returns-and-buys",
			VisitID:         1002,
			SessionDate:     time.Date(2017, 3, 14, 0, 0, 0, 0, time.UTC),
			IsFirstVisit:    boolPtr(false),
			Bounced:         boolPtr(false),
			TimeOnSiteSec:   int64Ptr(610),
			Pageviews:       int64Ptr(18),
			TrafficSource:   "(direct)",
			TrafficMedium:   "(none)",
			ChannelGrouping: "Direct",
			DeviceCategory:  "desktop",
			Country:         strPtr("United States"),
			Transactions:    int64Ptr(1),
			Hits: []domain.Hit{
				{HitNumber: 1, ActionType: domain.ActionCheckout, ProductCount: 2},
				{HitNumber: 2, ActionType: domain.ActionPurchaseComplete, ProductCount: 2},
			},
		},
		{
			VisitorID:       "visitor-buys-first-visit",
			VisitID:         2001,
			SessionDate:     time.Date(2016, 10, 2, 0, 0, 0, 0, time.UTC),
			IsFirstVisit:    boolPtr(true),
			Bounced:         boolPtr(false),
			TimeOnSiteSec:   int64Ptr(380),
			Pageviews:       int64Ptr(9),
			TrafficSource:   "newsletter",
			TrafficMedium:   "email",
			ChannelGrouping: "Email",
			DeviceCategory:  "mobile",
			Country:         strPtr("Canada"),
			Transactions:    int64Ptr(1),
			Hits: []domain.Hit{
				{HitNumber: 1, ActionType: domain.ActionPurchaseComplete, ProductCount: 1},
			},
		},
		{
			VisitorID:       "visitor-never-buys",
			VisitID:         3001,
			SessionDate:     time.Date(2017, 5, 8, 0, 0, 0, 0, time.UTC),
			IsFirstVisit:    boolPtr(true),
			Bounced:         boolPtr(true),
			Pageviews:       int64Ptr(1),
			TrafficSource:   "facebook.com",
			TrafficMedium:   "referral",
			ChannelGrouping: "Social",
			DeviceCategory:  "mobile",
			Hits: []domain.Hit{
				{HitNumber: 1, ActionType: domain.ActionNone},
			},
		},
	}
}

// SyntheticCohort generates a deterministic population of first-visit
// sessions spread across the three windows. Even-indexed visitors show high
// checkout progress on the first visit and purchase on a later return
// (positive label); odd-indexed visitors show shallow engagement and never
// return. The separation is wide enough for the trained model to recover it.
func SyntheticCohort(windows split.Config, perWindow int) []*domain.Session {
	var sessions []*domain.Session

	cohorts := []struct {
		name   string
		window domain.DateWindow
	}{
		{split.PartitionTrain, windows.Train},
		{split.PartitionEvaluate, windows.Evaluate},
		{split.PartitionScore, windows.Score},
	}

	for _, c := range cohorts {
		days := int(c.window.End.Sub(c.window.Start).Hours()/24) + 1
		for i := 0; i < perWindow; i++ {
			visitorID := fmt.Sprintf("cohort-%s-%03d", c.name, i)
			date := c.window.Start.AddDate(0, 0, i%days)
			buyer := i%2 == 0

			progress := domain.ActionClickThrough + i%2
			timeOnSite := int64(40 + 10*(i%5))
			pageviews := int64(2 + i%3)
			if buyer {
				progress = domain.ActionCheckout + i%2
				timeOnSite = int64(400 + 30*(i%5))
				pageviews = int64(10 + i%4)
			}

			first := &domain.Session{
				VisitorID:       visitorID,
				VisitID:         1,
				SessionDate:     date,
				IsFirstVisit:    boolPtr(true),
				Bounced:         boolPtr(!buyer && i%3 == 0),
				TimeOnSiteSec:   int64Ptr(timeOnSite),
				Pageviews:       int64Ptr(pageviews),
				TrafficSource:   []string{"google", "(direct)", "newsletter"}[i%3],
				TrafficMedium:   []string{"organic", "(none)", "email"}[i%3],
				ChannelGrouping: []string{"Organic Search", "Direct", "Email"}[i%3],
				DeviceCategory:  []string{"desktop", "mobile", "tablet"}[i%3],
				Country:         strPtr([]string{"United States", "Canada", "Germany"}[i%3]),
				Hits: []domain.Hit{
					{HitNumber: 1, ActionType: progress, ProductCount: 1},
				},
			}
			sessions = append(sessions, first)

			if buyer {
				sessions = append(sessions, &domain.Session{
					VisitorID:       visitorID,
					VisitID:         2,
					SessionDate:     date.AddDate(0, 0, 21),
					IsFirstVisit:    boolPtr(false),
					Bounced:         boolPtr(false),
					TimeOnSiteSec:   int64Ptr(timeOnSite + 120),
					Pageviews:       int64Ptr(pageviews + 4),
					TrafficSource:   "(direct)",
					TrafficMedium:   "(none)",
					ChannelGrouping: "Direct",
					DeviceCategory:  first.DeviceCategory,
					Country:         first.Country,
					Transactions:    int64Ptr(1),
					Hits: []domain.Hit{
						{HitNumber: 1, ActionType: domain.ActionPurchaseComplete, ProductCount: 1},
					},
				})
			}
		}
	}

	return sessions
}

func boolPtr(b bool) *bool    { return &b }
func int64Ptr(v int64) *int64 { return &v }
func strPtr(s string) *string { return &s }
