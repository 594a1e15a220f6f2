package domain

import "time"

// Checkout progress stages carried on each hit's action_type.
// Stage 0 means no checkout activity; stage 6 is a completed purchase.
const (
	ActionNone             = 0
	ActionClickThrough     = 1
	ActionProductDetail    = 2
	ActionAddToCart        = 3
	ActionCheckout         = 4
	ActionPaymentEntered   = 5
	ActionPurchaseComplete = 6
)

// Hit is one recorded interaction within a session. Immutable once logged.
type Hit struct {
	HitNumber    int // timestamp-ordered index within the session
	ActionType   int // checkout progress stage, ActionNone..ActionPurchaseComplete
	ProductCount int // number of product-line sub-records attached to the hit
}

// Session is one raw visit row from the event store, with its nested hit
// sequence. Nullable source fields stay pointers here; defaults are applied
// only when the aggregator flattens the row into a SessionSummary.
// Corresponds to the sessions + session_hits tables in PostgreSQL.
type Session struct {
	VisitorID       string
	VisitID         int64
	SessionDate     time.Time // UTC, truncated to day
	IsFirstVisit    *bool     // source new-visit flag, nil when not set
	Bounced         *bool
	TimeOnSiteSec   *int64
	Pageviews       *int64
	TrafficSource   string
	TrafficMedium   string
	ChannelGrouping string
	DeviceCategory  string
	Country         *string
	Transactions    *int64 // completed transaction count reported by the source
	Hits            []Hit
}

// SessionSummary is the flattened session-grain row produced by the
// aggregator. Every nullable field has its documented default applied and
// LatestCheckoutProgress holds the maximum action_type across the hits.
type SessionSummary struct {
	SessionID              string // deterministic id from (visitor_id, visit_id)
	VisitorID              string
	VisitID                int64
	SessionDate            time.Time
	IsFirstVisit           bool
	Bounced                bool
	TimeOnSiteSec          int64
	Pageviews              int64
	TrafficSource          string
	TrafficMedium          string
	ChannelGrouping        string
	DeviceCategory         string
	Country                string
	Transactions           int64
	LatestCheckoutProgress int // max hit action_type, 0 when the session has no hits
}

// HasPurchase reports whether the session recorded a completed transaction,
// either via the source transaction count or a completed-purchase hit.
func (s *Session) HasPurchase() bool {
	if s.Transactions != nil && *s.Transactions > 0 {
		return true
	}
	for _, h := range s.Hits {
		if h.ActionType == ActionPurchaseComplete {
			return true
		}
	}
	return false
}
