package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"purchase-intent-lab/internal/domain"
)

// sessionRecord mirrors one raw feed row: a nested export record with
// session-level totals and the hit sequence. Nullable source fields are
// pointers and stay unset when the export omits them.
type sessionRecord struct {
	FullVisitorID   string         `json:"fullVisitorId"`
	VisitID         int64          `json:"visitId"`
	Date            string         `json:"date"` // YYYYMMDD
	Totals          *totalsRecord  `json:"totals"`
	TrafficSource   *trafficRecord `json:"trafficSource"`
	ChannelGrouping string         `json:"channelGrouping"`
	Device          *deviceRecord  `json:"device"`
	GeoNetwork      *geoRecord     `json:"geoNetwork"`
	Hits            []hitRecord    `json:"hits"`
}

type totalsRecord struct {
	Bounces      *int64 `json:"bounces"`
	TimeOnSite   *int64 `json:"timeOnSite"`
	Pageviews    *int64 `json:"pageviews"`
	NewVisits    *int64 `json:"newVisits"`
	Transactions *int64 `json:"transactions"`
}

type trafficRecord struct {
	Source string `json:"source"`
	Medium string `json:"medium"`
}

type deviceRecord struct {
	DeviceCategory string `json:"deviceCategory"`
}

type geoRecord struct {
	Country *string `json:"country"`
}

type hitRecord struct {
	HitNumber       int               `json:"hitNumber"`
	ECommerceAction *ecommerceAction  `json:"eCommerceAction"`
	Product         []json.RawMessage `json:"product"`
}

// ecommerceAction carries the checkout progress stage. The export encodes
// action_type as a string digit.
type ecommerceAction struct {
	ActionType string `json:"action_type"`
}

// ParseRecord decodes one raw feed record into a Session. The new-visit and
// bounce flags keep their source nullability: absent means unknown, not false.
func ParseRecord(data []byte) (*domain.Session, error) {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}
	return rec.toSession()
}

func (rec *sessionRecord) toSession() (*domain.Session, error) {
	if rec.FullVisitorID == "" {
		return nil, fmt.Errorf("session record missing fullVisitorId")
	}
	if rec.VisitID <= 0 {
		return nil, fmt.Errorf("session record for visitor %s has invalid visitId %d", rec.FullVisitorID, rec.VisitID)
	}
	date, err := parseExportDate(rec.Date)
	if err != nil {
		return nil, fmt.Errorf("session record for visitor %s: %w", rec.FullVisitorID, err)
	}

	s := &domain.Session{
		VisitorID:       rec.FullVisitorID,
		VisitID:         rec.VisitID,
		SessionDate:     date,
		ChannelGrouping: rec.ChannelGrouping,
	}

	if rec.Totals != nil {
		if rec.Totals.NewVisits != nil {
			first := *rec.Totals.NewVisits == 1
			s.IsFirstVisit = &first
		}
		if rec.Totals.Bounces != nil {
			bounced := *rec.Totals.Bounces >= 1
			s.Bounced = &bounced
		}
		s.TimeOnSiteSec = rec.Totals.TimeOnSite
		s.Pageviews = rec.Totals.Pageviews
		s.Transactions = rec.Totals.Transactions
	}
	if rec.TrafficSource != nil {
		s.TrafficSource = rec.TrafficSource.Source
		s.TrafficMedium = rec.TrafficSource.Medium
	}
	if rec.Device != nil {
		s.DeviceCategory = rec.Device.DeviceCategory
	}
	if rec.GeoNetwork != nil {
		s.Country = rec.GeoNetwork.Country
	}

	for _, h := range rec.Hits {
		action := domain.ActionNone
		if h.ECommerceAction != nil && h.ECommerceAction.ActionType != "" {
			action, err = strconv.Atoi(h.ECommerceAction.ActionType)
			if err != nil || action < domain.ActionNone || action > domain.ActionPurchaseComplete {
				return nil, fmt.Errorf("session record for visitor %s hit %d: invalid action_type %q",
					rec.FullVisitorID, h.HitNumber, h.ECommerceAction.ActionType)
			}
		}
		s.Hits = append(s.Hits, domain.Hit{
			HitNumber:    h.HitNumber,
			ActionType:   action,
			ProductCount: len(h.Product),
		})
	}

	return s, nil
}

// parseExportDate parses the export's compact YYYYMMDD date as a UTC midnight.
func parseExportDate(s string) (time.Time, error) {
	t, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t.UTC(), nil
}
