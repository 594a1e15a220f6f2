package domain

import "time"

// FeatureVector is one labeled training row: the flattened attributes of a
// visitor's first session joined with the visitor-level label.
// Corresponds to the feature_vectors table in ClickHouse.
// Invariant: the underlying session has IsFirstVisit = true.
type FeatureVector struct {
	SessionID              string
	VisitorID              string
	VisitID                int64
	SessionDate            time.Time
	Bounced                bool
	TimeOnSiteSec          int64
	Pageviews              int64
	TrafficSource          string
	TrafficMedium          string
	ChannelGrouping        string
	DeviceCategory         string
	Country                string
	LatestCheckoutProgress int
	Label                  bool
}

// Feature column names understood by the classifier encoding. Numeric and
// categorical columns are listed separately because they encode differently.
const (
	ColBounced                = "bounced"
	ColTimeOnSite             = "time_on_site"
	ColPageviews              = "pageviews"
	ColLatestCheckoutProgress = "latest_checkout_progress"
	ColTrafficSource          = "traffic_source"
	ColTrafficMedium          = "traffic_medium"
	ColChannelGrouping        = "channel_grouping"
	ColDeviceCategory         = "device_category"
	ColCountry                = "country"
)

// DefaultFeatureColumns is the full feature set used when the caller does not
// restrict the columns.
var DefaultFeatureColumns = []string{
	ColBounced,
	ColTimeOnSite,
	ColPageviews,
	ColLatestCheckoutProgress,
	ColTrafficSource,
	ColTrafficMedium,
	ColChannelGrouping,
	ColDeviceCategory,
	ColCountry,
}

// NumericColumns reports which feature columns carry numeric values.
var NumericColumns = map[string]bool{
	ColBounced:                true,
	ColTimeOnSite:             true,
	ColPageviews:              true,
	ColLatestCheckoutProgress: true,
}

// NumericValue returns the numeric value of a numeric column.
// Returns false for unknown or categorical columns.
func (v *FeatureVector) NumericValue(col string) (float64, bool) {
	switch col {
	case ColBounced:
		if v.Bounced {
			return 1, true
		}
		return 0, true
	case ColTimeOnSite:
		return float64(v.TimeOnSiteSec), true
	case ColPageviews:
		return float64(v.Pageviews), true
	case ColLatestCheckoutProgress:
		return float64(v.LatestCheckoutProgress), true
	}
	return 0, false
}

// CategoricalValue returns the string value of a categorical column.
// Returns false for unknown or numeric columns.
func (v *FeatureVector) CategoricalValue(col string) (string, bool) {
	switch col {
	case ColTrafficSource:
		return v.TrafficSource, true
	case ColTrafficMedium:
		return v.TrafficMedium, true
	case ColChannelGrouping:
		return v.ChannelGrouping, true
	case ColDeviceCategory:
		return v.DeviceCategory, true
	case ColCountry:
		return v.Country, true
	}
	return "", false
}

// KnownColumn reports whether col is a recognized feature column.
func KnownColumn(col string) bool {
	if NumericColumns[col] {
		return true
	}
	switch col {
	case ColTrafficSource, ColTrafficMedium, ColChannelGrouping, ColDeviceCategory, ColCountry:
		return true
	}
	return false
}
