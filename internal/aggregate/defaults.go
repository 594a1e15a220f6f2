package aggregate

// Default-value policy for nullable session fields, applied exactly once at
// aggregation. These are the only implicit defaults in the pipeline:
//
//	bounced        nil -> false
//	time_on_site   nil -> 0
//	pageviews      nil -> 0
//	transactions   nil -> 0
//	country        nil -> ""
//	is_first_visit nil -> false
//
// Missing values are recovered locally here instead of failing the run.

func defaultBool(v *bool) bool {
	if v == nil {
		return false
	}
	return *v
}

func defaultInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func defaultString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
