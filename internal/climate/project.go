package climate

// ProjectNormal returns the normal value for an ISO date, choosing the leap or
// common profile by the date's year. It returns nil when n is nil, the date
// does not parse, or the day falls outside the profile.
func ProjectNormal(isoDate string, n *Normals) *float64 {
	if n == nil {
		return nil
	}
	year, month, day, ok := parseISODate(isoDate)
	if !ok {
		return nil
	}

	leap := IsLeapYear(year)
	profile := n.Common
	if leap {
		profile = n.Leap
	}

	idx := DayOfYear(month, day, leap) - 1
	if idx < 0 || idx >= len(profile) {
		return nil
	}
	v := profile[idx]
	return &v
}

// ProjectSeries maps every date to its normal, aligned 1:1 with dates.
// A nil Normals yields a nil series so callers can omit it entirely.
func ProjectSeries(dates []string, n *Normals) []*float64 {
	if n == nil {
		return nil
	}
	out := make([]*float64, len(dates))
	for i, d := range dates {
		out[i] = ProjectNormal(d, n)
	}
	return out
}

// MeanDeviation averages actual-normal over the positions where both values
// are present. It returns nil when there is no such pair.
func MeanDeviation(actual, normal []*float64) *float64 {
	var (
		sum   float64
		count int
	)
	for i := 0; i < len(actual) && i < len(normal); i++ {
		if !valid(actual[i]) || !valid(normal[i]) {
			continue
		}
		sum += *actual[i] - *normal[i]
		count++
	}
	if count == 0 {
		return nil
	}
	d := sum / float64(count)
	return &d
}
