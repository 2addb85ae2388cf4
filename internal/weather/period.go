package weather

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// monthDayLayout is the MM-DD form used for periods and periodic windows.
const monthDayLayout = "01-02"

// PeriodKind selects which part of each year a progression aggregates.
type PeriodKind string

const (
	PeriodYear   PeriodKind = "year"
	PeriodSeason PeriodKind = "season"
	PeriodMonth  PeriodKind = "month"
	PeriodDay    PeriodKind = "day"
)

// Period is a recurring slice of the calendar. Value is a season name for
// PeriodSeason (winter, spring, summer, fall), a month number for PeriodMonth
// and an MM-DD date for PeriodDay.
type Period struct {
	Kind  PeriodKind `json:"kind"`
	Value string     `json:"value,omitempty"`
}

// Dates returns the inclusive range the period covers in year. Winter runs
// from December 1st of the previous year to the end of February.
func (p Period) Dates(year int) (string, string, error) {
	switch p.Kind {
	case PeriodYear:
		return isoDate(year, 1, 1), isoDate(year, 12, 31), nil

	case PeriodSeason:
		switch strings.ToLower(p.Value) {
		case "winter":
			return isoDate(year-1, 12, 1), isoDate(year, 2, daysInMonth(year, 2)), nil
		case "spring":
			return isoDate(year, 3, 1), isoDate(year, 5, 31), nil
		case "summer":
			return isoDate(year, 6, 1), isoDate(year, 8, 31), nil
		case "fall", "autumn":
			return isoDate(year, 9, 1), isoDate(year, 11, 30), nil
		}
		return "", "", fmt.Errorf("%w: unknown season %q", ErrInvalidPeriod, p.Value)

	case PeriodMonth:
		m, err := strconv.Atoi(p.Value)
		if err != nil || m < 1 || m > 12 {
			return "", "", fmt.Errorf("%w: month must be 1-12, got %q", ErrInvalidPeriod, p.Value)
		}
		return isoDate(year, m, 1), isoDate(year, m, daysInMonth(year, m)), nil

	case PeriodDay:
		month, day, err := parseMonthDay(p.Value)
		if err != nil {
			return "", "", err
		}
		if day > daysInMonth(year, month) {
			return "", "", fmt.Errorf("%w: %s does not occur in %d", ErrInvalidPeriod, p.Value, year)
		}
		d := isoDate(year, month, day)
		return d, d, nil
	}

	return "", "", fmt.Errorf("%w: unknown period %q", ErrInvalidPeriod, p.Kind)
}

// Validate checks the period against a leap year, so 02-29 is accepted.
func (p Period) Validate() error {
	_, _, err := p.Dates(2000)
	return err
}

// Label is a human-readable name for the period.
func (p Period) Label() string {
	switch p.Kind {
	case PeriodYear:
		return "Whole year"
	case PeriodSeason:
		v := strings.ToLower(p.Value)
		if v == "" {
			return v
		}
		return strings.ToUpper(v[:1]) + v[1:]
	case PeriodMonth:
		if m, err := strconv.Atoi(p.Value); err == nil && m >= 1 && m <= 12 {
			return time.Month(m).String()
		}
	}
	return p.Value
}

// periodicWindow places an MM-DD window in year. A window whose start falls
// after its end wraps the year boundary and starts in the previous year.
// Days past the end of the month are clamped, so 02-29 becomes 02-28 in
// common years.
func periodicWindow(year, fromMonth, fromDay, toMonth, toDay int) (string, string) {
	startYear := year
	if fromMonth > toMonth || (fromMonth == toMonth && fromDay > toDay) {
		startYear--
	}
	start := isoDate(startYear, fromMonth, min(fromDay, daysInMonth(startYear, fromMonth)))
	end := isoDate(year, toMonth, min(toDay, daysInMonth(year, toMonth)))
	return start, end
}

func parseMonthDay(s string) (month, day int, err error) {
	// Year 0 is a leap year, so 02-29 parses.
	t, err := time.Parse(monthDayLayout, s)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q must use MM-DD", ErrInvalidPeriod, s)
	}
	return int(t.Month()), t.Day(), nil
}

func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func isoDate(year, month, day int) string {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format(DateLayout)
}
