package climate

import "strconv"

const (
	// CommonYearDays is the length of a common-year profile.
	CommonYearDays = 365
	// LeapYearDays is the length of a leap-year profile.
	LeapYearDays = 366
)

// Cumulative day counts before the first day of each month.
var (
	cumDaysCommon = [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}
	cumDaysLeap   = [12]int{0, 31, 60, 91, 121, 152, 182, 213, 244, 274, 305, 335}
)

var daysInMonthLeap = [12]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DayOfYear returns the 1-based ordinal of (month, day) in a common or leap year.
// month is 1-based. Input is not range checked; callers pass valid dates.
func DayOfYear(month, day int, leap bool) int {
	if leap {
		return cumDaysLeap[month-1] + day
	}
	return cumDaysCommon[month-1] + day
}

// IsLeapYear applies the Gregorian rule.
func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// parseISODate extracts year, month and day from a "YYYY-MM-DD" prefix.
// Only the field shape and month/day ranges are checked; 2021-02-29 parses.
func parseISODate(s string) (year, month, day int, ok bool) {
	if len(s) < 10 || s[4] != '-' || s[7] != '-' {
		return 0, 0, 0, false
	}
	year, err := strconv.Atoi(s[0:4])
	if err != nil {
		return 0, 0, 0, false
	}
	month, err = strconv.Atoi(s[5:7])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, 0, false
	}
	day, err = strconv.Atoi(s[8:10])
	if err != nil || day < 1 || day > daysInMonthLeap[month-1] {
		return 0, 0, 0, false
	}
	return year, month, day, true
}
