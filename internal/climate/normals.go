package climate

import (
	"errors"
	"fmt"
)

// ErrNormalsUnavailable signals that no usable normal year could be built.
var ErrNormalsUnavailable = errors.New("climate normals unavailable")

// Source identifies which upstream format a Normals value was built from.
type Source string

const (
	// SourceDaily marks normals binned from a multi-year daily series.
	SourceDaily Source = "daily"
	// SourceMonthly marks normals interpolated from twelve monthly means.
	SourceMonthly Source = "monthly"
)

// Normals holds the smoothed normal year in both calendar shapes.
// Index i of Common/Leap is day-of-year i+1. Every slot holds a value.
type Normals struct {
	Source Source    `json:"source"`
	Common []float64 `json:"common"`
	Leap   []float64 `json:"leap"`
}

// BuildNormals bins a multi-year daily series into common and leap year
// profiles and fills gaps in each.
//
// Samples with a malformed date or a missing/non-finite value are skipped
// without error; long upstream series routinely contain holes. Feb 29 samples
// only count toward the leap profile. When Feb 29 is all there is, the common
// profile is the leap profile without its Feb 29 slot.
func BuildNormals(dates []string, values []*float64) (*Normals, error) {
	if len(dates) != len(values) {
		return nil, fmt.Errorf("%w: %d dates, %d values", ErrNormalsUnavailable, len(dates), len(values))
	}

	var (
		sumCommon   [CommonYearDays]float64
		countCommon [CommonYearDays]int
		sumLeap     [LeapYearDays]float64
		countLeap   [LeapYearDays]int
	)

	for i, d := range dates {
		v := values[i]
		if !valid(v) {
			continue
		}
		_, month, day, ok := parseISODate(d)
		if !ok {
			continue
		}

		idxLeap := DayOfYear(month, day, true) - 1
		sumLeap[idxLeap] += *v
		countLeap[idxLeap]++

		if month == 2 && day == 29 {
			continue
		}
		idxCommon := DayOfYear(month, day, false) - 1
		sumCommon[idxCommon] += *v
		countCommon[idxCommon]++
	}

	leap, ok := FillGaps(finalize(sumLeap[:], countLeap[:]))
	if !ok {
		return nil, fmt.Errorf("%w: no valid samples", ErrNormalsUnavailable)
	}
	common, ok := FillGaps(finalize(sumCommon[:], countCommon[:]))
	if !ok {
		common = dropFeb29(leap)
	}

	return &Normals{Source: SourceDaily, Common: common, Leap: leap}, nil
}

// feb29Index is the 0-based leap-year slot of Feb 29.
const feb29Index = 59

func dropFeb29(leap []float64) []float64 {
	out := make([]float64, 0, CommonYearDays)
	out = append(out, leap[:feb29Index]...)
	return append(out, leap[feb29Index+1:]...)
}

func finalize(sums []float64, counts []int) []*float64 {
	out := make([]*float64, len(sums))
	for i, c := range counts {
		if c > 0 {
			m := sums[i] / float64(c)
			out[i] = &m
		}
	}
	return out
}

// FillGaps resolves nil slots by linear interpolation between the nearest
// values on each side, holding the first and last values constant toward the
// edges. It reports false when the input has no values at all.
func FillGaps(in []*float64) ([]float64, bool) {
	out := make([]float64, len(in))

	first := -1
	for i, v := range in {
		if valid(v) {
			first = i
			break
		}
	}
	if first == -1 {
		return nil, false
	}

	for i := 0; i <= first; i++ {
		out[i] = *in[first]
	}

	prev := first
	for i := first + 1; i < len(in); i++ {
		if !valid(in[i]) {
			continue
		}
		out[i] = *in[i]
		if span := i - prev; span > 1 {
			start, end := out[prev], out[i]
			for j := 1; j < span; j++ {
				out[prev+j] = start + (end-start)*float64(j)/float64(span)
			}
		}
		prev = i
	}

	for i := prev + 1; i < len(in); i++ {
		out[i] = out[prev]
	}

	return out, true
}
