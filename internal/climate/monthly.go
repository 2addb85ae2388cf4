package climate

import "fmt"

// anchorDay is the day of month each monthly mean is pinned to.
const anchorDay = 15

type anchor struct {
	idx   int
	value float64
}

// NormalsFromMonthly synthesizes both profiles from twelve monthly means.
//
// Each mean is pinned to the 15th of its month and days between consecutive
// anchors are linearly interpolated. The year wraps, so early January blends
// December into January. Missing months are skipped.
func NormalsFromMonthly(monthly []*float64) (*Normals, error) {
	if len(monthly) != 12 {
		return nil, fmt.Errorf("%w: expected 12 monthly means, got %d", ErrNormalsUnavailable, len(monthly))
	}

	common := interpolateCyclic(monthlyAnchors(monthly, false), CommonYearDays)
	leap := interpolateCyclic(monthlyAnchors(monthly, true), LeapYearDays)
	if common == nil || leap == nil {
		return nil, fmt.Errorf("%w: no monthly means", ErrNormalsUnavailable)
	}

	return &Normals{Source: SourceMonthly, Common: common, Leap: leap}, nil
}

func monthlyAnchors(monthly []*float64, leap bool) []anchor {
	anchors := make([]anchor, 0, len(monthly))
	for m, v := range monthly {
		if !valid(v) {
			continue
		}
		anchors = append(anchors, anchor{
			idx:   DayOfYear(m+1, anchorDay, leap) - 1,
			value: *v,
		})
	}
	return anchors
}

// interpolateCyclic expects anchors in ascending idx order.
func interpolateCyclic(anchors []anchor, n int) []float64 {
	if len(anchors) == 0 {
		return nil
	}
	out := make([]float64, n)
	if len(anchors) == 1 {
		for i := range out {
			out[i] = anchors[0].value
		}
		return out
	}

	for k, a := range anchors {
		b := anchors[(k+1)%len(anchors)]
		span := b.idx - a.idx
		if span <= 0 {
			span += n
		}
		for j := 0; j < span; j++ {
			out[(a.idx+j)%n] = a.value + (b.value-a.value)*float64(j)/float64(span)
		}
	}
	return out
}
