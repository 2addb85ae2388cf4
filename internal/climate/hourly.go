package climate

import "math"

// DailyMeans is the output of AggregateDaily: parallel day and mean slices.
// A nil mean marks a day run without a single valid reading.
type DailyMeans struct {
	Days  []string   `json:"days"`
	Means []*float64 `json:"means"`
}

// bucket accumulates valid readings for a single day run.
type bucket struct {
	sum   float64
	count int
}

func (b *bucket) add(v *float64) {
	if !valid(v) {
		return
	}
	b.sum += *v
	b.count++
}

func (b bucket) mean() *float64 {
	if b.count == 0 {
		return nil
	}
	m := b.sum / float64(b.count)
	return &m
}

// AggregateDaily reduces a time-ordered sub-daily series to one mean per day.
//
// The first ten characters of each timestamp are the day. Days are detected as
// boundaries in a single left-to-right scan, not grouped: a day that appears
// again after a different day starts a new run and yields a second entry.
// Callers rely on that, so do not turn this into a group-by.
func AggregateDaily(timestamps []string, values []*float64) DailyMeans {
	out := DailyMeans{
		Days:  []string{},
		Means: []*float64{},
	}
	if len(timestamps) == 0 {
		return out
	}

	current := datePrefix(timestamps[0])
	var b bucket
	for i, ts := range timestamps {
		d := datePrefix(ts)
		if d != current {
			out.Days = append(out.Days, current)
			out.Means = append(out.Means, b.mean())
			current = d
			b = bucket{}
		}
		if i < len(values) {
			b.add(values[i])
		}
	}
	out.Days = append(out.Days, current)
	out.Means = append(out.Means, b.mean())

	return out
}

func datePrefix(ts string) string {
	if len(ts) < 10 {
		return ts
	}
	return ts[:10]
}

// valid reports whether v is a usable reading.
func valid(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
