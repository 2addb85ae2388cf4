package weather

import "github.com/i474232898/weather-dashboard/internal/climate"

// rainyDayThresholdMM is the daily precipitation above which a day counts as rainy.
const rainyDayThresholdMM = 0.1

// ComputeStats summarises a series. Every aggregate skips missing values and
// is nil when no value is present. ClimateDev is nil without normals.
func ComputeStats(s Series) Stats {
	windMax := seriesMax(s.WindMax)
	if windMax == nil {
		windMax = seriesMax(s.Wind)
	}

	precipDays := 0
	for _, v := range s.Precip {
		if isFinite(v) && *v > rainyDayThresholdMM {
			precipDays++
		}
	}

	return Stats{
		MinT:        seriesMin(s.TempMin),
		MaxT:        seriesMax(s.TempMax),
		AvgT:        seriesMean(s.TempMean),
		ClimateDev:  climate.MeanDeviation(s.TempMean, s.Norm),
		PrecipTotal: seriesSum(s.Precip),
		PrecipDays:  precipDays,
		PrecipMax:   seriesMax(s.Precip),
		HumAvg:      seriesMean(s.Humidity),
		WindAvg:     seriesMean(s.Wind),
		WindMax:     windMax,
		TotalDays:   len(s.X),
	}
}

// ProgressionSeries reduces each yearly series to a single point: extremes
// for temperature and wind, means for mean temperature, humidity and wind,
// and the total for precipitation. The normal is a flat line at the mean of
// the first yearly normal series, or nil when no year has one.
func ProgressionSeries(years []string, yearly []Series) Series {
	n := len(yearly)
	out := Series{
		X:        years,
		TempMin:  make([]*float64, n),
		TempMean: make([]*float64, n),
		TempMax:  make([]*float64, n),
		Precip:   make([]*float64, n),
		Humidity: make([]*float64, n),
		Wind:     make([]*float64, n),
		WindMax:  make([]*float64, n),
	}

	for i, s := range yearly {
		out.TempMin[i] = seriesMin(s.TempMin)
		out.TempMean[i] = seriesMean(s.TempMean)
		out.TempMax[i] = seriesMax(s.TempMax)
		out.Precip[i] = seriesSum(s.Precip)
		out.Humidity[i] = seriesMean(s.Humidity)
		out.Wind[i] = seriesMean(s.Wind)
		out.WindMax[i] = seriesMax(s.WindMax)
		if out.WindMax[i] == nil {
			out.WindMax[i] = seriesMax(s.Wind)
		}
	}

	for _, s := range yearly {
		if s.Norm == nil {
			continue
		}
		if m := seriesMean(s.Norm); m != nil {
			out.Norm = make([]*float64, n)
			for i := range out.Norm {
				v := *m
				out.Norm[i] = &v
			}
		}
		break
	}

	return out
}

// PoolStats combines per-year statistics: extremes of extremes, means of
// means, and sums of totals and day counts. Missing values are skipped.
func PoolStats(all []Stats) Stats {
	pick := func(field func(Stats) *float64) []*float64 {
		vs := make([]*float64, len(all))
		for i, s := range all {
			vs[i] = field(s)
		}
		return vs
	}

	out := Stats{
		MinT:        seriesMin(pick(func(s Stats) *float64 { return s.MinT })),
		MaxT:        seriesMax(pick(func(s Stats) *float64 { return s.MaxT })),
		AvgT:        seriesMean(pick(func(s Stats) *float64 { return s.AvgT })),
		ClimateDev:  seriesMean(pick(func(s Stats) *float64 { return s.ClimateDev })),
		PrecipTotal: seriesSum(pick(func(s Stats) *float64 { return s.PrecipTotal })),
		PrecipMax:   seriesMax(pick(func(s Stats) *float64 { return s.PrecipMax })),
		HumAvg:      seriesMean(pick(func(s Stats) *float64 { return s.HumAvg })),
		WindAvg:     seriesMean(pick(func(s Stats) *float64 { return s.WindAvg })),
		WindMax:     seriesMax(pick(func(s Stats) *float64 { return s.WindMax })),
	}
	for _, s := range all {
		out.PrecipDays += s.PrecipDays
		out.TotalDays += s.TotalDays
	}
	return out
}

func seriesMin(vs []*float64) *float64 {
	return reduce(vs, func(acc, v float64) float64 { return min(acc, v) })
}

func seriesMax(vs []*float64) *float64 {
	return reduce(vs, func(acc, v float64) float64 { return max(acc, v) })
}

func seriesSum(vs []*float64) *float64 {
	return reduce(vs, func(acc, v float64) float64 { return acc + v })
}

func seriesMean(vs []*float64) *float64 {
	sum := seriesSum(vs)
	if sum == nil {
		return nil
	}
	n := 0
	for _, v := range vs {
		if isFinite(v) {
			n++
		}
	}
	m := *sum / float64(n)
	return &m
}

func reduce(vs []*float64, fn func(acc, v float64) float64) *float64 {
	var acc *float64
	for _, v := range vs {
		if !isFinite(v) {
			continue
		}
		if acc == nil {
			x := *v
			acc = &x
			continue
		}
		*acc = fn(*acc, *v)
	}
	return acc
}
