package weather

import (
	"math"
	"time"

	"github.com/i474232898/weather-dashboard/internal/climate"
)

// DateLayout is the ISO calendar date format used throughout the API.
const DateLayout = "2006-01-02"

// EnumerateDates lists every date from start to end inclusive. It returns an
// empty slice for malformed input or start after end.
func EnumerateDates(start, end string) []string {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return []string{}
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil || from.After(to) {
		return []string{}
	}

	dates := make([]string, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates
}

// AddDays shifts an ISO date by n days.
func AddDays(date string, n int) (string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", err
	}
	return d.AddDate(0, 0, n).Format(DateLayout), nil
}

// BuildSeries assembles the chart series. Hourly humidity and wind are reduced
// to daily means and aligned to the daily dates; when a day occurs in more
// than one hourly run the last run wins.
func BuildSeries(daily DailySeries, hourly HourlySeries, normals *climate.Normals) Series {
	hum := alignDaily(daily.Dates, climate.AggregateDaily(hourly.Times, hourly.Humidity))
	wind := alignDaily(daily.Dates, climate.AggregateDaily(hourly.Times, hourly.Wind))

	return Series{
		X:        daily.Dates,
		TempMin:  daily.TMin,
		TempMean: daily.TMean,
		TempMax:  daily.TMax,
		Precip:   daily.Precip,
		Humidity: hum,
		Wind:     wind,
		WindMax:  daily.WindMax,
		Norm:     climate.ProjectSeries(daily.Dates, normals),
	}
}

func alignDaily(dates []string, dm climate.DailyMeans) []*float64 {
	byDay := make(map[string]*float64, len(dm.Days))
	for i, d := range dm.Days {
		byDay[d] = dm.Means[i]
	}
	out := make([]*float64, len(dates))
	for i, d := range dates {
		out[i] = byDay[d]
	}
	return out
}

// RollingAverage applies a centered moving mean over window/2 slots on each
// side, ignoring missing values. A slot whose window holds no values keeps
// its original value.
func RollingAverage(values []*float64, window int) []*float64 {
	if window == 0 || len(values) == 0 {
		return values
	}

	half := window / 2
	out := make([]*float64, len(values))
	for i := range values {
		lo := max(0, i-half)
		hi := min(len(values), i+half+1)

		var (
			sum   float64
			count int
		)
		for _, v := range values[lo:hi] {
			if isFinite(v) {
				sum += *v
				count++
			}
		}
		if count > 0 {
			m := sum / float64(count)
			out[i] = &m
		} else {
			out[i] = values[i]
		}
	}
	return out
}

// ApplySmoothing smooths mean temperature and humidity over the padded series
// then trims every field to [start, end].
func ApplySmoothing(s Series, window int, start, end string) Series {
	if window == 0 {
		return s
	}

	startIdx := -1
	endIdx := len(s.X)
	for i, d := range s.X {
		if startIdx == -1 && d >= start {
			startIdx = i
		}
		if d > end {
			endIdx = i
			break
		}
	}
	if startIdx == -1 || startIdx > endIdx {
		return s
	}

	return Series{
		X:        s.X[startIdx:endIdx],
		TempMin:  trim(s.TempMin, startIdx, endIdx),
		TempMean: trim(RollingAverage(s.TempMean, window), startIdx, endIdx),
		TempMax:  trim(s.TempMax, startIdx, endIdx),
		Precip:   trim(s.Precip, startIdx, endIdx),
		Humidity: trim(RollingAverage(s.Humidity, window), startIdx, endIdx),
		Wind:     trim(s.Wind, startIdx, endIdx),
		WindMax:  trim(s.WindMax, startIdx, endIdx),
		Norm:     trim(s.Norm, startIdx, endIdx),
	}
}

func trim(vs []*float64, from, to int) []*float64 {
	if vs == nil || from >= len(vs) {
		return nil
	}
	return vs[from:min(to, len(vs))]
}

func isFinite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
