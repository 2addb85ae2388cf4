package weather

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// yearArchive reports, for every date, a mean temperature of year-2000 and
// 1 mm of rain on the first of each month. It records every daily range.
type yearArchive struct {
	mu     sync.Mutex
	ranges [][2]string
}

func (a *yearArchive) FetchDaily(_ context.Context, _ Location, start, end string) (DailySeries, error) {
	a.mu.Lock()
	a.ranges = append(a.ranges, [2]string{start, end})
	a.mu.Unlock()

	dates := EnumerateDates(start, end)
	s := DailySeries{Dates: dates}
	for _, d := range dates {
		year, _ := strconv.Atoi(d[:4])
		v := float64(year - 2000)
		rain := 0.0
		if d[8:] == "01" {
			rain = 1
		}
		s.TMin = append(s.TMin, f(v-5))
		s.TMean = append(s.TMean, f(v))
		s.TMax = append(s.TMax, f(v+5))
		s.Precip = append(s.Precip, f(rain))
		s.WindMax = append(s.WindMax, f(10))
	}
	return s, nil
}

func (a *yearArchive) FetchHourly(context.Context, Location, string, string) (HourlySeries, error) {
	return HourlySeries{}, nil
}

func TestProgressionSeries(t *testing.T) {
	yearly := []Series{
		{
			TempMin:  []*float64{f(-2), f(1)},
			TempMean: []*float64{f(2), f(4)},
			TempMax:  []*float64{f(6), nil},
			Precip:   []*float64{f(1), f(2.5)},
			Humidity: []*float64{f(70), f(80)},
			Wind:     []*float64{f(5), f(15)},
			Norm:     []*float64{f(1), f(3)},
		},
		{
			TempMin:  []*float64{nil, nil},
			TempMean: []*float64{f(10), nil},
			Precip:   []*float64{nil, nil},
			WindMax:  []*float64{f(40), f(30)},
			Norm:     []*float64{f(100), f(100)},
		},
	}

	s := ProgressionSeries([]string{"2022", "2023"}, yearly)

	assert.Equal(t, []string{"2022", "2023"}, s.X)
	assert.Equal(t, []any{-2.0, nil}, values(s.TempMin))
	assert.Equal(t, []any{3.0, 10.0}, values(s.TempMean))
	assert.Equal(t, []any{6.0, nil}, values(s.TempMax))
	assert.Equal(t, []any{3.5, nil}, values(s.Precip))
	assert.Equal(t, []any{75.0, nil}, values(s.Humidity))
	assert.Equal(t, []any{10.0, nil}, values(s.Wind))
	// Without a daily max series the hourly wind means stand in.
	assert.Equal(t, []any{15.0, 40.0}, values(s.WindMax))
	// Flat line at the mean of the first yearly normal series.
	assert.Equal(t, []any{2.0, 2.0}, values(s.Norm))
}

func TestProgressionSeries_NoNormals(t *testing.T) {
	s := ProgressionSeries([]string{"2022"}, []Series{{TempMean: []*float64{f(1)}}})
	assert.Nil(t, s.Norm)
}

func TestPoolStats(t *testing.T) {
	pooled := PoolStats([]Stats{
		{
			MinT: f(-3), MaxT: f(20), AvgT: f(8), ClimateDev: f(1),
			PrecipTotal: f(100), PrecipDays: 12, PrecipMax: f(15),
			HumAvg: f(70), WindAvg: f(10), WindMax: f(50), TotalDays: 31,
		},
		{
			MinT: f(-8), MaxT: f(18), AvgT: f(6), ClimateDev: nil,
			PrecipTotal: f(50), PrecipDays: 5, PrecipMax: f(30),
			HumAvg: nil, WindAvg: f(14), WindMax: f(45), TotalDays: 31,
		},
		{TotalDays: 28},
	})

	assert.Equal(t, -8.0, *pooled.MinT)
	assert.Equal(t, 20.0, *pooled.MaxT)
	assert.Equal(t, 7.0, *pooled.AvgT)
	assert.Equal(t, 1.0, *pooled.ClimateDev)
	assert.Equal(t, 150.0, *pooled.PrecipTotal)
	assert.Equal(t, 17, pooled.PrecipDays)
	assert.Equal(t, 30.0, *pooled.PrecipMax)
	assert.Equal(t, 70.0, *pooled.HumAvg)
	assert.Equal(t, 12.0, *pooled.WindAvg)
	assert.Equal(t, 50.0, *pooled.WindMax)
	assert.Equal(t, 90, pooled.TotalDays)
}

func TestPoolStats_Empty(t *testing.T) {
	pooled := PoolStats(nil)
	assert.Nil(t, pooled.MaxT)
	assert.Nil(t, pooled.AvgT)
	assert.Zero(t, pooled.TotalDays)
}

func TestService_Compare(t *testing.T) {
	paris := Location{ID: 2988507, Name: "Paris", Country: "France", Lat: 48.85, Lon: 2.35}
	geo := &stubGeocoder{name: "openmeteo", locs: []Location{berlin}}
	archive := &yearArchive{}
	svc := NewService(newMapStore(), []Geocoder{geo}, archive, nil)
	svc.store.SaveCity(CityQuery{Name: "Paris"}.Key(), paris)

	cmp, err := svc.Compare(context.Background(), CompareQuery{
		Cities: []CityQuery{{Name: "Berlin"}, {Name: "Paris"}},
		Start:  "2023-01-01",
		End:    "2023-01-03",
	})
	require.NoError(t, err)

	require.Len(t, cmp.Reports, 2)
	assert.Equal(t, berlin, cmp.Reports[0].Location)
	assert.Equal(t, paris, cmp.Reports[1].Location)
	for _, rep := range cmp.Reports {
		assert.Equal(t, 3, rep.Stats.TotalDays)
		assert.Equal(t, 23.0, *rep.Stats.AvgT)
	}
}

func TestService_Compare_Limits(t *testing.T) {
	svc := NewService(newMapStore(), nil, &yearArchive{}, nil)

	_, err := svc.Compare(context.Background(), CompareQuery{})
	require.ErrorIs(t, err, ErrInvalidRange)

	cities := make([]CityQuery, MaxCompareCities+1)
	_, err = svc.Compare(context.Background(), CompareQuery{Cities: cities})
	require.ErrorIs(t, err, ErrTooMany)
}

func TestService_Periodic(t *testing.T) {
	geo := &stubGeocoder{name: "openmeteo", locs: []Location{berlin}}
	archive := &yearArchive{}
	normals := &stubNormals{name: "openmeteo", normals: flatNormals(20)}
	svc := NewService(newMapStore(), []Geocoder{geo}, archive, []NormalsSource{normals})

	p, err := svc.Periodic(context.Background(), PeriodicQuery{
		City:        CityQuery{Name: "Berlin"},
		Years:       []int{2021, 2023},
		From:        "06-01",
		To:          "06-03",
		Smoothing:   3,
		WithNormals: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, normals.calls)
	assert.Equal(t, [][2]string{
		{"2021-05-31", "2021-06-04"},
		{"2023-05-31", "2023-06-04"},
	}, archive.ranges)

	require.Len(t, p.Reports, 2)
	assert.Equal(t, []string{"2021-06-01", "2021-06-02", "2021-06-03"}, p.Reports[0].Series.X)
	assert.InDelta(t, 1.0, *p.Reports[0].Stats.ClimateDev, 1e-9)
	assert.InDelta(t, 3.0, *p.Reports[1].Stats.ClimateDev, 1e-9)
}

func TestService_Periodic_DefaultsAndWrap(t *testing.T) {
	geo := &stubGeocoder{name: "openmeteo", locs: []Location{berlin}}

	archive := &yearArchive{}
	svc := NewService(newMapStore(), []Geocoder{geo}, archive, nil)
	p, err := svc.Periodic(context.Background(), PeriodicQuery{City: CityQuery{Name: "Berlin"}, Years: []int{2022}})
	require.NoError(t, err)
	assert.Equal(t, "01-01", p.From)
	assert.Equal(t, "12-31", p.To)
	assert.Equal(t, [][2]string{{"2022-01-01", "2022-12-31"}}, archive.ranges)

	archive = &yearArchive{}
	svc = NewService(newMapStore(), []Geocoder{geo}, archive, nil)
	_, err = svc.Periodic(context.Background(), PeriodicQuery{
		City: CityQuery{Name: "Berlin"}, Years: []int{2024}, From: "12-20", To: "01-10",
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"2023-12-20", "2024-01-10"}}, archive.ranges)
}

func TestService_Periodic_Invalid(t *testing.T) {
	svc := NewService(newMapStore(), nil, &yearArchive{}, nil)

	_, err := svc.Periodic(context.Background(), PeriodicQuery{Years: []int{2020, 2021, 2022, 2023}})
	require.ErrorIs(t, err, ErrTooMany)

	_, err = svc.Periodic(context.Background(), PeriodicQuery{Years: []int{2020}, From: "6-1"})
	require.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestService_Progression_Winter(t *testing.T) {
	geo := &stubGeocoder{name: "openmeteo", locs: []Location{berlin}}
	archive := &yearArchive{}
	normals := &stubNormals{name: "openmeteo", normals: flatNormals(0)}
	svc := NewService(newMapStore(), []Geocoder{geo}, archive, []NormalsSource{normals})

	p, err := svc.Progression(context.Background(), ProgressionQuery{
		City:        CityQuery{Name: "Berlin"},
		FromYear:    2023,
		ToYear:      2024,
		Period:      Period{Kind: PeriodSeason, Value: "winter"},
		WithNormals: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Winter", p.Period)
	assert.Equal(t, [][2]string{
		{"2022-12-01", "2023-02-28"},
		{"2023-12-01", "2024-02-29"},
	}, archive.ranges)
	assert.Equal(t, 1, normals.calls)

	assert.Equal(t, []string{"2023", "2024"}, p.Series.X)
	// Winter 2023: 31 days at 22, 59 days at 23.
	assert.InDelta(t, (31*22.0+59*23.0)/90, *p.Series.TempMean[0], 1e-9)
	assert.Equal(t, 17.0, *p.Series.TempMin[0])
	assert.Equal(t, 29.0, *p.Series.TempMax[1])
	assert.Equal(t, []any{3.0, 3.0}, values(p.Series.Precip))
	assert.Equal(t, []any{0.0, 0.0}, values(p.Series.Norm))

	assert.Equal(t, 90+91, p.Stats.TotalDays)
	assert.Equal(t, 6, p.Stats.PrecipDays)
	assert.Equal(t, 6.0, *p.Stats.PrecipTotal)
	assert.Equal(t, 17.0, *p.Stats.MinT)
	assert.Equal(t, 29.0, *p.Stats.MaxT)
}

func TestService_Progression_SkipsMissingLeapDay(t *testing.T) {
	geo := &stubGeocoder{name: "openmeteo", locs: []Location{berlin}}
	archive := &yearArchive{}
	svc := NewService(newMapStore(), []Geocoder{geo}, archive, nil)

	p, err := svc.Progression(context.Background(), ProgressionQuery{
		City:     CityQuery{Name: "Berlin"},
		FromYear: 2019,
		ToYear:   2021,
		Period:   Period{Kind: PeriodDay, Value: "02-29"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"2020"}, p.Series.X)
	assert.Equal(t, [][2]string{{"2020-02-29", "2020-02-29"}}, archive.ranges)
	assert.Equal(t, 1, p.Stats.TotalDays)
	assert.Nil(t, p.Series.Norm)
}

func TestService_Progression_Invalid(t *testing.T) {
	svc := NewService(newMapStore(), nil, &yearArchive{}, nil)
	year := Period{Kind: PeriodYear}

	_, err := svc.Progression(context.Background(), ProgressionQuery{FromYear: 2020, ToYear: 2019, Period: year})
	require.ErrorIs(t, err, ErrInvalidRange)

	_, err = svc.Progression(context.Background(), ProgressionQuery{FromYear: 1950, ToYear: 2000, Period: year})
	require.ErrorIs(t, err, ErrTooMany)

	_, err = svc.Progression(context.Background(), ProgressionQuery{
		FromYear: 2020, ToYear: 2021, Period: Period{Kind: PeriodMonth, Value: "13"},
	})
	require.ErrorIs(t, err, ErrInvalidPeriod)
}
