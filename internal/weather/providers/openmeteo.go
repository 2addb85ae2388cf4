package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-dashboard/internal/climate"
	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/observability"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultArchiveURL   = "https://archive-api.open-meteo.com/v1/era5"
	DefaultNormalsStart = "1991-01-01"
	DefaultNormalsEnd   = "2020-12-31"

	dailyVariables  = "temperature_2m_max,temperature_2m_min,temperature_2m_mean,precipitation_sum,windspeed_10m_max"
	hourlyVariables = "relative_humidity_2m,windspeed_10m"
)

// OpenMeteoConfig configures an OpenMeteoProvider. Zero values fall back to
// the public endpoints and the 1991-2020 normals window.
type OpenMeteoConfig struct {
	GeocodingURL string
	ArchiveURL   string
	NormalsStart string
	NormalsEnd   string
	Clock        clockwork.Clock
	Metrics      *observability.Metrics
}

// OpenMeteoProvider implements weather.Geocoder, weather.Archive and
// weather.NormalsSource on top of the Open-Meteo geocoding and ERA5 archive APIs.
type OpenMeteoProvider struct {
	name         string
	geocodingURL string
	archiveURL   string
	normalsStart string
	normalsEnd   string
	clock        clockwork.Clock
	upstream     *upstream
}

func NewOpenMeteoProvider(client *http.Client, cfg OpenMeteoConfig) *OpenMeteoProvider {
	p := &OpenMeteoProvider{
		name:         "openmeteo",
		geocodingURL: orDefault(cfg.GeocodingURL, DefaultGeocodingURL),
		archiveURL:   orDefault(cfg.ArchiveURL, DefaultArchiveURL),
		normalsStart: orDefault(cfg.NormalsStart, DefaultNormalsStart),
		normalsEnd:   orDefault(cfg.NormalsEnd, DefaultNormalsEnd),
		clock:        cfg.Clock,
		upstream:     newUpstream("openmeteo", client, cfg.Metrics),
	}
	if p.clock == nil {
		p.clock = clockwork.NewRealClock()
	}
	return p
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// Search looks up cities by name, optionally restricted to a country code.
func (p *OpenMeteoProvider) Search(ctx context.Context, q weather.CityQuery, limit int) ([]weather.Location, error) {
	if limit <= 0 {
		limit = 1
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("name", q.Name)
		values.Set("count", strconv.Itoa(limit))
		values.Set("language", "en")
		values.Set("format", "json")
		if q.Country != "" {
			values.Set("countryCode", q.Country)
		}
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.geocodingURL, values.Encode()), nil)
	}

	var payload struct {
		Results []struct {
			ID        int64   `json:"id"`
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Country   string  `json:"country"`
			Admin1    string  `json:"admin1"`
		} `json:"results"`
	}
	if err := p.upstream.getJSON(ctx, "geocoding", buildRequest, &payload); err != nil {
		return nil, err
	}

	locs := make([]weather.Location, 0, len(payload.Results))
	for _, r := range payload.Results {
		locs = append(locs, weather.Location{
			ID:      r.ID,
			Name:    r.Name,
			Country: r.Country,
			Admin1:  r.Admin1,
			Lat:     r.Latitude,
			Lon:     r.Longitude,
		})
	}
	return locs, nil
}

// FetchDaily returns one entry per date in [start, end]. The upstream request
// stops at today; later dates and dates the archive does not return are nil.
func (p *OpenMeteoProvider) FetchDaily(ctx context.Context, loc weather.Location, start, end string) (weather.DailySeries, error) {
	dates := weather.EnumerateDates(start, end)
	n := len(dates)
	series := weather.DailySeries{
		Dates:   dates,
		TMin:    make([]*float64, n),
		TMean:   make([]*float64, n),
		TMax:    make([]*float64, n),
		Precip:  make([]*float64, n),
		WindMax: make([]*float64, n),
	}

	fetchEnd, ok := p.clampToToday(start, end)
	if n == 0 || !ok {
		return series, nil
	}

	var payload struct {
		Daily struct {
			Time    []string   `json:"time"`
			TMax    []*float64 `json:"temperature_2m_max"`
			TMin    []*float64 `json:"temperature_2m_min"`
			TMean   []*float64 `json:"temperature_2m_mean"`
			Precip  []*float64 `json:"precipitation_sum"`
			WindMax []*float64 `json:"windspeed_10m_max"`
		} `json:"daily"`
	}
	req := p.archiveRequest(loc, start, fetchEnd, "daily", dailyVariables)
	if err := p.upstream.getJSON(ctx, "daily", req, &payload); err != nil {
		return weather.DailySeries{}, err
	}

	byDate := make(map[string]int, len(payload.Daily.Time))
	for i, d := range payload.Daily.Time {
		byDate[d] = i
	}
	for i, d := range dates {
		j, ok := byDate[d]
		if !ok {
			continue
		}
		series.TMin[i] = at(payload.Daily.TMin, j)
		series.TMean[i] = at(payload.Daily.TMean, j)
		series.TMax[i] = at(payload.Daily.TMax, j)
		series.Precip[i] = at(payload.Daily.Precip, j)
		series.WindMax[i] = at(payload.Daily.WindMax, j)
	}

	return series, nil
}

// FetchHourly returns the raw hourly humidity and wind readings.
func (p *OpenMeteoProvider) FetchHourly(ctx context.Context, loc weather.Location, start, end string) (weather.HourlySeries, error) {
	series := weather.HourlySeries{
		Times:    []string{},
		Humidity: []*float64{},
		Wind:     []*float64{},
	}

	fetchEnd, ok := p.clampToToday(start, end)
	if !ok {
		return series, nil
	}

	var payload struct {
		Hourly struct {
			Time     []string   `json:"time"`
			Humidity []*float64 `json:"relative_humidity_2m"`
			Wind     []*float64 `json:"windspeed_10m"`
		} `json:"hourly"`
	}
	req := p.archiveRequest(loc, start, fetchEnd, "hourly", hourlyVariables)
	if err := p.upstream.getJSON(ctx, "hourly", req, &payload); err != nil {
		return weather.HourlySeries{}, err
	}

	if payload.Hourly.Time != nil {
		series.Times = payload.Hourly.Time
	}
	if payload.Hourly.Humidity != nil {
		series.Humidity = payload.Hourly.Humidity
	}
	if payload.Hourly.Wind != nil {
		series.Wind = payload.Hourly.Wind
	}
	return series, nil
}

// FetchNormals builds normals from the daily mean temperature over the
// configured normals window.
func (p *OpenMeteoProvider) FetchNormals(ctx context.Context, loc weather.Location) (*climate.Normals, error) {
	var payload struct {
		Daily struct {
			Time  []string   `json:"time"`
			TMean []*float64 `json:"temperature_2m_mean"`
		} `json:"daily"`
	}
	req := p.archiveRequest(loc, p.normalsStart, p.normalsEnd, "daily", "temperature_2m_mean")
	if err := p.upstream.getJSON(ctx, "normals", req, &payload); err != nil {
		return nil, err
	}

	if payload.Daily.Time == nil || payload.Daily.TMean == nil {
		return nil, fmt.Errorf("%w: daily normals missing from response", climate.ErrNormalsUnavailable)
	}
	return climate.BuildNormals(payload.Daily.Time, payload.Daily.TMean)
}

func (p *OpenMeteoProvider) archiveRequest(loc weather.Location, start, end, resolution, variables string) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", common.FormatCoord(loc.Lat))
		values.Set("longitude", common.FormatCoord(loc.Lon))
		values.Set("start_date", start)
		values.Set("end_date", end)
		values.Set(resolution, variables)
		values.Set("timezone", "UTC")
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.archiveURL, values.Encode()), nil)
	}
}

// clampToToday caps end at today's UTC date. It reports false when the
// whole range lies in the future.
func (p *OpenMeteoProvider) clampToToday(start, end string) (string, bool) {
	today := p.clock.Now().UTC().Format(weather.DateLayout)
	if end > today {
		end = today
	}
	return end, start <= end
}

func at(values []*float64, i int) *float64 {
	if i < 0 || i >= len(values) {
		return nil
	}
	return values[i]
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
