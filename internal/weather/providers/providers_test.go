package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/climate"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

var berlin = weather.Location{ID: 2950159, Name: "Berlin", Lat: 52.52, Lon: 13.41}

func jsonHandler(t *testing.T, body string, check func(r *http.Request)) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(body))
	}
}

func fastRetries(u *upstream) {
	u.httpCfg.Backoff = BackoffConfig{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
}

func testOpenMeteo(srv *httptest.Server, now time.Time) *OpenMeteoProvider {
	p := NewOpenMeteoProvider(srv.Client(), OpenMeteoConfig{
		GeocodingURL: srv.URL + "/search",
		ArchiveURL:   srv.URL + "/era5",
		Clock:        clockwork.NewFakeClockAt(now),
	})
	fastRetries(p.upstream)
	return p
}

func TestOpenMeteo_Search(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, `{"results":[
		{"id":2950159,"name":"Berlin","latitude":52.52437,"longitude":13.41053,"country":"Germany","admin1":"Land Berlin"}
	]}`, func(r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Berlin", r.URL.Query().Get("name"))
		assert.Equal(t, "3", r.URL.Query().Get("count"))
		assert.Equal(t, "en", r.URL.Query().Get("language"))
		assert.Equal(t, "DE", r.URL.Query().Get("countryCode"))
	}))
	defer srv.Close()

	p := testOpenMeteo(srv, time.Now())
	locs, err := p.Search(context.Background(), weather.CityQuery{Name: "Berlin", Country: "DE"}, 3)
	require.NoError(t, err)
	require.Len(t, locs, 1)

	assert.Equal(t, weather.Location{
		ID: 2950159, Name: "Berlin", Country: "Germany", Admin1: "Land Berlin", Lat: 52.52437, Lon: 13.41053,
	}, locs[0])
}

func TestOpenMeteo_Search_NoResults(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, `{"generationtime_ms":0.5}`, nil))
	defer srv.Close()

	locs, err := testOpenMeteo(srv, time.Now()).Search(context.Background(), weather.CityQuery{Name: "Atlantis"}, 1)
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestOpenMeteo_FetchDaily_AlignsAndClampsToToday(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, `{"daily":{
		"time":["2024-01-01","2024-01-03"],
		"temperature_2m_max":[5.1,7.0],
		"temperature_2m_min":[-1.2,null],
		"temperature_2m_mean":[2.0,3.5],
		"precipitation_sum":[0.0,1.2],
		"windspeed_10m_max":[20.5,14.0]
	}}`, func(r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/era5", r.URL.Path)
		assert.Equal(t, "52.52", q.Get("latitude"))
		assert.Equal(t, "13.41", q.Get("longitude"))
		assert.Equal(t, "2024-01-01", q.Get("start_date"))
		assert.Equal(t, "2024-01-03", q.Get("end_date"))
		assert.Equal(t, dailyVariables, q.Get("daily"))
		assert.Equal(t, "UTC", q.Get("timezone"))
	}))
	defer srv.Close()

	p := testOpenMeteo(srv, time.Date(2024, 1, 3, 18, 0, 0, 0, time.UTC))
	s, err := p.FetchDaily(context.Background(), berlin, "2024-01-01", "2024-01-05")
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}, s.Dates)
	require.Len(t, s.TMean, 5)
	assert.Equal(t, 2.0, *s.TMean[0])
	assert.Nil(t, s.TMean[1])
	assert.Equal(t, 3.5, *s.TMean[2])
	assert.Nil(t, s.TMean[3])
	assert.Nil(t, s.TMin[2])
	assert.Equal(t, 20.5, *s.WindMax[0])
}

func TestOpenMeteo_FetchDaily_FutureRangeSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	p := testOpenMeteo(srv, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	s, err := p.FetchDaily(context.Background(), berlin, "2024-02-01", "2024-02-02")
	require.NoError(t, err)

	assert.Len(t, s.Dates, 2)
	assert.Equal(t, []*float64{nil, nil}, s.TMax)
	assert.Zero(t, calls.Load())
}

func TestOpenMeteo_FetchHourly(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, `{"hourly":{
		"time":["2024-01-01T00:00","2024-01-01T01:00"],
		"relative_humidity_2m":[80,null]
	}}`, func(r *http.Request) {
		assert.Equal(t, hourlyVariables, r.URL.Query().Get("hourly"))
	}))
	defer srv.Close()

	p := testOpenMeteo(srv, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	s, err := p.FetchHourly(context.Background(), berlin, "2024-01-01", "2024-01-01")
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01-01T00:00", "2024-01-01T01:00"}, s.Times)
	require.Len(t, s.Humidity, 2)
	assert.Equal(t, 80.0, *s.Humidity[0])
	assert.Nil(t, s.Humidity[1])
	assert.NotNil(t, s.Wind)
	assert.Empty(t, s.Wind)
}

func TestOpenMeteo_FetchNormals(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, `{"daily":{
		"time":["1991-01-01","1992-02-29","1993-01-01"],
		"temperature_2m_mean":[1.0,5.0,3.0]
	}}`, func(r *http.Request) {
		assert.Equal(t, DefaultNormalsStart, r.URL.Query().Get("start_date"))
		assert.Equal(t, DefaultNormalsEnd, r.URL.Query().Get("end_date"))
		assert.Equal(t, "temperature_2m_mean", r.URL.Query().Get("daily"))
	}))
	defer srv.Close()

	n, err := testOpenMeteo(srv, time.Now()).FetchNormals(context.Background(), berlin)
	require.NoError(t, err)

	assert.Equal(t, climate.SourceDaily, n.Source)
	assert.Equal(t, 2.0, n.Common[0])
	assert.Equal(t, 5.0, n.Leap[59])
}

func TestOpenMeteo_FetchNormals_Unavailable(t *testing.T) {
	tests := map[string]string{
		"missing arrays":  `{"daily":{}}`,
		"length mismatch": `{"daily":{"time":["1991-01-01"],"temperature_2m_mean":[1.0,2.0]}}`,
		"all null":        `{"daily":{"time":["1991-01-01"],"temperature_2m_mean":[null]}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(jsonHandler(t, body, nil))
			defer srv.Close()

			n, err := testOpenMeteo(srv, time.Now()).FetchNormals(context.Background(), berlin)
			require.ErrorIs(t, err, climate.ErrNormalsUnavailable)
			assert.Nil(t, n)
		})
	}
}

func TestOpenMeteo_RateLimitedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testOpenMeteo(srv, time.Now()).Search(context.Background(), weather.CityQuery{Name: "Berlin"}, 1)
	require.ErrorIs(t, err, weather.ErrRateLimited)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenMeteo_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"results":[{"id":1,"name":"Oslo"}]}`))
	}))
	defer srv.Close()

	locs, err := testOpenMeteo(srv, time.Now()).Search(context.Background(), weather.CityQuery{Name: "Oslo"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "Oslo", locs[0].Name)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenMeteo_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testOpenMeteo(srv, time.Now()).Search(context.Background(), weather.CityQuery{Name: "Oslo"}, 1)
	require.ErrorIs(t, err, errServerError)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoRequestWithResilience_InvalidConfig(t *testing.T) {
	u := newUpstream("test", nil, nil)
	_, err := doRequestWithResilience(context.Background(), u.httpCfg, u.circuit, nil)
	require.ErrorIs(t, err, errNoHTTPClient)

	cfg := HTTPClientConfig{Client: http.DefaultClient, Backoff: BackoffConfig{MaxRetries: -1}}
	_, err = doRequestWithResilience(context.Background(), cfg, u.circuit, nil)
	require.ErrorIs(t, err, errInvalidConfig)
}

func TestMeteostat_FetchNormals(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, `{"data":[
		{"month":1,"tavg":0.0},{"month":2,"tavg":null},{"month":7,"tavg":19.5},{"month":13,"tavg":99}
	]}`, func(r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, meteostatHost, r.Header.Get("X-RapidAPI-Host"))
		assert.Equal(t, "52.52", r.URL.Query().Get("lat"))
		assert.Equal(t, "1991", r.URL.Query().Get("start"))
		assert.Equal(t, "2020", r.URL.Query().Get("end"))
	}))
	defer srv.Close()

	p := NewMeteostatProvider(srv.Client(), MeteostatConfig{
		APIKey: "secret", BaseURL: srv.URL, StartYear: 1991, EndYear: 2020,
	})
	fastRetries(p.upstream)

	n, err := p.FetchNormals(context.Background(), berlin)
	require.NoError(t, err)

	assert.Equal(t, climate.SourceMonthly, n.Source)
	assert.InDelta(t, 0.0, n.Common[14], 1e-9)
	assert.InDelta(t, 19.5, n.Common[195], 1e-9)
}

func TestMeteostat_RequiresKey(t *testing.T) {
	p := NewMeteostatProvider(http.DefaultClient, MeteostatConfig{})
	_, err := p.FetchNormals(context.Background(), berlin)
	require.Error(t, err)
}

func TestGoogleGeocoder_Search(t *testing.T) {
	g := &GoogleGeocoder{name: "google", geocode: func(a geocoder.Address) (geocoder.Location, error) {
		assert.Equal(t, "Berlin", a.City)
		assert.Equal(t, "DE", a.Country)
		return geocoder.Location{Latitude: 52.52, Longitude: 13.40}, nil
	}}

	locs, err := g.Search(context.Background(), weather.CityQuery{Name: "Berlin", Country: "DE"}, 5)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, 52.52, locs[0].Lat)
	assert.Equal(t, "Berlin", locs[0].Name)
}

func TestGoogleGeocoder_ZeroResults(t *testing.T) {
	g := &GoogleGeocoder{name: "google", geocode: func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("ZERO_RESULTS")
	}}

	locs, err := g.Search(context.Background(), weather.CityQuery{Name: "Atlantis"}, 1)
	require.NoError(t, err)
	assert.Empty(t, locs)

	g.geocode = func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("REQUEST_DENIED")
	}
	_, err = g.Search(context.Background(), weather.CityQuery{Name: "Atlantis"}, 1)
	require.Error(t, err)
}
