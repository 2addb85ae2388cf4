package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/i474232898/weather-dashboard/internal/climate"
	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/observability"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	DefaultMeteostatURL = "https://meteostat.p.rapidapi.com/point/normals"
	meteostatHost       = "meteostat.p.rapidapi.com"
)

// MeteostatConfig configures a MeteostatProvider.
type MeteostatConfig struct {
	APIKey    string
	BaseURL   string
	StartYear int
	EndYear   int
	Metrics   *observability.Metrics
}

// MeteostatProvider implements weather.NormalsSource from Meteostat's twelve
// monthly temperature normals. It is the fallback when no daily series is
// available.
type MeteostatProvider struct {
	name      string
	apiKey    string
	baseURL   string
	startYear int
	endYear   int
	upstream  *upstream
}

func NewMeteostatProvider(client *http.Client, cfg MeteostatConfig) *MeteostatProvider {
	return &MeteostatProvider{
		name:      "meteostat",
		apiKey:    cfg.APIKey,
		baseURL:   orDefault(cfg.BaseURL, DefaultMeteostatURL),
		startYear: cfg.StartYear,
		endYear:   cfg.EndYear,
		upstream:  newUpstream("meteostat", client, cfg.Metrics),
	}
}

func (p *MeteostatProvider) Name() string {
	return p.name
}

func (p *MeteostatProvider) FetchNormals(ctx context.Context, loc weather.Location) (*climate.Normals, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("meteostat api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", common.FormatCoord(loc.Lat))
		values.Set("lon", common.FormatCoord(loc.Lon))
		if p.startYear > 0 && p.endYear > 0 {
			values.Set("start", strconv.Itoa(p.startYear))
			values.Set("end", strconv.Itoa(p.endYear))
		}

		req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-RapidAPI-Key", p.apiKey)
		req.Header.Set("X-RapidAPI-Host", meteostatHost)
		return req, nil
	}

	var payload struct {
		Data []struct {
			Month int      `json:"month"`
			TAvg  *float64 `json:"tavg"`
		} `json:"data"`
	}
	if err := p.upstream.getJSON(ctx, "normals", buildRequest, &payload); err != nil {
		return nil, err
	}

	monthly := make([]*float64, 12)
	for _, row := range payload.Data {
		if row.Month < 1 || row.Month > 12 {
			continue
		}
		monthly[row.Month-1] = row.TAvg
	}
	return climate.NormalsFromMonthly(monthly)
}
