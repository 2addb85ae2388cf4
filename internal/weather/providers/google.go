package providers

import (
	"context"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/observability"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// geocodeFunc matches geocoder.Geocoding so tests can stub the network call.
type geocodeFunc func(geocoder.Address) (geocoder.Location, error)

// GoogleGeocoder implements weather.Geocoder with the Google Geocoding API.
// It returns at most one match and is used as a fallback behind Open-Meteo.
type GoogleGeocoder struct {
	name    string
	geocode geocodeFunc
	metrics *observability.Metrics
}

// NewGoogleGeocoder sets the process-wide API key of the geocoder package;
// create at most one.
func NewGoogleGeocoder(apiKey string, metrics *observability.Metrics) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{
		name:    "google",
		geocode: geocoder.Geocoding,
		metrics: metrics,
	}
}

func (g *GoogleGeocoder) Name() string {
	return g.name
}

func (g *GoogleGeocoder) Search(ctx context.Context, q weather.CityQuery, _ int) ([]weather.Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := time.Now()
	loc, err := g.geocode(geocoder.Address{
		City:    q.Name,
		Country: q.Country,
	})
	g.metrics.ObserveUpstream(g.name, "geocoding", err, time.Since(started))
	if err != nil {
		if common.HasAnyFold(err.Error(), "ZERO_RESULTS", "no results") {
			return nil, nil
		}
		return nil, err
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return nil, nil
	}

	return []weather.Location{{
		Name:    q.Name,
		Country: q.Country,
		Lat:     loc.Latitude,
		Lon:     loc.Longitude,
	}}, nil
}
