package weather

import (
	"context"
	"errors"

	"github.com/i474232898/weather-dashboard/internal/climate"
)

var (
	// ErrCityNotFound is returned when no geocoder knows the requested city.
	ErrCityNotFound = errors.New("city not found")
	// ErrRateLimited is returned when an upstream API answers 429.
	ErrRateLimited = errors.New("too many requests, please wait a moment and try again")
	// ErrInvalidRange is returned for malformed or inverted date ranges.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrInvalidPeriod is returned for unknown or malformed recurring periods.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrTooMany is returned when a query names more cities or years than allowed.
	ErrTooMany = errors.New("too many items requested")
)

// Geocoder resolves free-text city names (Open-Meteo, Google).
// An empty result with a nil error means "not found".
type Geocoder interface {
	Name() string
	Search(ctx context.Context, q CityQuery, limit int) ([]Location, error)
}

// Archive serves historical observations for a location.
type Archive interface {
	FetchDaily(ctx context.Context, loc Location, start, end string) (DailySeries, error)
	FetchHourly(ctx context.Context, loc Location, start, end string) (HourlySeries, error)
}

// NormalsSource produces climate normals for a location. Implementations
// differ in the upstream format they consume (daily series, monthly means).
type NormalsSource interface {
	Name() string
	FetchNormals(ctx context.Context, loc Location) (*climate.Normals, error)
}

// Store caches geocoded cities and built normals for the caller.
type Store interface {
	SaveCity(key string, loc Location)
	GetCity(key string) (Location, error)
	SaveNormals(loc Location, normals *climate.Normals)
	GetNormals(loc Location) (*climate.Normals, error)
}
