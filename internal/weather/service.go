package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-dashboard/internal/climate"
	"github.com/i474232898/weather-dashboard/internal/observability"
)

// Service orchestrates geocoding, archive fetches and normals caching.
type Service struct {
	store     Store
	geocoders []Geocoder
	archive   Archive
	normals   []NormalsSource
	clock     clockwork.Clock
	metrics   *observability.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for default date ranges.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a new Service. Geocoders and normals sources are tried
// in order; the first one that answers wins.
func NewService(store Store, geocoders []Geocoder, archive Archive, normals []NormalsSource, opts ...Option) *Service {
	s := &Service{
		store:     store,
		geocoders: geocoders,
		archive:   archive,
		normals:   normals,
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchCity resolves a city to its best match, using the store as a cache.
func (s *Service) SearchCity(ctx context.Context, q CityQuery) (Location, error) {
	key := q.Key()
	if loc, err := s.store.GetCity(key); err == nil {
		s.metrics.ObserveCache("city", true)
		return loc, nil
	}
	s.metrics.ObserveCache("city", false)

	locs, err := s.search(ctx, q, 1)
	if err != nil {
		return Location{}, err
	}

	s.store.SaveCity(key, locs[0])
	return locs[0], nil
}

// SuggestCities returns up to limit candidates for autocomplete. Unknown
// names yield an empty list.
func (s *Service) SuggestCities(ctx context.Context, q CityQuery, limit int) ([]Location, error) {
	if strings.TrimSpace(q.Name) == "" {
		return []Location{}, nil
	}
	locs, err := s.search(ctx, q, limit)
	if errors.Is(err, ErrCityNotFound) {
		return []Location{}, nil
	}
	return locs, err
}

func (s *Service) search(ctx context.Context, q CityQuery, limit int) ([]Location, error) {
	if len(s.geocoders) == 0 {
		return nil, fmt.Errorf("no geocoders configured")
	}

	var (
		lastErr  error
		notFound bool
	)
	for _, g := range s.geocoders {
		locs, err := g.Search(ctx, q, limit)
		if err != nil {
			// Log and fall through to the next geocoder.
			log.Printf("geocoder %s failed for %q: %v", g.Name(), q.Name, err)
			lastErr = err
			continue
		}
		if len(locs) == 0 {
			notFound = true
			continue
		}
		return locs, nil
	}

	if notFound || lastErr == nil {
		return nil, fmt.Errorf("%w: %s", ErrCityNotFound, q.Name)
	}
	return nil, lastErr
}

// Normals returns cached normals for loc, building them on a miss.
func (s *Service) Normals(ctx context.Context, loc Location) (*climate.Normals, error) {
	if n, err := s.store.GetNormals(loc); err == nil {
		s.metrics.ObserveCache("normals", true)
		return n, nil
	}
	s.metrics.ObserveCache("normals", false)

	return s.RefreshNormals(ctx, loc)
}

// RefreshNormals rebuilds normals from the first source that succeeds and
// stores them. When every source fails the error wraps
// climate.ErrNormalsUnavailable.
func (s *Service) RefreshNormals(ctx context.Context, loc Location) (*climate.Normals, error) {
	for _, src := range s.normals {
		n, err := src.FetchNormals(ctx, loc)
		if err != nil {
			outcome := "error"
			if errors.Is(err, climate.ErrNormalsUnavailable) {
				outcome = "unavailable"
			}
			s.metrics.ObserveNormals(src.Name(), outcome)
			log.Printf("normals source %s failed for %s: %v", src.Name(), loc.Key(), err)
			continue
		}

		s.metrics.ObserveNormals(src.Name(), "success")
		s.store.SaveNormals(loc, n)
		return n, nil
	}

	return nil, fmt.Errorf("%w for %s", climate.ErrNormalsUnavailable, loc.Key())
}

// Report fetches observations for a city and date range and derives the
// chart series and summary statistics. Unavailable normals do not fail the
// report; the normal series and deviation are left nil instead.
func (s *Service) Report(ctx context.Context, q ReportQuery) (Report, error) {
	start, end, err := s.resolveRange(q.Start, q.End)
	if err != nil {
		return Report{}, err
	}

	loc, err := s.SearchCity(ctx, q.City)
	if err != nil {
		return Report{}, err
	}

	normals := s.optionalNormals(ctx, loc, q.WithNormals)
	return s.report(ctx, loc, start, end, q.Smoothing, normals)
}

// report fetches [start, end] padded for the smoothing window and builds the
// trimmed series and its statistics.
func (s *Service) report(ctx context.Context, loc Location, start, end string, smoothing int, normals *climate.Normals) (Report, error) {
	pad := smoothing / 2
	fetchStart, _ := AddDays(start, -pad)
	fetchEnd, _ := AddDays(end, pad)

	log.Printf("DEBUG: report for %s from %s to %s (smoothing %d)", loc.Key(), start, end, smoothing)

	series, err := s.fetchSeries(ctx, loc, fetchStart, fetchEnd, normals)
	if err != nil {
		return Report{}, err
	}
	series = ApplySmoothing(series, smoothing, start, end)

	return Report{
		Location:  loc,
		Start:     start,
		End:       end,
		Smoothing: smoothing,
		Series:    series,
		Stats:     ComputeStats(series),
	}, nil
}

func (s *Service) fetchSeries(ctx context.Context, loc Location, start, end string, normals *climate.Normals) (Series, error) {
	daily, err := s.archive.FetchDaily(ctx, loc, start, end)
	if err != nil {
		return Series{}, fmt.Errorf("fetch daily for %s: %w", loc.Key(), err)
	}
	hourly, err := s.archive.FetchHourly(ctx, loc, start, end)
	if err != nil {
		return Series{}, fmt.Errorf("fetch hourly for %s: %w", loc.Key(), err)
	}
	return BuildSeries(daily, hourly, normals), nil
}

// optionalNormals returns nil when normals are not wanted or unavailable.
func (s *Service) optionalNormals(ctx context.Context, loc Location, want bool) *climate.Normals {
	if !want {
		return nil
	}
	normals, err := s.Normals(ctx, loc)
	if err != nil {
		log.Printf("INFO: rendering %s without normals: %v", loc.Key(), err)
		return nil
	}
	return normals
}

// resolveRange defaults end to today and start to January 1st of end's year.
func (s *Service) resolveRange(start, end string) (string, string, error) {
	if end == "" {
		end = s.clock.Now().UTC().Format(DateLayout)
	}
	if start == "" && len(end) >= 4 {
		start = end[:4] + "-01-01"
	}

	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return "", "", fmt.Errorf("%w: start must use YYYY-MM-DD", ErrInvalidRange)
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return "", "", fmt.Errorf("%w: end must use YYYY-MM-DD", ErrInvalidRange)
	}
	if from.After(to) {
		return "", "", fmt.Errorf("%w: start must be before end", ErrInvalidRange)
	}
	return start, end, nil
}
