package store

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-dashboard/internal/climate"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var (
	// ErrNotFound is returned when nothing is cached under a key.
	ErrNotFound = errors.New("not found in store")
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// MemoryStore is a concurrency-safe in-memory cache for geocoded cities and
// built normals. It is owned by the caller; nothing here is global.
type MemoryStore struct {
	mu sync.RWMutex

	// key: query key for cities, location key for normals
	cities  map[string]entry[weather.Location]
	normals map[string]entry[*climate.Normals]

	// retention configuration
	maxEntries int           // max entries per kind (0 = unlimited)
	maxAge     time.Duration // max age of an entry (0 = unlimited)
	clock      clockwork.Clock
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxEntries or maxAge is <= 0, it is treated as unlimited.
func NewMemoryStore(maxEntries int, maxAge time.Duration, clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		cities:     make(map[string]entry[weather.Location]),
		normals:    make(map[string]entry[*climate.Normals]),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		clock:      clock,
	}
}

// SaveCity caches a geocoding result under the query key.
func (s *MemoryStore) SaveCity(key string, loc weather.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()

	save(s, s.cities, key, loc)
}

// GetCity returns a cached geocoding result.
func (s *MemoryStore) GetCity(key string) (weather.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return load(s, s.cities, key)
}

// SaveNormals caches normals under the location's stable key.
func (s *MemoryStore) SaveNormals(loc weather.Location, normals *climate.Normals) {
	if normals == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	save(s, s.normals, loc.Key(), normals)
}

// GetNormals returns cached normals for a location.
func (s *MemoryStore) GetNormals(loc weather.Location) (*climate.Normals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return load(s, s.normals, loc.Key())
}

// Len returns the number of cached cities and normals.
func (s *MemoryStore) Len() (cities, normals int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.cities), len(s.normals)
}

// save must be called with s.mu held for writing.
func save[V any](s *MemoryStore, m map[string]entry[V], key string, v V) {
	now := s.clock.Now()
	m[key] = entry[V]{value: v, storedAt: now}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := now.Add(-s.maxAge)
		for k, e := range m {
			if e.storedAt.Before(cutoff) {
				delete(m, k)
			}
		}
	}

	// Enforce retention by count, dropping the oldest entries first.
	for s.maxEntries > 0 && len(m) > s.maxEntries {
		var (
			oldestKey string
			oldest    time.Time
			found     bool
		)
		for k, e := range m {
			if !found || e.storedAt.Before(oldest) {
				oldestKey, oldest, found = k, e.storedAt, true
			}
		}
		delete(m, oldestKey)
	}
}

// load must be called with s.mu held for reading.
func load[V any](s *MemoryStore, m map[string]entry[V], key string) (V, error) {
	e, ok := m[key]
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	if s.maxAge > 0 && e.storedAt.Before(s.clock.Now().Add(-s.maxAge)) {
		var zero V
		return zero, ErrNotFound
	}
	return e.value, nil
}
