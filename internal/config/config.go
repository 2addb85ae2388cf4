package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

type AppConfig struct {
	Port        string
	HTTPTimeout time.Duration

	// FetchInterval controls how often normals are rebuilt for tracked cities.
	FetchInterval time.Duration

	// Cities to keep warm in the cache.
	Cities []weather.CityQuery

	// In-memory store retention.
	StoreMaxEntries int           // max entries per cache (0 = unlimited)
	StoreMaxAge     time.Duration // max age of entries (0 = unlimited)

	// Normals window, YYYY-MM-DD.
	NormalsStart string
	NormalsEnd   string

	// Upstream endpoints; empty means the public Open-Meteo APIs.
	GeocodingURL string
	ArchiveURL   string

	// Optional fallbacks. Each is disabled when its key is empty.
	MeteostatAPIKey string
	GeocoderAPIKey  string
}

// Load reads configuration from environment with sensible defaults.
// Callers are expected to have loaded any .env file already.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "6h"); err != nil {
		return nil, err
	}

	cfg.StoreMaxEntries = getenvInt("STORE_MAX_ENTRIES", 256)
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	if cfg.NormalsStart, err = getenvDate("NORMALS_START", "1991-01-01"); err != nil {
		return nil, err
	}
	if cfg.NormalsEnd, err = getenvDate("NORMALS_END", "2020-12-31"); err != nil {
		return nil, err
	}
	if cfg.NormalsStart > cfg.NormalsEnd {
		return nil, fmt.Errorf("NORMALS_START %s is after NORMALS_END %s", cfg.NormalsStart, cfg.NormalsEnd)
	}

	cfg.GeocodingURL = os.Getenv("GEOCODING_URL")
	cfg.ArchiveURL = os.Getenv("ARCHIVE_URL")
	cfg.MeteostatAPIKey = os.Getenv("METEOSTAT_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cities, err := loadCities()
	if err != nil {
		return nil, err
	}
	cfg.Cities = cities

	return cfg, nil
}

// NormalsYears returns the first and last year of the normals window.
func (c *AppConfig) NormalsYears() (int, int) {
	start, _ := strconv.Atoi(c.NormalsStart[:4])
	end, _ := strconv.Atoi(c.NormalsEnd[:4])
	return start, end
}

func loadCities() ([]weather.CityQuery, error) {
	city := os.Getenv("WEATHER_LOCATION_CITY")
	country := os.Getenv("WEATHER_LOCATION_COUNTRY")
	if strings.TrimSpace(city) == "" {
		return nil, nil
	}

	cities := strings.Split(city, ",")
	countries := make([]string, len(cities))
	if country != "" {
		countries = strings.Split(country, ",")
	}
	if len(cities) != len(countries) {
		return nil, fmt.Errorf("number of cities and countries must be the same")
	}

	var out []weather.CityQuery
	for i := range cities {
		name := strings.TrimSpace(cities[i])
		if name == "" {
			continue
		}
		out = append(out, weather.CityQuery{
			Name:    name,
			Country: strings.TrimSpace(countries[i]),
		})
	}
	return out, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvDate(key, def string) (string, error) {
	v := getenvDefault(key, def)
	if _, err := time.Parse(weather.DateLayout, v); err != nil {
		return "", fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
