package weather

import (
	"fmt"
	"strings"

	"github.com/i474232898/weather-dashboard/internal/common"
)

// Location is a geocoded place.
type Location struct {
	ID      int64   `json:"id,omitempty"`
	Name    string  `json:"name"`
	Country string  `json:"country,omitempty"`
	Admin1  string  `json:"admin1,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Key returns a stable identifier used to index this location in stores.
func (l Location) Key() string {
	if l.ID != 0 {
		return fmt.Sprintf("city_%d", l.ID)
	}
	return fmt.Sprintf("%s_%s_%s_%s",
		l.Name,
		l.Country,
		common.FormatCoord(l.Lat),
		common.FormatCoord(l.Lon),
	)
}

// CityQuery is a free-text city lookup, optionally narrowed by an ISO country code.
type CityQuery struct {
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
}

// Key returns the cache key for this query.
func (q CityQuery) Key() string {
	return strings.ToLower(strings.TrimSpace(q.Name)) + ":" + strings.ToUpper(strings.TrimSpace(q.Country))
}

// DailySeries holds daily archive observations aligned by position with Dates.
// Missing readings are nil.
type DailySeries struct {
	Dates   []string   `json:"date"`
	TMin    []*float64 `json:"tmin"`
	TMean   []*float64 `json:"tmean"`
	TMax    []*float64 `json:"tmax"`
	Precip  []*float64 `json:"precip"`
	WindMax []*float64 `json:"windMax"`
}

// HourlySeries holds hourly archive readings aligned by position with Times.
type HourlySeries struct {
	Times    []string   `json:"time"`
	Humidity []*float64 `json:"humidity"`
	Wind     []*float64 `json:"wind"`
}

// Series is the chart-ready view of a date range. Norm is nil when climate
// normals are unavailable.
type Series struct {
	X        []string   `json:"x"`
	TempMin  []*float64 `json:"tempMin"`
	TempMean []*float64 `json:"tempMean"`
	TempMax  []*float64 `json:"tempMax"`
	Precip   []*float64 `json:"precip"`
	Humidity []*float64 `json:"humidity"`
	Wind     []*float64 `json:"wind"`
	WindMax  []*float64 `json:"windMax"`
	Norm     []*float64 `json:"norm"`
}

// Stats summarises a Series. Nil fields render as "n/a".
type Stats struct {
	MinT        *float64 `json:"minT"`
	MaxT        *float64 `json:"maxT"`
	AvgT        *float64 `json:"avgT"`
	ClimateDev  *float64 `json:"climateDev"`
	PrecipTotal *float64 `json:"precipTotal"`
	PrecipDays  int      `json:"precipDays"`
	PrecipMax   *float64 `json:"precipMax"`
	HumAvg      *float64 `json:"humAvg"`
	WindAvg     *float64 `json:"windAvg"`
	WindMax     *float64 `json:"windMax"`
	TotalDays   int      `json:"totalDays"`
}

// Report is the full response for a location and date range.
type Report struct {
	Location  Location `json:"location"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Smoothing int      `json:"smoothing"`
	Series    Series   `json:"series"`
	Stats     Stats    `json:"stats"`
}

// ReportQuery selects what Service.Report fetches.
type ReportQuery struct {
	City        CityQuery
	Start       string
	End         string
	Smoothing   int
	WithNormals bool
}

// CompareQuery selects up to MaxCompareCities cities over one date range.
type CompareQuery struct {
	Cities      []CityQuery
	Start       string
	End         string
	Smoothing   int
	WithNormals bool
}

// Comparison holds one Report per requested city, in request order.
type Comparison struct {
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Smoothing int      `json:"smoothing"`
	Reports   []Report `json:"reports"`
}

// PeriodicQuery applies the same MM-DD window to up to MaxPeriodicYears years.
// Empty bounds default to 01-01 and 12-31.
type PeriodicQuery struct {
	City        CityQuery
	Years       []int
	From        string
	To          string
	Smoothing   int
	WithNormals bool
}

// Periodic holds one Report per requested year, in request order.
type Periodic struct {
	Location  Location `json:"location"`
	From      string   `json:"from"`
	To        string   `json:"to"`
	Smoothing int      `json:"smoothing"`
	Reports   []Report `json:"reports"`
}

// ProgressionQuery aggregates one Period per year over [FromYear, ToYear].
type ProgressionQuery struct {
	City        CityQuery
	FromYear    int
	ToYear      int
	Period      Period
	WithNormals bool
}

// Progression is a per-year view of a city. Series.X holds the years and each
// slot is that year's aggregate; Stats pools the yearly statistics.
type Progression struct {
	Location Location `json:"location"`
	Period   string   `json:"period"`
	FromYear int      `json:"fromYear"`
	ToYear   int      `json:"toYear"`
	Series   Series   `json:"series"`
	Stats    Stats    `json:"stats"`
}
