package weather

import (
	"context"
	"fmt"
	"log"
	"strconv"
)

const (
	MaxCompareCities    = 3
	MaxPeriodicYears    = 3
	MaxProgressionYears = 50
)

// Compare builds one report per city over the same range. Cities are fetched
// one after another to stay under upstream rate limits; the first failure
// aborts the comparison.
func (s *Service) Compare(ctx context.Context, q CompareQuery) (Comparison, error) {
	if len(q.Cities) == 0 {
		return Comparison{}, fmt.Errorf("%w: at least one city is required", ErrInvalidRange)
	}
	if len(q.Cities) > MaxCompareCities {
		return Comparison{}, fmt.Errorf("%w: at most %d cities", ErrTooMany, MaxCompareCities)
	}

	start, end, err := s.resolveRange(q.Start, q.End)
	if err != nil {
		return Comparison{}, err
	}

	reports := make([]Report, 0, len(q.Cities))
	for _, city := range q.Cities {
		if err := ctx.Err(); err != nil {
			return Comparison{}, err
		}
		loc, err := s.SearchCity(ctx, city)
		if err != nil {
			return Comparison{}, err
		}
		rep, err := s.report(ctx, loc, start, end, q.Smoothing, s.optionalNormals(ctx, loc, q.WithNormals))
		if err != nil {
			return Comparison{}, err
		}
		reports = append(reports, rep)
	}

	return Comparison{
		Start:     start,
		End:       end,
		Smoothing: q.Smoothing,
		Reports:   reports,
	}, nil
}

// Periodic builds one report per year for the same MM-DD window. Normals are
// resolved once and shared across the years.
func (s *Service) Periodic(ctx context.Context, q PeriodicQuery) (Periodic, error) {
	if len(q.Years) == 0 {
		return Periodic{}, fmt.Errorf("%w: at least one year is required", ErrInvalidRange)
	}
	if len(q.Years) > MaxPeriodicYears {
		return Periodic{}, fmt.Errorf("%w: at most %d years", ErrTooMany, MaxPeriodicYears)
	}

	from, to := q.From, q.To
	if from == "" {
		from = "01-01"
	}
	if to == "" {
		to = "12-31"
	}
	fromMonth, fromDay, err := parseMonthDay(from)
	if err != nil {
		return Periodic{}, err
	}
	toMonth, toDay, err := parseMonthDay(to)
	if err != nil {
		return Periodic{}, err
	}

	loc, err := s.SearchCity(ctx, q.City)
	if err != nil {
		return Periodic{}, err
	}
	normals := s.optionalNormals(ctx, loc, q.WithNormals)

	reports := make([]Report, 0, len(q.Years))
	for _, year := range q.Years {
		if err := ctx.Err(); err != nil {
			return Periodic{}, err
		}
		start, end := periodicWindow(year, fromMonth, fromDay, toMonth, toDay)
		rep, err := s.report(ctx, loc, start, end, q.Smoothing, normals)
		if err != nil {
			return Periodic{}, err
		}
		reports = append(reports, rep)
	}

	return Periodic{
		Location:  loc,
		From:      from,
		To:        to,
		Smoothing: q.Smoothing,
		Reports:   reports,
	}, nil
}

// Progression aggregates the same period of every year in [FromYear, ToYear]
// into one point per year and pools the yearly statistics. Years in which the
// period does not occur (02-29 in a common year) are left out.
func (s *Service) Progression(ctx context.Context, q ProgressionQuery) (Progression, error) {
	if q.FromYear > q.ToYear {
		return Progression{}, fmt.Errorf("%w: from year must not be after to year", ErrInvalidRange)
	}
	if span := q.ToYear - q.FromYear + 1; span > MaxProgressionYears {
		return Progression{}, fmt.Errorf("%w: at most %d years, got %d", ErrTooMany, MaxProgressionYears, span)
	}
	if err := q.Period.Validate(); err != nil {
		return Progression{}, err
	}

	loc, err := s.SearchCity(ctx, q.City)
	if err != nil {
		return Progression{}, err
	}
	normals := s.optionalNormals(ctx, loc, q.WithNormals)

	log.Printf("DEBUG: progression for %s, %s %d-%d", loc.Key(), q.Period.Label(), q.FromYear, q.ToYear)

	var (
		years  []string
		yearly []Series
		stats  []Stats
	)
	for year := q.FromYear; year <= q.ToYear; year++ {
		if err := ctx.Err(); err != nil {
			return Progression{}, err
		}
		start, end, err := q.Period.Dates(year)
		if err != nil {
			log.Printf("INFO: progression for %s skips %d: %v", loc.Key(), year, err)
			continue
		}
		series, err := s.fetchSeries(ctx, loc, start, end, normals)
		if err != nil {
			return Progression{}, err
		}
		years = append(years, strconv.Itoa(year))
		yearly = append(yearly, series)
		stats = append(stats, ComputeStats(series))
	}

	return Progression{
		Location: loc,
		Period:   q.Period.Label(),
		FromYear: q.FromYear,
		ToYear:   q.ToYear,
		Series:   ProgressionSeries(years, yearly),
		Stats:    PoolStats(stats),
	}, nil
}
