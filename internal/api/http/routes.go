package httpapi

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/climate"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const defaultSuggestLimit = 8

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/cities", func(c *fiber.Ctx) error {
		req := citiesQuery{
			Name:  c.Query("name"),
			Limit: c.QueryInt("limit", defaultSuggestLimit),
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		locs, err := service.SuggestCities(c.UserContext(), weather.CityQuery{Name: req.Name}, req.Limit)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{"results": locs})
	})

	v1.Get("/weather", func(c *fiber.Ctx) error {
		req := weatherQuery{
			City:      parseCityQuery(c),
			Start:     c.Query("start"),
			End:       c.Query("end"),
			Smoothing: c.QueryInt("smoothing", 0),
			Normals:   c.QueryBool("normals", true),
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.Report(c.UserContext(), weather.ReportQuery{
			City:        req.City.toCityQuery(),
			Start:       req.Start,
			End:         req.End,
			Smoothing:   req.Smoothing,
			WithNormals: req.Normals,
		})
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(report)
	})

	v1.Get("/normals", func(c *fiber.Ctx) error {
		req := normalsQuery{
			City: parseCityQuery(c),
			Date: c.Query("date"),
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx := c.UserContext()
		loc, err := service.SearchCity(ctx, req.City.toCityQuery())
		if err != nil {
			return toHTTPError(err)
		}
		normals, err := service.Normals(ctx, loc)
		if err != nil {
			return toHTTPError(err)
		}

		if req.Date != "" {
			return c.JSON(fiber.Map{
				"location": loc,
				"date":     req.Date,
				"normal":   climate.ProjectNormal(req.Date, normals),
			})
		}
		return c.JSON(fiber.Map{
			"location": loc,
			"source":   normals.Source,
			"common":   normals.Common,
			"leap":     normals.Leap,
		})
	})

	v1.Get("/compare", func(c *fiber.Ctx) error {
		cities, err := parseCityList(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req := compareQuery{
			Cities:    cities,
			Start:     c.Query("start"),
			End:       c.Query("end"),
			Smoothing: c.QueryInt("smoothing", 0),
			Normals:   c.QueryBool("normals", true),
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		queries := make([]weather.CityQuery, len(req.Cities))
		for i, city := range req.Cities {
			queries[i] = city.toCityQuery()
		}
		cmp, err := service.Compare(c.UserContext(), weather.CompareQuery{
			Cities:      queries,
			Start:       req.Start,
			End:         req.End,
			Smoothing:   req.Smoothing,
			WithNormals: req.Normals,
		})
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(cmp)
	})

	v1.Get("/periodic", func(c *fiber.Ctx) error {
		years, err := parseIntList(c.Query("years"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req := periodicQuery{
			City:      parseCityQuery(c),
			Years:     years,
			From:      c.Query("from"),
			To:        c.Query("to"),
			Smoothing: c.QueryInt("smoothing", 0),
			Normals:   c.QueryBool("normals", true),
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		p, err := service.Periodic(c.UserContext(), weather.PeriodicQuery{
			City:        req.City.toCityQuery(),
			Years:       req.Years,
			From:        req.From,
			To:          req.To,
			Smoothing:   req.Smoothing,
			WithNormals: req.Normals,
		})
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(p)
	})

	v1.Get("/progression", func(c *fiber.Ctx) error {
		req := progressionQuery{
			City:     parseCityQuery(c),
			FromYear: c.QueryInt("from_year"),
			ToYear:   c.QueryInt("to_year"),
			Period:   c.Query("period", string(weather.PeriodYear)),
			Value:    c.Query("value"),
			Normals:  c.QueryBool("normals", true),
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		p, err := service.Progression(c.UserContext(), weather.ProgressionQuery{
			City:        req.City.toCityQuery(),
			FromYear:    req.FromYear,
			ToYear:      req.ToYear,
			Period:      weather.Period{Kind: weather.PeriodKind(req.Period), Value: req.Value},
			WithNormals: req.Normals,
		})
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(p)
	})
}

// ErrorHandler renders every error as a JSON body with the matching status.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// toHTTPError maps domain errors onto HTTP status codes.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, weather.ErrInvalidRange),
		errors.Is(err, weather.ErrInvalidPeriod),
		errors.Is(err, weather.ErrTooMany):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, weather.ErrCityNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, climate.ErrNormalsUnavailable):
		return fiber.NewError(fiber.StatusNotFound, "no climate normals for requested location")
	case errors.Is(err, weather.ErrRateLimited):
		return fiber.NewError(fiber.StatusTooManyRequests, weather.ErrRateLimited.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, "upstream weather service timed out")
	default:
		log.Printf("ERROR: upstream failure: %v", err)
		return fiber.NewError(fiber.StatusBadGateway, "failed to fetch weather data")
	}
}

// cityParams holds query parameters for identifying a city.
type cityParams struct {
	Name    string `validate:"required,max=100"`
	Country string `validate:"omitempty,len=2,alpha"`
}

func (p cityParams) toCityQuery() weather.CityQuery {
	return weather.CityQuery{
		Name:    p.Name,
		Country: p.Country,
	}
}

func parseCityQuery(c *fiber.Ctx) cityParams {
	return cityParams{
		Name:    c.Query("city"),
		Country: c.Query("country"),
	}
}

type citiesQuery struct {
	Name  string `validate:"max=100"`
	Limit int    `validate:"min=1,max=20"`
}

// weatherQuery holds query parameters for the weather endpoint.
type weatherQuery struct {
	City      cityParams
	Start     string `validate:"omitempty,datetime=2006-01-02"`
	End       string `validate:"omitempty,datetime=2006-01-02"`
	Smoothing int    `validate:"oneof=0 3 7 15 31"`
	Normals   bool
}

type normalsQuery struct {
	City cityParams
	Date string `validate:"omitempty,datetime=2006-01-02"`
}

type compareQuery struct {
	Cities    []cityParams `validate:"min=1,max=3,dive"`
	Start     string       `validate:"omitempty,datetime=2006-01-02"`
	End       string       `validate:"omitempty,datetime=2006-01-02"`
	Smoothing int          `validate:"oneof=0 3 7 15 31"`
	Normals   bool
}

type periodicQuery struct {
	City      cityParams
	Years     []int  `validate:"min=1,max=3,dive,min=1940,max=2100"`
	From      string `validate:"omitempty,datetime=01-02"`
	To        string `validate:"omitempty,datetime=01-02"`
	Smoothing int    `validate:"oneof=0 3 7 15 31"`
	Normals   bool
}

type progressionQuery struct {
	City     cityParams
	FromYear int    `validate:"min=1940,max=2100"`
	ToYear   int    `validate:"min=1940,max=2100,gtefield=FromYear"`
	Period   string `validate:"oneof=year season month day"`
	Value    string `validate:"required_unless=Period year"`
	Normals  bool
}

// parseCityList pairs the comma-separated city and country parameters.
// Countries are optional but, when given, must match the cities one to one.
func parseCityList(c *fiber.Ctx) ([]cityParams, error) {
	names := splitList(c.Query("city"))
	countries := splitList(c.Query("country"))
	if len(countries) > 0 && len(countries) != len(names) {
		return nil, errors.New("number of cities and countries must be the same")
	}

	cities := make([]cityParams, len(names))
	for i, name := range names {
		cities[i].Name = name
		if len(countries) > 0 {
			cities[i].Country = countries[i]
		}
	}
	return cities, nil
}

func parseIntList(s string) ([]int, error) {
	items := splitList(s)
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(item)
		if err != nil {
			return nil, errors.New("years must be a comma-separated list of integers")
		}
		out = append(out, n)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
