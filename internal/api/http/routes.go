package httpapi

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/park-factors/internal/factors"
	"github.com/i474232898/park-factors/internal/parks"
	"github.com/i474232898/park-factors/internal/refresh"
	"github.com/i474232898/park-factors/internal/store"
)

var validate = validator.New()

// ParkFactorService is the slice of *refresh.Controller the handlers use.
type ParkFactorService interface {
	Current(ctx context.Context) (factors.Result, error)
	Refresh(ctx context.Context) (factors.Result, error)
	Stored(ctx context.Context) (factors.Result, error)
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
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

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc ParkFactorService) {
	app.Use(cors.New(cors.Config{AllowOrigins: "*"}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")

	v1.Get("/park-factors", func(c *fiber.Ctx) error {
		res, err := svc.Stored(c.UserContext())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no park factor data has been computed yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load park factors")
		}
		c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
		return sendResult(c, res)
	})

	v1.Get("/park-factors/live", func(c *fiber.Ctx) error {
		res, err := svc.Current(c.UserContext())
		if err != nil {
			if errors.Is(err, refresh.ErrUnavailable) {
				return fiber.NewError(fiber.StatusNotFound, "park factors are currently unavailable")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to compute park factors")
		}
		c.Set(fiber.HeaderCacheControl, "no-cache")
		return sendResult(c, res)
	})

	v1.Post("/park-factors/refresh", func(c *fiber.Ctx) error {
		res, err := svc.Refresh(c.UserContext())
		if err != nil {
			if errors.Is(err, refresh.ErrUnavailable) {
				return fiber.NewError(fiber.StatusServiceUnavailable, "park factors could not be refreshed")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to refresh park factors")
		}
		c.Set(fiber.HeaderCacheControl, "no-cache")
		return sendResult(c, res)
	})

	v1.Get("/weather", func(c *fiber.Ctx) error {
		q, err := parseTeamQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		venue, err := parks.ByTeam(q.Team)
		if err != nil {
			if errors.Is(err, parks.ErrUnknownTeam) {
				return fiber.NewError(fiber.StatusNotFound, "unknown team "+q.Team)
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to resolve team")
		}

		res, err := svc.Stored(c.UserContext())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no park factor data has been computed yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load park factors")
		}

		rec, ok := res.Find(venue.Name)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no park factor data for "+venue.Name)
		}

		return c.JSON(fiber.Map{
			"team":        q.Team,
			"park":        rec.Park,
			"weather":     rec.Weather,
			"hr_factor":   rec.HRFactor,
			"runs_factor": rec.RunsFactor,
		})
	})
}

// teamQuery holds query parameters for the per-venue lookup.
type teamQuery struct {
	Team string `validate:"required"`
}

func parseTeamQuery(c *fiber.Ctx) (teamQuery, error) {
	q := teamQuery{Team: strings.ToUpper(strings.TrimSpace(c.Query("team")))}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// sendResult writes the same document the store persists.
func sendResult(c *fiber.Ctx, res factors.Result) error {
	body, err := factors.Marshal(res)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to encode park factors")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(body)
}
