package httpapi

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-forecasts/internal/forecast"
	"github.com/i474232898/weather-forecasts/internal/observability"
)

var validate = validator.New()

// forecastsPath is the collection path under the v1 group.
const forecastsPath = "/forecasts"

// RegisterRoutes wires the forecast handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, repo forecast.Repository, log zerolog.Logger, metrics *observability.Metrics) {
	h := &handlers{repo: repo, log: log, metrics: metrics}

	v1 := app.Group("/api/v1")
	v1.Get(forecastsPath, h.list)
	v1.Get(forecastsPath+"/:id", h.get)
	v1.Post(forecastsPath, h.create)
	v1.Put(forecastsPath, h.update)
	v1.Delete(forecastsPath+"/:id", h.remove)
}

type handlers struct {
	repo    forecast.Repository
	log     zerolog.Logger
	metrics *observability.Metrics
}

func (h *handlers) list(c *fiber.Ctx) error {
	items, err := h.repo.List(c.UserContext())
	if err != nil {
		return h.storeError(c, "list", err)
	}
	if items == nil {
		items = []forecast.Forecast{}
	}
	h.observe("list", "ok")
	return c.JSON(items)
}

func (h *handlers) get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	f, ok, err := h.repo.Get(c.UserContext(), id)
	if err != nil {
		return h.storeError(c, "get", err)
	}
	if !ok {
		h.observe("get", "not_found")
		return fiber.NewError(fiber.StatusNotFound, "forecast not found")
	}
	h.observe("get", "ok")
	return c.JSON(f)
}

func (h *handlers) create(c *fiber.Ctx) error {
	f, err := bindForecast(c)
	if err != nil {
		h.observe("create", "invalid")
		return err
	}

	res, err := h.repo.Insert(c.UserContext(), f)
	if err != nil {
		return h.storeError(c, "create", err)
	}
	if res.Outcome == forecast.InsertAlreadyExists {
		h.log.Error().Int("id", f.ID).Msg("forecast already exists")
		h.conflict("create", res.Outcome.String())
		return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("forecast %d already exists", f.ID))
	}

	h.observe("create", res.Outcome.String())
	c.Location(fmt.Sprintf("%s/api/v1%s/%d", c.BaseURL(), forecastsPath, res.Forecast.ID))
	return c.Status(fiber.StatusCreated).JSON(res.Forecast)
}

func (h *handlers) update(c *fiber.Ctx) error {
	f, err := bindForecast(c)
	if err != nil {
		h.observe("update", "invalid")
		return err
	}

	res, err := h.repo.Update(c.UserContext(), f)
	if err != nil {
		return h.storeError(c, "update", err)
	}

	switch res.Outcome {
	case forecast.UpdateAccepted:
		h.observe("update", res.Outcome.String())
		return c.JSON(res.Forecast)
	case forecast.UpdateVersionConflict:
		h.log.Error().Int("id", f.ID).Str("etag", f.ETag).Msg("forecast version conflict")
		h.conflict("update", res.Outcome.String())
		return fiber.NewError(fiber.StatusConflict, "forecast was modified; fetch it again before updating")
	default:
		h.observe("update", res.Outcome.String())
		return fiber.NewError(fiber.StatusNotFound, "forecast not found")
	}
}

func (h *handlers) remove(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	n, err := h.repo.Remove(c.UserContext(), id)
	if err != nil {
		return h.storeError(c, "delete", err)
	}
	if n == 0 {
		h.observe("delete", "not_found")
		return fiber.NewError(fiber.StatusNotFound, "forecast not found")
	}
	h.observe("delete", "ok")
	return c.SendStatus(fiber.StatusNoContent)
}

// storeError maps a repository failure to a 5xx response.
func (h *handlers) storeError(c *fiber.Ctx, op string, err error) error {
	h.log.Error().Err(err).Str("operation", op).Str("path", c.Path()).Msg("forecast store failure")
	if errors.Is(err, forecast.ErrStoreUnavailable) {
		h.observe(op, "unavailable")
		return fiber.NewError(fiber.StatusServiceUnavailable, "forecast store unavailable")
	}
	h.observe(op, "error")
	return fiber.NewError(fiber.StatusInternalServerError, "forecast store failure")
}

func (h *handlers) observe(op, outcome string) {
	if h.metrics == nil {
		return
	}
	h.metrics.Requests.WithLabelValues(op, outcome).Inc()
}

func (h *handlers) conflict(op, kind string) {
	h.observe(op, kind)
	if h.metrics != nil {
		h.metrics.Conflicts.WithLabelValues(kind).Inc()
	}
}

// forecastRequest is the wire body for create and update.
type forecastRequest struct {
	ID           *int           `json:"id" validate:"required"`
	Date         *forecast.Date `json:"date" validate:"required"`
	TemperatureC *int           `json:"temperatureC" validate:"required"`
	Summary      string         `json:"summary"`
	ETag         string         `json:"eTag"`
}

func (r forecastRequest) toForecast() forecast.Forecast {
	return forecast.Forecast{
		ID:           *r.ID,
		Date:         *r.Date,
		TemperatureC: *r.TemperatureC,
		Summary:      r.Summary,
		ETag:         r.ETag,
	}
}

func bindForecast(c *fiber.Ctx) (forecast.Forecast, error) {
	var req forecastRequest
	if err := c.BodyParser(&req); err != nil {
		return forecast.Forecast{}, fiber.NewError(fiber.StatusBadRequest, "invalid forecast body: "+err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return forecast.Forecast{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return req.toForecast(), nil
}

func parseID(c *fiber.Ctx) (int, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "id must be an integer")
	}
	return id, nil
}
