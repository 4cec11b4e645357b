package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-forecasts/internal/observability"
)

// requestLogger logs one line per request and records handler latency.
func requestLogger(log zerolog.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Let the error handler set the final status before it is logged.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				log.Error().Err(herr).Str("path", c.Path()).Msg("render error response")
				c.Status(fiber.StatusInternalServerError)
			}
		}
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		event := log.Info()
		if status >= fiber.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("component", "http").
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration_ms", elapsed).
			Msg("request completed")

		if metrics != nil && c.Route() != nil {
			metrics.RequestDurationMs.WithLabelValues(c.Method() + " " + c.Route().Path).
				Observe(float64(elapsed.Microseconds()) / 1000)
		}
		return nil
	}
}
