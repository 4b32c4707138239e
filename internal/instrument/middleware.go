package instrument

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ModeFunc names the response mode of a request, e.g. "json" or "fragment".
type ModeFunc func(c *fiber.Ctx) string

// Middleware logs every request and records it in m. Errors returned by
// later handlers are passed to the app's error handler first so the logged
// status is the one the client sees.
func Middleware(m *Metrics, log *zap.Logger, mode ModeFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if m != nil {
			m.inFlight.Inc()
			defer m.inFlight.Dec()
		}

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		latency := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path
		method := c.Method()
		m.observe(route, method, status, modeOf(c, mode), latency)

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", c.Path()),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("mode", modeOf(c, mode)),
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= fiber.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
		return nil
	}
}

func (m *Metrics) observe(route, method string, status int, mode string, latency time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status), mode).Inc()
	m.duration.WithLabelValues(route, method).Observe(latency.Seconds())
}

func modeOf(c *fiber.Ctx, mode ModeFunc) string {
	if mode == nil {
		return "json"
	}
	return mode(c)
}
