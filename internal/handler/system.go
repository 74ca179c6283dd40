package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/webstack/starter/internal/config"
	"github.com/webstack/starter/internal/lifecycle"
	"github.com/webstack/starter/internal/model"
)

// ReadinessChecker reports per-component status, as lifecycle.Manager does.
type ReadinessChecker interface {
	Check(ctx context.Context) map[string]string
}

// SystemHandler serves /, /health, /ready and /settings. It only reads the
// shared configuration and never mutates it.
type SystemHandler struct {
	Config       *config.Config
	Readiness    ReadinessChecker
	CheckTimeout time.Duration
}

func (h *SystemHandler) info() model.Info {
	return model.Info{
		AppName:     h.Config.Name,
		Version:     h.Config.Version,
		Environment: string(h.Config.Environment),
	}
}

// Root greets the caller (GET /).
func (h *SystemHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, model.Greeting{Message: "Hello World", Info: h.info()})
}

// Health reports liveness without touching any dependency (GET /health).
func (h *SystemHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, model.Health{Status: "healthy", Info: h.info()})
}

// Settings returns the redacted configuration (GET /settings).
func (h *SystemHandler) Settings(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Config.Redacted())
}

// Ready reports whether every process component is usable (GET /ready).
func (h *SystemHandler) Ready(c echo.Context) error {
	out := model.Readiness{Status: lifecycle.StatusReady, Components: map[string]string{}}
	if h.Readiness != nil {
		timeout := h.CheckTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		defer cancel()
		out.Components = h.Readiness.Check(ctx)
	}

	for _, status := range out.Components {
		if status != lifecycle.StatusReady {
			out.Status = "degraded"
			return c.JSON(http.StatusServiceUnavailable, out)
		}
	}
	return c.JSON(http.StatusOK, out)
}
