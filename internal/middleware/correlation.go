package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/webstack/starter/internal/logging"
)

// correlation assigns a fresh id to every request. Incoming X-Request-ID
// headers are ignored so ids stay unique.
type correlation struct {
	logger zerolog.Logger
}

func (*correlation) Name() string { return "correlation" }

func (s *correlation) Before(c echo.Context, r *Record) {
	r.RequestID = uuid.NewString()
	c.Response().Header().Set(HeaderRequestID, r.RequestID)

	req := c.Request()
	ctx := logging.WithLogger(req.Context(), &s.logger)
	ctx = logging.WithRequestID(ctx, r.RequestID)
	c.SetRequest(req.WithContext(ctx))
}

func (*correlation) After(echo.Context, *Record) {}
