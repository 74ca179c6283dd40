package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/webstack/starter/internal/model"
)

// accessLog writes exactly one record per request, whatever its outcome.
type accessLog struct {
	logger zerolog.Logger
}

func (*accessLog) Name() string { return "logging" }

func (*accessLog) Before(echo.Context, *Record) {}

func (s *accessLog) After(c echo.Context, r *Record) {
	entry := model.RequestLog{
		RequestID:  r.RequestID,
		Method:     r.Method,
		Path:       r.Path,
		Route:      r.Route,
		Status:     r.Status,
		DurationMS: float64(r.Duration) / float64(time.Millisecond),
		ClientIP:   c.RealIP(),
	}
	if r.Err != nil {
		entry.Error = r.Err.Error()
	}
	s.logger.WithLevel(levelFor(r.Status)).EmbedObject(entry).Msg("request completed")
}

func levelFor(status int) zerolog.Level {
	switch {
	case status >= 500:
		return zerolog.ErrorLevel
	case status >= 400:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
