package middleware

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/webstack/starter/internal/telemetry"
)

// unmatchedRoute labels requests no route matched, keeping label cardinality bounded.
const unmatchedRoute = "unmatched"

type metrics struct {
	m *telemetry.Metrics
}

func (*metrics) Name() string { return "metrics" }

func (s *metrics) Before(echo.Context, *Record) { s.m.InFlight.Inc() }

func (s *metrics) After(_ echo.Context, r *Record) {
	s.m.InFlight.Dec()
	route := r.Route
	if route == "" || errors.Is(r.Err, echo.ErrNotFound) {
		route = unmatchedRoute
	}
	s.m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(r.Status)).Inc()
	s.m.HTTPDuration.WithLabelValues(r.Method, route).Observe(r.Duration.Seconds())
}
