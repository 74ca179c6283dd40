// Package middleware records every request through an ordered set of stages.
//
// A Pipeline runs each stage's Before hook in order, dispatches to the next
// handler, then runs each After hook in reverse order. The stage order is fixed
// by NewPipeline, so a request is always assigned its id before its clock
// starts, and its clock always stops before metrics, spans and the log record
// are emitted.
package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/webstack/starter/internal/telemetry"
)

// HeaderRequestID carries the correlation id on every response.
const HeaderRequestID = "X-Request-ID"

// Record is the per-request state shared by the stages.
type Record struct {
	RequestID string
	Method    string
	Path      string
	Route     string
	Start     time.Time
	Duration  time.Duration
	Status    int
	Err       error

	// span and txn are opened by the tracing and newrelic stages.
	span trace.Span
	txn  *newrelic.Transaction
}

// Stage is one step of the pipeline.
type Stage interface {
	Name() string
	Before(c echo.Context, r *Record)
	After(c echo.Context, r *Record)
}

// Options selects the optional stages. Zero values disable them.
type Options struct {
	Logger     zerolog.Logger
	Tracer     trace.Tracer
	Propagator propagation.TextMapPropagator
	Metrics    *telemetry.Metrics
	NewRelic   *newrelic.Application
}

// Pipeline is the fixed runner over the ordered stages.
type Pipeline struct {
	stages []Stage
}

// NewPipeline orders the stages as correlation, logging, newrelic, tracing,
// metrics, timing. Disabled stages are left out.
func NewPipeline(opts Options) *Pipeline {
	stages := []Stage{
		&correlation{logger: opts.Logger},
		&accessLog{logger: opts.Logger},
	}
	if opts.NewRelic != nil {
		stages = append(stages, &newRelicTxn{app: opts.NewRelic})
	}
	if opts.Tracer != nil {
		prop := opts.Propagator
		if prop == nil {
			prop = propagation.TraceContext{}
		}
		stages = append(stages, &tracing{tracer: opts.Tracer, propagator: prop})
	}
	if opts.Metrics != nil {
		stages = append(stages, &metrics{m: opts.Metrics})
	}
	stages = append(stages, timing{})
	return &Pipeline{stages: stages}
}

// Stages returns the stage names in Before order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Middleware adapts the pipeline to echo. The handler error is returned
// unchanged so the framework error handler still renders it.
func (p *Pipeline) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rec := &Record{
				Method: req.Method,
				Path:   req.URL.Path,
				Route:  c.Path(),
			}
			for _, s := range p.stages {
				s.Before(c, rec)
			}

			err := next(c)
			rec.Err = err
			rec.Status = statusOf(c, err)

			for i := len(p.stages) - 1; i >= 0; i-- {
				p.stages[i].After(c, rec)
			}
			return err
		}
	}
}

// statusOf is the status the client receives. A failed handler that has not
// written a response gets the code of its *echo.HTTPError, otherwise 500.
func statusOf(c echo.Context, err error) int {
	res := c.Response()
	if err == nil || res.Committed {
		if res.Status == 0 {
			return http.StatusOK
		}
		return res.Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

type timing struct{}

func (timing) Name() string { return "timing" }

func (timing) Before(_ echo.Context, r *Record) { r.Start = time.Now() }

func (timing) After(_ echo.Context, r *Record) { r.Duration = time.Since(r.Start) }
