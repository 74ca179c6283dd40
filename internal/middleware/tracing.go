package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// HeaderTraceID carries the trace id when tracing is enabled.
const HeaderTraceID = "X-Trace-ID"

// tracing opens one server span per request, continuing any W3C trace context
// sent by the client and returning it on the response.
type tracing struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

func (*tracing) Name() string { return "tracing" }

func (s *tracing) Before(c echo.Context, r *Record) {
	req := c.Request()
	ctx := s.propagator.Extract(req.Context(), propagation.HeaderCarrier(req.Header))

	route := r.Route
	if route == "" {
		route = r.Path
	}
	ctx, span := s.tracer.Start(ctx, r.Method+" "+route,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("http.route", r.Route),
			attribute.String("url.path", r.Path),
			attribute.String("request.id", r.RequestID),
		),
	)

	res := c.Response()
	if sc := span.SpanContext(); sc.HasTraceID() {
		res.Header().Set(HeaderTraceID, sc.TraceID().String())
	}
	s.propagator.Inject(ctx, propagation.HeaderCarrier(res.Header()))
	r.span = span
	c.SetRequest(req.WithContext(ctx))
}

// After ends the span opened in Before. Handlers may replace the request
// context with a child span, so it is not looked up from the context.
func (*tracing) After(_ echo.Context, r *Record) {
	span := r.span
	if span == nil {
		return
	}
	span.SetAttributes(attribute.Int("http.response.status_code", r.Status))
	if r.Status >= http.StatusInternalServerError {
		if r.Err != nil {
			span.RecordError(r.Err)
			span.SetStatus(codes.Error, r.Err.Error())
		} else {
			span.SetStatus(codes.Error, strconv.Itoa(r.Status))
		}
	}
	span.End()
}
