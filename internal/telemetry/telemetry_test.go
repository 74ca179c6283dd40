package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMetrics_HandlerExposesCounters(t *testing.T) {
	m := NewMetrics("starter")
	m.HTTPRequests.WithLabelValues("GET", "/health", "200").Inc()
	m.HTTPDuration.WithLabelValues("GET", "/health").Observe(0.01)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `starter_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, body, "starter_http_request_duration_seconds_bucket")
	assert.Contains(t, body, "go_goroutines")
}

func TestMetrics_InstancesAreIndependent(t *testing.T) {
	a := NewMetrics("starter")
	b := NewMetrics("starter")
	a.InFlight.Inc()

	families, err := b.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "starter_http_requests_in_flight" {
			assert.Zero(t, f.GetMetric()[0].GetGauge().GetValue())
		}
	}
}

func TestTracing_StopFlushesSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tr, err := NewTracingWithProcessor(TracingConfig{
		ServiceName:    "starter-api",
		ServiceVersion: "1.2.3",
		Environment:    "testing",
	}, recorder)
	require.NoError(t, err)
	require.NoError(t, tr.Start(context.Background()))
	assert.Equal(t, "tracing", tr.Name())

	_, span := tr.Tracer().Start(context.Background(), "GET /health")
	span.End()
	require.NoError(t, tr.Stop(context.Background()))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /health", spans[0].Name())

	attrs := map[string]string{}
	for _, kv := range spans[0].Resource().Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "starter-api", attrs["service.name"])
	assert.Equal(t, "1.2.3", attrs["service.version"])
	assert.Equal(t, "testing", attrs["deployment.environment.name"])
}

func TestExporterOptions(t *testing.T) {
	assert.Len(t, exporterOptions(TracingConfig{Endpoint: "collector:4317"}), 1)
	assert.Len(t, exporterOptions(TracingConfig{Endpoint: "http://collector:4317", Insecure: true}), 2)
}
