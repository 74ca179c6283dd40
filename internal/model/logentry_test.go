package model

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLog_MarshalZerologObject(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str("service", "starter-api").Logger()

	logger.Info().EmbedObject(RequestLog{
		RequestID:  "req-1",
		Method:     "GET",
		Path:       "/items/7",
		Route:      "/items/:id",
		Status:     200,
		DurationMS: 1.5,
	}).Msg("request completed")

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, map[string]any{
		"level":       "info",
		"service":     "starter-api",
		"request_id":  "req-1",
		"method":      "GET",
		"path":        "/items/7",
		"route":       "/items/:id",
		"status":      float64(200),
		"duration_ms": 1.5,
		"message":     "request completed",
	}, got)
}

func TestRequestLog_OptionalFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	logger.Warn().EmbedObject(RequestLog{Status: 404, ClientIP: "10.0.0.1", Error: "not found"}).Send()

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "10.0.0.1", got["client_ip"])
	assert.Equal(t, "not found", got["error"])
}
