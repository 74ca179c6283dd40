package model

import "github.com/rs/zerolog"

// RequestLog is the structured record emitted once per request. The time
// and service fields come from the logger it is written to.
type RequestLog struct {
	RequestID  string
	Method     string
	Path       string
	Route      string
	Status     int
	DurationMS float64
	ClientIP   string
	Error      string
}

// MarshalZerologObject writes the request fields.
func (l RequestLog) MarshalZerologObject(e *zerolog.Event) {
	e.Str("request_id", l.RequestID).
		Str("method", l.Method).
		Str("path", l.Path).
		Str("route", l.Route).
		Int("status", l.Status).
		Float64("duration_ms", l.DurationMS)
	if l.ClientIP != "" {
		e.Str("client_ip", l.ClientIP)
	}
	if l.Error != "" {
		e.Str("error", l.Error)
	}
}
