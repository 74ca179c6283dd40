package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/webstack/starter/internal/logging"
)

// APIError is the standard error response shape.
type APIError struct {
	Message   string `json:"message"`
	Error     string `json:"error"`
	Path      string `json:"path"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

// pathFromContext returns the request path from Echo context.
func pathFromContext(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().URL.Path
}

// Error sends a JSON error response using APIError.
func Error(c echo.Context, status int, message, errDetail string) error {
	body := APIError{
		Message:   message,
		Error:     errDetail,
		Path:      pathFromContext(c),
		Status:    status,
		RequestID: logging.RequestID(c.Request().Context()),
	}
	if c.Request().Method == http.MethodHead {
		return c.NoContent(status)
	}
	return c.JSON(status, body)
}

// ServiceUnavailable sends 503 with message and error detail.
func ServiceUnavailable(c echo.Context, message, errDetail string) error {
	return Error(c, http.StatusServiceUnavailable, message, errDetail)
}

// NewErrorHandler renders every handler error as an APIError. Outside debug
// mode the text of unexpected errors is replaced by the status text.
func NewErrorHandler(debug bool, logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := http.StatusText(status)
		detail := message
		if debug {
			detail = err.Error()
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			message = http.StatusText(status)
			if m, ok := he.Message.(string); ok {
				message = m
			} else if he.Message != nil {
				message = fmt.Sprint(he.Message)
			}
			detail = http.StatusText(status)
			if debug && he.Internal != nil {
				detail = he.Internal.Error()
			}
		}

		if werr := Error(c, status, message, detail); werr != nil {
			logger.Error().Err(werr).
				Str("request_id", logging.RequestID(c.Request().Context())).
				Str("path", pathFromContext(c)).
				Msg("failed to write error response")
		}
	}
}
