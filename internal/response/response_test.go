package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webstack/starter/internal/logging"
)

func render(t *testing.T, debug bool, method string, err error) (*httptest.ResponseRecorder, APIError) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/things", nil)
	req = req.WithContext(logging.WithRequestID(req.Context(), "req-1"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewErrorHandler(debug, zerolog.Nop())(err, c)

	var body APIError
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestErrorHandler_HTTPError(t *testing.T) {
	rec, body := render(t, false, http.MethodGet, echo.NewHTTPError(http.StatusNotFound, "no such thing"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, APIError{
		Message:   "no such thing",
		Error:     "Not Found",
		Path:      "/things",
		Status:    http.StatusNotFound,
		RequestID: "req-1",
	}, body)
}

func TestErrorHandler_HidesInternalDetailOutsideDebug(t *testing.T) {
	err := errors.New("dial tcp 10.0.0.5:5432: connection refused")

	rec, body := render(t, false, http.MethodGet, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", body.Message)
	assert.Equal(t, "Internal Server Error", body.Error)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")

	_, body = render(t, true, http.MethodGet, err)
	assert.Equal(t, err.Error(), body.Error)
}

func TestErrorHandler_InternalOfHTTPErrorOnlyInDebug(t *testing.T) {
	err := echo.NewHTTPError(http.StatusBadGateway, "upstream failed").SetInternal(errors.New("secret upstream detail"))

	_, body := render(t, false, http.MethodGet, err)
	assert.Equal(t, "Bad Gateway", body.Error)

	_, body = render(t, true, http.MethodGet, err)
	assert.Equal(t, "secret upstream detail", body.Error)
}

func TestErrorHandler_Head(t *testing.T) {
	rec, _ := render(t, false, http.MethodHead, echo.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestErrorHandler_CommittedResponseUntouched(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, c.String(http.StatusOK, "done"))

	NewErrorHandler(true, zerolog.Nop())(errors.New("late"), c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
}
