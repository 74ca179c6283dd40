package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/webstack/starter/internal/config"
	"github.com/webstack/starter/internal/docs"
	"github.com/webstack/starter/internal/response"
)

// DocsHandler serves the API description. Routes are registered only in debug mode.
type DocsHandler struct {
	Title   string
	SpecURL string
	Doc     *docs.Document
}

// Page renders the interactive docs (GET {prefix}/docs).
func (h *DocsHandler) Page(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return docs.WriteSwaggerUI(c.Response(), h.Title, h.SpecURL)
}

// OpenAPIJSON serves the document as JSON (GET {prefix}/openapi.json).
func (h *DocsHandler) OpenAPIJSON(c echo.Context) error {
	body, err := h.Doc.JSON()
	if err != nil {
		return response.Error(c, http.StatusInternalServerError, "render openapi document", err.Error())
	}
	return c.JSONBlob(http.StatusOK, body)
}

// OpenAPIYAML serves the document as YAML (GET {prefix}/openapi.yaml).
func (h *DocsHandler) OpenAPIYAML(c echo.Context) error {
	body, err := h.Doc.YAML()
	if err != nil {
		return response.Error(c, http.StatusInternalServerError, "render openapi document", err.Error())
	}
	return c.Blob(http.StatusOK, "application/yaml", body)
}

// SettingsSchema describes every setting (GET {prefix}/settings/schema).
func (h *DocsHandler) SettingsSchema(c echo.Context) error {
	return c.JSON(http.StatusOK, config.Fields())
}
