// Package docs builds the OpenAPI description served in debug mode.
package docs

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"gopkg.in/yaml.v3"
)

// Info identifies the API in the document.
type Info struct {
	Title       string
	Version     string
	Environment string
	APIPrefix   string
	Metrics     bool
}

// Document is a minimal OpenAPI 3.1 document.
type Document struct {
	OpenAPI    string              `json:"openapi" yaml:"openapi"`
	Info       DocInfo             `json:"info" yaml:"info"`
	Paths      map[string]PathItem `json:"paths" yaml:"paths"`
	Components Components          `json:"components" yaml:"components"`
}

type DocInfo struct {
	Title       string `json:"title" yaml:"title"`
	Version     string `json:"version" yaml:"version"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type PathItem struct {
	Get *Operation `json:"get,omitempty" yaml:"get,omitempty"`
}

type Operation struct {
	Summary     string              `json:"summary" yaml:"summary"`
	OperationID string              `json:"operationId" yaml:"operationId"`
	Tags        []string            `json:"tags,omitempty" yaml:"tags,omitempty"`
	Responses   map[string]Response `json:"responses" yaml:"responses"`
}

type Response struct {
	Description string               `json:"description" yaml:"description"`
	Content     map[string]MediaType `json:"content,omitempty" yaml:"content,omitempty"`
}

type MediaType struct {
	Schema Schema `json:"schema" yaml:"schema"`
}

type Schema struct {
	Ref        string            `json:"$ref,omitempty" yaml:"$ref,omitempty"`
	Type       string            `json:"type,omitempty" yaml:"type,omitempty"`
	Properties map[string]Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Items      *Schema           `json:"items,omitempty" yaml:"items,omitempty"`
	Required   []string          `json:"required,omitempty" yaml:"required,omitempty"`
	Example    any               `json:"example,omitempty" yaml:"example,omitempty"`
}

type Components struct {
	Schemas map[string]Schema `json:"schemas" yaml:"schemas"`
}

// New describes the routes the server registers for info.
func New(info Info) *Document {
	doc := &Document{
		OpenAPI: "3.1.0",
		Info: DocInfo{
			Title:       info.Title,
			Version:     info.Version,
			Description: fmt.Sprintf("%s (%s)", info.Title, info.Environment),
		},
		Paths: map[string]PathItem{
			"/":         get("Greeting", "root", "system", "Greeting"),
			"/health":   get("Liveness check", "health", "system", "Health"),
			"/ready":    withStatus(get("Readiness check", "ready", "system", "Readiness"), "503", "Readiness", "A component is not ready"),
			"/settings": get("Non-secret settings", "settings", "system", "Settings"),
			info.APIPrefix + "/settings/schema": {
				Get: &Operation{
					Summary:     "Describe every setting",
					OperationID: "settingsSchema",
					Tags:        []string{"docs"},
					Responses: map[string]Response{"200": jsonResponse("Setting descriptions", Schema{
						Type:  "array",
						Items: &Schema{Ref: ref("FieldInfo")},
					})},
				},
			},
		},
		Components: Components{Schemas: schemas()},
	}
	if info.Metrics {
		doc.Paths["/metrics"] = PathItem{Get: &Operation{
			Summary:     "Prometheus metrics",
			OperationID: "metrics",
			Tags:        []string{"system"},
			Responses: map[string]Response{"200": {
				Description: "Prometheus text exposition",
				Content:     map[string]MediaType{"text/plain": {Schema: Schema{Type: "string"}}},
			}},
		}}
	}
	return doc
}

func ref(name string) string { return "#/components/schemas/" + name }

func jsonResponse(description string, s Schema) Response {
	return Response{
		Description: description,
		Content:     map[string]MediaType{"application/json": {Schema: s}},
	}
}

func get(summary, id, tag, schema string) PathItem {
	return PathItem{Get: &Operation{
		Summary:     summary,
		OperationID: id,
		Tags:        []string{tag},
		Responses: map[string]Response{
			"200":     jsonResponse("OK", Schema{Ref: ref(schema)}),
			"default": jsonResponse("Error", Schema{Ref: ref("Error")}),
		},
	}}
}

func withStatus(p PathItem, code, schema, description string) PathItem {
	p.Get.Responses[code] = jsonResponse(description, Schema{Ref: ref(schema)})
	return p
}

func str(example string) Schema { return Schema{Type: "string", Example: example} }

func schemas() map[string]Schema {
	info := map[string]Schema{
		"app_name":    str("Starter API"),
		"version":     str("0.1.0"),
		"environment": str("development"),
	}
	with := func(extra map[string]Schema) map[string]Schema {
		out := map[string]Schema{}
		for k, v := range info {
			out[k] = v
		}
		for k, v := range extra {
			out[k] = v
		}
		return out
	}
	boolean := Schema{Type: "boolean"}

	return map[string]Schema{
		"Greeting": {Type: "object", Properties: with(map[string]Schema{"message": str("Hello World")})},
		"Health":   {Type: "object", Properties: with(map[string]Schema{"status": str("healthy")})},
		"Readiness": {Type: "object", Properties: map[string]Schema{
			"status":     str("ready"),
			"components": {Type: "object"},
		}},
		"Settings": {Type: "object", Properties: map[string]Schema{
			"app_name":             str("Starter API"),
			"app_version":          str("0.1.0"),
			"environment":          str("development"),
			"debug":                boolean,
			"api_prefix":           str("/api/v1"),
			"log_level":            str("info"),
			"log_format":           str("json"),
			"otel_service_name":    str("starter-api"),
			"otel_service_version": str("0.1.0"),
			"tracing_enabled":      boolean,
			"metrics_enabled":      boolean,
			"new_relic_enabled":    boolean,
			"database_enabled":     boolean,
			"allowed_origins":      {Type: "array", Items: &Schema{Type: "string"}},
		}},
		"FieldInfo": {Type: "object", Properties: map[string]Schema{
			"name":        str("server.port"),
			"env_var":     str("APP_SERVER__PORT"),
			"type":        str("int"),
			"required":    boolean,
			"default":     str("8000"),
			"options":     {Type: "array", Items: &Schema{Type: "string"}},
			"secret":      boolean,
			"description": str("Listen port"),
		}},
		"Error": {Type: "object", Required: []string{"message", "status"}, Properties: map[string]Schema{
			"message":    str("Not Found"),
			"error":      str("Not Found"),
			"path":       str("/missing"),
			"status":     {Type: "integer", Example: 404},
			"request_id": str("3f1c2a9e-6a51-4c3e-9b7f-0a3d2c4e5f60"),
		}},
	}
}

// JSON renders the document as JSON.
func (d *Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// YAML renders the document as YAML.
func (d *Document) YAML() ([]byte, error) {
	return yaml.Marshal(d)
}

var swaggerPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Title}} - API docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
  <script>
    window.ui = SwaggerUIBundle({ url: {{.SpecURL}}, dom_id: "#swagger-ui" });
  </script>
</body>
</html>
`))

// WriteSwaggerUI renders an interactive page loading the document from specURL.
func WriteSwaggerUI(w io.Writer, title, specURL string) error {
	return swaggerPage.Execute(w, struct{ Title, SpecURL string }{title, specURL})
}
