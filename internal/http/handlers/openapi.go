package handlers

import (
	_ "embed"
	"net/http"
)

//go:embed openapi.json
var openAPISpec []byte

// docsPage renders the embedded OpenAPI document with Redoc.
const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8" />
<title>adstudio API</title>
<meta name="viewport" content="width=device-width, initial-scale=1" />
<style>body{margin:0}redoc{display:block;height:100vh}</style>
</head>
<body>
<redoc spec-url="/openapi.json"></redoc>
<script src="https://cdn.jsdelivr.net/npm/redoc@2.2.0/bundles/redoc.standalone.js"></script>
</body>
</html>`

// OpenAPIJSON serves the API description.
func (a *App) OpenAPIJSON(w http.ResponseWriter, _ *http.Request) {
	a.raw(w, "application/json; charset=utf-8", openAPISpec)
}

// OpenAPIDocs serves a browsable rendering of the API description.
func (a *App) OpenAPIDocs(w http.ResponseWriter, _ *http.Request) {
	a.raw(w, "text/html; charset=utf-8", []byte(docsPage))
}

func (a *App) raw(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
