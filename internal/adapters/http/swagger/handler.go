package swagger

import (
	"context"
	"fmt"
	"net/http"
)

// Route paths.
const (
	DocsPath = "/api-docs"
	SpecPath = "/openapi.yaml"
)

// redocBundle is pinned to a major version so a ReDoc release cannot break the page.
const redocBundle = "https://cdn.redoc.ly/redoc/v2/bundles/redoc.standalone.js"

// Register mounts the API reference page and the OpenAPI document on mux.
// Both routes answer GET and HEAD only.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	page := []byte(docsPage())

	mux.HandleFunc("GET "+DocsPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})
	mux.HandleFunc("GET "+SpecPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(OpenAPI)
	})
}

func docsPage() string {
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8">
    <title>NBAI analytics API</title>
    <link rel="stylesheet" href="/static/style.css">
    <style>body{margin:0}</style>
  </head>
  <body>
    <nav><a href="/">Home</a> <a href="/dashboard">Players</a> <a href="/dashboard/matchup">Matchups</a> <a href="/dashboard/ops">Operations</a></nav>
    <redoc id="reference"></redoc>
    <script src="%s"></script>
    <script>Redoc.init(%q, { suppressWarnings: true, hideDownloadButton: false }, document.getElementById('reference'));</script>
  </body>
</html>`, redocBundle, SpecPath)
}
