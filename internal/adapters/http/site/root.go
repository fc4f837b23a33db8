// Package site serves the embedded dashboard pages.
package site

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
)

// Error constants
var (
	ErrServe = errors.New("site serve failed")
)

// Page files, relative to the embedded static root.
const (
	IndexPage     = "index.html"
	DashboardPage = "dashboard.html"
	MatchupPage   = "matchup.html"
)

// Register attaches the home page, the dashboard pages and their assets to mux.
//
//	GET /                   -> home page
//	GET /dashboard          -> player analysis
//	GET /dashboard/matchup  -> game prediction
//	GET /static/...         -> shared scripts and styles
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.Handle("/{$}", NewPageHandler(IndexPage))
	mux.Handle("/dashboard", NewPageHandler(DashboardPage))
	mux.Handle("/dashboard/matchup", NewPageHandler(MatchupPage))
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(FS())))
}

// PageHandler serves one embedded HTML page.
type PageHandler struct {
	page string
}

// NewPageHandler creates a handler for the named page.
func NewPageHandler(page string) *PageHandler {
	return &PageHandler{page: page}
}

// ServeHTTP handles GET requests for the page.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	body, err := fs.ReadFile(staticFS, "static/"+h.page)
	if err != nil {
		http.Error(w, ErrServe.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}
