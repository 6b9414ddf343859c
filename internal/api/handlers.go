// Package api exposes the dataset loader over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/statforge/blsload/internal/dataset"
	"github.com/statforge/blsload/internal/flatfile"
	"github.com/statforge/blsload/internal/pkg/httputil"
)

// Loader runs a cataloged survey. Satisfied by *dataset.Collector via the
// server's wiring; tests substitute a stub.
type Loader interface {
	Load(ctx context.Context, baseURL, surveyID string) (*dataset.Collection, error)
}

// Handlers holds the API's dependencies.
type Handlers struct {
	loader  Loader
	baseURL string
}

// NewHandlers wires the loader and the archive base URL.
func NewHandlers(loader Loader, baseURL string) *Handlers {
	return &Handlers{loader: loader, baseURL: baseURL}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "ok"})
}

// ListSurveys returns the survey catalog.
func (h *Handlers) ListSurveys(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, dataset.Catalog(h.baseURL))
}

// GetSurvey fetches and joins one survey and returns the full collection.
func (h *Handlers) GetSurvey(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r)
	if !ok {
		return
	}
	httputil.OK(w, c)
}

// GetSurveyDiagnostics returns only the diagnostics and summary of a
// survey run, for callers checking data quality without the payload.
func (h *Handlers) GetSurveyDiagnostics(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r)
	if !ok {
		return
	}
	httputil.OK(w, map[string]interface{}{
		"per_file_diagnostics": c.Diagnostics,
		"aggregate_warnings":   c.Warnings,
		"summary":              c.Summary,
	})
}

func (h *Handlers) load(w http.ResponseWriter, r *http.Request) (*dataset.Collection, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.BadRequest(w, "missing survey id")
		return nil, false
	}
	if _, ok := dataset.LookupSurvey(h.baseURL, id); !ok {
		httputil.NotFound(w, "unknown survey "+id)
		return nil, false
	}

	c, err := h.loader.Load(r.Context(), h.baseURL, id)
	if err != nil {
		var fetchErr *flatfile.FetchError
		var formatErr *flatfile.FormatError
		if errors.As(err, &fetchErr) || errors.As(err, &formatErr) {
			httputil.BadGateway(w, err)
			return nil, false
		}
		httputil.Error(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return c, true
}
