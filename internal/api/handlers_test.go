package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statforge/blsload/internal/dataset"
	"github.com/statforge/blsload/internal/flatfile"
)

type stubLoader struct {
	collection *dataset.Collection
	err        error
	gotSurvey  string
}

func (s *stubLoader) Load(_ context.Context, _ string, surveyID string) (*dataset.Collection, error) {
	s.gotSurvey = surveyID
	if s.err != nil {
		return nil, s.err
	}
	return s.collection, nil
}

func newTestServer(t *testing.T, loader Loader) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(SetupRoutes(NewHandlers(loader, "")))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, &stubLoader{})

	resp, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)
}

func TestListSurveys(t *testing.T) {
	srv := newTestServer(t, &stubLoader{})

	resp, body := get(t, srv.URL+"/api/surveys")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var surveys []dataset.Survey
	require.NoError(t, json.Unmarshal(body, &surveys))
	assert.NotEmpty(t, surveys)
	ids := make(map[string]bool)
	for _, s := range surveys {
		ids[s.ID] = true
	}
	assert.True(t, ids["ln"])
	assert.True(t, ids["cu"])
}

func TestGetSurvey(t *testing.T) {
	loader := &stubLoader{collection: &dataset.Collection{
		ID:   "col-1",
		Data: &flatfile.Table{Columns: []string{"series_id"}, Rows: [][]string{{"LNS10000000"}}},
		Summary: dataset.Summary{
			Dataset: "ln", FilesDownloaded: 4, Rows: 1, Columns: 1,
		},
	}}
	srv := newTestServer(t, loader)

	resp, body := get(t, srv.URL+"/api/surveys/ln")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ln", loader.gotSurvey)
	assert.Contains(t, string(body), `"col-1"`)
}

func TestGetSurveyUnknownID(t *testing.T) {
	loader := &stubLoader{}
	srv := newTestServer(t, loader)

	resp, _ := get(t, srv.URL+"/api/surveys/zz")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, loader.gotSurvey, "loader should not run for unknown surveys")
}

func TestGetSurveyFetchErrorIsBadGateway(t *testing.T) {
	loader := &stubLoader{err: &flatfile.FetchError{
		URL: "https://download.bls.gov/pub/time.series/ln/ln.series",
		Err: errors.New("status 403"),
	}}
	srv := newTestServer(t, loader)

	resp, _ := get(t, srv.URL+"/api/surveys/ln")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestGetSurveyFormatErrorIsBadGateway(t *testing.T) {
	loader := &stubLoader{err: &flatfile.FormatError{
		URL:     "https://download.bls.gov/pub/time.series/ln/ln.series",
		Snippet: "<!doctype html>",
	}}
	srv := newTestServer(t, loader)

	resp, _ := get(t, srv.URL+"/api/surveys/ln")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestGetSurveyOtherErrorIs500(t *testing.T) {
	loader := &stubLoader{err: errors.New("scratch dir full")}
	srv := newTestServer(t, loader)

	resp, _ := get(t, srv.URL+"/api/surveys/ln")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestGetSurveyDiagnostics(t *testing.T) {
	loader := &stubLoader{collection: &dataset.Collection{
		ID:       "col-2",
		Data:     &flatfile.Table{Columns: []string{"series_id"}},
		Warnings: []string{"lfst: fetch failed: status 404"},
		Diagnostics: map[string]*flatfile.Diagnostics{
			"data": {SourceURL: "https://example.test/data"},
		},
		Summary: dataset.Summary{Dataset: "ln", TotalWarnings: 1},
	}}
	srv := newTestServer(t, loader)

	resp, body := get(t, srv.URL+"/api/surveys/ln/diagnostics")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Warnings []string        `json:"aggregate_warnings"`
		Summary  dataset.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Len(t, out.Warnings, 1)
	assert.Equal(t, 1, out.Summary.TotalWarnings)
	assert.Contains(t, string(body), `"per_file_diagnostics"`)
}
