package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statforge/blsload/internal/dataset"
)

func sampleCollection(warnings []string) *dataset.Collection {
	return &dataset.Collection{
		ID:       "col-1",
		Warnings: warnings,
		Summary: dataset.Summary{
			Dataset:           "ln",
			FilesDownloaded:   4,
			FilesWithWarnings: len(warnings),
			TotalWarnings:     len(warnings),
			Rows:              1200,
			Columns:           9,
			FetchedAt:         time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestSummaryCleanRun(t *testing.T) {
	out, err := Summary(sampleCollection(nil))
	require.NoError(t, err)

	assert.Contains(t, out, "Dataset ln fetched 2025-03-01T12:00:00Z")
	assert.Contains(t, out, "Files downloaded: 4 (0 with warnings)")
	assert.Contains(t, out, "1200 rows x 9 columns")
	assert.Contains(t, out, "Clean run: no warnings.")
	assert.NotContains(t, out, "Warnings (")
}

func TestSummaryWithWarnings(t *testing.T) {
	warnings := []string{
		"lfst: fetch failed: status 404",
		"periodicity: no overlapping join key with base table; skipped",
	}
	out, err := Summary(sampleCollection(warnings))
	require.NoError(t, err)

	assert.Contains(t, out, "Warnings (2):")
	assert.Contains(t, out, "- lfst: fetch failed: status 404")
	assert.Contains(t, out, "- periodicity: no overlapping join key with base table; skipped")
	assert.NotContains(t, out, "Clean run")
}
