// Package report renders operator-facing text summaries of a collection.
package report

import (
	"fmt"
	"time"

	"github.com/osteele/liquid"

	"github.com/statforge/blsload/internal/dataset"
)

const summaryTemplate = `Dataset {{ dataset }} fetched {{ fetched_at }}
Files downloaded: {{ files_downloaded }} ({{ files_with_warnings }} with warnings)
Final table: {{ rows }} rows x {{ columns }} columns
{% if warnings == empty -%}
Clean run: no warnings.
{% else -%}
Warnings ({{ warnings.size }}):
{% for w in warnings -%}
  - {{ w }}
{% endfor -%}
{% endif -%}`

var engine = liquid.NewEngine()

// Summary renders a human-readable account of one collection.
func Summary(c *dataset.Collection) (string, error) {
	bindings := map[string]interface{}{
		"dataset":             c.Summary.Dataset,
		"fetched_at":          c.Summary.FetchedAt.Format(time.RFC3339),
		"files_downloaded":    c.Summary.FilesDownloaded,
		"files_with_warnings": c.Summary.FilesWithWarnings,
		"rows":                c.Summary.Rows,
		"columns":             c.Summary.Columns,
		"warnings":            c.Warnings,
	}
	out, err := engine.ParseAndRenderString(summaryTemplate, bindings)
	if err != nil {
		return "", fmt.Errorf("rendering summary: %w", err)
	}
	return out, nil
}
