// Package dataset chains flat-file fetches into one joined table: a base
// observation file plus metadata lookups, left-joined in order, with
// per-file diagnostics aggregated alongside the data.
package dataset

import (
	"time"

	"github.com/statforge/blsload/internal/flatfile"
)

// NamedURL pairs a logical file name ("data", "series", "area", ...) with
// its URL. The file named "data" becomes the join base.
type NamedURL struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// Options controls post-processing and failure tolerance for one Collect
// call.
type Options struct {
	// CoerceValue blanks tokens in the "value" column that fail numeric
	// parsing instead of failing.
	CoerceValue bool `yaml:"coerce_value"`
	// DeriveDate adds a "date" column built from "year" and "period".
	DeriveDate bool `yaml:"derive_date"`
	// DropCodeColumns prunes "*_code" columns whose descriptive companion
	// was joined in.
	DropCodeColumns bool `yaml:"drop_code_columns"`
	// StrictAux makes auxiliary fetch failures fatal instead of warnings.
	StrictAux bool `yaml:"strict_aux"`
	// Label names the dataset in the summary.
	Label string `yaml:"label"`
}

// Collection is the result of joining one dataset's files.
type Collection struct {
	ID          string                           `json:"id"`
	Data        *flatfile.Table                  `json:"data"`
	Diagnostics map[string]*flatfile.Diagnostics `json:"per_file_diagnostics"`
	Warnings    []string                         `json:"aggregate_warnings"`
	Summary     Summary                          `json:"summary"`
}

// Summary condenses a Collection for callers that only want to know
// whether the run was clean.
type Summary struct {
	Dataset           string    `json:"dataset"`
	FilesDownloaded   int       `json:"files_downloaded"`
	FilesWithWarnings int       `json:"files_with_warnings"`
	TotalWarnings     int       `json:"total_warnings"`
	Rows              int       `json:"rows"`
	Columns           int       `json:"columns"`
	FetchedAt         time.Time `json:"fetched_at"`
}
