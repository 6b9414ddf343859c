package flatfile

import "fmt"

// Dimensions is a (rows, columns) pair.
type Dimensions struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Diagnostics records everything the fetcher found and fixed while
// ingesting one flat file. Warnings is non-empty exactly when at least one
// of the anomaly fields is set.
type Diagnostics struct {
	SourceURL           string     `json:"source_url"`
	OriginalDimensions  Dimensions `json:"original_dimensions"`
	FinalDimensions     Dimensions `json:"final_dimensions"`
	PhantomColumnsFound int        `json:"phantom_columns_detected"`
	PhantomColumnNames  []string   `json:"phantom_column_names,omitempty"`
	CleaningApplied     bool       `json:"cleaning_applied"`
	HeaderDataMismatch  bool       `json:"header_data_mismatch"`
	EmptyColumnsRemoved int        `json:"empty_columns_removed"`
	ServedFromCache     bool       `json:"served_from_cache"`
	Warnings            []string   `json:"warnings,omitempty"`
}

func (d *Diagnostics) warnf(format string, args ...interface{}) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

// Clean reports whether the file parsed without any anomaly.
func (d *Diagnostics) Clean() bool { return len(d.Warnings) == 0 }
