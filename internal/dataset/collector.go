package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/statforge/blsload/internal/flatfile"
	"github.com/statforge/blsload/internal/pkg/logger"
)

// baseFileName is the logical name of the observation file every dataset
// must supply.
const baseFileName = "data"

// Collector fetches and joins the files of one dataset per Collect call.
type Collector struct {
	fetcher *flatfile.Fetcher
}

// NewCollector wraps a Fetcher.
func NewCollector(f *flatfile.Fetcher) *Collector {
	return &Collector{fetcher: f}
}

// Collect fetches every named file sequentially, left-joins the metadata
// files onto the base in the order supplied, applies the requested
// post-processing, and returns the joined table with aggregated
// diagnostics. A failure on the base file is fatal; auxiliary failures are
// warnings unless Options.StrictAux is set.
func (c *Collector) Collect(ctx context.Context, files []NamedURL, opts Options) (*Collection, error) {
	tables := make(map[string]*flatfile.Table, len(files))
	diags := make(map[string]*flatfile.Diagnostics, len(files))
	var warnings []string
	warned := make(map[string]bool)

	baseName := baseFileName
	if !hasName(files, baseFileName) && len(files) > 0 {
		baseName = files[0].Name
	}

	for _, f := range files {
		table, diag, err := c.fetcher.Fetch(ctx, f.URL)
		if err != nil {
			if f.Name == baseName || opts.StrictAux {
				return nil, fmt.Errorf("fetching %s: %w", f.Name, err)
			}
			warnings = append(warnings, fmt.Sprintf("%s: fetch failed: %v", f.Name, err))
			warned[f.Name] = true
			logger.Warn("auxiliary file skipped", "file", f.Name, "error", err)
			continue
		}
		tables[f.Name] = table
		diags[f.Name] = diag
		for _, w := range diag.Warnings {
			warnings = append(warnings, f.Name+": "+w)
			warned[f.Name] = true
		}
	}

	base, ok := tables[baseName]
	if !ok {
		return nil, fmt.Errorf("dataset has no base file %q", baseName)
	}

	for _, f := range files {
		if f.Name == baseName {
			continue
		}
		cand, ok := tables[f.Name]
		if !ok {
			continue
		}
		keys := resolveJoinKeys(base.Columns, cand.Columns)
		if len(keys) == 0 {
			warnings = append(warnings, fmt.Sprintf("%s: no overlapping join key with base table; skipped", f.Name))
			warned[f.Name] = true
			continue
		}
		base = leftJoin(base, cand, keys, f.Name)
		logger.Debug("joined metadata file", "file", f.Name, "keys", fmt.Sprint(keys), "rows", base.NumRows())
	}

	if opts.CoerceValue {
		if n := coerceValue(base); n > 0 {
			logger.Info("non-numeric value cells blanked", "count", n)
		}
	}
	if opts.DeriveDate {
		deriveDate(base)
	}
	if opts.DropCodeColumns {
		if dropped := dropCodeColumns(base); len(dropped) > 0 {
			logger.Debug("code columns pruned", "columns", fmt.Sprint(dropped))
		}
	}

	return &Collection{
		ID:          uuid.NewString(),
		Data:        base,
		Diagnostics: diags,
		Warnings:    warnings,
		Summary: Summary{
			Dataset:           opts.Label,
			FilesDownloaded:   len(tables),
			FilesWithWarnings: len(warned),
			TotalWarnings:     len(warnings),
			Rows:              base.NumRows(),
			Columns:           base.NumCols(),
			FetchedAt:         time.Now().UTC(),
		},
	}, nil
}

func hasName(files []NamedURL, name string) bool {
	for _, f := range files {
		if f.Name == name {
			return true
		}
	}
	return false
}
