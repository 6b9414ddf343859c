package flatfile

import (
	"fmt"
	"regexp"
	"strings"
)

// tabRun matches a spurious empty field: two tabs separated by nothing but
// horizontal whitespace. The origin occasionally emits these mid-line,
// which shifts every subsequent field over by one.
var tabRun = regexp.MustCompile("\t[ \t]*\t")

// parseTab parses raw tab-delimited text into a Table, repairing the
// defects the archive is known to produce and recording every repair in d.
// It never fails: a file that cannot be reconciled gets positional column
// names rather than an error.
func parseTab(raw string, d *Diagnostics) *Table {
	lines := splitRecords(raw)
	if len(lines) == 0 {
		d.OriginalDimensions = Dimensions{}
		d.FinalDimensions = Dimensions{}
		return &Table{}
	}

	header := splitFields(lines[0])
	rows := make([][]string, 0, len(lines)-1)
	for _, ln := range lines[1:] {
		rows = append(rows, splitFields(ln))
	}
	d.OriginalDimensions = Dimensions{Rows: len(rows), Cols: len(header)}

	// Phantom columns: entirely empty across every data row, usually the
	// footprint of a stray delimiter.
	phantoms := phantomColumns(header, rows)
	if len(phantoms) > 0 {
		d.PhantomColumnsFound = len(phantoms)
		d.PhantomColumnNames = phantoms
		d.CleaningApplied = true
		d.warnf("detected %d phantom column(s): %s", len(phantoms), strings.Join(phantoms, ", "))

		// Targeted repair: collapse delimiter runs, only on lines that
		// exhibit the defect.
		for i, ln := range lines {
			if tabRun.MatchString(ln) {
				lines[i] = collapseTabRuns(ln)
			}
		}
		header = splitFields(lines[0])
		rows = rows[:0]
		for _, ln := range lines[1:] {
			rows = append(rows, splitFields(ln))
		}
	}

	// Reconcile ragged rows against the dominant data width.
	width := modalWidth(rows)
	if len(rows) == 0 {
		width = len(header)
	}
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row[:width]
	}

	// When the phantom was named in the header, the collapse narrows the
	// data but not the header line. Drop the phantom names before falling
	// back to blind truncation.
	if width < len(header) && len(phantoms) > 0 {
		header = dropNamed(header, phantoms, len(header)-width)
	}

	// Header and data may still disagree in arity; the data wins.
	switch {
	case width > len(header):
		d.HeaderDataMismatch = true
		d.CleaningApplied = true
		d.warnf("header has %d field(s) but data rows have %d; naming extra columns", len(header), width)
		for j := len(header); j < width; j++ {
			header = append(header, positionalName(j))
		}
	case width < len(header):
		d.HeaderDataMismatch = true
		d.CleaningApplied = true
		d.warnf("header has %d field(s) but data rows have %d; truncating header", len(header), width)
		header = header[:width]
	}

	// Drop whatever is still entirely empty after repair.
	removed := 0
	if len(rows) > 0 {
		for j := width - 1; j >= 0; j-- {
			if columnEmpty(rows, j) {
				header = append(header[:j], header[j+1:]...)
				for i, row := range rows {
					rows[i] = append(row[:j], row[j+1:]...)
				}
				removed++
			}
		}
	}
	if removed > 0 {
		width -= removed
		d.EmptyColumnsRemoved = removed
		d.CleaningApplied = true
		d.warnf("removed %d column(s) still empty after repair", removed)
	}

	// Last resort when reconciliation failed: positional names.
	if len(header) != width {
		d.HeaderDataMismatch = true
		d.warnf("could not reconcile %d header name(s) with %d data column(s); using positional names", len(header), width)
		header = make([]string, width)
		for j := range header {
			header[j] = positionalName(j)
		}
	}

	d.FinalDimensions = Dimensions{Rows: len(rows), Cols: len(header)}
	return &Table{Columns: header, Rows: rows}
}

// splitRecords splits raw text into non-empty lines, tolerating CRLF.
func splitRecords(raw string) []string {
	var out []string
	for _, ln := range strings.Split(raw, "\n") {
		ln = strings.TrimRight(ln, "\r")
		if strings.TrimSpace(ln) == "" {
			continue
		}
		out = append(out, ln)
	}
	return out
}

// splitFields splits a record on tabs and trims the space padding the
// archive adds to fixed-width fields.
func splitFields(line string) []string {
	parts := strings.Split(line, "\t")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// phantomColumns returns the names of columns that are empty in every data
// row. Positions past the header get positional names.
func phantomColumns(header []string, rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}
	width := len(header)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	var names []string
	for j := 0; j < width; j++ {
		if columnEmpty(rows, j) {
			names = append(names, columnName(header, j))
		}
	}
	return names
}

// columnEmpty reports whether column j is empty or missing in every row.
func columnEmpty(rows [][]string, j int) bool {
	for _, row := range rows {
		if j < len(row) && row[j] != "" {
			return false
		}
	}
	return true
}

func columnName(header []string, j int) string {
	if j < len(header) && header[j] != "" {
		return header[j]
	}
	return positionalName(j)
}

func positionalName(j int) string { return fmt.Sprintf("V%d", j+1) }

// dropNamed removes up to n header entries whose name appears in names,
// preserving order of the rest.
func dropNamed(header []string, names []string, n int) []string {
	doomed := make(map[string]bool, len(names))
	for _, name := range names {
		doomed[name] = true
	}
	out := header[:0]
	for _, h := range header {
		if n > 0 && doomed[h] {
			n--
			continue
		}
		out = append(out, h)
	}
	return out
}

// collapseTabRuns rewrites every delimiter run in the line to a single tab.
// Replacement repeats because runs can overlap.
func collapseTabRuns(line string) string {
	for tabRun.MatchString(line) {
		line = tabRun.ReplaceAllString(line, "\t")
	}
	return line
}

// modalWidth returns the most common field count among rows, preferring the
// larger width on a tie.
func modalWidth(rows [][]string) int {
	counts := make(map[int]int)
	for _, row := range rows {
		counts[len(row)]++
	}
	width, best := 0, 0
	for w, n := range counts {
		if n > best || (n == best && w > width) {
			width, best = w, n
		}
	}
	return width
}
