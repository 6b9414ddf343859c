// Package flatfile downloads and parses tab-delimited flat files from the
// BLS time-series archive, repairing the structural defects the origin is
// known to produce and reporting every repair in a diagnostics record.
package flatfile

// Table is a parsed flat file: an ordered header plus string-valued rows.
// After repair every row has exactly len(Columns) fields. A Table is built
// fresh on each fetch and never mutated by this package afterwards.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.Rows) }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.Columns) }

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool { return t.ColumnIndex(name) >= 0 }

// Row returns row i as a column-name-to-value map.
func (t *Table) Row(i int) map[string]string {
	m := make(map[string]string, len(t.Columns))
	for j, c := range t.Columns {
		if j < len(t.Rows[i]) {
			m[c] = t.Rows[i][j]
		}
	}
	return m
}

// Column returns all values of the named column in row order, or nil if the
// column does not exist.
func (t *Table) Column(name string) []string {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	vals := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			vals[i] = row[idx]
		}
	}
	return vals
}

// DropColumn removes the named column in place and reports whether it existed.
func (t *Table) DropColumn(name string) bool {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return false
	}
	t.Columns = append(t.Columns[:idx], t.Columns[idx+1:]...)
	for i, row := range t.Rows {
		if idx < len(row) {
			t.Rows[i] = append(row[:idx], row[idx+1:]...)
		}
	}
	return true
}
