package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/statforge/blsload/internal/flatfile"
)

// coerceValue blanks every token in the "value" column that does not parse
// as a number. Returns the number of cells blanked. A bad cell is a
// missing value, never an error.
func coerceValue(t *flatfile.Table) int {
	idx := t.ColumnIndex("value")
	if idx < 0 {
		return 0
	}
	blanked := 0
	for _, row := range t.Rows {
		if idx >= len(row) || row[idx] == "" {
			continue
		}
		if _, err := strconv.ParseFloat(row[idx], 64); err != nil {
			row[idx] = ""
			blanked++
		}
	}
	return blanked
}

// deriveDate appends a "date" column built from the "year" and "period"
// columns. Rows whose period code matches no known pattern get an empty
// date. No-op when either source column is absent or a "date" column
// already exists.
func deriveDate(t *flatfile.Table) {
	yearIdx := t.ColumnIndex("year")
	periodIdx := t.ColumnIndex("period")
	if yearIdx < 0 || periodIdx < 0 || t.HasColumn("date") {
		return
	}
	t.Columns = append(t.Columns, "date")
	for i, row := range t.Rows {
		year, period := "", ""
		if yearIdx < len(row) {
			year = row[yearIdx]
		}
		if periodIdx < len(row) {
			period = row[periodIdx]
		}
		t.Rows[i] = append(row, periodDate(year, period))
	}
}

// periodDate maps a BLS period code plus year to an ISO date.
// M01-M12 are months, M13 is the annual average (mapped to January 1),
// Q01-Q04 are quarter starts, S01/S02 are half-year starts, A01 is annual.
func periodDate(year, period string) string {
	y, err := strconv.Atoi(year)
	if err != nil || y <= 0 {
		return ""
	}
	if len(period) != 3 {
		return ""
	}
	n, err := strconv.Atoi(period[1:])
	if err != nil {
		return ""
	}
	month := 0
	switch period[0] {
	case 'M':
		switch {
		case n >= 1 && n <= 12:
			month = n
		case n == 13:
			month = 1
		}
	case 'Q':
		if n >= 1 && n <= 4 {
			month = 3*(n-1) + 1
		}
	case 'S':
		switch n {
		case 1:
			month = 1
		case 2:
			month = 7
		}
	case 'A':
		if n == 1 {
			month = 1
		}
	}
	if month == 0 {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-01", y, month)
}

// dropCodeColumns removes every "*_code" column whose descriptive
// companion (same prefix, different suffix) is present, which happens once
// the metadata file carrying the text has been joined in. Returns the
// names dropped.
func dropCodeColumns(t *flatfile.Table) []string {
	var dropped []string
	for _, name := range append([]string{}, t.Columns...) {
		if !strings.HasSuffix(name, "_code") {
			continue
		}
		prefix := strings.TrimSuffix(name, "_code")
		if hasCompanion(t.Columns, prefix, name) {
			t.DropColumn(name)
			dropped = append(dropped, name)
		}
	}
	return dropped
}

func hasCompanion(cols []string, prefix, codeCol string) bool {
	for _, c := range cols {
		if c != codeCol && strings.HasPrefix(c, prefix+"_") {
			return true
		}
	}
	return false
}
