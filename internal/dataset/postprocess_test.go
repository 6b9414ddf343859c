package dataset

import (
	"reflect"
	"testing"

	"github.com/statforge/blsload/internal/flatfile"
)

func TestPeriodDate(t *testing.T) {
	tests := []struct {
		year     string
		period   string
		expected string
	}{
		{"2020", "M01", "2020-01-01"},
		{"2020", "M12", "2020-12-01"},
		{"2020", "M13", "2020-01-01"}, // annual average
		{"2021", "Q02", "2021-04-01"},
		{"2021", "Q04", "2021-10-01"},
		{"2019", "S01", "2019-01-01"},
		{"2019", "S02", "2019-07-01"},
		{"2018", "A01", "2018-01-01"},
		{"2020", "X99", ""}, // unknown code passes through as missing
		{"2020", "M99", ""},
		{"2020", "", ""},
		{"", "M01", ""},
		{"20x0", "M01", ""},
	}
	for _, tc := range tests {
		if got := periodDate(tc.year, tc.period); got != tc.expected {
			t.Errorf("periodDate(%q, %q) = %q, want %q", tc.year, tc.period, got, tc.expected)
		}
	}
}

func TestDeriveDate(t *testing.T) {
	tbl := &flatfile.Table{
		Columns: []string{"series_id", "year", "period", "value"},
		Rows: [][]string{
			{"S1", "2020", "M13", "1.0"},
			{"S1", "2021", "Q02", "2.0"},
			{"S1", "2021", "ZZZ", "3.0"},
		},
	}

	deriveDate(tbl)

	if !tbl.HasColumn("date") {
		t.Fatal("date column not added")
	}
	dates := tbl.Column("date")
	want := []string{"2020-01-01", "2021-04-01", ""}
	if !reflect.DeepEqual(dates, want) {
		t.Errorf("dates = %v, want %v", dates, want)
	}
}

func TestDeriveDateMissingSourceColumns(t *testing.T) {
	tbl := &flatfile.Table{
		Columns: []string{"series_id", "value"},
		Rows:    [][]string{{"S1", "1.0"}},
	}
	deriveDate(tbl)
	if tbl.HasColumn("date") {
		t.Error("date column should not be added without year and period")
	}
}

func TestCoerceValue(t *testing.T) {
	tbl := &flatfile.Table{
		Columns: []string{"series_id", "value"},
		Rows: [][]string{
			{"S1", "3.6"},
			{"S2", "-"},
			{"S3", ""},
			{"S4", "n/a"},
			{"S5", "-0.4"},
		},
	}

	blanked := coerceValue(tbl)

	if blanked != 2 {
		t.Errorf("blanked = %d, want 2", blanked)
	}
	want := []string{"3.6", "", "", "", "-0.4"}
	if got := tbl.Column("value"); !reflect.DeepEqual(got, want) {
		t.Errorf("values = %v, want %v", got, want)
	}
}

func TestDropCodeColumns(t *testing.T) {
	tbl := &flatfile.Table{
		Columns: []string{"series_id", "lfst_code", "lfst_text", "area_code", "value", "footnote_codes"},
		Rows: [][]string{
			{"S1", "10", "Employed", "A1", "1.0", ""},
		},
	}

	dropped := dropCodeColumns(tbl)

	// lfst_code has a joined companion; area_code does not and stays.
	if !reflect.DeepEqual(dropped, []string{"lfst_code"}) {
		t.Errorf("dropped = %v, want [lfst_code]", dropped)
	}
	if !tbl.HasColumn("area_code") {
		t.Error("area_code should survive without a companion column")
	}
	if !tbl.HasColumn("footnote_codes") {
		t.Error("footnote_codes should never be treated as a code column")
	}
	if tbl.HasColumn("lfst_code") {
		t.Error("lfst_code should be gone")
	}
}
