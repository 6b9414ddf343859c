package dataset

import (
	"strings"

	"github.com/statforge/blsload/internal/flatfile"
)

// resolveJoinKeys decides which columns join a candidate onto the base.
// Two-column candidates join on their first column; wider candidates join
// on every column name shared with the base. Returns nil when no usable
// key exists — that is a skip, not an error.
func resolveJoinKeys(baseCols, candCols []string) []string {
	baseSet := make(map[string]bool, len(baseCols))
	for _, c := range baseCols {
		baseSet[c] = true
	}

	if len(candCols) == 2 && baseSet[candCols[0]] {
		return []string{candCols[0]}
	}

	var keys []string
	for _, c := range candCols {
		if baseSet[c] {
			keys = append(keys, c)
		}
	}
	return keys
}

// leftJoin joins cand onto base on the given keys, preserving every base
// row and the base row order. Unmatched base rows get empty strings for the
// candidate's columns. Duplicate keys in the candidate multiply matching
// base rows, as in any relational left join. Non-key candidate columns
// whose names collide with base columns are suffixed with the candidate's
// file name.
func leftJoin(base, cand *flatfile.Table, keys []string, candName string) *flatfile.Table {
	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		keySet[k] = true
	}

	var addedIdx []int
	var addedNames []string
	for j, c := range cand.Columns {
		if keySet[c] {
			continue
		}
		addedIdx = append(addedIdx, j)
		name := c
		if base.HasColumn(name) {
			name = name + "_" + candName
		}
		addedNames = append(addedNames, name)
	}

	candKeyIdx := columnIndexes(cand, keys)
	index := make(map[string][]int, len(cand.Rows))
	for i, row := range cand.Rows {
		k := compositeKey(row, candKeyIdx)
		index[k] = append(index[k], i)
	}

	out := &flatfile.Table{
		Columns: append(append([]string{}, base.Columns...), addedNames...),
		Rows:    make([][]string, 0, len(base.Rows)),
	}

	baseKeyIdx := columnIndexes(base, keys)
	for _, row := range base.Rows {
		matches := index[compositeKey(row, baseKeyIdx)]
		if len(matches) == 0 {
			joined := append(append([]string{}, row...), make([]string, len(addedIdx))...)
			out.Rows = append(out.Rows, joined)
			continue
		}
		for _, m := range matches {
			joined := append([]string{}, row...)
			for _, j := range addedIdx {
				v := ""
				if j < len(cand.Rows[m]) {
					v = cand.Rows[m][j]
				}
				joined = append(joined, v)
			}
			out.Rows = append(out.Rows, joined)
		}
	}
	return out
}

func columnIndexes(t *flatfile.Table, names []string) []int {
	idx := make([]int, len(names))
	for i, n := range names {
		idx[i] = t.ColumnIndex(n)
	}
	return idx
}

// compositeKey builds a lookup key from the given column positions.
// Unit separator keeps multi-column keys unambiguous.
func compositeKey(row []string, idx []int) string {
	parts := make([]string, len(idx))
	for i, j := range idx {
		if j >= 0 && j < len(row) {
			parts[i] = row[j]
		}
	}
	return strings.Join(parts, "\x1f")
}
