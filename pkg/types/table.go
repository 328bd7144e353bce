// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Table is a raw grid of text cells extracted from one page of a report.
// Tables are identified by their content, never by their position in the PDF.
type Table struct {
	// Page is the 1-based page number the table was found on.
	Page int `json:"page" yaml:"page"`

	// Rows holds the cell text, row-major. Rows may be ragged.
	Rows [][]string `json:"rows" yaml:"rows"`
}

// RowCount returns the number of rows.
func (t Table) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the width of the widest row.
func (t Table) ColCount() int {
	n := 0
	for _, r := range t.Rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

// Cell returns the text at (row, col) and whether that cell exists.
func (t Table) Cell(row, col int) (string, bool) {
	if row < 0 || row >= len(t.Rows) {
		return "", false
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return "", false
	}
	return t.Rows[row][col], true
}
