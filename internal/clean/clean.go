// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clean turns raw report tables into typed record frames: it names
// columns by position, keeps the fixed range of data rows, parses counts
// written with "." thousands separators, and prepends the report date.
package clean

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/ssi-report/pkg/types"
)

// ShapeError reports a table whose size does not fit its schema. Slicing such
// a table by position would silently produce wrong records.
type ShapeError struct {
	Kind               types.Kind
	Rows, Cols         int
	WantRows, WantCols int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s table is %dx%d, want at least %d rows and exactly %d columns; the report layout may have changed",
		e.Kind, e.Rows, e.Cols, e.WantRows, e.WantCols)
}

// CellError reports a cell that could not be converted to its column type.
type CellError struct {
	Kind   types.Kind
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("%s table, column %s, row %d: cannot parse %q: %v", e.Kind, e.Column, e.Row, e.Value, e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }

// CleanInt parses a count such as "1.234" (Danish thousands separator) as a
// 32-bit integer.
func CleanInt(s string) (int32, error) {
	v := strings.TrimSpace(strings.ReplaceAll(s, ".", ""))
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

// FixNewline repairs rows whose first cell holds several logical cells
// joined by newlines, an artifact of PDF extraction. Such a cell is split on
// newlines and the row's remaining non-empty cells follow the pieces; if that
// yields more than width values the leading surplus is rejoined with spaces
// into the first value, if fewer the row is padded with empty cells.
//
// Untouched rows keep their order and come first; repaired rows follow.
func FixNewline(rows [][]string, width int) [][]string {
	fixed, _ := fixNewline(rows, width)
	return fixed
}

// fixNewline is FixNewline that also returns, for each output row, the
// index of the input row it came from.
func fixNewline(rows [][]string, width int) ([][]string, []int) {
	var kept, fixed [][]string
	var keptIdx, fixedIdx []int
	for i, row := range rows {
		if len(row) == 0 || !strings.Contains(row[0], "\n") {
			kept = append(kept, row)
			keptIdx = append(keptIdx, i)
			continue
		}
		fixed = append(fixed, splitRow(row, width))
		fixedIdx = append(fixedIdx, i)
	}
	return append(kept, fixed...), append(keptIdx, fixedIdx...)
}

func splitRow(row []string, width int) []string {
	var vals []string
	for _, p := range strings.Split(row[0], "\n") {
		if p = strings.TrimSpace(p); p != "" {
			vals = append(vals, p)
		}
	}
	for _, c := range row[1:] {
		if c = strings.TrimSpace(c); c != "" {
			vals = append(vals, c)
		}
	}

	if surplus := len(vals) - width; surplus > 0 {
		head := strings.Join(vals[:surplus+1], " ")
		vals = append([]string{head}, vals[surplus+1:]...)
	}
	for len(vals) < width {
		vals = append(vals, "")
	}
	return vals
}

// Clean converts t into a frame for date according to s. The frame's first
// column is the report date; dropped columns are omitted.
func Clean(t types.Table, s Schema, date time.Time) (types.Frame, error) {
	if t.RowCount() <= s.LastRow || t.ColCount() != s.Width() {
		return types.Frame{}, &ShapeError{
			Kind: s.Kind, Rows: t.RowCount(), Cols: t.ColCount(),
			WantRows: s.LastRow + 1, WantCols: s.Width(),
		}
	}

	rows := make([][]string, 0, s.DataRows())
	source := make([]int, 0, s.DataRows())
	for i := s.FirstRow; i <= s.LastRow; i++ {
		row := make([]string, s.Width())
		copy(row, t.Rows[i])
		rows = append(rows, row)
		source = append(source, i)
	}
	if s.FixNewlines {
		var order []int
		rows, order = fixNewline(rows, s.Width())
		for i, j := range order {
			order[i] = source[j]
		}
		source = order
	}

	frame := types.Frame{
		Kind:    s.Kind,
		Columns: []types.Column{{Name: types.DateColumn, Type: types.ColumnString}},
	}
	for _, c := range s.Columns {
		if c.Type != types.ColumnDrop {
			frame.Columns = append(frame.Columns, c)
		}
	}

	day := date.Format(types.DateLayout)
	for i, row := range rows {
		rec := types.Record{day}
		for j, c := range s.Columns {
			switch c.Type {
			case types.ColumnDrop:
				continue
			case types.ColumnInt32:
				n, err := CleanInt(row[j])
				if err != nil {
					return types.Frame{}, &CellError{
						Kind: s.Kind, Column: c.Name, Row: source[i], Value: row[j], Err: err,
					}
				}
				rec = append(rec, n)
			default:
				rec = append(rec, strings.TrimSpace(row[j]))
			}
		}
		frame.Records = append(frame.Records, rec)
	}
	return frame, nil
}
