// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clean

import "github.com/pdiddy/ssi-report/pkg/types"

// Schema describes how a raw table of one kind maps to records. Columns are
// assigned by position, not by matching header text, so the extracted table
// must have exactly len(Columns) columns.
type Schema struct {
	Kind types.Kind

	// Columns names every extracted column in order. ColumnDrop columns are
	// discarded.
	Columns []types.Column

	// FirstRow and LastRow bound the data rows, inclusive. Rows before
	// FirstRow are headers; rows after LastRow are totals and footnotes.
	FirstRow, LastRow int

	// FixNewlines enables FixNewline on the first column.
	FixNewlines bool
}

// Width returns the number of extracted columns the schema expects.
func (s Schema) Width() int {
	return len(s.Columns)
}

// DataRows returns the number of records a clean table yields.
func (s Schema) DataRows() int {
	return s.LastRow - s.FirstRow + 1
}

func str(name string) types.Column { return types.Column{Name: name, Type: types.ColumnString} }
func i32(name string) types.Column { return types.Column{Name: name, Type: types.ColumnInt32} }
func drop() types.Column          { return types.Column{Name: "X", Type: types.ColumnDrop} }

// Schemas returns the layouts of the daily surveillance report tables.
func Schemas() map[types.Kind]Schema {
	return map[types.Kind]Schema{
		types.KindAge: {
			Kind:     types.KindAge,
			Columns:  []types.Column{str("ageGroup"), i32("confirmed"), i32("tested"), drop()},
			FirstRow: 1,
			LastRow:  10,
		},
		types.KindRegional: {
			Kind:     types.KindRegional,
			Columns:  []types.Column{str("region"), i32("confirmed"), i32("population"), drop()},
			FirstRow: 1,
			LastRow:  10,
		},
		types.KindHospitalized: {
			Kind:        types.KindHospitalized,
			Columns:     []types.Column{str("region"), i32("hospitalized"), i32("intensive_care"), i32("in_ventilation")},
			FirstRow:    1,
			LastRow:     5,
			FixNewlines: true,
		},
	}
}
