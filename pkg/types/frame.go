// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strconv"
)

// Kind names one of the report tables the pipeline persists.
type Kind string

const (
	KindAge          Kind = "age"
	KindRegional     Kind = "regional"
	KindHospitalized Kind = "hospitalized"
)

// Kinds lists every table kind in the order the pipeline writes them.
var Kinds = []Kind{KindRegional, KindAge, KindHospitalized}

// ColumnType is the value type held by a frame column.
type ColumnType string

const (
	ColumnString ColumnType = "string"
	ColumnInt32  ColumnType = "int32"
	// ColumnDrop marks an extracted column that is discarded during cleaning.
	ColumnDrop ColumnType = "drop"
)

// Column describes one named, typed column.
type Column struct {
	Name string     `json:"name" yaml:"name"`
	Type ColumnType `json:"type" yaml:"type"`
}

// DateColumn is the name of the report-date column every frame starts with.
const DateColumn = "date"

// DateLayout is the layout of values in the date column.
const DateLayout = "2006-01-02"

// Record is one cleaned row. Values are string for string columns and
// int32 for integer columns, positionally aligned with Frame.Columns.
type Record []any

// Frame is a set of cleaned records of one kind for one report date.
type Frame struct {
	Kind    Kind     `json:"kind" yaml:"kind"`
	Columns []Column `json:"columns" yaml:"columns"`
	Records []Record `json:"records" yaml:"records"`
}

// Names returns the column names in order.
func (f Frame) Names() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the named column, or -1.
func (f Frame) Index(name string) int {
	for i, c := range f.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Map returns record i as a mapping from column name to value.
func (f Frame) Map(i int) map[string]any {
	m := make(map[string]any, len(f.Columns))
	for j, c := range f.Columns {
		if j < len(f.Records[i]) {
			m[c.Name] = f.Records[i][j]
		}
	}
	return m
}

// Strings renders every record as text in canonical form: integers in plain
// decimal, strings unchanged.
func (f Frame) Strings() [][]string {
	out := make([][]string, len(f.Records))
	for i, rec := range f.Records {
		row := make([]string, len(rec))
		for j, v := range rec {
			row[j] = FormatValue(v)
		}
		out[i] = row
	}
	return out
}

// FormatValue renders a record value as CSV text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
