// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ssi-report/pkg/types"
)

func table(page int, rows ...[]string) types.Table {
	return types.Table{Page: page, Rows: rows}
}

var (
	ageTable = table(2,
		[]string{"Aldersgrupper \nLaboratoriebekræftede COVID-19", "Antal testede", ""},
		[]string{"0-9", "12", "1.045"},
	)
	regionalTable = table(3,
		[]string{"Landsdel \nLaboratoriebekræftede COVID-19", "Befolkning", ""},
		[]string{"København by", "1.234", "632.340"},
	)
	hospitalTable = table(4,
		[]string{"Antal \nHeraf indlagte \nHeraf på intensiv", "", ""},
		[]string{"Hovedstaden", "120", "30"},
	)
	regionalHeaderOnly = table(1,
		[]string{"Landsdel \nLaboratoriebekræftede COVID-19"},
	)
	noise = table(1, []string{"Figur 3", "Uge 12"})
)

func TestHeader(t *testing.T) {
	assert.Equal(t, "Figur 3", Header(noise))
	assert.Equal(t, "", Header(types.Table{}))
	assert.Equal(t, "", Header(table(1, []string{})))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "København by", "København by"},
		{"latin-1 mojibake", "KÃ¸benhavn by", "København by"},
		{"decomposed accent", "Sjælland e\u0301", "Sjælland \u00e9"},
		{"newline header", "Landsdel \nLaboratorieb", "Landsdel Laboratorieb"},
		{"surrounding space", "  Antal\t\n ", "Antal"},
		{"non latin-1 left alone", "Ørsted – 2020", "Ørsted – 2020"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestMatchers(t *testing.T) {
	reg := Default()
	tests := []struct {
		name  string
		kind  types.Kind
		table types.Table
		want  bool
	}{
		{"age matches", types.KindAge, ageTable, true},
		{"age rejects regional", types.KindAge, regionalTable, false},
		{"regional matches", types.KindRegional, regionalTable, true},
		{"regional needs city row", types.KindRegional, regionalHeaderOnly, false},
		{"regional with mojibake city", types.KindRegional, table(1,
			[]string{"Landsdel \nLaboratoriebekræftede"},
			[]string{"KÃ¸benhavn by"},
		), true},
		{"regional with one-line header", types.KindRegional, table(1,
			[]string{"Landsdel Laboratoriebekræftede"},
			[]string{"København by"},
		), true},
		{"hospitalized matches", types.KindHospitalized, hospitalTable, true},
		{"empty table never matches", types.KindAge, types.Table{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reg[tt.kind].Match(tt.table))
		})
	}
}

func TestSelect_OrderIndependent(t *testing.T) {
	reg := Default()
	base := []types.Table{noise, regionalHeaderOnly, {}, ageTable, regionalTable, hospitalTable}

	// Rotate the input through every starting position.
	for shift := range base {
		tables := append(append([]types.Table{}, base[shift:]...), base[:shift]...)

		got, err := reg.Select(tables, types.KindAge)
		require.NoError(t, err)
		assert.Equal(t, ageTable, got)

		got, err = reg.Select(tables, types.KindRegional)
		require.NoError(t, err)
		assert.Equal(t, regionalTable, got)
	}
}

func TestSelect_FirstMatchWins(t *testing.T) {
	second := table(9, ageTable.Rows...)
	got, err := Default().Select([]types.Table{ageTable, second}, types.KindAge)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Page)
}

func TestSelect_NoMatch(t *testing.T) {
	_, err := Default().Select([]types.Table{noise, regionalHeaderOnly}, types.KindRegional)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoMatch)

	var nm *NoMatchError
	require.True(t, errors.As(err, &nm))
	assert.Equal(t, types.KindRegional, nm.Kind)
	assert.Equal(t, 2, nm.Tables)
	assert.Contains(t, err.Error(), "no regional table found")
}

func TestSelect_UnknownKind(t *testing.T) {
	_, err := Registry{}.Select([]types.Table{ageTable}, types.KindAge)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoMatch))
}

func TestAll(t *testing.T) {
	yes := MatcherFunc(func(types.Table) bool { return true })
	no := MatcherFunc(func(types.Table) bool { return false })

	assert.True(t, All().Match(noise))
	assert.True(t, All(yes, yes).Match(noise))
	assert.False(t, All(yes, no).Match(noise))
}

func TestDefault_HospitalHeaderLineBreaksFolded(t *testing.T) {
	reg := Default()
	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"extractor newlines", "Antal \nHeraf indlagte \nHeraf på intensiv", true},
		{"cells joined with spaces", "Antal Heraf indlagte Heraf på intensiv", true},
		{"single line header", "Antal Heraf indlagte i alt", true},
		{"different table", "Antal testede", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := table(4, []string{tt.header, "", ""}, []string{"Hovedstaden", "120", "30"})
			assert.Equal(t, tt.want, reg[types.KindHospitalized].Match(tbl))
		})
	}
}
