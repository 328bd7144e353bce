// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify picks the report tables the pipeline needs out of
// everything the extractor found, by looking at their content.
//
// Each table kind has a Matcher. Matchers compare text after Normalize,
// so "København" matches whether the PDF yields it as UTF-8 or as UTF-8
// misread as Latin-1 ("KÃ¸benhavn"), and a header split across lines
// ("Landsdel \nLaboratorieb...") matches the same header on one line.
package classify

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/ssi-report/pkg/types"
)

// ErrNoMatch is matched by errors.Is on every *NoMatchError.
var ErrNoMatch = errors.New("no matching table")

// NoMatchError reports that no extracted table matched a kind.
type NoMatchError struct {
	Kind   types.Kind
	Tables int
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no %s table found among %d extracted tables; the report layout may have changed", e.Kind, e.Tables)
}

func (e *NoMatchError) Is(target error) bool { return target == ErrNoMatch }

// Matcher decides whether a table is of a particular kind.
type Matcher interface {
	Match(t types.Table) bool
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(types.Table) bool

func (f MatcherFunc) Match(t types.Table) bool { return f(t) }

// Header returns the top-left cell of t, or "" when the table is empty or
// its first row has no cells.
func Header(t types.Table) string {
	h, _ := t.Cell(0, 0)
	return h
}

// Normalize repairs Latin-1 mojibake, folds s to NFC and collapses
// whitespace runs (including the newlines PDF extractors insert) to single
// spaces.
func Normalize(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(repairLatin1(s))), " ")
}

// repairLatin1 undoes UTF-8 text that was decoded as Latin-1: if every rune
// of s fits in Latin-1 and the resulting bytes form valid UTF-8 that differs
// from s, the re-decoded text is returned. Anything else is returned as-is.
func repairLatin1(s string) string {
	if isASCII(s) {
		return s
	}
	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil || !utf8.ValidString(raw) || raw == s {
		return s
	}
	return raw
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// HeaderPrefix matches tables whose header starts with prefix.
func HeaderPrefix(prefix string) Matcher {
	want := Normalize(prefix)
	return MatcherFunc(func(t types.Table) bool {
		return strings.HasPrefix(Normalize(Header(t)), want)
	})
}

// CellEquals matches tables whose cell (row, col) equals value.
func CellEquals(row, col int, value string) Matcher {
	want := Normalize(value)
	return MatcherFunc(func(t types.Table) bool {
		got, ok := t.Cell(row, col)
		return ok && Normalize(got) == want
	})
}

// All matches tables that every matcher accepts.
func All(ms ...Matcher) Matcher {
	return MatcherFunc(func(t types.Table) bool {
		for _, m := range ms {
			if !m.Match(t) {
				return false
			}
		}
		return true
	})
}

// Registry maps table kinds to their matchers.
type Registry map[types.Kind]Matcher

// Default returns the matchers for the daily surveillance report.
func Default() Registry {
	return Registry{
		types.KindAge: HeaderPrefix("Aldersgrupper \nLaboratorieb"),
		types.KindRegional: All(
			HeaderPrefix("Landsdel \nLaboratorieb"),
			// A header-only false positive has no region rows under it.
			CellEquals(1, 0, "København by"),
		),
		types.KindHospitalized: HeaderPrefix("Antal \nHeraf indlagte \n"),
	}
}

// Select returns the first table in extraction order that the kind's
// matcher accepts.
func (r Registry) Select(tables []types.Table, kind types.Kind) (types.Table, error) {
	m, ok := r[kind]
	if !ok {
		return types.Table{}, fmt.Errorf("no matcher registered for %s tables", kind)
	}
	for _, t := range tables {
		if m.Match(t) {
			return t, nil
		}
	}
	return types.Table{}, &NoMatchError{Kind: kind, Tables: len(tables)}
}
