// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ssi-report/internal/classify"
	"github.com/pdiddy/ssi-report/internal/fetch"
	"github.com/pdiddy/ssi-report/internal/history"
	"github.com/pdiddy/ssi-report/pkg/types"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitOK},
		{"no report", fmt.Errorf("%w: 404", fetch.ErrNoReport), exitNoReport},
		{"no matching table", &classify.NoMatchError{Kind: types.KindAge}, exitFailure},
		{"other", errors.New("disk full"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestParseDate(t *testing.T) {
	now := time.Date(2020, 3, 21, 14, 30, 0, 0, time.UTC)

	got, err := parseDate("", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 3, 21, 0, 0, 0, 0, time.UTC), got)

	got, err = parseDate("2021-01-05", now)
	require.NoError(t, err)
	assert.Equal(t, "05012021", fetch.DateToken(got))

	for _, bad := range []string{"05-01-2021", "2021-13-01", "today"} {
		_, err := parseDate(bad, now)
		assert.Error(t, err, bad)
	}
}

func TestHistoryPath(t *testing.T) {
	cfg := types.PipelineConfig{Dataset: types.DatasetConfig{DataDir: "data"}}
	assert.Equal(t, history.DefaultPath("data"), historyPath(cfg))

	cfg.History.Path = "/var/lib/ssi/history.db"
	assert.Equal(t, "/var/lib/ssi/history.db", historyPath(cfg))
}

func TestFormatRuns(t *testing.T) {
	runs := []history.Run{
		{
			ReportDate: "2020-03-21",
			StartedAt:  time.Date(2020, 3, 21, 8, 0, 0, 0, time.UTC),
			Status:     history.StatusOK,
			SourceURL:  "https://files.ssi.dk/COVID19-overvaagningsrapport-21032020",
			Writes: []history.Write{
				{Kind: types.KindAge, Added: 10},
				{Kind: types.KindRegional, Added: 10},
				{Kind: types.KindHospitalized, Added: 5},
			},
		},
		{
			ReportDate: "2020-03-22",
			Status:     history.StatusNoReport,
			Error:      "no article for the day",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, formatRuns(&buf, runs, false))
	out := buf.String()
	assert.Contains(t, out, "2020-03-21")
	assert.Contains(t, out, "25")
	assert.Contains(t, out, "no_report")
	assert.Contains(t, out, "no article for the day")
	assert.Contains(t, out, "2 runs")

	buf.Reset()
	require.NoError(t, formatRuns(&buf, nil, false))
	assert.Equal(t, "No runs recorded.\n", buf.String())

	buf.Reset()
	require.NoError(t, formatRuns(&buf, runs[:1], true))
	assert.Contains(t, buf.String(), `"report_date": "2020-03-21"`)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "Fyn", 10, "Fyn"},
		{"exact", "Sjælland", 8, "Sjælland"},
		{"cut inside multibyte text", "København by, Østsjælland", 10, "Københa..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.in, tt.n))
		})
	}
}

func TestFormatRuns_LongErrorStaysValidUTF8(t *testing.T) {
	runs := []history.Run{{
		ReportDate: "2020-03-21",
		Status:     history.StatusFailed,
		Error:      strings.Repeat("æ", 56) + "øøøøøø",
	}}

	var buf bytes.Buffer
	require.NoError(t, formatRuns(&buf, runs, false))
	assert.True(t, utf8.ValidString(buf.String()))
	assert.Contains(t, buf.String(), strings.Repeat("æ", 56)+"ø...")
}
