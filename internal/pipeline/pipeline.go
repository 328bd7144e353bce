// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one report date through fetch, extraction,
// classification, cleaning and persistence. State moves between stages as
// arguments and return values; nothing is shared through package globals.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pdiddy/ssi-report/internal/classify"
	"github.com/pdiddy/ssi-report/internal/clean"
	"github.com/pdiddy/ssi-report/internal/dataset"
	"github.com/pdiddy/ssi-report/internal/fetch"
	"github.com/pdiddy/ssi-report/internal/history"
	"github.com/pdiddy/ssi-report/internal/pdftables"
	"github.com/pdiddy/ssi-report/pkg/types"
)

// Fetcher downloads the report for a date into a directory.
type Fetcher interface {
	Fetch(ctx context.Context, date time.Time, destDir string) (types.Report, error)
}

// Appender merges a frame into its dataset.
type Appender interface {
	Append(ctx context.Context, f types.Frame) (dataset.AppendResult, error)
}

// Recorder keeps the run ledger. *history.Store implements it.
type Recorder interface {
	BeginRun(ctx context.Context, reportDate time.Time) (string, error)
	SetSource(ctx context.Context, runID, url string) error
	RecordWrite(ctx context.Context, runID string, w history.Write) error
	FinishRun(ctx context.Context, runID string, status history.Status, runErr error) error
}

// Pipeline holds the stages of a run.
type Pipeline struct {
	Fetcher   Fetcher
	Extractor pdftables.Extractor
	Registry  classify.Registry
	Schemas   map[types.Kind]clean.Schema
	Writer    Appender

	// Kinds lists the tables to produce, in write order. Nil means types.Kinds.
	Kinds []types.Kind

	// History is optional.
	History Recorder

	// WorkDir receives the downloaded PDF. Empty means a temporary
	// directory removed when the run ends.
	WorkDir string

	// Out receives the progress messages and nothing else.
	Out io.Writer

	// Err receives per-dataset summaries and warnings. Nil discards them.
	Err io.Writer
}

// Result describes a completed run.
type Result struct {
	RunID  string                     `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Report types.Report               `json:"report" yaml:"report"`
	Tables int                        `json:"tables" yaml:"tables"`
	Writes []dataset.AppendResult     `json:"writes" yaml:"writes"`
	Frames map[types.Kind]types.Frame `json:"-" yaml:"-"`
}

// Run processes the report for date. Every table is classified and cleaned
// before any dataset is touched, so a failure leaves all datasets as they
// were. When no report exists for date the error wraps fetch.ErrNoReport.
func (p *Pipeline) Run(ctx context.Context, date time.Time) (res Result, err error) {
	out, errOut := p.Out, p.Err
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	if p.History != nil {
		id, herr := p.History.BeginRun(ctx, date)
		if herr != nil {
			fmt.Fprintf(errOut, "warning: run history unavailable: %v\n", herr)
		} else {
			res.RunID = id
			defer func() { p.finish(ctx, errOut, res.RunID, err) }()
		}
	}

	fmt.Fprintln(out, "Reading the report of the day...")
	report, tables, err := p.read(ctx, date)
	if errors.Is(err, fetch.ErrNoReport) {
		fmt.Fprintln(out, "no article for the day")
		return res, err
	}
	if err != nil {
		return res, err
	}
	res.Report = report
	res.Tables = len(tables)
	if res.RunID != "" {
		if herr := p.History.SetSource(ctx, res.RunID, report.SourceURL); herr != nil {
			fmt.Fprintf(errOut, "warning: %v\n", herr)
		}
	}
	fmt.Fprintln(out, "done!")

	frames, err := p.cleanAll(tables, date)
	if err != nil {
		return res, err
	}
	res.Frames = frames

	fmt.Fprintln(out, "writing data")
	for _, kind := range p.kinds() {
		w, err := p.Writer.Append(ctx, frames[kind])
		if err != nil {
			return res, fmt.Errorf("writing %s data: %w", kind, err)
		}
		res.Writes = append(res.Writes, w)
		fmt.Fprintf(errOut, "  %s: +%d rows (%d total)\n", w.Path, w.Added, w.Total)

		if res.RunID != "" {
			hw := history.Write{Kind: kind, Path: w.Path, Added: w.Added, Total: w.Total}
			if herr := p.History.RecordWrite(ctx, res.RunID, hw); herr != nil {
				fmt.Fprintf(errOut, "warning: %v\n", herr)
			}
		}
	}
	fmt.Fprintln(out, "done!")
	return res, nil
}

// read fetches the report and extracts its tables.
func (p *Pipeline) read(ctx context.Context, date time.Time) (types.Report, []types.Table, error) {
	dir := p.WorkDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "ssi-report-*")
		if err != nil {
			return types.Report{}, nil, fmt.Errorf("creating work directory: %w", err)
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.Report{}, nil, fmt.Errorf("creating work directory: %w", err)
	}

	report, err := p.Fetcher.Fetch(ctx, date, dir)
	if err != nil {
		return types.Report{}, nil, err
	}
	tables, err := p.Extractor.Extract(ctx, report.PDFPath)
	if err != nil {
		return report, nil, fmt.Errorf("extracting tables: %w", err)
	}
	return report, tables, nil
}

func (p *Pipeline) cleanAll(tables []types.Table, date time.Time) (map[types.Kind]types.Frame, error) {
	frames := make(map[types.Kind]types.Frame)
	for _, kind := range p.kinds() {
		schema, ok := p.Schemas[kind]
		if !ok {
			return nil, fmt.Errorf("no schema for %s tables", kind)
		}
		t, err := p.Registry.Select(tables, kind)
		if err != nil {
			return nil, err
		}
		f, err := clean.Clean(t, schema, date)
		if err != nil {
			return nil, err
		}
		frames[kind] = f
	}
	return frames, nil
}

func (p *Pipeline) kinds() []types.Kind {
	if p.Kinds != nil {
		return p.Kinds
	}
	return types.Kinds
}

func (p *Pipeline) finish(ctx context.Context, errOut io.Writer, runID string, runErr error) {
	status := history.StatusOK
	switch {
	case errors.Is(runErr, fetch.ErrNoReport):
		status = history.StatusNoReport
	case runErr != nil:
		status = history.StatusFailed
	}
	// Record the outcome even when the run was cancelled.
	if err := p.History.FinishRun(context.WithoutCancel(ctx), runID, status, runErr); err != nil {
		fmt.Fprintf(errOut, "warning: %v\n", err)
	}
}
