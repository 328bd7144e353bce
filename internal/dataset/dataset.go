// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset maintains the cumulative per-kind CSV files.
//
// Each append reads the existing file, adds the new rows beneath the old,
// drops exact duplicate rows, sorts by date and rewrites the file through a
// temporary file and rename. Duplicates are exact only: two rows for the
// same date that differ in any cell are both kept.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/pdiddy/ssi-report/pkg/types"
)

// lockRetry is how often a blocked writer retries the file lock.
var lockRetry = 100 * time.Millisecond

// FileName returns the dataset file name for kind.
func FileName(kind types.Kind) string {
	return "corona_" + string(kind) + "_data.csv"
}

// SchemaMismatchError reports an existing dataset whose header differs from
// the frame being appended.
type SchemaMismatchError struct {
	Path      string
	Got, Want []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("dataset %s has columns [%s], want [%s]",
		e.Path, strings.Join(e.Got, ", "), strings.Join(e.Want, ", "))
}

// AppendResult summarises one append.
type AppendResult struct {
	Kind     types.Kind `json:"kind" yaml:"kind"`
	Path     string     `json:"path" yaml:"path"`
	Created  bool       `json:"created" yaml:"created"`
	Existing int        `json:"existing" yaml:"existing"`
	Added    int        `json:"added" yaml:"added"`
	Total    int        `json:"total" yaml:"total"`
}

// Writer appends frames to the datasets in one directory.
type Writer struct {
	dir string
}

// NewWriter returns a Writer for dir. An empty dir means the working directory.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{dir: dir}
}

// Path returns the dataset file for kind.
func (w *Writer) Path(kind types.Kind) string {
	return filepath.Join(w.dir, FileName(kind))
}

// Append merges f into its kind's dataset. Concurrent appends to the same
// dataset, from this or another process, are serialised by a lock file next
// to the dataset; ctx bounds the wait for that lock.
func (w *Writer) Append(ctx context.Context, f types.Frame) (AppendResult, error) {
	path := w.Path(f.Kind)
	res := AppendResult{Kind: f.Kind, Path: path}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return res, fmt.Errorf("creating data directory: %w", err)
	}

	lock := newLock(path)
	locked, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return res, fmt.Errorf("locking %s: %w", path, err)
	}
	if !locked {
		return res, fmt.Errorf("locking %s: lock not acquired", path)
	}
	defer lock.Unlock()

	header := f.Names()
	dateCol := slices.Index(header, types.DateColumn)

	existing, err := Load(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		res.Created = true
	case err != nil:
		return res, err
	case len(existing.Header) == 0:
		res.Created = true
	case !slices.Equal(existing.Header, header):
		return res, &SchemaMismatchError{Path: path, Got: existing.Header, Want: header}
	}
	res.Existing = len(existing.Rows)

	rows, added := merge(existing.Rows, f.Strings())
	if dateCol >= 0 {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i][dateCol] < rows[j][dateCol] })
	}
	res.Added = added
	res.Total = len(rows)

	if err := writeAtomic(path, header, rows); err != nil {
		return res, err
	}
	return res, nil
}

// newLock returns the lock guarding the dataset at path.
func newLock(path string) *flock.Flock {
	return flock.New(path + ".lock")
}

// merge returns existing followed by incoming with exact duplicates removed,
// keeping the first occurrence, and how many incoming rows were kept.
func merge(existing, incoming [][]string) ([][]string, int) {
	seen := make(map[string]bool, len(existing)+len(incoming))
	out := make([][]string, 0, len(existing)+len(incoming))
	keep := func(row []string) bool {
		key := strings.Join(row, "\x1f")
		if seen[key] {
			return false
		}
		seen[key] = true
		out = append(out, row)
		return true
	}

	for _, row := range existing {
		keep(row)
	}
	added := 0
	for _, row := range incoming {
		if keep(row) {
			added++
		}
	}
	return out, added
}

// Table is the parsed content of a dataset file.
type Table struct {
	Header []string
	Rows   [][]string
}

// Load reads the dataset at path. A missing file yields an error matching
// os.ErrNotExist.
func Load(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, nil
	}
	if err != nil {
		return Table{}, fmt.Errorf("reading %s: %w", path, err)
	}
	rows, err := r.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Table{Header: header, Rows: rows}, nil
}

// writeAtomic writes header and rows to a temporary file beside path and
// renames it over path.
func writeAtomic(path string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".dataset-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// CreateTemp opens files 0600; keep the dataset's existing mode.
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("setting mode of temp file: %w", err)
	}

	cw := csv.NewWriter(tmp)
	cw.Write(header)
	cw.WriteAll(rows)
	writeErr := cw.Error()
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
