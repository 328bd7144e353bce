// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads the daily surveillance report PDF.
//
// The report is published under one of two URL layouts that differ only in
// their base path and suffix. The primary layout is tried first; when it
// answers "not found" the fallback layout is tried once.
package fetch

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/ssi-report/internal/httputil"
	"github.com/pdiddy/ssi-report/pkg/types"
)

// Base URLs are variables so tests can point them at an httptest server.
var (
	primaryBase    = "https://files.ssi.dk/COVID19-overvaagningsrapport-"
	fallbackBase   = "https://www.ssi.dk/-/media/arkiv/dk/aktuelt/sygdomsudbrud/covid19-rapport/covid19-overvaagningsrapport-"
	fallbackSuffix = ".pdf?la=da"
)

// ErrNoReport is returned when neither URL layout serves a report for the date.
var ErrNoReport = errors.New("no article for the day")

// errNotFound marks a download that the server answered with "no such report".
var errNotFound = errors.New("report not found")

var pdfMagic = []byte("%PDF-")

// DateToken renders t as ddmmyyyy, the token both URL layouts embed.
func DateToken(t time.Time) string {
	return t.Format("02012006")
}

// URLs returns the primary and fallback report URLs for date.
func URLs(date time.Time) (primary, fallback string) {
	token := DateToken(date)
	return primaryBase + token, fallbackBase + token + fallbackSuffix
}

// Fetcher downloads report PDFs.
type Fetcher struct {
	client *http.Client
	cfg    types.FetchConfig
}

// New returns a Fetcher that uses client for all requests.
func New(client *http.Client, cfg types.FetchConfig) *Fetcher {
	return &Fetcher{client: client, cfg: cfg}
}

// Fetch downloads the report for date into destDir. A "not found" answer
// from the primary URL triggers one attempt at the fallback URL; if that
// fails too the error wraps ErrNoReport. Other primary failures (server
// errors, transport errors) are returned as-is.
func (f *Fetcher) Fetch(ctx context.Context, date time.Time, destDir string) (types.Report, error) {
	primary, fallback := URLs(date)
	dest := filepath.Join(destDir, "COVID19-overvaagningsrapport-"+DateToken(date)+".pdf")

	report := types.Report{Date: date, SourceURL: primary, PDFPath: dest}

	err := f.download(ctx, primary, dest)
	if err == nil {
		return report, nil
	}
	if !errors.Is(err, errNotFound) {
		return types.Report{}, fmt.Errorf("downloading %s: %w", primary, err)
	}

	if ferr := f.download(ctx, fallback, dest); ferr != nil {
		return types.Report{}, fmt.Errorf("%w: %w", ErrNoReport, errors.Join(err, ferr))
	}
	report.SourceURL = fallback
	report.Fallback = true
	return report, nil
}

// download fetches url to destPath through a temporary file in the same
// directory. Responses that are not a PDF count as not found: the site
// answers unknown report dates with an HTML page.
func (f *Fetcher) download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, f.client, req, f.cfg.MaxRetries)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%w: HTTP %d from %s", errNotFound, resp.StatusCode, url)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	body := bufio.NewReader(resp.Body)
	head, _ := body.Peek(len(pdfMagic))
	if !bytes.Equal(head, pdfMagic) {
		return fmt.Errorf("%w: %s did not return a PDF", errNotFound, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
