// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftables extracts every table on every page of a report PDF as
// raw text grids. Backends are pluggable: tabula parses the PDF in-process,
// the container backend pipes it through an extraction image.
package pdftables

import (
	"context"
	"fmt"

	"github.com/pdiddy/ssi-report/internal/container"
	"github.com/pdiddy/ssi-report/pkg/types"
)

// DefaultImage is the container image used when none is configured. It reads
// a PDF on stdin and writes a JSON array of {"page": n, "rows": [[...]]}.
const DefaultImage = "camelot-tables:latest"

// Extractor returns the tables of a PDF in page order, and in detection
// order within a page.
type Extractor interface {
	Extract(ctx context.Context, pdfPath string) ([]types.Table, error)
}

// New builds the extractor selected by cfg. An empty backend means tabula.
func New(cfg types.ExtractionConfig) (Extractor, error) {
	switch cfg.Backend {
	case "", types.BackendTabula:
		return NewTabulaExtractor(), nil
	case types.BackendContainer:
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		image := cfg.Image
		if image == "" {
			image = DefaultImage
		}
		return NewContainerExtractor(rt, image)
	default:
		return nil, fmt.Errorf("unknown extraction backend %q (want %s or %s)",
			cfg.Backend, types.BackendTabula, types.BackendContainer)
	}
}
