// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftables

import (
	"context"
	"fmt"

	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/tables"
	"github.com/tsawler/tabula/text"

	"github.com/pdiddy/ssi-report/pkg/types"
)

// TabulaExtractor detects tables with tabula's geometric detector, which
// groups positioned text fragments into row/column grids.
type TabulaExtractor struct {
	detector tables.Detector
}

// NewTabulaExtractor returns an extractor using the geometric detector with
// merged-cell detection disabled: report tables are plain grids and merged
// cells would shift the positional column layout the cleaner relies on.
func NewTabulaExtractor() *TabulaExtractor {
	d := tables.NewGeometricDetector()
	cfg := tables.DefaultConfig()
	cfg.DetectMergedCells = false
	_ = d.Configure(cfg)
	return &TabulaExtractor{detector: d}
}

// Extract opens pdfPath and runs the detector over all pages.
func (e *TabulaExtractor) Extract(ctx context.Context, pdfPath string) ([]types.Table, error) {
	r, err := reader.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer r.Close()

	n, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("counting pages of %s: %w", pdfPath, err)
	}

	var out []types.Table
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := r.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", i+1, err)
		}
		frags, err := r.ExtractTextFragments(page)
		if err != nil {
			return nil, fmt.Errorf("extracting text from page %d: %w", i+1, err)
		}
		if len(frags) == 0 {
			continue
		}

		width, _ := page.Width()
		height, _ := page.Height()
		found, err := e.detector.Detect(layoutPage(i+1, width, height, frags))
		if err != nil {
			return nil, fmt.Errorf("detecting tables on page %d: %w", i+1, err)
		}
		for _, t := range found {
			out = append(out, fromModel(i+1, t))
		}
	}
	return out, nil
}

// layoutPage converts reader fragments into the model page the detector reads.
func layoutPage(number int, width, height float64, frags []text.TextFragment) *model.Page {
	p := model.NewPage(width, height)
	p.Number = number
	for _, f := range frags {
		p.RawText = append(p.RawText, model.TextFragment{
			Text:     f.Text,
			BBox:     model.NewBBox(f.X, f.Y, f.Width, f.Height),
			FontSize: f.FontSize,
			FontName: f.FontName,
		})
	}
	return p
}

func fromModel(page int, t *model.Table) types.Table {
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = c.Text
		}
		rows[i] = cells
	}
	return types.Table{Page: page, Rows: rows}
}
