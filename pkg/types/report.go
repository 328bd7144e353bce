// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Report is the PDF downloaded for one report date. It exists only for the
// duration of a run unless the fetch stage was told to keep it.
type Report struct {
	// Date is the calendar date the report was published for.
	Date time.Time `json:"date" yaml:"date"`

	// SourceURL is the URL the PDF was downloaded from.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// PDFPath is the local filesystem path to the downloaded PDF.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	// Fallback reports whether the fallback URL served the PDF.
	Fallback bool `json:"fallback" yaml:"fallback"`
}
