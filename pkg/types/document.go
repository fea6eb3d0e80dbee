// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ConversionStatus indicates the state of PDF-to-text conversion for a document.
type ConversionStatus string

const (
	ConversionNone   ConversionStatus = "none"
	ConversionDone   ConversionStatus = "converted"
	ConversionFailed ConversionStatus = "failed"
)

// Document holds the file paths of a specification document moving through
// the pipeline.
type Document struct {
	// ID is the source file name without its extension (e.g. "S-201-steelwork").
	ID string `json:"id" yaml:"id"`

	// SourcePath is the local path to the source PDF.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// TextPath is the local path to the converted plain text.
	TextPath string `json:"text_path,omitempty" yaml:"text_path,omitempty"`

	// ConversionStatus tracks whether the PDF has been converted to text.
	ConversionStatus ConversionStatus `json:"conversion_status" yaml:"conversion_status"`
}
