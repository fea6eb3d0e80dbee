// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the takeoff pipeline:
// the category set and line-item records produced by scanning, the document
// records produced by conversion, and per-stage configuration.
package types

import "time"

// Category classifies a scanned engineering code.
type Category string

const (
	CategoryPortalFrame   Category = "Portal Frame"
	CategoryReinforcement Category = "Reinforcement"
	CategoryWeldedMesh    Category = "Welded Mesh"
	CategoryRoofing       Category = "Roofing"

	// CategoryUnknown is assigned when a matched code does not re-match any
	// individual category pattern.
	CategoryUnknown Category = "Unknown"
)

// Categories returns the recognized categories in classification order.
// CategoryUnknown is not included.
func Categories() []Category {
	return []Category{
		CategoryPortalFrame,
		CategoryReinforcement,
		CategoryWeldedMesh,
		CategoryRoofing,
	}
}

// QtyAsSpecified is the quantity phrase accepted in place of a count.
const QtyAsSpecified = "As specified"

// DefaultQty is the quantity assigned when a line carries no quantity.
const DefaultQty = "1"

// Record is one engineering line item found in a document.
type Record struct {
	// Code is the exact text that matched a category pattern (e.g. "360UB57").
	Code string `json:"code" yaml:"code"`

	// Desc joins up to three non-empty lines following the code line.
	Desc string `json:"desc" yaml:"desc"`

	// Type is the category label, or CategoryUnknown.
	Type Category `json:"type" yaml:"type"`

	// Qty is a digit string, the phrase "As specified" as written, or "1".
	Qty string `json:"qty" yaml:"qty"`
}

// ScanResult holds the records scanned from a single document.
type ScanResult struct {
	// DocumentID is derived from the source file name without extension.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// ScanID uniquely identifies the scan run that produced the records.
	ScanID string `json:"scan_id" yaml:"scan_id"`

	// SourcePath is the text or PDF file that was scanned.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// ScannedAt is when the scan ran.
	ScannedAt time.Time `json:"scanned_at" yaml:"scanned_at"`

	// Records are in document order.
	Records []Record `json:"records" yaml:"records"`

	// Error records a scan failure message. Empty on success.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}
