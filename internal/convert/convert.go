// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns specification PDFs into plain text with pluggable
// backends. The text keeps document line order; pages are separated by form
// feeds.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/takeoff/internal/container"
	"github.com/pdiddy/takeoff/pkg/types"
)

const (
	// textDir is the subdirectory under the documents base for text output.
	textDir = "text"
	// rawDir is the subdirectory under the documents base for source PDFs.
	rawDir = "raw"
)

// Converter transforms a PDF file into plain text. Different backends
// (native, pdftotext) implement this interface.
type Converter interface {
	// Convert reads a PDF at pdfPath and returns its text.
	Convert(ctx context.Context, pdfPath string) (string, error)
}

// NewConverter returns the converter for backend. The pdftotext backend
// needs a container runtime; rt is ignored by the native backend.
func NewConverter(backend types.ConversionBackend, rt container.Runtime) (Converter, error) {
	switch backend {
	case types.BackendNative, "":
		return NewNativeConverter(nil), nil
	case types.BackendPdftotext:
		if rt == nil {
			return nil, fmt.Errorf("backend %s requires a container runtime", backend)
		}
		return NewPdftotextConverter(rt)
	default:
		return nil, fmt.Errorf("unsupported conversion backend %q: use %s or %s",
			backend, types.BackendNative, types.BackendPdftotext)
	}
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of documents processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any documents failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// AllowedFile reports whether path has a PDF extension.
func AllowedFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// ConvertDocument converts a single PDF to text, writing the result to the
// text directory. If the text output already exists, it skips conversion
// and returns ConversionNone.
func ConvertDocument(ctx context.Context, c Converter, doc *types.Document, documentsDir string, w io.Writer) types.ConversionStatus {
	outDir := filepath.Join(documentsDir, textDir)
	txtPath := filepath.Join(outDir, doc.ID+".txt")

	if !AllowedFile(doc.SourcePath) {
		fmt.Fprintf(w, "failed:  %s (not a PDF file)\n", doc.ID)
		doc.ConversionStatus = types.ConversionFailed
		return types.ConversionFailed
	}

	if _, err := os.Stat(txtPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", doc.ID)
		doc.TextPath = txtPath
		return types.ConversionNone
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", doc.ID, err)
		doc.ConversionStatus = types.ConversionFailed
		return types.ConversionFailed
	}

	text, err := c.Convert(ctx, doc.SourcePath)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", doc.ID, err)
		doc.ConversionStatus = types.ConversionFailed
		return types.ConversionFailed
	}

	if err := os.WriteFile(txtPath, []byte(text), 0o644); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", doc.ID, err)
		doc.ConversionStatus = types.ConversionFailed
		return types.ConversionFailed
	}

	doc.TextPath = txtPath
	doc.ConversionStatus = types.ConversionDone
	fmt.Fprintf(w, "converted: %s\n", doc.ID)
	return types.ConversionDone
}

// ConvertBatch processes documents through the converter, printing
// per-file status to w and returning a summary. A cancelled context stops
// the batch before the next document.
func ConvertBatch(ctx context.Context, c Converter, docs []types.Document, documentsDir string, w io.Writer) BatchResult {
	var result BatchResult
	for i := range docs {
		if ctx.Err() != nil {
			break
		}
		switch ConvertDocument(ctx, c, &docs[i], documentsDir, w) {
		case types.ConversionDone:
			result.Converted++
		case types.ConversionNone:
			result.Skipped++
		case types.ConversionFailed:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

// ConvertPaths builds Document records from PDF paths and delegates to
// ConvertBatch. Each document ID is derived from the file name.
func ConvertPaths(ctx context.Context, c Converter, pdfPaths []string, documentsDir string, w io.Writer) BatchResult {
	docs := make([]types.Document, len(pdfPaths))
	for i, p := range pdfPaths {
		docs[i] = types.Document{
			ID:         strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)),
			SourcePath: p,
		}
	}
	return ConvertBatch(ctx, c, docs, documentsDir, w)
}

// ConvertAll converts every PDF under documentsDir/raw/ in name order.
func ConvertAll(ctx context.Context, c Converter, documentsDir string, w io.Writer) (BatchResult, error) {
	dir := filepath.Join(documentsDir, rawDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return BatchResult{}, fmt.Errorf("reading raw directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !AllowedFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	return ConvertPaths(ctx, c, paths, documentsDir, w), nil
}
