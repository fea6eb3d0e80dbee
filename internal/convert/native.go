// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pageBreak separates page texts, as pdftotext does.
const pageBreak = "\f"

// NativeConverter extracts PDF text in-process. Pages whose text cannot be
// decoded are skipped with a warning.
type NativeConverter struct {
	logger *slog.Logger
}

// NewNativeConverter returns a NativeConverter logging to logger, or to the
// default logger when logger is nil.
func NewNativeConverter(logger *slog.Logger) *NativeConverter {
	if logger == nil {
		logger = slog.Default()
	}
	return &NativeConverter{logger: logger.With(slog.String("component", "native_converter"))}
}

// Convert reads every page of the PDF at pdfPath and returns the page texts
// joined by form feeds. Each page yields one text line per baseline, in
// content-stream order.
func (n *NativeConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	var nonEmpty bool

	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		lines, err := pageLines(page)
		if err != nil {
			n.logger.Warn("Failed to extract text from page",
				slog.String("path", pdfPath), slog.Int("page", i), slog.Any("error", err))
			continue
		}
		text := strings.Join(lines, "\n")
		if strings.TrimSpace(text) != "" {
			nonEmpty = true
		}
		pages = append(pages, text)
	}

	if !nonEmpty {
		return "", fmt.Errorf("no text found in %s", pdfPath)
	}
	return strings.Join(pages, pageBreak), nil
}

// pageLines interprets the page's content streams and returns its text
// lines. The pdf package panics on some malformed content streams; those
// are reported as errors.
func pageLines(page pdf.Page) (lines []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			lines, err = nil, fmt.Errorf("malformed page content: %v", r)
		}
	}()

	w := newTextWalker(page)
	contents := page.V.Key("Contents")
	switch contents.Kind() {
	case pdf.Array:
		for i := 0; i < contents.Len(); i++ {
			pdf.Interpret(contents.Index(i), w.do)
		}
	case pdf.Stream:
		pdf.Interpret(contents, w.do)
	}
	return w.lines.finish(), nil
}
