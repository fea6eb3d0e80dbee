// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/takeoff/pkg/types"
)

// fakeConverter implements Converter for testing. It returns canned text
// or an error, depending on configuration.
type fakeConverter struct {
	output string
	err    error
	calls  int
}

func (f *fakeConverter) Convert(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

// setupPDF creates a temporary PDF file and returns its path and the temp dir.
func setupPDF(t *testing.T) (pdfPath, tmpDir string) {
	t.Helper()
	tmpDir = t.TempDir()
	dir := filepath.Join(tmpDir, rawDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	pdfPath = filepath.Join(dir, "S-201.pdf")
	if err := os.WriteFile(pdfPath, []byte("fake pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	return pdfPath, tmpDir
}

func TestConvertDocument(t *testing.T) {
	tests := []struct {
		name       string
		converter  *fakeConverter
		preCreate  bool // create output text before running
		wantStatus types.ConversionStatus
		wantLog    string
	}{
		{
			name:       "successful conversion",
			converter:  &fakeConverter{output: "360UB57 frame\nGrade 300\n"},
			wantStatus: types.ConversionDone,
			wantLog:    "converted:",
		},
		{
			name:       "skip existing text",
			converter:  &fakeConverter{output: "should not be called"},
			preCreate:  true,
			wantStatus: types.ConversionNone,
			wantLog:    "skipped:",
		},
		{
			name:       "conversion failure",
			converter:  &fakeConverter{err: errors.New("container crashed")},
			wantStatus: types.ConversionFailed,
			wantLog:    "failed:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pdfPath, tmpDir := setupPDF(t)

			if tt.preCreate {
				dir := filepath.Join(tmpDir, textDir)
				if err := os.MkdirAll(dir, 0o755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(filepath.Join(dir, "S-201.txt"), []byte("existing"), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			doc := types.Document{ID: "S-201", SourcePath: pdfPath}
			var log bytes.Buffer

			status := ConvertDocument(context.Background(), tt.converter, &doc, tmpDir, &log)

			if status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status, tt.wantStatus)
			}
			if !strings.Contains(log.String(), tt.wantLog) {
				t.Errorf("log output %q does not contain %q", log.String(), tt.wantLog)
			}
			if tt.preCreate && tt.converter.calls != 0 {
				t.Errorf("converter called %d times for existing output", tt.converter.calls)
			}
		})
	}
}

func TestConvertDocument_WritesText(t *testing.T) {
	pdfPath, tmpDir := setupPDF(t)
	conv := &fakeConverter{output: "665 mesh qty: 40\nSL82 to slab\f0.55mm BMT\n"}
	doc := types.Document{ID: "S-201", SourcePath: pdfPath}

	var log bytes.Buffer
	if status := ConvertDocument(context.Background(), conv, &doc, tmpDir, &log); status != types.ConversionDone {
		t.Fatalf("expected ConversionDone, got %q", status)
	}

	txtPath := filepath.Join(tmpDir, textDir, "S-201.txt")
	data, err := os.ReadFile(txtPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != conv.output {
		t.Errorf("text = %q, want converter output unchanged", string(data))
	}
	if doc.TextPath != txtPath {
		t.Errorf("TextPath = %q, want %q", doc.TextPath, txtPath)
	}
	if doc.ConversionStatus != types.ConversionDone {
		t.Errorf("ConversionStatus = %q, want %q", doc.ConversionStatus, types.ConversionDone)
	}
}

func TestConvertDocument_RejectsNonPDF(t *testing.T) {
	tmpDir := t.TempDir()
	docxPath := filepath.Join(tmpDir, "S-201.docx")
	if err := os.WriteFile(docxPath, []byte("docx"), 0o644); err != nil {
		t.Fatal(err)
	}

	conv := &fakeConverter{output: "text"}
	doc := types.Document{ID: "S-201", SourcePath: docxPath}
	var log bytes.Buffer

	status := ConvertDocument(context.Background(), conv, &doc, tmpDir, &log)
	if status != types.ConversionFailed {
		t.Errorf("status = %q, want %q", status, types.ConversionFailed)
	}
	if conv.calls != 0 {
		t.Error("converter should not be called for non-PDF input")
	}
	if !strings.Contains(log.String(), "not a PDF") {
		t.Errorf("log output %q should explain the rejection", log.String())
	}
}

func TestAllowedFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"S-201.pdf", true},
		{"S-201.PDF", true},
		{"dir.pdf/S-201.txt", false},
		{"S-201", false},
		{"S-201.pdf.exe", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := AllowedFile(tt.path); got != tt.want {
				t.Errorf("AllowedFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestConvertBatch(t *testing.T) {
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, rawDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	// Create 3 PDFs: one will succeed, one will be pre-existing, one will fail.
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("pdf"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	// Pre-create output for "b" to trigger skip.
	outDir := filepath.Join(tmpDir, textDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "b.txt"), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Converter that fails for "c.pdf".
	conv := &selectiveConverter{
		outputs: map[string]string{
			filepath.Join(dir, "a.pdf"): "360UB57",
			filepath.Join(dir, "b.pdf"): "D16@200",
		},
		errors: map[string]error{
			filepath.Join(dir, "c.pdf"): errors.New("bad pdf"),
		},
	}

	docs := []types.Document{
		{ID: "a", SourcePath: filepath.Join(dir, "a.pdf")},
		{ID: "b", SourcePath: filepath.Join(dir, "b.pdf")},
		{ID: "c", SourcePath: filepath.Join(dir, "c.pdf")},
	}

	var log bytes.Buffer
	result := ConvertBatch(context.Background(), conv, docs, tmpDir, &log)

	if result.Converted != 1 {
		t.Errorf("converted = %d, want 1", result.Converted)
	}
	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Skipped)
	}
	if result.Failed != 1 {
		t.Errorf("failed = %d, want 1", result.Failed)
	}
	if !result.HasFailures() {
		t.Error("HasFailures should be true")
	}
	if result.Total() != 3 {
		t.Errorf("total = %d, want 3", result.Total())
	}
	if docs[2].ConversionStatus != types.ConversionFailed {
		t.Errorf("docs[2].ConversionStatus = %q, want %q", docs[2].ConversionStatus, types.ConversionFailed)
	}

	if !strings.Contains(log.String(), "Batch summary:") {
		t.Error("batch output should contain summary line")
	}
}

func TestConvertBatch_Cancelled(t *testing.T) {
	pdfPath, tmpDir := setupPDF(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conv := &fakeConverter{output: "text"}
	docs := []types.Document{{ID: "S-201", SourcePath: pdfPath}}

	result := ConvertBatch(ctx, conv, docs, tmpDir, io.Discard)
	if result.Total() != 0 {
		t.Errorf("total = %d, want 0 after cancellation", result.Total())
	}
	if conv.calls != 0 {
		t.Errorf("converter called %d times after cancellation", conv.calls)
	}
}

func TestConvertPaths(t *testing.T) {
	pdfPath, tmpDir := setupPDF(t)

	conv := &fakeConverter{output: "360UB57 frame"}
	var log bytes.Buffer
	result := ConvertPaths(context.Background(), conv, []string{pdfPath}, tmpDir, &log)

	if result.Converted != 1 {
		t.Errorf("converted = %d, want 1", result.Converted)
	}

	txtPath := filepath.Join(tmpDir, textDir, "S-201.txt")
	if _, err := os.Stat(txtPath); err != nil {
		t.Errorf("expected output file at %s", txtPath)
	}
}

func TestConvertAll(t *testing.T) {
	_, tmpDir := setupPDF(t)
	// Non-PDF files in raw/ are ignored.
	if err := os.WriteFile(filepath.Join(tmpDir, rawDir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	conv := &fakeConverter{output: "D16@200 stirrups"}
	var log bytes.Buffer
	result, err := ConvertAll(context.Background(), conv, tmpDir, &log)
	if err != nil {
		t.Fatal(err)
	}
	if result.Converted != 1 || result.Total() != 1 {
		t.Errorf("result = %+v, want exactly one conversion", result)
	}
}

func TestConvertAll_MissingRawDir(t *testing.T) {
	_, err := ConvertAll(context.Background(), &fakeConverter{}, t.TempDir(), io.Discard)
	if err == nil {
		t.Fatal("expected error for missing raw directory")
	}
}

// selectiveConverter returns different results per file path.
type selectiveConverter struct {
	outputs map[string]string
	errors  map[string]error
}

func (s *selectiveConverter) Convert(_ context.Context, pdfPath string) (string, error) {
	if err, ok := s.errors[pdfPath]; ok {
		return "", err
	}
	if out, ok := s.outputs[pdfPath]; ok {
		return out, nil
	}
	return "", errors.New("unexpected path: " + pdfPath)
}
