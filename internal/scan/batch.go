// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scan

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/takeoff/internal/convert"
	"github.com/pdiddy/takeoff/pkg/types"
)

const (
	textDir    = "text"
	recordsDir = "records"

	// RecordsSuffix is appended to the document ID to name scan output files.
	RecordsSuffix = "-records.yaml"

	defaultWorkers = 4
)

// NothingFoundMessage is reported for documents that yield no records.
const NothingFoundMessage = "No engineering specifications found. Please check the document format."

// BatchSummary holds counts from a batch scan run.
type BatchSummary struct {
	Scanned int
	Empty   int
	Skipped int
	Failed  int
}

// Total returns the number of documents processed.
func (s BatchSummary) Total() int {
	return s.Scanned + s.Skipped + s.Failed
}

// HasFailures reports whether any documents failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// ScanFile scans a single document. Text files are read as-is; PDF files are
// converted with conv first. conv may be nil when only text files are given.
func ScanFile(ctx context.Context, path string, conv convert.Converter) (*types.ScanResult, error) {
	var text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		if conv == nil {
			return nil, fmt.Errorf("scanning %s: no converter configured for PDF input", path)
		}
		out, err := conv.Convert(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("converting %s: %w", path, err)
		}
		text = out
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		text = string(data)
	}

	return &types.ScanResult{
		DocumentID: documentID(path),
		ScanID:     uuid.New().String(),
		SourcePath: path,
		ScannedAt:  time.Now().UTC(),
		Records:    ScanText(text),
	}, nil
}

// ScanAll scans every text file in documentsDir/text/ and writes one YAML
// result per document to takeoffDir/records/. Documents whose result is newer
// than their text are skipped. Up to cfg.Workers documents are scanned at
// once; per-document status lines are written to w.
func ScanAll(ctx context.Context, cfg types.ScanConfig, w io.Writer) (BatchSummary, error) {
	inDir := filepath.Join(cfg.DocumentsDir, textDir)
	outDir := filepath.Join(cfg.TakeoffDir, recordsDir)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating output directory: %w", err)
	}

	entries, err := os.ReadDir(inDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading text directory %s: %w", inDir, err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	var (
		mu      sync.Mutex
		summary BatchSummary
	)
	report := func(update func(*BatchSummary), format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		update(&summary)
		fmt.Fprintf(w, format, args...)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		if gctx.Err() != nil {
			break
		}

		docID := strings.TrimSuffix(entry.Name(), ".txt")
		inPath := filepath.Join(inDir, entry.Name())
		outPath := filepath.Join(outDir, docID+RecordsSuffix)

		g.Go(func() error {
			changed, err := hasChanged(inPath, outPath)
			if err != nil {
				report(func(s *BatchSummary) { s.Failed++ }, "failed  %s: %v\n", docID, err)
				return nil
			}
			if !changed {
				report(func(s *BatchSummary) { s.Skipped++ }, "skipped %s\n", docID)
				return nil
			}

			result, err := ScanFile(gctx, inPath, nil)
			if err != nil {
				report(func(s *BatchSummary) { s.Failed++ }, "failed  %s: %v\n", docID, err)
				return nil
			}

			if err := writeResult(outPath, result); err != nil {
				report(func(s *BatchSummary) { s.Failed++ }, "failed  %s: write error: %v\n", docID, err)
				return nil
			}

			if len(result.Records) == 0 {
				report(func(s *BatchSummary) { s.Scanned++; s.Empty++ }, "scanned %s: %s\n", docID, NothingFoundMessage)
				return nil
			}
			report(func(s *BatchSummary) { s.Scanned++ }, "scanned %s (%d records)\n", docID, len(result.Records))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	fmt.Fprintf(w, "\nscanned: %d (empty: %d), skipped: %d, failed: %d\n",
		summary.Scanned, summary.Empty, summary.Skipped, summary.Failed)
	return summary, nil
}

// CategoryCount is the number of records of one category.
type CategoryCount struct {
	Category types.Category `json:"category" yaml:"category"`
	Count    int            `json:"count" yaml:"count"`
}

// Summarize counts records per category in classification order, followed
// by CategoryUnknown when present. Categories with no records are omitted.
func Summarize(records []types.Record) []CategoryCount {
	counts := make(map[types.Category]int)
	for _, r := range records {
		counts[r.Type]++
	}

	order := append(types.Categories(), types.CategoryUnknown)
	var out []CategoryCount
	for _, c := range order {
		if n := counts[c]; n > 0 {
			out = append(out, CategoryCount{Category: c, Count: n})
			delete(counts, c)
		}
	}

	// Labels outside the table only appear in hand-edited result files.
	var rest []types.Category
	for c := range counts {
		rest = append(rest, c)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, c := range rest {
		out = append(out, CategoryCount{Category: c, Count: counts[c]})
	}
	return out
}

// ReadResult loads a scan result YAML file.
func ReadResult(path string) (*types.ScanResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var result types.ScanResult
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &result, nil
}

// documentID derives the document ID from a file path.
func documentID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// hasChanged reports whether the input file is newer than the output file.
// Returns true if the output does not exist or the input is more recent.
func hasChanged(inPath, outPath string) (bool, error) {
	inInfo, err := os.Stat(inPath)
	if err != nil {
		return false, fmt.Errorf("stat input %s: %w", inPath, err)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat output %s: %w", outPath, err)
	}

	return inInfo.ModTime().After(outInfo.ModTime()), nil
}

// writeResult marshals the ScanResult to a YAML file.
func writeResult(path string, result *types.ScanResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
