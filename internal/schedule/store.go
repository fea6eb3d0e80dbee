// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schedule persists scanned records in a SQLite database and builds
// the takeoff schedule from it: filtered retrieval, per-code quantity totals
// and YAML, JSON and XLSX exports.
package schedule

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/takeoff/internal/scan"
	"github.com/pdiddy/takeoff/pkg/types"
)

const (
	recordsDir = "records"
	indexDir   = "index"
	dbFile     = "takeoff.db"

	defaultMaxResults = 50
)

// Store manages the schedule SQLite database.
type Store struct {
	db         *sql.DB
	takeoffDir string
	maxResults int
}

// NewStore opens or creates the schedule database at
// takeoffDir/index/takeoff.db. It creates the schema if it does not exist.
func NewStore(cfg types.ScheduleConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.TakeoffDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{
		db:         db,
		takeoffDir: cfg.TakeoffDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			source_path TEXT,
			scan_id TEXT,
			scanned_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			document_id TEXT NOT NULL REFERENCES documents(id),
			position INTEGER NOT NULL,
			code TEXT NOT NULL,
			type TEXT NOT NULL,
			qty TEXT NOT NULL,
			description TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_document_id ON records(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_records_type ON records(type)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			document_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS4 table over code and description, kept in sync by triggers.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='records_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE records_fts USING fts4(code, description)`,
			`CREATE TRIGGER records_ai AFTER INSERT ON records BEGIN
				INSERT INTO records_fts(docid, code, description) VALUES (new.rowid, new.code, new.description);
			END`,
			`CREATE TRIGGER records_ad AFTER DELETE ON records BEGIN
				DELETE FROM records_fts WHERE docid = old.rowid;
			END`,
			`CREATE TRIGGER records_au AFTER UPDATE ON records BEGIN
				DELETE FROM records_fts WHERE docid = old.rowid;
				INSERT INTO records_fts(docid, code, description) VALUES (new.rowid, new.code, new.description);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a schedule indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of documents processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads scan result files from takeoffDir/records/ and populates the
// database. Files unchanged since the last run are skipped; changed files
// replace the document's records. After any change it writes export.yaml.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	dir := filepath.Join(s.takeoffDir, recordsDir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading records directory %s: %w", dir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), scan.RecordsSuffix) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		docID := strings.TrimSuffix(entry.Name(), scan.RecordsSuffix)
		filePath := filepath.Join(dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE document_id = ?`, docID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", docID)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		result, err := scan.ReadResult(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		if err := s.ingestDocument(ctx, docID, result, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d records)\n", docID, len(result.Records))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d records)\n", docID, len(result.Records))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	if summary.Indexed > 0 || summary.Updated > 0 {
		if err := s.ExportYAML(ctx, QueryOptions{}); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}

	return summary, nil
}

func (s *Store) ingestDocument(ctx context.Context, docID string, result *types.ScanResult, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE document_id = ?`, docID); err != nil {
			return fmt.Errorf("deleting old records: %w", err)
		}
	}

	scannedAt := ""
	if !result.ScannedAt.IsZero() {
		scannedAt = result.ScannedAt.UTC().Format(time.RFC3339)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, source_path, scan_id, scanned_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			source_path=excluded.source_path, scan_id=excluded.scan_id,
			scanned_at=excluded.scanned_at`,
		docID, result.SourcePath, result.ScanID, scannedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (id, document_id, position, code, type, qty, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range result.Records {
		_, err := stmt.ExecContext(ctx,
			recordID(docID, i, r.Code), docID, i,
			r.Code, string(r.Type), r.Qty, r.Desc,
		)
		if err != nil {
			return fmt.Errorf("inserting record %d (%s): %w", i, r.Code, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (document_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(document_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		docID, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}

// recordID generates a deterministic ID from document ID, position, and code.
// The ID is the first 12 hex characters of SHA-256 over the three values.
func recordID(docID string, position int, code string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%s", docID, position, code)
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}
