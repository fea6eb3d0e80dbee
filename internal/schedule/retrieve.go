// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schedule

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/takeoff/pkg/types"
)

// QueryOptions holds parameters for schedule queries.
type QueryOptions struct {
	// Query is a full-text search over code and description.
	Query string

	// Type filters by category.
	Type types.Category

	// DocumentID filters by source document.
	DocumentID string

	// Code filters by exact code, ignoring case.
	Code string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Type == "" && q.DocumentID == "" && q.Code == ""
}

// Entry is a stored record with its provenance.
type Entry struct {
	types.Record `yaml:",inline"`

	ID         string `json:"id" yaml:"id"`
	DocumentID string `json:"document_id" yaml:"document_id"`
	Position   int    `json:"position" yaml:"position"`
	SourcePath string `json:"source_path,omitempty" yaml:"source_path,omitempty"`
}

// Retrieve queries the schedule with optional full-text search and
// structured filters. Results are in document order: by document ID, then
// position within the document.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]Entry, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)

	qb.WriteString(
		`SELECT r.id, r.document_id, r.position, r.code, r.type, r.qty,
			r.description, d.source_path
		FROM records r
		LEFT JOIN documents d ON r.document_id = d.id
		WHERE 1=1`)

	if opts.Query != "" {
		qb.WriteString(` AND r.rowid IN (SELECT docid FROM records_fts WHERE records_fts MATCH ?)`)
		args = append(args, opts.Query)
	}

	if opts.Type != "" {
		qb.WriteString(` AND r.type = ?`)
		args = append(args, string(opts.Type))
	}

	if opts.DocumentID != "" {
		qb.WriteString(` AND r.document_id = ?`)
		args = append(args, opts.DocumentID)
	}

	if opts.Code != "" {
		qb.WriteString(` AND r.code = ? COLLATE NOCASE`)
		args = append(args, opts.Code)
	}

	qb.WriteString(` ORDER BY r.document_id, r.position LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying schedule: %w", err)
	}
	defer rows.Close()

	var results []Entry
	for rows.Next() {
		var (
			e          Entry
			category   string
			desc       sql.NullString
			sourcePath sql.NullString
		)

		if err := rows.Scan(
			&e.ID, &e.DocumentID, &e.Position, &e.Code, &category, &e.Qty,
			&desc, &sourcePath,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		e.Type = types.Category(category)
		e.Desc = desc.String
		e.SourcePath = sourcePath.String

		results = append(results, e)
	}

	return results, rows.Err()
}

// Total aggregates the quantities of one code.
type Total struct {
	Category types.Category `json:"category" yaml:"category"`
	Code     string         `json:"code" yaml:"code"`

	// Items is the number of records with this code.
	Items int `json:"items" yaml:"items"`

	// Quantity sums the numeric quantities.
	Quantity int `json:"quantity" yaml:"quantity"`

	// AsSpecified counts records whose quantity is "As specified".
	AsSpecified int `json:"as_specified,omitempty" yaml:"as_specified,omitempty"`

	// Unparsed counts quantities that are not counts or would overflow
	// the sum.
	Unparsed int `json:"unparsed,omitempty" yaml:"unparsed,omitempty"`
}

// Totals sums quantities per category and code over the records matching
// opts, up to opts.MaxResults records (all when zero). Codes are compared ignoring case and reported as first seen. Output
// is in category order, then by code.
func (s *Store) Totals(ctx context.Context, opts QueryOptions) ([]Total, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = exportLimit
	}
	entries, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for totals: %w", err)
	}

	byKey := make(map[string]*Total)
	var totals []*Total
	for _, e := range entries {
		key := string(e.Type) + "\x00" + strings.ToUpper(e.Code)
		t, ok := byKey[key]
		if !ok {
			t = &Total{Category: e.Type, Code: e.Code}
			byKey[key] = t
			totals = append(totals, t)
		}
		t.Items++

		if strings.EqualFold(e.Qty, types.QtyAsSpecified) {
			t.AsSpecified++
			continue
		}
		n, err := strconv.Atoi(e.Qty)
		if err != nil || n < 0 || n > math.MaxInt-t.Quantity {
			t.Unparsed++
			continue
		}
		t.Quantity += n
	}

	rank := make(map[types.Category]int)
	for i, c := range types.Categories() {
		rank[c] = i
	}
	rankOf := func(c types.Category) int {
		if r, ok := rank[c]; ok {
			return r
		}
		return len(rank)
	}
	sort.SliceStable(totals, func(i, j int) bool {
		ri, rj := rankOf(totals[i].Category), rankOf(totals[j].Category)
		if ri != rj {
			return ri < rj
		}
		return strings.ToUpper(totals[i].Code) < strings.ToUpper(totals[j].Code)
	})

	out := make([]Total, len(totals))
	for i, t := range totals {
		out[i] = *t
	}
	return out, nil
}
