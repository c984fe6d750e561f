// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/anthology-harvester/pkg/types"
)

const defaultLimit = 100

// QueryOptions holds parameters for catalog queries.
type QueryOptions struct {
	// Search is an FTS5 full-text query over titles.
	Search string

	// Event filters by event name (matched lowercased, as stored).
	Event string

	// Year filters by event year.
	Year string

	// Status filters by entry status (downloaded, skipped, failed).
	Status string

	// Limit caps the result count. Zero uses the default (100).
	Limit int
}

// List queries the catalog with optional full-text search and structured
// filters. Full-text results are ranked by relevance; otherwise rows sort
// by event, year, and file identifier.
func (s *Store) List(ctx context.Context, opts QueryOptions) ([]types.CatalogRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Search != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT r.file_id, r.title, r.event, r.year, r.pdf_url, r.path,
				r.status, r.size_bytes, r.downloaded_at
			FROM records_fts
			JOIN records r ON r.rowid = records_fts.rowid
			WHERE records_fts MATCH ?`)
		args = append(args, opts.Search)
	} else {
		qb.WriteString(
			`SELECT r.file_id, r.title, r.event, r.year, r.pdf_url, r.path,
				r.status, r.size_bytes, r.downloaded_at
			FROM records r
			WHERE 1=1`)
	}

	if opts.Event != "" {
		qb.WriteString(` AND r.event = ?`)
		args = append(args, strings.ToLower(opts.Event))
	}
	if opts.Year != "" {
		qb.WriteString(` AND r.year = ?`)
		args = append(args, opts.Year)
	}
	if opts.Status != "" {
		qb.WriteString(` AND r.status = ?`)
		args = append(args, opts.Status)
	}

	if useFTS {
		qb.WriteString(` ORDER BY records_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY r.event, r.year, r.file_id`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var records []types.CatalogRecord
	for rows.Next() {
		var (
			rec          types.CatalogRecord
			downloadedAt string
		)
		if err := rows.Scan(
			&rec.FileID, &rec.Title, &rec.Event, &rec.Year, &rec.PDFURL,
			&rec.Path, &rec.Status, &rec.SizeBytes, &downloadedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, downloadedAt); err == nil {
			rec.DownloadedAt = t
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
