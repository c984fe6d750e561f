// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog persists harvest outcomes in a SQLite database so past
// runs can be listed, searched, and exported without re-reading meta.json
// files scattered across output directories.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/anthology-harvester/pkg/types"
)

const dbFile = "catalog.db"

// Store manages the catalog SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the catalog database at cfg.DBPath, defaulting
// to ./catalog.db. The schema is created when missing.
func NewStore(cfg types.CatalogConfig) (*Store, error) {
	path := cfg.DBPath
	if path == "" {
		path = dbFile
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
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
		`CREATE TABLE IF NOT EXISTS records (
			file_id TEXT PRIMARY KEY,
			title TEXT,
			event TEXT NOT NULL,
			year TEXT NOT NULL,
			pdf_url TEXT,
			path TEXT,
			status TEXT NOT NULL,
			size_bytes INTEGER NOT NULL DEFAULT 0,
			downloaded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_event_year ON records(event, year)`,
		`CREATE INDEX IF NOT EXISTS idx_records_status ON records(status)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table over titles with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='records_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE records_fts USING fts5(title, content=records, content_rowid=rowid)`,
			`CREATE TRIGGER records_ai AFTER INSERT ON records BEGIN
				INSERT INTO records_fts(rowid, title) VALUES (new.rowid, new.title);
			END`,
			`CREATE TRIGGER records_ad AFTER DELETE ON records BEGIN
				INSERT INTO records_fts(records_fts, rowid, title) VALUES('delete', old.rowid, old.title);
			END`,
			`CREATE TRIGGER records_au AFTER UPDATE ON records BEGIN
				INSERT INTO records_fts(records_fts, rowid, title) VALUES('delete', old.rowid, old.title);
				INSERT INTO records_fts(rowid, title) VALUES (new.rowid, new.title);
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

// RecordRun stores one row per harvest entry, tagged with the event and year
// the run was invoked with. Rows upsert on file_id, so harvesting an event
// again refreshes its records instead of duplicating them. Failed entries
// are recorded too; the catalog is the run journal, unlike meta.json.
func (s *Store) RecordRun(ctx context.Context, event, year string, results []types.EntryResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (file_id, title, event, year, pdf_url, path, status, size_bytes, downloaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(file_id) DO UPDATE SET
			title=excluded.title, event=excluded.event, year=excluded.year,
			pdf_url=excluded.pdf_url, path=excluded.path, status=excluded.status,
			size_bytes=excluded.size_bytes, downloaded_at=excluded.downloaded_at`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, res := range results {
		// A URL ending in "/" yields no identifier; nothing to key on.
		if res.FileID == "" {
			continue
		}
		var size int64
		if info, err := os.Stat(res.Path); err == nil {
			size = info.Size()
		}
		_, err := stmt.ExecContext(ctx,
			res.FileID, res.Entry.Title, strings.ToLower(event), year,
			res.Entry.PDFURL, res.Path, string(res.Status), size, now,
		)
		if err != nil {
			return fmt.Errorf("recording entry %s: %w", res.FileID, err)
		}
	}

	return tx.Commit()
}
