// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sqlite keeps a local catalog of harvested papers in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-harvest/internal/store"
	"github.com/pdiddy/paper-harvest/pkg/types"
)

var (
	_ store.Sink    = (*Store)(nil)
	_ store.Querier = (*Store)(nil)
)

// Store is a SQLite-backed paper catalog.
type Store struct {
	db *sql.DB
}

// New opens or creates the database at path and ensures the schema.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	// Workers save concurrently; one writer connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

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
		`CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			summary TEXT NOT NULL,
			authors TEXT NOT NULL,
			links TEXT NOT NULL,
			categories TEXT NOT NULL,
			primary_category TEXT,
			updated TEXT,
			published TEXT,
			content TEXT,
			content_skip_reason TEXT,
			saved_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_primary_category ON papers(primary_category)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_published ON papers(published)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save upserts rec keyed by its id. name is unused.
func (s *Store) Save(ctx context.Context, rec *types.PaperRecord, _ string) error {
	authors, err := json.Marshal(rec.Authors)
	if err != nil {
		return fmt.Errorf("encoding authors: %w", err)
	}
	links, err := json.Marshal(rec.Links)
	if err != nil {
		return fmt.Errorf("encoding links: %w", err)
	}
	categories, err := json.Marshal(rec.Categories)
	if err != nil {
		return fmt.Errorf("encoding categories: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO papers (id, title, summary, authors, links, categories, primary_category,
			updated, published, content, content_skip_reason, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, summary=excluded.summary, authors=excluded.authors,
			links=excluded.links, categories=excluded.categories,
			primary_category=excluded.primary_category, updated=excluded.updated,
			published=excluded.published, content=excluded.content,
			content_skip_reason=excluded.content_skip_reason, saved_at=excluded.saved_at`,
		rec.ID, rec.Title, rec.Summary, string(authors), string(links), string(categories),
		nullString(rec.PrimaryCategory), formatTime(rec.Updated), formatTime(rec.Published),
		nullString(rec.Content), rec.ContentSkipReason,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting paper %s: %w", rec.ID, err)
	}
	return nil
}

// Query returns catalog records newest-published first.
func (s *Store) Query(ctx context.Context, f store.Filter) ([]*types.PaperRecord, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT id, title, summary, authors, links, categories, primary_category,
			updated, published, content, content_skip_reason
		FROM papers p WHERE 1=1`)

	if f.Category != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(p.categories) WHERE value = ?)`)
		args = append(args, f.Category)
	}
	if f.Text != "" {
		qb.WriteString(` AND (instr(lower(p.title), lower(?)) > 0 OR instr(lower(p.summary), lower(?)) > 0)`)
		args = append(args, f.Text, f.Text)
	}

	qb.WriteString(` ORDER BY p.published DESC, p.id`)
	if f.Limit > 0 {
		qb.WriteString(` LIMIT ?`)
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var out []*types.PaperRecord
	for rows.Next() {
		var (
			r                            types.PaperRecord
			authors, links, categories   string
			primary, content             sql.NullString
			updated, published, skipText sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.Summary, &authors, &links, &categories,
			&primary, &updated, &published, &content, &skipText); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := decodeJSON(authors, &r.Authors); err != nil {
			return nil, err
		}
		if err := decodeJSON(links, &r.Links); err != nil {
			return nil, err
		}
		if err := decodeJSON(categories, &r.Categories); err != nil {
			return nil, err
		}
		if primary.Valid {
			r.PrimaryCategory = &primary.String
		}
		if content.Valid {
			r.Content = &content.String
		}
		r.Updated = parseTime(updated)
		r.Published = parseTime(published)
		r.ContentSkipReason = skipText.String
		out = append(out, &r)
	}
	return out, rows.Err()
}

// Count returns the number of catalog records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func formatTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func decodeJSON(data string, v any) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("decoding column: %w", err)
	}
	return nil
}
