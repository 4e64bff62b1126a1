// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package postgres keeps a shared catalog of harvested papers in Postgres.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pdiddy/paper-harvest/internal/store"
	"github.com/pdiddy/paper-harvest/pkg/types"
)

var (
	_ store.Sink    = (*Store)(nil)
	_ store.Querier = (*Store)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS papers (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	summary TEXT NOT NULL,
	authors JSONB NOT NULL,
	links JSONB NOT NULL,
	categories JSONB NOT NULL,
	primary_category TEXT,
	updated TIMESTAMPTZ,
	published TIMESTAMPTZ,
	content TEXT,
	content_skip_reason TEXT NOT NULL DEFAULT '',
	saved_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS papers_categories_idx ON papers USING GIN (categories);
`

// Store is a Postgres-backed paper catalog.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to dsn, verifies the connection and ensures the schema.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{pool: pool}, nil
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

	const query = `
	INSERT INTO papers (
		id, title, summary, authors, links, categories, primary_category,
		updated, published, content, content_skip_reason, saved_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title, summary = EXCLUDED.summary, authors = EXCLUDED.authors,
		links = EXCLUDED.links, categories = EXCLUDED.categories,
		primary_category = EXCLUDED.primary_category, updated = EXCLUDED.updated,
		published = EXCLUDED.published, content = EXCLUDED.content,
		content_skip_reason = EXCLUDED.content_skip_reason, saved_at = EXCLUDED.saved_at
	`
	_, err = s.pool.Exec(ctx, query,
		rec.ID, rec.Title, rec.Summary, authors, links, categories, rec.PrimaryCategory,
		nullTime(rec.Updated), nullTime(rec.Published), rec.Content, rec.ContentSkipReason,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting paper %s: %w", rec.ID, err)
	}
	return nil
}

// Query returns catalog records newest-published first.
func (s *Store) Query(ctx context.Context, f store.Filter) ([]*types.PaperRecord, error) {
	query := `SELECT id, title, summary, authors, links, categories, primary_category,
		updated, published, content, content_skip_reason FROM papers WHERE 1=1`
	args := []any{}
	paramCount := 1

	if f.Category != "" {
		query += fmt.Sprintf(` AND categories ? $%d`, paramCount)
		args = append(args, f.Category)
		paramCount++
	}
	if f.Text != "" {
		query += fmt.Sprintf(` AND (strpos(lower(title), lower($%d)) > 0 OR strpos(lower(summary), lower($%d)) > 0)`, paramCount, paramCount)
		args = append(args, f.Text)
		paramCount++
	}

	query += ` ORDER BY published DESC NULLS LAST, id`

	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, paramCount)
		args = append(args, f.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var out []*types.PaperRecord
	for rows.Next() {
		var (
			r                          types.PaperRecord
			authors, links, categories []byte
			updated, published         *time.Time
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.Summary, &authors, &links, &categories,
			&r.PrimaryCategory, &updated, &published, &r.Content, &r.ContentSkipReason); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal(authors, &r.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors: %w", err)
		}
		if err := json.Unmarshal(links, &r.Links); err != nil {
			return nil, fmt.Errorf("decoding links: %w", err)
		}
		if err := json.Unmarshal(categories, &r.Categories); err != nil {
			return nil, fmt.Errorf("decoding categories: %w", err)
		}
		if updated != nil {
			r.Updated = updated.UTC()
		}
		if published != nil {
			r.Published = published.UTC()
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	return out, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
