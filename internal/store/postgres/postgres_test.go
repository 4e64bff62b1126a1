// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-harvest/internal/store"
	"github.com/pdiddy/paper-harvest/pkg/types"
)

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("PAPER_HARVEST_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("Skipping Postgres store test: PAPER_HARVEST_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	s, err := New(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()

	category := "test." + uuid.NewString()
	primary := category
	rec := &types.PaperRecord{
		ID:              "pgtest-" + uuid.NewString(),
		Title:           "Postgres Round Trip",
		Summary:         "stored as jsonb",
		Published:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Authors:         []string{"Ada Lovelace"},
		Links:           []types.Link{{Href: "http://arxiv.org/pdf/1", Rel: "related"}},
		Categories:      []string{category},
		PrimaryCategory: &primary,
	}
	require.NoError(t, s.Save(ctx, rec, ""))

	rec.SetContent("Hello world")
	require.NoError(t, s.Save(ctx, rec, ""))

	got, err := s.Query(ctx, store.Filter{Category: category})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec, got[0])

	got, err = s.Query(ctx, store.Filter{Category: category, Text: "ROUND TRIP", Limit: 5})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
