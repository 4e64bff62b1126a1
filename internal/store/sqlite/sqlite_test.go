// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-harvest/internal/store"
	"github.com/pdiddy/paper-harvest/pkg/types"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "catalog", "papers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func record(id, title string, published time.Time, categories ...string) *types.PaperRecord {
	return &types.PaperRecord{
		ID:         id,
		Title:      title,
		Summary:    "summary of " + title,
		Published:  published,
		Authors:    []string{"Ada Lovelace"},
		Links:      []types.Link{{Href: "http://arxiv.org/pdf/" + id}},
		Categories: categories,
	}
}

func TestSaveAndQueryRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	primary := "cs.CL"
	rec := record("2301.1", "Attention", time.Date(2023, 1, 16, 10, 0, 0, 0, time.UTC), "cs.CL", "cs.LG")
	rec.PrimaryCategory = &primary
	rec.Updated = time.Date(2023, 1, 17, 18, 59, 59, 0, time.UTC)
	rec.SetContent("Hello world")

	require.NoError(t, s.Save(ctx, rec, "ignored"))

	got, err := s.Query(ctx, store.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec, got[0])
}

func TestSaveNullableColumns(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	rec := &types.PaperRecord{
		ID: "x", Title: "Bare", Authors: []string{}, Links: []types.Link{}, Categories: []string{},
		ContentSkipReason: "no document link",
	}
	require.NoError(t, s.Save(ctx, rec, ""))

	got, err := s.Query(ctx, store.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Content)
	assert.Nil(t, got[0].PrimaryCategory)
	assert.True(t, got[0].Published.IsZero())
	assert.Equal(t, "no document link", got[0].ContentSkipReason)
}

func TestSaveUpserts(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	rec := record("1", "Old Title", time.Time{}, "cs.AI")
	require.NoError(t, s.Save(ctx, rec, ""))
	rec.Title = "New Title"
	require.NoError(t, s.Save(ctx, rec, ""))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Query(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "New Title", got[0].Title)
}

func TestQueryFilters(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, s.Save(ctx, record("a", "Graph Networks", day(1), "cs.LG"), ""))
	require.NoError(t, s.Save(ctx, record("b", "Language Models", day(2), "cs.CL", "cs.LG"), ""))
	require.NoError(t, s.Save(ctx, record("c", "Number Theory", day(3), "math.NT"), ""))

	ids := func(recs []*types.PaperRecord) []string {
		out := make([]string, len(recs))
		for i, r := range recs {
			out[i] = r.ID
		}
		return out
	}

	tests := []struct {
		name   string
		filter store.Filter
		want   []string
	}{
		{"all newest first", store.Filter{}, []string{"c", "b", "a"}},
		{"category", store.Filter{Category: "cs.LG"}, []string{"b", "a"}},
		{"category no prefix match", store.Filter{Category: "cs"}, []string{}},
		{"limit", store.Filter{Limit: 2}, []string{"c", "b"}},
		{"text in title", store.Filter{Text: "language"}, []string{"b"}},
		{"text in summary", store.Filter{Text: "SUMMARY OF NUMBER"}, []string{"c"}},
		{"combined", store.Filter{Category: "cs.LG", Text: "graph"}, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Query(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestConcurrentSaves(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("p%02d", i)
			assert.NoError(t, s.Save(ctx, record(id, id, time.Time{}), ""))
		}()
	}
	wg.Wait()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}
