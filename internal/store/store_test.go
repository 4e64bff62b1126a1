// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-harvest/pkg/types"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Deep Learning: A Survey?", "Deep_Learning_A_Survey"},
		{"Self-Attention @ Scale!", "SelfAttention_Scale"},
		{`a/b\c "quoted" 'single'`, "abc_quoted_single"},
		{"tabs\tand\nnewlines", "tabsandnewlines"},
		{"  leading and trailing  ", "leading_and_trailing"},
		{"x*y<z>|w", "xyzw"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SanitizeFilename(tt.in)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, " ")
			assert.NotContains(t, got, ":")
			assert.NotContains(t, got, "?")
		})
	}
}

func TestSanitizeFilenameFallsBackToRandom(t *testing.T) {
	hex := regexp.MustCompile(`^[0-9a-f]{32}$`)
	for _, in := range []string{"", "???", " : "} {
		got := SanitizeFilename(in)
		assert.Regexp(t, hex, got, "input %q", in)
	}
	assert.NotEqual(t, SanitizeFilename(""), SanitizeFilename(""))
}

func TestSanitizeFilenameTruncates(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("é", 300))
	assert.LessOrEqual(t, len(got), maxNameBytes)
	assert.True(t, strings.HasPrefix(strings.Repeat("é", 300), got))
}

func TestTimestamp(t *testing.T) {
	ts := Timestamp(time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC))
	assert.Equal(t, "20260304050607", ts)
	assert.Len(t, ts, 14)
}

func TestResolveDir(t *testing.T) {
	base := t.TempDir()
	dir, err := ResolveDir(filepath.Join(base, "nested", "papers"))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = ResolveDir(" ")
	assert.Error(t, err)
}

type recordingSink struct {
	names  []string
	err    error
	closed bool
}

func (r *recordingSink) Save(_ context.Context, _ *types.PaperRecord, name string) error {
	r.names = append(r.names, name)
	return r.err
}

func (r *recordingSink) Close() error {
	r.closed = true
	return r.err
}

func TestMulti(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := Multi(a, b)

	require.NoError(t, m.Save(context.Background(), &types.PaperRecord{ID: "1"}, "one"))
	assert.Equal(t, []string{"one"}, a.names)
	assert.Equal(t, []string{"one"}, b.names)

	require.NoError(t, m.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestMultiStopsAtFirstFailure(t *testing.T) {
	boom := errors.New("disk full")
	a, b := &recordingSink{err: boom}, &recordingSink{}
	m := Multi(a, b)

	assert.ErrorIs(t, m.Save(context.Background(), &types.PaperRecord{}, "x"), boom)
	assert.Empty(t, b.names)
	assert.ErrorIs(t, m.Close(), boom)
}
