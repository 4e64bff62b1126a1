// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists finished PaperRecords. The filestore backend
// writes one JSON or YAML document per record; the sqlite and postgres
// backends keep a queryable catalog.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/paper-harvest/pkg/types"
)

// Sink receives finished records. name is a human-readable handle
// (usually the title) that file-based sinks turn into a file name.
type Sink interface {
	Save(ctx context.Context, rec *types.PaperRecord, name string) error
	Close() error
}

// Filter selects catalog records.
type Filter struct {
	// Category matches records carrying this category term.
	Category string
	// Text matches records whose title or summary contains it,
	// case-insensitively.
	Text string
	// Limit caps the number of records returned (0 = no limit).
	Limit int
}

// Querier is implemented by catalog sinks.
type Querier interface {
	Query(ctx context.Context, f Filter) ([]*types.PaperRecord, error)
}

// TimestampLayout is the fixed-width suffix appended in timestamped mode.
const TimestampLayout = "20060102150405"

// maxNameBytes caps a sanitized file name, leaving room for a suffix.
const maxNameBytes = 200

// filenameReplacements is applied in order. The last pair collapses the
// double underscores left behind by removals.
var filenameReplacements = []struct{ old, new string }{
	{" ", "_"},
	{":", ""},
	{`\`, ""},
	{"/", ""},
	{"'", ""},
	{`"`, ""},
	{"-", ""},
	{"@", ""},
	{"\t", ""},
	{"\n", ""},
	{"\r", ""},
	{"?", ""},
	{"!", ""},
	{"*", ""},
	{"<", ""},
	{">", ""},
	{"|", ""},
	{"__", "_"},
}

// SanitizeFilename turns name into a safe file name without extension.
// A name that is empty after sanitization becomes a random hex id.
func SanitizeFilename(name string) string {
	for _, r := range filenameReplacements {
		name = strings.ReplaceAll(name, r.old, r.new)
	}
	name = strings.Trim(name, "_.")
	if len(name) > maxNameBytes {
		name = truncateUTF8(name, maxNameBytes)
	}
	if name == "" {
		return RandomName()
	}
	return name
}

// RandomName returns a 32-character hex identifier.
func RandomName() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Timestamp formats t as YYYYMMDDhhmmss.
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ResolveDir returns the absolute form of dir, creating it if needed.
func ResolveDir(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("storage directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", abs, err)
	}
	return abs, nil
}

func truncateUTF8(s string, n int) string {
	for n > 0 && n < len(s) && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}

// Multi fans each record out to every sink in order and stops at the
// first failure.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

type multi []Sink

func (m multi) Save(ctx context.Context, rec *types.PaperRecord, name string) error {
	for _, s := range m {
		if err := s.Save(ctx, rec, name); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
