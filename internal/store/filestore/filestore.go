// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filestore writes one document per PaperRecord into a directory.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-harvest/internal/store"
	"github.com/pdiddy/paper-harvest/pkg/types"
)

// DefaultDir is the output directory used when none is configured.
const DefaultDir = "ArxivPapers"

// Store is a store.Sink backed by a directory of JSON or YAML files.
type Store struct {
	dir       string
	format    types.FileFormat
	timestamp bool

	// now is replaced in tests to pin timestamp suffixes.
	now func() time.Time
}

// New resolves and creates the output directory.
func New(cfg types.StoreConfig) (*Store, error) {
	format := cfg.Format
	if format == "" {
		format = types.FormatJSON
	}
	if format != types.FormatJSON && format != types.FormatYAML {
		return nil, fmt.Errorf("unsupported file format %q", format)
	}
	dir := cfg.OutputDir
	if dir == "" {
		dir = DefaultDir
	}
	abs, err := store.ResolveDir(dir)
	if err != nil {
		return nil, err
	}
	return &Store{dir: abs, format: format, timestamp: cfg.AddTimestamp, now: time.Now}, nil
}

// Dir returns the absolute output directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file a record named name would be written to now.
func (s *Store) Path(name string) string {
	base := store.SanitizeFilename(name)
	if s.timestamp {
		base += "_" + store.Timestamp(s.now())
	}
	return filepath.Join(s.dir, base+"."+string(s.format))
}

// Save encodes rec and writes it atomically, replacing any file of the
// same name.
func (s *Store) Save(ctx context.Context, rec *types.PaperRecord, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, rec, s.format); err != nil {
		return fmt.Errorf("encoding %s: %w", rec.Identity(), err)
	}

	path := s.Path(name)
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("saving %s: %w", rec.Identity(), err)
	}
	return nil
}

// Close is a no-op; files are closed as they are written.
func (s *Store) Close() error { return nil }

// Encode writes rec in the given format. JSON uses four-space indentation
// and leaves non-ASCII and markup characters unescaped.
func Encode(w io.Writer, rec *types.PaperRecord, format types.FileFormat) error {
	switch format {
	case types.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rec); err != nil {
			return err
		}
		return enc.Close()
	case types.FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		enc.SetEscapeHTML(false)
		return enc.Encode(rec)
	default:
		return fmt.Errorf("unsupported file format %q", format)
	}
}

// Load reads a record file written by Save. The format follows the
// file extension.
func Load(path string) (*types.PaperRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec types.PaperRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &rec)
	default:
		err = json.Unmarshal(data, &rec)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &rec, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".paper-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
