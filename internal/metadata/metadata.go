// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata maps a converted search entry onto a PaperRecord.
//
// Upstream feeds serialize a repeated element as a single node when it
// occurs once and as a sequence otherwise, so every extractor here works on
// the coerced []*xmltree.Node form and never cares which shape it got.
// Only id and title are required; everything else degrades to empty.
package metadata

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/paper-harvest/internal/textclean"
	"github.com/pdiddy/paper-harvest/internal/xmltree"
	"github.com/pdiddy/paper-harvest/pkg/types"
)

// DocumentMarker is the substring that identifies a downloadable document link.
const DocumentMarker = "/pdf"

// Entry field names in the search API's Atom schema.
const (
	fieldID              = "id"
	fieldTitle           = "title"
	fieldSummary         = "summary"
	fieldUpdated         = "updated"
	fieldPublished       = "published"
	fieldAuthor          = "author"
	fieldAuthorName      = "name"
	fieldLink            = "link"
	fieldCategory        = "category"
	fieldPrimaryCategory = "primary_category"
)

// ErrMissingField matches any MetadataError via errors.Is.
var ErrMissingField = errors.New("missing required field")

// MetadataError reports a required entry field that is absent or empty.
type MetadataError struct {
	Field string
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingField, e.Field)
}

func (e *MetadataError) Is(target error) bool {
	return target == ErrMissingField
}

// Normalize builds a PaperRecord from one entry node.
func Normalize(entry *xmltree.Node) (*types.PaperRecord, error) {
	id := textField(entry, fieldID)
	if id == "" {
		return nil, &MetadataError{Field: fieldID}
	}
	title := textField(entry, fieldTitle)
	if title == "" {
		return nil, &MetadataError{Field: fieldTitle}
	}

	return &types.PaperRecord{
		ID:              id,
		Updated:         timestamp(entry, fieldUpdated),
		Published:       timestamp(entry, fieldPublished),
		Title:           title,
		Summary:         textField(entry, fieldSummary),
		Authors:         Authors(entry.Children(fieldAuthor)),
		Links:           Links(entry.Children(fieldLink)),
		Categories:      Categories(entry.Children(fieldCategory)),
		PrimaryCategory: PrimaryCategory(entry.Children(fieldPrimaryCategory)),
	}, nil
}

// Identify returns the best available handle for an entry that may have
// failed normalization: its cleaned title, else its id, else "".
func Identify(entry *xmltree.Node) string {
	if title := textField(entry, fieldTitle); title != "" {
		return title
	}
	return textField(entry, fieldID)
}

// textField reads the cleaned text of the first child named key.
func textField(entry *xmltree.Node, key string) string {
	return textclean.Clean(entry.ChildText(key))
}

func timestamp(entry *xmltree.Node, key string) time.Time {
	raw := strings.TrimSpace(entry.ChildText(key))
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// Authors extracts author names in order, dropping authors without a name.
func Authors(nodes []*xmltree.Node) []string {
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if name := textclean.Clean(n.ChildText(fieldAuthorName)); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Links converts link nodes in order. Nodes carrying none of href, rel or
// type are dropped.
func Links(nodes []*xmltree.Node) []types.Link {
	links := make([]types.Link, 0, len(nodes))
	for _, n := range nodes {
		if n.IsEmpty() {
			continue
		}
		href, _ := n.Attr("href")
		rel, _ := n.Attr("rel")
		typ, _ := n.Attr("type")
		l := types.Link{Href: href, Rel: rel, Type: typ}
		if l == (types.Link{}) {
			continue
		}
		links = append(links, l)
	}
	return links
}

// Categories returns the distinct term attributes, sorted.
func Categories(nodes []*xmltree.Node) []string {
	seen := make(map[string]struct{}, len(nodes))
	terms := make([]string, 0, len(nodes))
	for _, n := range nodes {
		term, ok := n.Attr("term")
		if !ok || term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// PrimaryCategory returns the term of the first primary category node, or nil.
func PrimaryCategory(nodes []*xmltree.Node) *string {
	if len(nodes) == 0 {
		return nil
	}
	term, ok := nodes[0].Attr("term")
	if !ok || term == "" {
		return nil
	}
	return &term
}

// DocumentLink returns the first href, in link order, containing DocumentMarker.
func DocumentLink(links []types.Link) (string, bool) {
	for _, l := range links {
		if strings.Contains(l.Href, DocumentMarker) {
			return l.Href, true
		}
	}
	return "", false
}
