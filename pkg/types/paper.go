// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-harvest pipeline.
// PaperRecord is produced by the metadata normalizer, completed by the
// retrieval pipeline, and handed to the persistence sinks.
package types

import "time"

// Link is one link element of a search entry. Empty fields were absent
// from the source attribute set.
type Link struct {
	Href string `json:"href,omitempty" yaml:"href,omitempty"`
	Rel  string `json:"rel,omitempty" yaml:"rel,omitempty"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// PaperRecord is the normalized form of one search entry.
type PaperRecord struct {
	// ID is the entry identifier as published by the search API
	// (e.g. "http://arxiv.org/abs/2301.07041v1").
	ID string `json:"id" yaml:"id"`

	// Updated is the last-updated timestamp; zero when absent or unparsable.
	Updated time.Time `json:"updated,omitzero" yaml:"updated,omitempty"`

	// Published is the first-published timestamp; zero when absent or unparsable.
	Published time.Time `json:"published,omitzero" yaml:"published,omitempty"`

	Title   string `json:"title" yaml:"title"`
	Summary string `json:"summary" yaml:"summary"`

	// Authors lists author names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Links lists the entry links in source order.
	Links []Link `json:"links" yaml:"links"`

	// Categories holds the distinct category terms, sorted.
	Categories []string `json:"categories" yaml:"categories"`

	// PrimaryCategory is nil when the entry carries no primary category term.
	PrimaryCategory *string `json:"primary_category" yaml:"primary_category"`

	// Content is the extracted document text; nil when no document was fetched.
	Content *string `json:"content" yaml:"content"`

	// ContentSkipReason explains why Content is nil.
	ContentSkipReason string `json:"content_skip_reason,omitempty" yaml:"content_skip_reason,omitempty"`
}

// HasContent reports whether document text was attached to the record.
func (r *PaperRecord) HasContent() bool {
	return r.Content != nil
}

// HasPrimaryCategory reports whether the record carries a primary category.
func (r *PaperRecord) HasPrimaryCategory() bool {
	return r.PrimaryCategory != nil
}

// SetContent attaches document text to the record.
func (r *PaperRecord) SetContent(text string) {
	r.Content = &text
	r.ContentSkipReason = ""
}

// Identity returns a short human-readable handle for log lines: the title
// when present, otherwise the id.
func (r *PaperRecord) Identity() string {
	if r.Title != "" {
		return r.Title
	}
	return r.ID
}
