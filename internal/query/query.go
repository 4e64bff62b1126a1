// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query builds and validates search API query strings.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Area narrows which field of a paper the search terms match.
type Area string

const (
	AreaAll          Area = "all"
	AreaTitle        Area = "ti"
	AreaAuthor       Area = "au"
	AreaAbstract     Area = "abs"
	AreaComment      Area = "co"
	AreaJournalRef   Area = "jr"
	AreaCategory     Area = "cat"
	AreaReportNumber Area = "rn"
	// AreaIDList treats the search terms as a comma-separated id list.
	AreaIDList Area = "id_list"
)

// Areas lists every supported area.
var Areas = []Area{
	AreaAll, AreaTitle, AreaAuthor, AreaAbstract, AreaComment,
	AreaJournalRef, AreaCategory, AreaReportNumber, AreaIDList,
}

// SortBy selects the result ordering field.
type SortBy string

const (
	SortRelevance       SortBy = "relevance"
	SortSubmittedDate   SortBy = "submittedDate"
	SortLastUpdatedDate SortBy = "lastUpdatedDate"
)

// SortOrder selects the result ordering direction.
type SortOrder string

const (
	OrderAscending  SortOrder = "ascending"
	OrderDescending SortOrder = "descending"
)

// DefaultMaxResults is used when a query leaves MaxResults unset.
const DefaultMaxResults = 10

// Query holds the parameters of one search request.
type Query struct {
	SearchQuery string    `json:"search_query" yaml:"search_query"`
	Area        Area      `json:"area,omitempty" yaml:"area,omitempty"`
	Start       int       `json:"start,omitempty" yaml:"start,omitempty"`
	MaxResults  int       `json:"max_results,omitempty" yaml:"max_results,omitempty"`
	SortBy      SortBy    `json:"sort_by,omitempty" yaml:"sort_by,omitempty"`
	SortOrder   SortOrder `json:"sort_order,omitempty" yaml:"sort_order,omitempty"`
}

// WithDefaults fills unset fields: area all, DefaultMaxResults, relevance,
// descending. Sort order is lowercased.
func (q Query) WithDefaults() Query {
	q.SearchQuery = strings.TrimSpace(q.SearchQuery)
	if q.Area == "" {
		q.Area = AreaAll
	}
	if q.MaxResults == 0 {
		q.MaxResults = DefaultMaxResults
	}
	if q.SortBy == "" {
		q.SortBy = SortRelevance
	}
	q.SortOrder = SortOrder(strings.ToLower(string(q.SortOrder)))
	if q.SortOrder == "" {
		q.SortOrder = OrderDescending
	}
	return q
}

// ValidationError reports one invalid query field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// Validate checks q after applying defaults. All problems are reported
// together.
func (q Query) Validate() error {
	q = q.WithDefaults()

	var errs []error
	if len(q.SearchQuery) <= 1 {
		errs = append(errs, &ValidationError{Field: "search_query", Msg: "must be longer than 1 character"})
	}
	if !slices.Contains(Areas, q.Area) {
		errs = append(errs, &ValidationError{Field: "area", Msg: fmt.Sprintf("must be one of %s, not %q", joinAreas(), q.Area)})
	}
	if q.Start < 0 {
		errs = append(errs, &ValidationError{Field: "start", Msg: "must be >= 0"})
	}
	if q.MaxResults < 1 {
		errs = append(errs, &ValidationError{Field: "max_results", Msg: "must be >= 1"})
	}
	switch q.SortBy {
	case SortRelevance, SortSubmittedDate, SortLastUpdatedDate:
	default:
		errs = append(errs, &ValidationError{Field: "sort_by", Msg: fmt.Sprintf("must be relevance, submittedDate or lastUpdatedDate, not %q", q.SortBy)})
	}
	switch q.SortOrder {
	case OrderAscending, OrderDescending:
	default:
		errs = append(errs, &ValidationError{Field: "sort_order", Msg: fmt.Sprintf("must be ascending or descending, not %q", q.SortOrder)})
	}
	return errors.Join(errs...)
}

// Build returns the URL-encoded query string to append to the search endpoint.
func (q Query) Build() string {
	q = q.WithDefaults()

	v := url.Values{}
	if q.Area == AreaIDList {
		v.Set("id_list", q.SearchQuery)
	} else {
		v.Set("search_query", string(q.Area)+":"+q.SearchQuery)
	}
	v.Set("start", strconv.Itoa(q.Start))
	v.Set("max_results", strconv.Itoa(q.MaxResults))
	v.Set("sortBy", string(q.SortBy))
	v.Set("sortOrder", string(q.SortOrder))
	return v.Encode()
}

// String is a short label for log lines.
func (q Query) String() string {
	q = q.WithDefaults()
	return fmt.Sprintf("%s:%s [%d+%d]", q.Area, q.SearchQuery, q.Start, q.MaxResults)
}

// RequireNonEmpty fails when a named input is blank.
func RequireNonEmpty(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}

func joinAreas() string {
	names := make([]string, len(Areas))
	for i, a := range Areas {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}
