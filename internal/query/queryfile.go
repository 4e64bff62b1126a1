// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// File is the on-disk list of queries for a batch run. Defaults apply to
// every query that leaves the corresponding field unset.
//
//	defaults:
//	  max_results: 5
//	  sort_by: submittedDate
//	queries:
//	  - search_query: transformer
//	    area: ti
type File struct {
	Defaults Query   `yaml:"defaults,omitempty"`
	Queries  []Query `yaml:"queries"`
}

// LoadFile reads a query file and returns its validated queries.
func LoadFile(path string) ([]Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	if len(f.Queries) == 0 {
		return nil, fmt.Errorf("query file %s lists no queries", path)
	}

	out := make([]Query, 0, len(f.Queries))
	for i, q := range f.Queries {
		q = f.Defaults.merge(q)
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("query %d: %w", i+1, err)
		}
		out = append(out, q.WithDefaults())
	}
	return out, nil
}

// WriteFile saves queries to path as YAML.
func WriteFile(path string, queries []Query) error {
	data, err := yaml.Marshal(&File{Queries: queries})
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// merge fills q's unset fields from d.
func (d Query) merge(q Query) Query {
	if q.Area == "" {
		q.Area = d.Area
	}
	if q.Start == 0 {
		q.Start = d.Start
	}
	if q.MaxResults == 0 {
		q.MaxResults = d.MaxResults
	}
	if q.SortBy == "" {
		q.SortBy = d.SortBy
	}
	if q.SortOrder == "" {
		q.SortOrder = d.SortOrder
	}
	return q
}
