// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-harvest/internal/query"
)

// addQueryFlags registers the flags shared by harvest and read.
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().String("area", string(query.AreaAll), "search area: all, ti, au, abs, co, jr, cat, rn, id_list")
	cmd.Flags().Int("start", 0, "index of the first result")
	cmd.Flags().Int("max-results", query.DefaultMaxResults, "results per query")
	cmd.Flags().String("sort-by", string(query.SortRelevance), "relevance, submittedDate or lastUpdatedDate")
	cmd.Flags().String("sort-order", string(query.OrderDescending), "ascending or descending")
	cmd.Flags().StringP("file", "f", "", "YAML file with a queries: list")
}

// queriesFromFlags builds one query per search-terms argument, then
// appends the queries of --file. Every query is validated.
func queriesFromFlags(cmd *cobra.Command, args []string) ([]query.Query, error) {
	area, _ := cmd.Flags().GetString("area")
	start, _ := cmd.Flags().GetInt("start")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	sortBy, _ := cmd.Flags().GetString("sort-by")
	sortOrder, _ := cmd.Flags().GetString("sort-order")
	file, _ := cmd.Flags().GetString("file")

	var queries []query.Query
	for _, terms := range args {
		if err := query.RequireNonEmpty("search terms", terms); err != nil {
			return nil, err
		}
		queries = append(queries, query.Query{
			SearchQuery: terms,
			Area:        query.Area(area),
			Start:       start,
			MaxResults:  maxResults,
			SortBy:      query.SortBy(sortBy),
			SortOrder:   query.SortOrder(sortOrder),
		})
	}

	if file != "" {
		fromFile, err := query.LoadFile(file)
		if err != nil {
			return nil, err
		}
		queries = append(queries, fromFile...)
	}

	if len(queries) == 0 {
		return nil, errors.New("provide search terms as arguments or a --file of queries")
	}

	var errs []error
	for _, q := range queries {
		if err := q.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("query %q: %w", q.SearchQuery, err))
		}
	}
	return queries, errors.Join(errs...)
}
