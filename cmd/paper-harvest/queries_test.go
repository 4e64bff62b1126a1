// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-harvest/internal/query"
)

func queryCmd(t *testing.T, flags ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addQueryFlags(cmd)
	require.NoError(t, cmd.ParseFlags(flags))
	return cmd
}

func TestQueriesFromFlags(t *testing.T) {
	cmd := queryCmd(t, "--area", "au", "--max-results", "25", "--sort-by", "submittedDate")

	qs, err := queriesFromFlags(cmd, []string{"Hinton", "LeCun"})
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, query.Query{
		SearchQuery: "Hinton",
		Area:        query.AreaAuthor,
		MaxResults:  25,
		SortBy:      query.SortSubmittedDate,
		SortOrder:   query.OrderDescending,
	}, qs[0])
	assert.Equal(t, "LeCun", qs[1].SearchQuery)
}

func TestQueriesFromFlagsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.yaml")
	require.NoError(t, os.WriteFile(path, []byte("queries:\n  - search_query: cs.CL\n    area: cat\n"), 0o644))

	qs, err := queriesFromFlags(queryCmd(t, "-f", path), nil)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, query.AreaCategory, qs[0].Area)
}

func TestQueriesFromFlagsErrors(t *testing.T) {
	_, err := queriesFromFlags(queryCmd(t), nil)
	assert.ErrorContains(t, err, "provide search terms")

	_, err = queriesFromFlags(queryCmd(t), []string{"  "})
	assert.ErrorContains(t, err, "cannot be empty")

	_, err = queriesFromFlags(queryCmd(t, "--area", "nope"), []string{"graphs"})
	var ve *query.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestConfigKey(t *testing.T) {
	assert.Equal(t, "fetch_timeout", configKey("fetch-timeout"))
	assert.Equal(t, "workers", configKey("workers"))
}
