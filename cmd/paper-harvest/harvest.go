// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-harvest/internal/harvest"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest [search terms...]",
	Short: "Download papers matching one or more queries and save them",
	Long: `Harvest runs each query in turn against the search API. The entries of one
query are processed concurrently: metadata is normalized, the PDF is downloaded
and its text extracted. Every finished record is saved as a JSON or YAML file
named after its title, and upserted into the SQLite and Postgres catalogs when
configured. A failing query does not stop the queries after it.`,
	Example: `  paper-harvest harvest --area ti "graph neural networks"
  paper-harvest harvest --area au --max-results 25 Hinton LeCun
  paper-harvest harvest -f queries.yaml --format yaml --timestamp`,
	RunE: runHarvest,
}

func init() {
	addQueryFlags(harvestCmd)
	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	queries, err := queriesFromFlags(cmd, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sink, err := openSinks(ctx, storeConfig(), true)
	if err != nil {
		return err
	}
	defer sink.Close()

	p := newPipeline(harvestConfig(), sink)
	reports := p.RunQueries(ctx, queries)

	failedQueries := 0
	for _, r := range reports {
		if r.Err != nil {
			failedQueries++
			fmt.Fprintf(os.Stdout, "failed  %s: %v\n", r.Query, r.Err)
			continue
		}
		fmt.Fprintf(os.Stdout, "%-7s %s: processed %d, failed %d, without content %d\n",
			r.State, r.Query, r.Summary.Processed, r.Summary.Failed, r.Summary.NoContent)
		printFailures(r.Outcomes)
	}

	if failedQueries > 0 {
		return fmt.Errorf("%d of %d query(s) failed", failedQueries, len(reports))
	}
	return nil
}

func printFailures(outcomes []harvest.Outcome) {
	for _, o := range outcomes {
		if o.Failed() {
			fmt.Fprintf(os.Stdout, "        skipped %q: %v\n", o.Failure.Identity(), o.Failure.Err)
		}
	}
}
