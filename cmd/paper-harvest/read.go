// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-harvest/internal/store"
)

var readCmd = &cobra.Command{
	Use:   "read [search terms...]",
	Short: "Stream papers to stdout as they are retrieved",
	Long: `Read runs the queries like harvest but prints each record to stdout as soon
as its document has been fetched, one JSON object per line. Failed entries are
reported on stderr. With --limit the stream stops after that many records and
the outstanding downloads are cancelled.`,
	Example: `  paper-harvest read --area cat cs.CL --limit 3
  paper-harvest read --pretty "retrieval augmented generation"`,
	RunE: runRead,
}

func init() {
	addQueryFlags(readCmd)
	readCmd.Flags().Int("limit", 0, "stop after this many records (0 = all)")
	readCmd.Flags().Bool("pretty", false, "indent JSON output")
	readCmd.Flags().Bool("save", false, "also persist records to the configured stores")
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	queries, err := queriesFromFlags(cmd, args)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	pretty, _ := cmd.Flags().GetBool("pretty")
	save, _ := cmd.Flags().GetBool("save")

	ctx := cmd.Context()
	var sink store.Sink
	if save {
		sink, err = openSinks(ctx, storeConfig(), true)
		if err != nil {
			return err
		}
		defer sink.Close()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "    ")
	}

	p := newPipeline(harvestConfig(), sink)
	written, failed := 0, 0
	for o, err := range p.Stream(ctx, queries...) {
		if err != nil {
			fmt.Fprintln(os.Stderr, "query failed:", err)
			failed++
			continue
		}
		if o.Failed() {
			fmt.Fprintf(os.Stderr, "skipped %q: %v\n", o.Failure.Identity(), o.Failure.Err)
			continue
		}
		if err := enc.Encode(o.Record); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
		written++
		if limit > 0 && written >= limit {
			break
		}
	}

	logger.Info("read complete", "records", written, "failed_queries", failed)
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}
