// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-harvest/internal/store"
	"github.com/pdiddy/paper-harvest/internal/store/sqlite"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List papers stored in the SQLite catalog",
	Long: `List prints papers previously harvested into the SQLite catalog given by
--sqlite-path, newest published first. Filter by category term or by text
contained in the title or summary.`,
	Example: `  paper-harvest list --sqlite-path papers.db --category cs.CL --limit 20`,
	RunE:    runList,
}

func init() {
	listCmd.Flags().String("category", "", "only papers carrying this category term")
	listCmd.Flags().String("text", "", "only papers whose title or summary contains this text")
	listCmd.Flags().Int("limit", 50, "maximum number of papers (0 = all)")
	listCmd.Flags().Bool("json", false, "output records as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	path := viper.GetString("sqlite_path")
	if path == "" {
		return errors.New("list needs --sqlite-path (or sqlite_path in the config file)")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("catalog %s: %w", path, err)
	}

	category, _ := cmd.Flags().GetString("category")
	text, _ := cmd.Flags().GetString("text")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	catalog, err := sqlite.New(path)
	if err != nil {
		return err
	}
	defer catalog.Close()

	records, err := catalog.Query(cmd.Context(), store.Filter{Category: category, Text: text, Limit: limit})
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	for _, r := range records {
		date := "----------"
		if !r.Published.IsZero() {
			date = r.Published.Format("2006-01-02")
		}
		content := "no text"
		if r.HasContent() {
			content = fmt.Sprintf("%d chars", len(*r.Content))
		}
		fmt.Printf("%s  %-32s  %s  [%s] (%s)\n", date, r.ID, r.Title, strings.Join(r.Categories, ","), content)
	}
	fmt.Fprintf(os.Stderr, "%d paper(s)\n", len(records))
	return nil
}
