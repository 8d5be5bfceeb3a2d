// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meshintel/telescan/internal/store"
	"github.com/meshintel/telescan/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the corpus database (ingest, search)",
	Long: `Store manages a local SQLite corpus database built from analysis
records. Use subcommands to index records or search measure sentences.`,
}

// --- ingest subcommand ---

var storeIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index analysis records into the corpus database",
	Long: `Ingest reads record YAML files from data/records/, ingests them into a
SQLite database with FTS5 indexing over measure sentences. Unchanged
records are skipped on subsequent runs.`,
	RunE: runStoreIngest,
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	cfg, recordsDir := storeConfig(cmd)

	s, err := store.NewStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.Ingest(context.Background(), recordsDir, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d record(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- search subcommand ---

var storeSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search measure sentences with full-text search and filters",
	Long: `Search queries the corpus database using FTS5 full-text search over
measure sentences, structured filters (category, article), or a
combination of both.`,
	RunE: runStoreSearch,
}

func runStoreSearch(cmd *cobra.Command, args []string) error {
	cfg, _ := storeConfig(cmd)
	s, err := store.NewStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --category, or --article")
	}

	hits, err := s.SearchMeasures(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(hits, jsonOutput)
}

func formatSearchOutput(hits []store.MeasureHit, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-20s  %-60s  %s\n", "Rank", "Article", "Measure", "Categories")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for i, h := range hits {
		desc := h.Description
		if len(desc) > 60 {
			desc = desc[:57] + "..."
		}
		article := h.ArticleID
		if len(article) > 20 {
			article = article[:17] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-20s  %-60s  %s\n",
			i+1, article, desc, strings.Join(h.Categories, ", "))
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(hits))
	return nil
}

// --- shared helpers ---

func storeConfig(cmd *cobra.Command) (types.StoreConfig, string) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	if dataDir == "" {
		dataDir = "data"
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	cfg := types.StoreConfig{
		DataDir:    dataDir,
		MaxResults: maxResults,
	}
	return cfg, filepath.Join(dataDir, "records")
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	category, _ := cmd.Flags().GetString("category")
	articleID, _ := cmd.Flags().GetString("article")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Query:      queryText,
		Category:   category,
		ArticleID:  articleID,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	storeCmd.PersistentFlags().String("data-dir", "data", "base directory for derived data (contains records/, index/)")
	storeCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Search flags.
	storeSearchCmd.Flags().String("query", "", "full-text search query over measure sentences")
	storeSearchCmd.Flags().String("category", "", "filter by measure category: Binary, Count, Rate, Percentage")
	storeSearchCmd.Flags().String("article", "", "filter by article identifier")
	storeSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeSearchCmd.Flags().Bool("json", false, "output results as JSON")

	// Wire subcommands.
	storeCmd.AddCommand(storeIngestCmd)
	storeCmd.AddCommand(storeSearchCmd)

	rootCmd.AddCommand(storeCmd)
}
