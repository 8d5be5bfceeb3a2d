// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/telescan/internal/analyze"
	"github.com/meshintel/telescan/internal/report"
	"github.com/meshintel/telescan/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Build metadata records from converted article text",
	Long: `Analyze runs the rule-based extractors over every text file under
articles/text/, producing one YAML record per article under data/records/
with title, authors, publication year, study design, data source,
population, sample size, duration, and candidate utilization measures.
Unchanged articles are skipped on subsequent runs.

After the run it prints a corpus breakdown by study design, data source,
population, and measure category.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("articles-dir", "articles", "base directory for articles (contains text/)")
	analyzeCmd.Flags().String("output-dir", "data", "base directory for analysis output (contains records/)")
	analyzeCmd.Flags().Int("current-year", 0, "upper bound for publication-year extraction (0 = this year)")
	analyzeCmd.Flags().Bool("no-summary", false, "suppress the corpus breakdown after the run")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	articlesDir, _ := cmd.Flags().GetString("articles-dir")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	currentYear, _ := cmd.Flags().GetInt("current-year")
	noSummary, _ := cmd.Flags().GetBool("no-summary")

	cfg := types.AnalysisConfig{
		ArticlesDir: articlesDir,
		OutputDir:   outputDir,
		CurrentYear: currentYear,
	}

	summary, err := analyze.AnalyzeAll(cfg, os.Stdout)
	if err != nil {
		return err
	}

	if !noSummary {
		records, err := analyze.LoadRecords(outputDir)
		if err != nil {
			return err
		}
		if err := report.WriteSummaryTable(os.Stdout, report.Aggregate(records)); err != nil {
			return err
		}
	}

	if summary.HasFailures() {
		return fmt.Errorf("%d article(s) failed analysis", summary.Failed)
	}
	return nil
}
