// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/telescan/internal/analyze"
	"github.com/meshintel/telescan/internal/report"
	"github.com/meshintel/telescan/internal/store"
	"github.com/meshintel/telescan/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Aggregate article records into corpus summaries",
	Long: `Report reads the analysis records under data/records/ (or the corpus
database with --from-store) and prints a breakdown of the corpus by study
design, data source, population, and measure category. Flags write the
combined per-article CSV and the flat measures CSV alongside it.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("output-dir", "data", "base directory for analysis output (contains records/)")
	reportCmd.Flags().String("data-dir", "data", "base directory for derived data (contains index/)")
	reportCmd.Flags().Bool("from-store", false, "read records from the corpus database instead of YAML")
	reportCmd.Flags().String("csv", "", "write the combined per-article CSV to this path")
	reportCmd.Flags().String("measures-csv", "", "write the flat measures CSV to this path")
	reportCmd.Flags().Bool("json", false, "print the summary as JSON instead of a table")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	outputDir, _ := cmd.Flags().GetString("output-dir")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	fromStore, _ := cmd.Flags().GetBool("from-store")
	csvPath, _ := cmd.Flags().GetString("csv")
	measuresCSVPath, _ := cmd.Flags().GetString("measures-csv")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	records, err := loadReportRecords(fromStore, outputDir, dataDir)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no article records found; run analyze first")
	}

	summary := report.Aggregate(records)

	if jsonOutput {
		if err := report.WriteJSON(os.Stdout, summary); err != nil {
			return err
		}
	} else {
		if err := report.WriteSummaryTable(os.Stdout, summary); err != nil {
			return err
		}
	}

	if csvPath != "" {
		if err := writeCSVFile(csvPath, func(f *os.File) error {
			return report.WriteRecordsCSV(f, records)
		}); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", csvPath)
	}
	if measuresCSVPath != "" {
		if err := writeCSVFile(measuresCSVPath, func(f *os.File) error {
			return report.WriteMeasuresCSV(f, summary)
		}); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", measuresCSVPath)
	}
	return nil
}

func loadReportRecords(fromStore bool, outputDir, dataDir string) ([]types.ArticleRecord, error) {
	if !fromStore {
		return analyze.LoadRecords(outputDir)
	}
	s, err := store.NewStore(types.StoreConfig{DataDir: dataDir})
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.LoadRecords(context.Background())
}

func writeCSVFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return write(f)
}
