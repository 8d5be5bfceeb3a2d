// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report aggregates article records into corpus summaries and
// renders them as text tables, CSV, and JSON.
// Implements: prd004-reporting (R1-R3).
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/meshintel/telescan/internal/patterns"
	"github.com/meshintel/telescan/pkg/types"
)

// Aggregate builds a corpus summary from the given records. The input
// slice is never mutated; records are summarized in identifier order so
// repeated runs over the same corpus produce identical output.
func Aggregate(records []types.ArticleRecord) types.CorpusSummary {
	sorted := make([]types.ArticleRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Identifier < sorted[j].Identifier
	})

	summary := types.CorpusSummary{
		Articles: len(sorted),
		FieldCounts: map[string]map[string]int{
			"study_design": {},
			"data_source":  {},
			"population":   {},
		},
		MeasureCategoryCounts: map[string]int{},
	}

	for _, r := range sorted {
		summary.FieldCounts["study_design"][r.StudyDesign]++
		summary.FieldCounts["data_source"][r.DataSource]++

		// The population breakdown counts labels, not articles, and
		// leaves unclassified articles out.
		for _, pop := range r.Population {
			summary.FieldCounts["population"][pop]++
		}

		for _, m := range r.Measures {
			categories := m.Categories
			if len(categories) == 0 {
				categories = []string{patterns.OtherMeasureCategory}
			}
			for _, cat := range categories {
				summary.MeasureRows = append(summary.MeasureRows, types.MeasureRow{
					Identifier:  r.Identifier,
					Description: m.Description,
					Category:    cat,
				})
				summary.MeasureCategoryCounts[cat]++
			}
		}
	}

	return summary
}

// WriteSummaryTable renders the corpus summary as a human-readable
// breakdown, the way the analyze command prints it.
func WriteSummaryTable(w io.Writer, summary types.CorpusSummary) error {
	if _, err := fmt.Fprintf(w, "Analyzed %d articles\n", summary.Articles); err != nil {
		return err
	}

	sections := []struct {
		title string
		field string
	}{
		{"Study design breakdown:", "study_design"},
		{"Data source breakdown:", "data_source"},
		{"Population breakdown:", "population"},
	}
	for _, sec := range sections {
		counts := summary.FieldCounts[sec.field]
		if len(counts) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", sec.title)
		for _, label := range sortedByCount(counts) {
			fmt.Fprintf(w, "- %s: %d\n", label, counts[label])
		}
	}

	if len(summary.MeasureCategoryCounts) > 0 {
		fmt.Fprintf(w, "\nMeasures by category:\n")
		for _, label := range sortedByCount(summary.MeasureCategoryCounts) {
			fmt.Fprintf(w, "- %s: %d\n", label, summary.MeasureCategoryCounts[label])
		}
	}
	return nil
}

// sortedByCount returns the labels ordered by descending count, breaking
// ties alphabetically.
func sortedByCount(counts map[string]int) []string {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})
	return labels
}

// recordCSVHeader is the column layout of the per-record CSV.
var recordCSVHeader = []string{
	"filename", "title", "authors", "publication_year", "study_design",
	"data_source", "population", "sample_size", "study_duration", "measures",
}

// WriteRecordsCSV writes one CSV row per record, in identifier order.
func WriteRecordsCSV(w io.Writer, records []types.ArticleRecord) error {
	sorted := make([]types.ArticleRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Identifier < sorted[j].Identifier
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(recordCSVHeader); err != nil {
		return err
	}
	for _, r := range sorted {
		sampleSize := ""
		if r.SampleSize > 0 {
			sampleSize = strconv.Itoa(r.SampleSize)
		}
		row := []string{
			r.Identifier,
			r.Title,
			r.Authors,
			r.PublicationYear,
			r.StudyDesign,
			r.DataSource,
			r.PopulationLabel(),
			sampleSize,
			r.StudyDuration,
			r.MeasureDescriptions(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMeasuresCSV writes the flattened measure rows of the summary.
func WriteMeasuresCSV(w io.Writer, summary types.CorpusSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"filename", "description", "category"}); err != nil {
		return err
	}
	for _, row := range summary.MeasureRows {
		if err := cw.Write([]string{row.Identifier, row.Description, row.Category}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON renders the summary as indented JSON.
func WriteJSON(w io.Writer, summary types.CorpusSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// FormatMeasureCount renders the "N measures across M articles" line used
// by the report command.
func FormatMeasureCount(summary types.CorpusSummary) string {
	return fmt.Sprintf("Found %d telehealth measures across %d articles", len(summary.MeasureRows), summary.Articles)
}
