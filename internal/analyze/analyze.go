// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze builds article records from converted text. It runs the
// field extractors, the classifiers, and the rule-based measure extractor
// over each article and writes one record per article.
// Implements: prd002-analysis (R1, R4, R5); docs/ARCHITECTURE § Analysis.
package analyze

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/telescan/internal/classify"
	"github.com/meshintel/telescan/internal/fields"
	"github.com/meshintel/telescan/internal/measures"
	"github.com/meshintel/telescan/pkg/types"
)

const (
	textDir    = "text"
	recordsDir = "records"
)

// BatchSummary holds counts from a batch analysis run (R5.4).
type BatchSummary struct {
	Analyzed int
	Skipped  int
	Failed   int
}

// Total returns the number of articles processed.
func (s BatchSummary) Total() int {
	return s.Analyzed + s.Skipped + s.Failed
}

// HasFailures reports whether any articles failed (R5.5).
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// BuildRecord runs every extractor and classifier over one article's text.
// Fields that extract nothing get their sentinel values, so the record is
// always complete; empty text yields an all-sentinel record.
func BuildRecord(text, identifier string, cfg types.AnalysisConfig) types.ArticleRecord {
	stem := strings.TrimSuffix(identifier, filepath.Ext(identifier))

	currentYear := cfg.CurrentYear
	if currentYear <= 0 {
		currentYear = time.Now().Year()
	}

	record := types.ArticleRecord{
		Identifier:  identifier,
		Title:       fields.Title(text, stem),
		Authors:     types.AuthorsNotExtracted,
		StudyDesign: classify.StudyDesign(text),
		DataSource:  classify.DataSource(text),
		Population:  classify.Population(text),
		Measures:    measures.Extract(text),
	}

	if authors, ok := fields.Authors(text); ok {
		record.Authors = authors
	}
	if year, ok := fields.PublicationYear(text, currentYear); ok {
		record.PublicationYear = year
	}
	if size, ok := fields.SampleSize(text); ok {
		record.SampleSize = size
	}
	if duration, ok := fields.StudyDuration(text); ok {
		record.StudyDuration = duration
	}

	return record
}

// AnalyzeAll builds records for every .txt file in articlesDir/text/ and
// writes them to outputDir/records/ as YAML. Articles whose text has not
// changed since the last run are skipped; failures are reported and the
// batch continues (R5.1-R5.3).
func AnalyzeAll(cfg types.AnalysisConfig, w io.Writer) (BatchSummary, error) {
	srcDir := filepath.Join(cfg.ArticlesDir, textDir)
	outDir := filepath.Join(cfg.OutputDir, recordsDir)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating output directory: %w", err)
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading text directory %s: %w", srcDir, err)
	}

	var summary BatchSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		stem := strings.TrimSuffix(entry.Name(), ".txt")
		srcPath := filepath.Join(srcDir, entry.Name())
		outPath := filepath.Join(outDir, stem+".yaml")

		changed, err := hasChanged(srcPath, outPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", stem, err)
			summary.Failed++
			continue
		}
		if !changed {
			fmt.Fprintf(w, "skipped %s\n", stem)
			summary.Skipped++
			continue
		}

		content, err := os.ReadFile(srcPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", stem, err)
			summary.Failed++
			continue
		}

		record := BuildRecord(string(content), entry.Name(), cfg)

		if err := writeRecord(outPath, record); err != nil {
			fmt.Fprintf(w, "failed  %s: write error: %v\n", stem, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "analyzed %s (%d measures)\n", stem, len(record.Measures))
		summary.Analyzed++
	}

	return summary, nil
}

// LoadRecords reads every record YAML from outputDir/records/, sorted by
// directory order.
func LoadRecords(outputDir string) ([]types.ArticleRecord, error) {
	dir := filepath.Join(outputDir, recordsDir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading records directory %s: %w", dir, err)
	}

	var records []types.ArticleRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading record %s: %w", entry.Name(), err)
		}
		var record types.ArticleRecord
		if err := yaml.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("parsing record %s: %w", entry.Name(), err)
		}
		records = append(records, record)
	}
	return records, nil
}

// hasChanged reports whether the text file is newer than the record (R5.2).
// Returns true if the record does not exist or the text is more recent.
func hasChanged(srcPath, outPath string) (bool, error) {
	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		return false, fmt.Errorf("stat text %s: %w", srcPath, err)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat record %s: %w", outPath, err)
	}

	return srcInfo.ModTime().After(outInfo.ModTime()), nil
}

// writeRecord marshals the record to a YAML file.
func writeRecord(path string, record types.ArticleRecord) error {
	data, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
