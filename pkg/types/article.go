// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the telescan pipeline.
// Implements: prd002-analysis (ArticleRecord, MeasureCandidate);
//
//	prd001-retrieval (PubMedArticle);
//	prd004-reporting (CorpusSummary).
//
// See docs/ARCHITECTURE.md § Pipeline Interface, § Data Structures.
package types

import "strings"

// Sentinel values for fields the extractors could not determine.
const (
	// NotSpecified marks a categorical field with no matching trigger.
	NotSpecified = "Not clearly specified"

	// AuthorsNotExtracted marks an author line that no pattern captured.
	AuthorsNotExtracted = "Not extracted"
)

// MeasureCandidate is one sentence identified as a telehealth utilization
// statement, with zero or more measure-category labels. The description is
// the verbatim sentence from the source text.
type MeasureCandidate struct {
	// Description is the candidate sentence, unmodified.
	Description string `json:"description" yaml:"description"`

	// Categories holds the matching measure-category labels in
	// category-definition order. Empty when no category set matched;
	// such candidates are reported under the Other/Undefined label.
	Categories []string `json:"categories" yaml:"categories"`
}

// ArticleRecord is the per-document output of the analysis stage: one
// normalized metadata record per source article. Records are immutable once
// built; the reporting stage never mutates them.
type ArticleRecord struct {
	// Identifier is the source filename or external ID, unique within a
	// corpus run.
	Identifier string `json:"identifier" yaml:"identifier"`

	// Title is the best-effort extracted title, falling back to a
	// filename-derived string. Never empty.
	Title string `json:"title" yaml:"title"`

	// Authors is the captured author line, or AuthorsNotExtracted.
	Authors string `json:"authors" yaml:"authors"`

	// PublicationYear is a 4-digit year string, or empty when no
	// plausible year was found.
	PublicationYear string `json:"publication_year,omitempty" yaml:"publication_year,omitempty"`

	// StudyDesign is one label from the study-design category set,
	// or NotSpecified.
	StudyDesign string `json:"study_design" yaml:"study_design"`

	// DataSource is one label from the data-source category set,
	// or NotSpecified.
	DataSource string `json:"data_source" yaml:"data_source"`

	// Population holds every matching population label in
	// category-definition order. May be empty.
	Population []string `json:"population,omitempty" yaml:"population,omitempty"`

	// SampleSize is the extracted participant count. Values of 10 or
	// below are treated as extraction noise and never stored; zero
	// means not extracted.
	SampleSize int `json:"sample_size,omitempty" yaml:"sample_size,omitempty"`

	// StudyDuration is a formatted duration ("6 months", "6-12 months",
	// "January 2020 to December 2021"), or empty.
	StudyDuration string `json:"study_duration,omitempty" yaml:"study_duration,omitempty"`

	// Measures lists candidate utilization statements in document order.
	Measures []MeasureCandidate `json:"measures,omitempty" yaml:"measures,omitempty"`
}

// PopulationLabel renders the population set as a ", "-joined string,
// using NotSpecified for an empty set.
func (r ArticleRecord) PopulationLabel() string {
	if len(r.Population) == 0 {
		return NotSpecified
	}
	return strings.Join(r.Population, ", ")
}

// MeasureDescriptions renders the measure sentences as a "; "-joined string.
func (r ArticleRecord) MeasureDescriptions() string {
	descs := make([]string, len(r.Measures))
	for i, m := range r.Measures {
		descs[i] = m.Description
	}
	return strings.Join(descs, "; ")
}
