// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PubMedArticle holds the metadata and abstract of an article retrieved from
// a bibliographic API (PubMed E-utilities or Europe PMC). Missing fields
// stay at their zero value; retrieval never fails on an absent field.
type PubMedArticle struct {
	// PMID is the PubMed identifier.
	PMID string `json:"pmid" yaml:"pmid"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the authors in source order ("Last First").
	Authors []string `json:"authors" yaml:"authors"`

	// Journal is the full journal title.
	Journal string `json:"journal" yaml:"journal"`

	// PubDate is the publication date as reported by the source
	// (e.g. "2021/03/15", "2021 Mar").
	PubDate string `json:"publication_date" yaml:"publication_date"`

	// DOI is the digital object identifier, when present.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// ArticleTypes lists the publication types (e.g. "Randomized
	// Controlled Trial", "Review").
	ArticleTypes []string `json:"article_types,omitempty" yaml:"article_types,omitempty"`

	// Abstract is the free-text abstract, with structured-section labels
	// folded in as "LABEL: text".
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// MeSHTerms lists the controlled-vocabulary descriptors.
	MeSHTerms []string `json:"mesh_terms,omitempty" yaml:"mesh_terms,omitempty"`

	// Source identifies which backend returned this article
	// (e.g. "entrez", "europepmc", or a comma-joined set after merging).
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Relevance is a position-based score between 0.0 and 1.0 assigned
	// by the backend; merged duplicates keep the higher score.
	Relevance float64 `json:"relevance,omitempty" yaml:"relevance,omitempty"`

	// PDFPath is the local path of the downloaded PDF, when acquired.
	PDFPath string `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`

	// StudyDesign and DataSource are abstract-ruleset classifications
	// filled in by the fetch stage.
	StudyDesign string `json:"study_design,omitempty" yaml:"study_design,omitempty"`
	DataSource  string `json:"data_source,omitempty" yaml:"data_source,omitempty"`

	// MeasureTypes is the union of measure-category labels found in the
	// abstract, and Measures the matching sentences.
	MeasureTypes []string           `json:"measure_types,omitempty" yaml:"measure_types,omitempty"`
	Measures     []MeasureCandidate `json:"measures,omitempty" yaml:"measures,omitempty"`
}

// ConversionStatus indicates the state of PDF-to-text conversion for an article.
type ConversionStatus string

const (
	ConversionNone   ConversionStatus = "none"
	ConversionDone   ConversionStatus = "converted"
	ConversionFailed ConversionStatus = "failed"
)
