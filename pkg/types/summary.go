// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// MeasureRow is one flattened (article, measure, category) triple in a
// corpus summary.
type MeasureRow struct {
	Identifier  string `json:"identifier" yaml:"identifier"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
}

// CorpusSummary is the derived, transient output of aggregating a set of
// ArticleRecords. It is recomputed on every run and never persisted
// incrementally.
type CorpusSummary struct {
	// Articles is the number of records aggregated.
	Articles int `json:"articles" yaml:"articles"`

	// FieldCounts maps a categorical field name ("study_design",
	// "data_source", "population") to per-label occurrence counts.
	// Population counts exclude the NotSpecified sentinel.
	FieldCounts map[string]map[string]int `json:"field_counts" yaml:"field_counts"`

	// MeasureRows flattens every (record, candidate, category) triple,
	// ordered by record identifier and document position. Candidates
	// with no category appear under the Other/Undefined label.
	MeasureRows []MeasureRow `json:"measure_rows" yaml:"measure_rows"`

	// MeasureCategoryCounts tallies MeasureRows per category.
	MeasureCategoryCounts map[string]int `json:"measure_category_counts" yaml:"measure_category_counts"`
}
