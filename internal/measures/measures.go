// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package measures finds telehealth utilization measures in article text.
// The rule-based extractor keeps sentences that mention both a telehealth
// term and a measurement term; the Claude backend in llm.go extracts
// structured measures from the head of the text.
// Implements: prd002-analysis (R3), prd003-llm-measures (R1, R2).
package measures

import (
	"strings"

	"github.com/meshintel/telescan/internal/patterns"
	"github.com/meshintel/telescan/pkg/types"
)

// Extract returns the candidate measure sentences from the text, in order
// of appearance. A sentence qualifies when it mentions both a telehealth
// term and a measurement term. Candidates keep the sentence verbatim,
// trimmed of surrounding whitespace; duplicates are kept.
func Extract(text string) []types.MeasureCandidate {
	domain := patterns.DomainTerms()
	measurement := patterns.MeasurementTerms()

	sentences := strings.Split(strings.ReplaceAll(text, "\n", " "), ". ")

	var candidates []types.MeasureCandidate
	for _, sentence := range sentences {
		lowered := strings.ToLower(sentence)
		if patterns.Any(domain, lowered) && patterns.Any(measurement, lowered) {
			candidates = append(candidates, types.MeasureCandidate{
				Description: strings.TrimSpace(sentence),
				Categories:  Categorize(sentence),
			})
		}
	}
	return candidates
}

// Categorize returns every measure category the sentence triggers, in
// declaration order. An empty slice means no specific category matched.
func Categorize(sentence string) []string {
	return patterns.All(patterns.MeasureCategories(), strings.ToLower(sentence))
}

// CategoryUnion returns the union of categories across the candidates, in
// declaration order. Candidates carrying no specific category contribute
// the Other/Undefined label; no candidates yields nil.
func CategoryUnion(candidates []types.MeasureCandidate) []string {
	if len(candidates) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	for _, c := range candidates {
		for _, cat := range c.Categories {
			seen[cat] = true
		}
	}

	var ordered []string
	for _, cat := range patterns.MeasureCategories() {
		if seen[cat.Label] {
			ordered = append(ordered, cat.Label)
		}
	}
	if len(ordered) == 0 {
		return []string{patterns.OtherMeasureCategory}
	}
	return ordered
}

// CategorySet renders CategoryUnion as a comma-separated string for CSV
// output.
func CategorySet(candidates []types.MeasureCandidate) string {
	return strings.Join(CategoryUnion(candidates), ", ")
}
