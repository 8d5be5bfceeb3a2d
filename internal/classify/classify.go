// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify assigns study design, data source, and population labels
// to article text using the trigger tables in internal/patterns. Articles
// that trigger nothing get the shared "not clearly specified" sentinel.
// Implements: prd002-analysis (R2.1-R2.3).
package classify

import (
	"strings"

	"github.com/meshintel/telescan/internal/patterns"
	"github.com/meshintel/telescan/pkg/types"
)

// StudyDesign classifies the study design of full article text. The first
// category triggered in declaration order wins.
func StudyDesign(text string) string {
	if label, ok := patterns.First(patterns.StudyDesigns(), strings.ToLower(text)); ok {
		return label
	}
	return types.NotSpecified
}

// DataSource classifies the data source of full article text.
func DataSource(text string) string {
	if label, ok := patterns.First(patterns.DataSources(), strings.ToLower(text)); ok {
		return label
	}
	return types.NotSpecified
}

// Population returns every population label triggered by the text, in
// declaration order. An empty slice means no population was identified.
func Population(text string) []string {
	return patterns.All(patterns.Populations(), strings.ToLower(text))
}
