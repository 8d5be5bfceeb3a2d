// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"strings"

	"github.com/meshintel/telescan/internal/patterns"
	"github.com/meshintel/telescan/pkg/types"
)

// Abstracts carry less signal than full text, so the fetch stage uses a
// smaller rule set that also consults the PubMed article type and MeSH
// terms.

// AbstractStudyDesign classifies the study design of a fetched abstract,
// using the article type string as a secondary signal.
func AbstractStudyDesign(articleType, abstract string) string {
	label, ok := patterns.FirstScoped(patterns.AbstractStudyDesigns(),
		strings.ToLower(abstract), strings.ToLower(articleType))
	if !ok {
		return types.NotSpecified
	}
	return label
}

// AbstractDataSource classifies the data source of a fetched abstract,
// using the article's MeSH terms as a secondary signal.
func AbstractDataSource(abstract, meshTerms string) string {
	label, ok := patterns.FirstScoped(patterns.AbstractDataSources(),
		strings.ToLower(abstract), strings.ToLower(meshTerms))
	if !ok {
		return types.NotSpecified
	}
	return label
}
