// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed queries literature APIs for telehealth articles and
// returns unified, deduplicated results annotated with rule-based
// classifications. Implements: prd001-retrieval (R1-R4);
//
//	docs/ARCHITECTURE § Retrieval.
package pubmed

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/meshintel/telescan/internal/classify"
	"github.com/meshintel/telescan/internal/measures"
	"github.com/meshintel/telescan/pkg/types"
)

// Backend searches a single literature API. Each backend (NCBI E-utilities,
// Europe PMC) implements this interface per the Strategy pattern (R1.4).
type Backend interface {
	Name() string
	Search(ctx context.Context, term string, cfg types.SearchConfig) ([]types.PubMedArticle, error)
}

// SearchOutput holds the articles and dedup statistics.
type SearchOutput struct {
	Articles      []types.PubMedArticle
	DupsRemoved   int
	BackendErrors []string
}

// Search fans out the term to all backends concurrently, deduplicates
// articles, ranks them, and returns the top N (R1.1-R1.3). A failing
// backend is reported on w and the remaining results are kept.
func Search(ctx context.Context, term string, backends []Backend, cfg types.SearchConfig, w io.Writer) (SearchOutput, error) {
	if strings.TrimSpace(term) == "" {
		return SearchOutput{}, fmt.Errorf("search term is empty")
	}
	if len(backends) == 0 {
		return SearchOutput{}, fmt.Errorf("no search backends configured")
	}

	type backendResult struct {
		articles []types.PubMedArticle
		err      error
		name     string
	}

	ch := make(chan backendResult, len(backends))
	var wg sync.WaitGroup

	for i, b := range backends {
		if i > 0 && cfg.InterBackendDelay > 0 {
			time.Sleep(cfg.InterBackendDelay)
		}
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()
			articles, err := b.Search(ctx, term, cfg)
			ch <- backendResult{articles: articles, err: err, name: b.Name()}
		}(b)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.PubMedArticle
	var backendErrors []string
	for br := range ch {
		if br.err != nil {
			msg := fmt.Sprintf("%s: %v", br.name, br.err)
			backendErrors = append(backendErrors, msg)
			fmt.Fprintf(w, "warning: backend %s failed: %v\n", br.name, br.err)
			continue
		}
		all = append(all, br.articles...)
	}

	deduped, removed := deduplicate(all)

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Relevance > deduped[j].Relevance
	})

	if cfg.MaxResults > 0 && len(deduped) > cfg.MaxResults {
		deduped = deduped[:cfg.MaxResults]
	}

	return SearchOutput{
		Articles:      deduped,
		DupsRemoved:   removed,
		BackendErrors: backendErrors,
	}, nil
}

// Annotate runs the abstract classifiers and the rule-based measure
// extractor over each article in place (R4.1-R4.3).
func Annotate(articles []types.PubMedArticle) {
	for i := range articles {
		a := &articles[i]
		articleType := strings.Join(a.ArticleTypes, ", ")
		meshTerms := strings.Join(a.MeSHTerms, ", ")

		a.StudyDesign = classify.AbstractStudyDesign(articleType, a.Abstract)
		a.DataSource = classify.AbstractDataSource(a.Abstract, meshTerms)
		a.Measures = measures.Extract(a.Abstract)
		a.MeasureTypes = measures.CategoryUnion(a.Measures)
	}
}

// deduplicate merges articles that share a PMID, DOI, or normalized title
// (R3.1, R3.2).
func deduplicate(articles []types.PubMedArticle) ([]types.PubMedArticle, int) {
	seen := make(map[string]int) // dedup key → index in deduped
	var deduped []types.PubMedArticle
	removed := 0

	for _, a := range articles {
		merged := false
		for _, key := range dedupKeys(a) {
			if idx, ok := seen[key]; ok {
				mergeInto(&deduped[idx], a)
				removed++
				merged = true
				break
			}
		}
		if merged {
			continue
		}

		idx := len(deduped)
		deduped = append(deduped, a)
		for _, key := range dedupKeys(a) {
			seen[key] = idx
		}
	}
	return deduped, removed
}

// dedupKeys returns the identity keys of an article, strongest first.
func dedupKeys(a types.PubMedArticle) []string {
	var keys []string
	if a.PMID != "" {
		keys = append(keys, "pmid:"+a.PMID)
	}
	if a.DOI != "" {
		keys = append(keys, "doi:"+strings.ToLower(a.DOI))
	}
	if t := normalizeTitle(a.Title); t != "" {
		keys = append(keys, "title:"+t)
	}
	return keys
}

// mergeInto fills empty fields of dst from src and keeps the higher
// relevance (R3.2).
func mergeInto(dst *types.PubMedArticle, src types.PubMedArticle) {
	if dst.PMID == "" {
		dst.PMID = src.PMID
	}
	if dst.DOI == "" {
		dst.DOI = src.DOI
	}
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}
	if dst.Journal == "" {
		dst.Journal = src.Journal
	}
	if dst.PubDate == "" {
		dst.PubDate = src.PubDate
	}
	if dst.Abstract == "" {
		dst.Abstract = src.Abstract
	}
	if len(dst.ArticleTypes) == 0 {
		dst.ArticleTypes = src.ArticleTypes
	}
	if len(dst.MeSHTerms) == 0 {
		dst.MeSHTerms = src.MeSHTerms
	}
	if src.Relevance > dst.Relevance {
		dst.Relevance = src.Relevance
	}
	if dst.Source != src.Source && !strings.Contains(dst.Source, src.Source) {
		dst.Source = dst.Source + "," + src.Source
	}
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the
// title (R3.1).
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// FormatTable writes articles as a human-readable table to w (R2.4).
func FormatTable(out SearchOutput, w io.Writer) {
	if len(out.Articles) == 0 {
		fmt.Fprintln(w, "No articles found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-10s  %-60s  %-20s  %s\n",
		"Rank", "PMID", "Title", "Study design", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, a := range out.Articles {
		title := a.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		design := a.StudyDesign
		if len(design) > 20 {
			design = design[:17] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-10s  %-60s  %-20s  %s\n", i+1, a.PMID, title, design, a.Source)
	}

	fmt.Fprintf(w, "\n%d articles", len(out.Articles))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes articles as indented JSON to w (R2.5).
func FormatJSON(out SearchOutput, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Articles)
}

// metadataCSVHeader is the column layout of the fetch metadata CSV.
var metadataCSVHeader = []string{
	"pmid", "title", "authors", "journal", "publication_date", "doi",
	"article_type", "abstract", "mesh_terms", "pdf_path", "study_type",
	"data_source", "telehealth_measure_type", "telehealth_measures",
}

// WriteMetadataCSV writes one row per article in the given order.
func WriteMetadataCSV(w io.Writer, articles []types.PubMedArticle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(metadataCSVHeader); err != nil {
		return err
	}
	for _, a := range articles {
		var descriptions []string
		for _, m := range a.Measures {
			descriptions = append(descriptions, m.Description)
		}
		row := []string{
			a.PMID,
			a.Title,
			strings.Join(a.Authors, ", "),
			a.Journal,
			a.PubDate,
			a.DOI,
			strings.Join(a.ArticleTypes, ", "),
			a.Abstract,
			strings.Join(a.MeSHTerms, ", "),
			a.PDFPath,
			a.StudyDesign,
			a.DataSource,
			strings.Join(a.MeasureTypes, ", "),
			strings.Join(descriptions, "; "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
