// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/meshintel/telescan/pkg/types"
)

// mockBackend returns canned articles.
type mockBackend struct {
	name     string
	articles []types.PubMedArticle
	err      error
}

func (m *mockBackend) Name() string { return m.name }

func (m *mockBackend) Search(_ context.Context, _ string, _ types.SearchConfig) ([]types.PubMedArticle, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.articles, nil
}

func testSearchConfig() types.SearchConfig {
	return types.SearchConfig{MaxResults: 20}
}

func TestSearchRejectsEmptyTerm(t *testing.T) {
	var log strings.Builder
	_, err := Search(context.Background(), "  ", []Backend{&mockBackend{name: "a"}}, testSearchConfig(), &log)
	if err == nil {
		t.Fatal("expected error for empty term")
	}
}

func TestSearchRejectsNoBackends(t *testing.T) {
	var log strings.Builder
	_, err := Search(context.Background(), "telehealth", nil, testSearchConfig(), &log)
	if err == nil {
		t.Fatal("expected error for no backends")
	}
}

func TestSearchMergesBackends(t *testing.T) {
	b1 := &mockBackend{name: "pubmed", articles: []types.PubMedArticle{
		{PMID: "111", Title: "Telehealth in Rural Care", Relevance: 1.0, Source: "pubmed"},
		{PMID: "222", Title: "Video Visits", Relevance: 0.5, Source: "pubmed"},
	}}
	b2 := &mockBackend{name: "europepmc", articles: []types.PubMedArticle{
		{PMID: "111", DOI: "10.1/abc", Abstract: "OBJECTIVE: rates.", Relevance: 0.8, Source: "europepmc"},
		{PMID: "333", Title: "Remote Monitoring", Relevance: 0.9, Source: "europepmc"},
	}}

	var log strings.Builder
	out, err := Search(context.Background(), "telehealth", []Backend{b1, b2}, testSearchConfig(), &log)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if len(out.Articles) != 3 {
		t.Fatalf("got %d articles, want 3: %+v", len(out.Articles), out.Articles)
	}
	if out.DupsRemoved != 1 {
		t.Errorf("DupsRemoved = %d, want 1", out.DupsRemoved)
	}

	// PMID 111 keeps its higher relevance and gains the merged fields.
	first := out.Articles[0]
	if first.PMID != "111" || first.Relevance != 1.0 {
		t.Errorf("first article = %+v", first)
	}
	if first.DOI != "10.1/abc" || first.Abstract == "" {
		t.Errorf("merge did not fill empty fields: %+v", first)
	}
	if !strings.Contains(first.Source, "europepmc") {
		t.Errorf("merged source = %q", first.Source)
	}

	// Remaining articles are ranked by relevance.
	if out.Articles[1].PMID != "333" || out.Articles[2].PMID != "222" {
		t.Errorf("ranking wrong: %s then %s", out.Articles[1].PMID, out.Articles[2].PMID)
	}
}

func TestSearchDedupByNormalizedTitle(t *testing.T) {
	b1 := &mockBackend{name: "pubmed", articles: []types.PubMedArticle{
		{PMID: "111", Title: "Telehealth: A Review!", Relevance: 1.0, Source: "pubmed"},
	}}
	b2 := &mockBackend{name: "europepmc", articles: []types.PubMedArticle{
		{Title: "telehealth a review", Relevance: 0.4, Source: "europepmc"},
	}}

	var log strings.Builder
	out, err := Search(context.Background(), "telehealth", []Backend{b1, b2}, testSearchConfig(), &log)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Articles) != 1 || out.DupsRemoved != 1 {
		t.Errorf("got %d articles, %d dups", len(out.Articles), out.DupsRemoved)
	}
}

func TestSearchContinuesPastFailedBackend(t *testing.T) {
	b1 := &mockBackend{name: "pubmed", err: fmt.Errorf("boom")}
	b2 := &mockBackend{name: "europepmc", articles: []types.PubMedArticle{
		{PMID: "111", Title: "Telehealth", Relevance: 1.0, Source: "europepmc"},
	}}

	var log strings.Builder
	out, err := Search(context.Background(), "telehealth", []Backend{b1, b2}, testSearchConfig(), &log)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(out.Articles) != 1 {
		t.Errorf("got %d articles, want 1", len(out.Articles))
	}
	if len(out.BackendErrors) != 1 || !strings.Contains(out.BackendErrors[0], "pubmed") {
		t.Errorf("BackendErrors = %v", out.BackendErrors)
	}
	if !strings.Contains(log.String(), "warning") {
		t.Errorf("expected warning in log, got %q", log.String())
	}
}

func TestSearchTruncatesToMaxResults(t *testing.T) {
	var articles []types.PubMedArticle
	for i := 0; i < 30; i++ {
		articles = append(articles, types.PubMedArticle{
			PMID:      fmt.Sprintf("%d", i),
			Title:     fmt.Sprintf("Article %d", i),
			Relevance: 1.0 - float64(i)*0.01,
		})
	}
	b := &mockBackend{name: "pubmed", articles: articles}

	cfg := testSearchConfig()
	cfg.MaxResults = 5

	var log strings.Builder
	out, err := Search(context.Background(), "telehealth", []Backend{b}, cfg, &log)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Articles) != 5 {
		t.Errorf("got %d articles, want 5", len(out.Articles))
	}
	if out.Articles[0].PMID != "0" {
		t.Errorf("top article = %q", out.Articles[0].PMID)
	}
}

func TestAnnotate(t *testing.T) {
	articles := []types.PubMedArticle{
		{
			PMID:         "111",
			ArticleTypes: []string{"Randomized Controlled Trial"},
			Abstract:     "OBJECTIVE: Measure telehealth use. RESULTS: The percentage of telehealth visits rose from survey data.",
			MeSHTerms:    []string{"Telemedicine"},
		},
		{
			PMID:     "222",
			Abstract: "",
		},
	}

	Annotate(articles)

	if articles[0].StudyDesign != "Randomized Controlled Trial (RCT)" {
		t.Errorf("StudyDesign = %q", articles[0].StudyDesign)
	}
	if articles[0].DataSource != "Survey/Questionnaire" {
		t.Errorf("DataSource = %q", articles[0].DataSource)
	}
	if len(articles[0].Measures) == 0 {
		t.Fatal("expected measure candidates")
	}
	if len(articles[0].MeasureTypes) == 0 || articles[0].MeasureTypes[0] != "Percentage" {
		t.Errorf("MeasureTypes = %v", articles[0].MeasureTypes)
	}

	if articles[1].StudyDesign != types.NotSpecified {
		t.Errorf("empty abstract StudyDesign = %q", articles[1].StudyDesign)
	}
	if len(articles[1].Measures) != 0 || len(articles[1].MeasureTypes) != 0 {
		t.Errorf("empty abstract produced measures: %+v", articles[1])
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Telehealth: A Review!", "telehealth a review"},
		{"  Spaced   out  ", "spaced out"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeTitle(tt.in); got != tt.want {
			t.Errorf("normalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteMetadataCSV(t *testing.T) {
	articles := []types.PubMedArticle{
		{
			PMID:         "111",
			Title:        "Telehealth Study",
			Authors:      []string{"Smith J", "Doe K"},
			Journal:      "J Telemed",
			PubDate:      "2021/Mar",
			DOI:          "10.1/abc",
			ArticleTypes: []string{"Journal Article"},
			Abstract:     "Some abstract.",
			MeSHTerms:    []string{"Telemedicine"},
			StudyDesign:  "Cohort Study",
			DataSource:   types.NotSpecified,
			MeasureTypes: []string{"Rate"},
			Measures:     []types.MeasureCandidate{{Description: "visit rate", Categories: []string{"Rate"}}},
		},
	}

	var buf strings.Builder
	if err := WriteMetadataCSV(&buf, articles); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "pmid,title,authors,journal") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "\"Smith J, Doe K\"") {
		t.Errorf("authors column = %q", lines[1])
	}
}
