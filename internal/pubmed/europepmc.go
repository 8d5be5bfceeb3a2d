// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/meshintel/telescan/internal/httputil"
	"github.com/meshintel/telescan/pkg/types"
)

// europePMCSearchBase is the Europe PMC REST search endpoint. Declared as
// a var so tests can substitute an httptest server.
var europePMCSearchBase = "https://www.ebi.ac.uk/europepmc/rest/search"

// EuropePMCBackend queries the Europe PMC REST API (R1.2). Europe PMC
// mirrors PubMed and adds open-access content, so its PMIDs line up with
// the E-utilities backend for dedup.
type EuropePMCBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *EuropePMCBackend) Name() string { return "europepmc" }

// Search queries Europe PMC and returns annotatable articles.
func (b *EuropePMCBackend) Search(ctx context.Context, term string, cfg types.SearchConfig) ([]types.PubMedArticle, error) {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	params := url.Values{
		"query":      {term},
		"format":     {"json"},
		"resultType": {"core"},
		"pageSize":   {fmt.Sprintf("%d", maxResults)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, europePMCSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Europe PMC request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Europe PMC returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading Europe PMC response: %w", err)
	}

	var parsed europePMCResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing Europe PMC response: %w", err)
	}

	total := len(parsed.ResultList.Results)
	var articles []types.PubMedArticle
	for i, r := range parsed.ResultList.Results {
		a := types.PubMedArticle{
			PMID:     r.PMID,
			Title:    r.Title,
			Journal:  r.JournalTitle,
			PubDate:  r.FirstPublicationDate,
			DOI:      r.DOI,
			Abstract: r.AbstractText,
			Source:   b.Name(),
		}
		if r.AuthorString != "" {
			for _, name := range strings.Split(r.AuthorString, ",") {
				if name = strings.TrimSpace(strings.TrimSuffix(name, ".")); name != "" {
					a.Authors = append(a.Authors, name)
				}
			}
		}
		for _, pt := range r.PubTypeList.PubTypes {
			a.ArticleTypes = append(a.ArticleTypes, pt)
		}
		for _, mh := range r.MeshHeadingList.MeshHeadings {
			if mh.DescriptorName != "" {
				a.MeSHTerms = append(a.MeSHTerms, mh.DescriptorName)
			}
		}
		if total > 1 {
			a.Relevance = 1.0 - float64(i)/float64(total-1)*0.9
		} else {
			a.Relevance = 1.0
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// Europe PMC JSON structures.
type europePMCResponse struct {
	ResultList europePMCResultList `json:"resultList"`
}

type europePMCResultList struct {
	Results []europePMCResult `json:"result"`
}

type europePMCResult struct {
	PMID                 string                   `json:"pmid"`
	DOI                  string                   `json:"doi"`
	Title                string                   `json:"title"`
	AuthorString         string                   `json:"authorString"`
	JournalTitle         string                   `json:"journalTitle"`
	FirstPublicationDate string                   `json:"firstPublicationDate"`
	AbstractText         string                   `json:"abstractText"`
	PubTypeList          europePMCPubTypeList     `json:"pubTypeList"`
	MeshHeadingList      europePMCMeshHeadingList `json:"meshHeadingList"`
}

type europePMCPubTypeList struct {
	PubTypes []string `json:"pubType"`
}

type europePMCMeshHeadingList struct {
	MeshHeadings []europePMCMeshHeading `json:"meshHeading"`
}

type europePMCMeshHeading struct {
	DescriptorName string `json:"descriptorName"`
}
