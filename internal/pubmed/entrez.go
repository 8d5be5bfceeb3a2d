// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/meshintel/telescan/internal/httputil"
	"github.com/meshintel/telescan/pkg/types"
)

// E-utilities endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	entrezSearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	entrezFetchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

// entrezTool identifies this program to NCBI.
const entrezTool = "telescan"

// EntrezBackend queries PubMed through the NCBI E-utilities (R1.1). An
// esearch call resolves the term to PMIDs sorted by relevance, then a
// single efetch call retrieves the article XML.
type EntrezBackend struct {
	Client *http.Client
	// Email identifies the caller to NCBI; sent on every request.
	Email string
	// APIKey raises the rate limit when set.
	APIKey string
}

// Name returns the backend identifier.
func (b *EntrezBackend) Name() string { return "pubmed" }

// Search queries the E-utilities and returns annotatable articles.
func (b *EntrezBackend) Search(ctx context.Context, term string, cfg types.SearchConfig) ([]types.PubMedArticle, error) {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	ids, err := b.esearch(ctx, term, maxResults, cfg)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	return b.efetch(ctx, ids, cfg)
}

// esearch resolves a search term to a relevance-sorted PMID list.
func (b *EntrezBackend) esearch(ctx context.Context, term string, maxResults int, cfg types.SearchConfig) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {term},
		"retmax":  {fmt.Sprintf("%d", maxResults)},
		"sort":    {"relevance"},
		"retmode": {"json"},
	}
	b.identify(params)

	body, err := b.get(ctx, entrezSearchBase+"?"+params.Encode(), cfg)
	if err != nil {
		return nil, fmt.Errorf("esearch: %w", err)
	}

	var parsed esearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing esearch response: %w", err)
	}
	return parsed.SearchResult.IDList, nil
}

// efetch retrieves full article XML for the given PMIDs in one call.
func (b *EntrezBackend) efetch(ctx context.Context, ids []string, cfg types.SearchConfig) ([]types.PubMedArticle, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
	}
	b.identify(params)

	body, err := b.get(ctx, entrezFetchBase+"?"+params.Encode(), cfg)
	if err != nil {
		return nil, fmt.Errorf("efetch: %w", err)
	}

	var parsed pubmedArticleSet
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing efetch response: %w", err)
	}

	total := len(parsed.Articles)
	var articles []types.PubMedArticle
	for i, raw := range parsed.Articles {
		a := raw.toArticle()
		a.Source = b.Name()
		// Position-based relevance; esearch returns PMIDs sorted by
		// relevance and efetch preserves the requested order.
		if total > 1 {
			a.Relevance = 1.0 - float64(i)/float64(total-1)*0.9
		} else {
			a.Relevance = 1.0
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// identify adds the email, tool, and API key parameters NCBI asks for.
func (b *EntrezBackend) identify(params url.Values) {
	params.Set("tool", entrezTool)
	if b.Email != "" {
		params.Set("email", b.Email)
	}
	if b.APIKey != "" {
		params.Set("api_key", b.APIKey)
	}
}

func (b *EntrezBackend) get(ctx context.Context, reqURL string, cfg types.SearchConfig) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
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
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("E-utilities returned HTTP %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// esearch JSON structures.
type esearchResponse struct {
	SearchResult esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count  string   `json:"count"`
	IDList []string `json:"idlist"`
}

// efetch XML structures. Only the elements the pipeline consumes are
// mapped.
type pubmedArticleSet struct {
	XMLName  xml.Name           `xml:"PubmedArticleSet"`
	Articles []pubmedArticleXML `xml:"PubmedArticle"`
}

type pubmedArticleXML struct {
	Citation medlineCitation `xml:"MedlineCitation"`
}

type medlineCitation struct {
	PMID    string         `xml:"PMID"`
	Article articleXML     `xml:"Article"`
	Mesh    []meshHeading  `xml:"MeshHeadingList>MeshHeading"`
}

type articleXML struct {
	Title        string            `xml:"ArticleTitle"`
	Journal      journalXML        `xml:"Journal"`
	Authors      []authorXML       `xml:"AuthorList>Author"`
	Abstract     []abstractText    `xml:"Abstract>AbstractText"`
	ELocationIDs []eLocationID     `xml:"ELocationID"`
	PubTypes     []string          `xml:"PublicationTypeList>PublicationType"`
}

type journalXML struct {
	Title   string     `xml:"Title"`
	PubDate pubDateXML `xml:"JournalIssue>PubDate"`
}

type pubDateXML struct {
	Year  string `xml:"Year"`
	Month string `xml:"Month"`
	Day   string `xml:"Day"`
}

type authorXML struct {
	LastName       string `xml:"LastName"`
	ForeName       string `xml:"ForeName"`
	CollectiveName string `xml:"CollectiveName"`
}

type abstractText struct {
	Label string `xml:"Label,attr"`
	Text  string `xml:",chardata"`
}

type eLocationID struct {
	EIdType string `xml:"EIdType,attr"`
	Value   string `xml:",chardata"`
}

type meshHeading struct {
	Descriptor string `xml:"DescriptorName"`
}

// toArticle converts the XML representation to the pipeline type.
func (raw pubmedArticleXML) toArticle() types.PubMedArticle {
	art := raw.Citation.Article

	a := types.PubMedArticle{
		PMID:         raw.Citation.PMID,
		Title:        art.Title,
		Journal:      art.Journal.Title,
		PubDate:      formatPubDate(art.Journal.PubDate),
		ArticleTypes: art.PubTypes,
		Abstract:     joinAbstract(art.Abstract),
	}

	for _, au := range art.Authors {
		switch {
		case au.LastName != "" && au.ForeName != "":
			a.Authors = append(a.Authors, au.LastName+" "+au.ForeName)
		case au.CollectiveName != "":
			a.Authors = append(a.Authors, au.CollectiveName)
		}
	}

	for _, loc := range art.ELocationIDs {
		if loc.EIdType == "doi" {
			a.DOI = loc.Value
			break
		}
	}

	for _, m := range raw.Citation.Mesh {
		if m.Descriptor != "" {
			a.MeSHTerms = append(a.MeSHTerms, m.Descriptor)
		}
	}

	return a
}

// formatPubDate renders "Year/Month/Day" with absent parts dropped from
// the right.
func formatPubDate(d pubDateXML) string {
	parts := []string{d.Year, d.Month, d.Day}
	joined := strings.Join(parts, "/")
	return strings.Trim(joined, "/")
}

// joinAbstract flattens abstract sections, prefixing labeled sections with
// "LABEL: " the way structured PubMed abstracts read.
func joinAbstract(sections []abstractText) string {
	var parts []string
	for _, s := range sections {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		if s.Label != "" {
			parts = append(parts, s.Label+": "+text)
		} else {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
