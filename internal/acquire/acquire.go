// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire downloads article PDFs and creates metadata records.
// Implements: prd001-retrieval (R5, R6);
//
//	docs/ARCHITECTURE § Acquisition.
package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/telescan/internal/httputil"
	"github.com/meshintel/telescan/pkg/types"
)

const (
	rawDir      = "raw"
	metadataDir = "metadata"
)

// BatchResult holds the outcome of a batch acquisition run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Articles   []*types.PubMedArticle
}

// Total returns the total number of identifiers processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any articles failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// AcquireArticle resolves a single identifier, downloads the PDF, and
// writes metadata. If the PDF already exists on disk, it skips the
// download. The skipped return value indicates whether the download was
// skipped.
func AcquireArticle(ctx context.Context, client *http.Client, identifier string, cfg types.AcquisitionConfig, w io.Writer) (article *types.PubMedArticle, skipped bool, err error) {
	idType, normalized := Classify(identifier)
	if idType == TypeUnknown {
		return nil, false, fmt.Errorf("unrecognized identifier format: %q", identifier)
	}

	// Bare PMIDs only have a PDF when the article is deposited in PMC.
	pmid := ""
	if idType == TypePMID {
		pmid = normalized
		pmcid, resolveErr := resolvePMCID(ctx, client, normalized, cfg)
		if resolveErr != nil {
			return nil, false, fmt.Errorf("resolving PMC ID for %s: %w", normalized, resolveErr)
		}
		if pmcid == "" {
			return nil, false, fmt.Errorf("PMID %s has no PMC deposit, no open-access PDF", normalized)
		}
		idType, normalized = TypePMCID, pmcid
	}

	slug := Slug(idType, normalized)
	pdfPath := filepath.Join(cfg.ArticlesDir, rawDir, slug+".pdf")
	metaPath := filepath.Join(cfg.ArticlesDir, metadataDir, slug+".yaml")

	if _, statErr := os.Stat(pdfPath); statErr == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", slug)
		a, readErr := readMetadata(metaPath)
		if readErr != nil {
			a = &types.PubMedArticle{PMID: pmid, PDFPath: pdfPath}
		}
		return a, true, nil
	}

	pdfURL := PDFURL(idType, normalized)
	if pdfURL == "" {
		return nil, false, fmt.Errorf("cannot resolve PDF URL for %q", identifier)
	}

	for _, dir := range []string{
		filepath.Join(cfg.ArticlesDir, rawDir),
		filepath.Join(cfg.ArticlesDir, metadataDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, false, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	fmt.Fprintf(w, "downloading: %s (%s)\n", slug, idType)

	if err := downloadFile(ctx, client, pdfURL, pdfPath, cfg); err != nil {
		return nil, false, fmt.Errorf("downloading %s: %w", slug, err)
	}

	a := &types.PubMedArticle{
		PMID:    pmid,
		PDFPath: pdfPath,
		Source:  idType.String(),
	}

	// PubMed metadata is a nicety; a failed fetch never fails the
	// download.
	if pmid != "" {
		if err := fetchSummaryMetadata(ctx, client, pmid, a, cfg); err != nil {
			fmt.Fprintf(w, "  warning: metadata fetch failed: %v\n", err)
		}
	}

	if err := writeMetadata(a, metaPath); err != nil {
		return nil, false, fmt.Errorf("writing metadata for %s: %w", slug, err)
	}

	return a, false, nil
}

// AcquireBatch processes multiple identifiers, printing per-item status
// and returning a summary. It continues after individual failures and
// applies a delay between consecutive downloads.
func AcquireBatch(ctx context.Context, client *http.Client, identifiers []string, cfg types.AcquisitionConfig, w io.Writer) BatchResult {
	var result BatchResult
	for i, id := range identifiers {
		if i > 0 && cfg.DownloadDelay > 0 {
			time.Sleep(cfg.DownloadDelay)
		}
		article, wasSkipped, err := AcquireArticle(ctx, client, id, cfg, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
			result.Failed++
			continue
		}
		if wasSkipped {
			result.Skipped++
		} else {
			result.Downloaded++
		}
		result.Articles = append(result.Articles, article)
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// downloadFile fetches url to destPath using a temporary file, renamed on
// success so a cancelled run never leaves a truncated PDF. The HTTP
// client handles redirect following (doi.org resolution relies on it).
func downloadFile(ctx context.Context, client *http.Client, rawURL, destPath string, cfg types.AcquisitionConfig) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".acquire-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// esummary JSON structures. The result object maps each UID to its
// summary document.
type esummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type esummaryDoc struct {
	Title           string            `json:"title"`
	FullJournalName string            `json:"fulljournalname"`
	PubDate         string            `json:"pubdate"`
	Authors         []esummaryAuthor  `json:"authors"`
	ArticleIDs      []esummaryArticleID `json:"articleids"`
}

type esummaryAuthor struct {
	Name string `json:"name"`
}

type esummaryArticleID struct {
	IDType string `json:"idtype"`
	Value  string `json:"value"`
}

// fetchSummaryMetadata retrieves title, authors, journal, date, and DOI
// from the esummary E-utility.
func fetchSummaryMetadata(ctx context.Context, client *http.Client, pmid string, a *types.PubMedArticle, cfg types.AcquisitionConfig) error {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {pmid},
		"retmode": {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, esummaryBase+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return fmt.Errorf("esummary request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("esummary returned HTTP %d", resp.StatusCode)
	}

	var parsed esummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("parsing esummary response: %w", err)
	}

	raw, ok := parsed.Result[pmid]
	if !ok {
		return fmt.Errorf("no summary for PMID %s", pmid)
	}

	var doc esummaryDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parsing summary document: %w", err)
	}

	a.Title = doc.Title
	a.Journal = doc.FullJournalName
	a.PubDate = doc.PubDate
	for _, au := range doc.Authors {
		if au.Name != "" {
			a.Authors = append(a.Authors, au.Name)
		}
	}
	for _, id := range doc.ArticleIDs {
		if id.IDType == "doi" {
			a.DOI = id.Value
			break
		}
	}
	return nil
}

// readMetadata loads a previously written metadata record.
func readMetadata(path string) (*types.PubMedArticle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a types.PubMedArticle
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// writeMetadata marshals the article record to a YAML file.
func writeMetadata(a *types.PubMedArticle, path string) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
