// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/meshintel/telescan/internal/httputil"
	"github.com/meshintel/telescan/pkg/types"
)

// IdentifierType classifies an input identifier.
type IdentifierType int

const (
	TypeUnknown IdentifierType = iota
	TypePMID
	TypePMCID
	TypeDOI
	TypeURL
)

func (t IdentifierType) String() string {
	switch t {
	case TypePMID:
		return "pmid"
	case TypePMCID:
		return "pmcid"
	case TypeDOI:
		return "doi"
	case TypeURL:
		return "url"
	default:
		return "unknown"
	}
}

// Base URLs for identifier resolution. Declared as vars so tests can
// substitute httptest servers.
var (
	pmcPDFBase    = "https://www.ncbi.nlm.nih.gov/pmc/articles/"
	doiBase       = "https://doi.org/"
	elinkBase     = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/elink.fcgi"
	esummaryBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esummary.fcgi"
)

// pmidPattern matches bare PubMed IDs: "34567890".
var pmidPattern = regexp.MustCompile(`^\d{1,8}$`)

// pmcidPattern matches PubMed Central IDs: "PMC8123456", "pmc8123456".
var pmcidPattern = regexp.MustCompile(`^(?i:PMC)(\d+)$`)

// doiPattern matches DOIs: "10.1177/1357633X211010000".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/[^\s]+$`)

// Classify determines the identifier type and returns the normalized form.
// PMCIDs are normalized to an uppercase "PMC" prefix.
func Classify(identifier string) (IdentifierType, string) {
	identifier = strings.TrimSpace(identifier)

	if pmidPattern.MatchString(identifier) {
		return TypePMID, identifier
	}

	if m := pmcidPattern.FindStringSubmatch(identifier); m != nil {
		return TypePMCID, "PMC" + m[1]
	}

	if doiPattern.MatchString(identifier) {
		return TypeDOI, identifier
	}

	if u, err := url.Parse(identifier); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return TypeURL, identifier
	}

	return TypeUnknown, identifier
}

// Slug returns a filesystem-safe filename stem for the identifier.
func Slug(idType IdentifierType, normalized string) string {
	switch idType {
	case TypePMID, TypePMCID:
		return normalized
	case TypeDOI:
		return strings.NewReplacer("/", "-", ":", "-").Replace(normalized)
	case TypeURL:
		u, err := url.Parse(normalized)
		if err != nil {
			return urlHashSlug(normalized)
		}
		base := strings.TrimSuffix(filepath.Base(u.Path), filepath.Ext(u.Path))
		if base == "" || base == "." || base == "/" {
			return urlHashSlug(normalized)
		}
		return base
	default:
		return "unknown"
	}
}

// urlHashSlug derives a stable stem from a URL with no usable path.
func urlHashSlug(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("url-%x", sum[:6])
}

// PDFURL returns the download URL for the identifier. PMC serves PDFs
// directly; DOIs go through the doi.org resolver and rely on the HTTP
// client following redirects. Bare PMIDs have no direct PDF URL and must
// be resolved to a PMCID first.
func PDFURL(idType IdentifierType, normalized string) string {
	switch idType {
	case TypePMCID:
		return pmcPDFBase + normalized + "/pdf"
	case TypeDOI:
		return doiBase + normalized
	case TypeURL:
		return normalized
	default:
		return ""
	}
}

// elink JSON structures. Only the link IDs are consumed.
type elinkResponse struct {
	LinkSets []elinkLinkSet `json:"linksets"`
}

type elinkLinkSet struct {
	LinkSetDBs []elinkLinkSetDB `json:"linksetdbs"`
}

type elinkLinkSetDB struct {
	DBTo  string        `json:"dbto"`
	Links []json.Number `json:"links"`
}

// resolvePMCID maps a PMID to its PMC ID via the elink E-utility. Not
// every PubMed article has a PMC deposit; those return ("", nil).
func resolvePMCID(ctx context.Context, client *http.Client, pmid string, cfg types.AcquisitionConfig) (string, error) {
	params := url.Values{
		"dbfrom":  {"pubmed"},
		"db":      {"pmc"},
		"id":      {pmid},
		"retmode": {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, elinkBase+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return "", fmt.Errorf("elink request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("elink returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading elink response: %w", err)
	}

	var parsed elinkResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parsing elink response: %w", err)
	}

	for _, ls := range parsed.LinkSets {
		for _, db := range ls.LinkSetDBs {
			if db.DBTo != "pmc" || len(db.Links) == 0 {
				continue
			}
			return "PMC" + db.Links[0].String(), nil
		}
	}
	return "", nil
}
