// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/telescan/pkg/types"
)

const pdfBytes = "%PDF-1.4 fake pdf content"

// newAcquireServer serves a PMC PDF, elink resolution, and esummary
// metadata from one mux.
func newAcquireServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/pmc/articles/PMC8123456/pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, pdfBytes)
	})
	mux.HandleFunc("/elink", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"linksets": [{"linksetdbs": [{"dbto": "pmc", "links": [8123456]}]}]}`)
	})
	mux.HandleFunc("/esummary", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"result": {"uids": ["34567890"], "34567890": {
			"title": "Telehealth utilization in rural clinics",
			"fulljournalname": "Journal of Telemedicine and Telecare",
			"pubdate": "2021 Mar",
			"authors": [{"name": "Smith J"}, {"name": "Jones K"}],
			"articleids": [{"idtype": "pubmed", "value": "34567890"}, {"idtype": "doi", "value": "10.1177/123456"}]
		}}}`)
	})
	return httptest.NewServer(mux)
}

func redirectBases(t *testing.T, server *httptest.Server) {
	t.Helper()
	oldPMC, oldElink, oldSummary := pmcPDFBase, elinkBase, esummaryBase
	pmcPDFBase = server.URL + "/pmc/articles/"
	elinkBase = server.URL + "/elink"
	esummaryBase = server.URL + "/esummary"
	t.Cleanup(func() {
		pmcPDFBase, elinkBase, esummaryBase = oldPMC, oldElink, oldSummary
	})
}

func TestAcquireArticleByPMID(t *testing.T) {
	server := newAcquireServer(t)
	defer server.Close()
	redirectBases(t, server)

	cfg := types.AcquisitionConfig{ArticlesDir: t.TempDir()}

	var log strings.Builder
	article, skipped, err := AcquireArticle(context.Background(), http.DefaultClient, "34567890", cfg, &log)
	if err != nil {
		t.Fatalf("AcquireArticle() error: %v", err)
	}
	if skipped {
		t.Error("first acquisition reported skipped")
	}

	// The PMID resolved to a PMC deposit; the PDF lands under raw/.
	pdfPath := filepath.Join(cfg.ArticlesDir, "raw", "PMC8123456.pdf")
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		t.Fatalf("reading downloaded pdf: %v", err)
	}
	if string(data) != pdfBytes {
		t.Error("pdf content mismatch")
	}

	if article.PMID != "34567890" {
		t.Errorf("PMID = %q", article.PMID)
	}
	if article.Title != "Telehealth utilization in rural clinics" {
		t.Errorf("Title = %q", article.Title)
	}
	if article.DOI != "10.1177/123456" {
		t.Errorf("DOI = %q", article.DOI)
	}
	if len(article.Authors) != 2 {
		t.Errorf("Authors = %v", article.Authors)
	}

	// Metadata YAML sits next to the PDF tree.
	metaPath := filepath.Join(cfg.ArticlesDir, "metadata", "PMC8123456.yaml")
	metaData, err := os.ReadFile(metaPath)
	if err != nil {
		t.Fatalf("reading metadata: %v", err)
	}
	var stored types.PubMedArticle
	if err := yaml.Unmarshal(metaData, &stored); err != nil {
		t.Fatalf("parsing metadata: %v", err)
	}
	if stored.Journal != "Journal of Telemedicine and Telecare" {
		t.Errorf("stored journal = %q", stored.Journal)
	}
}

func TestAcquireArticleSkipsExisting(t *testing.T) {
	server := newAcquireServer(t)
	defer server.Close()
	redirectBases(t, server)

	cfg := types.AcquisitionConfig{ArticlesDir: t.TempDir()}

	var log strings.Builder
	if _, _, err := AcquireArticle(context.Background(), http.DefaultClient, "34567890", cfg, &log); err != nil {
		t.Fatal(err)
	}

	article, skipped, err := AcquireArticle(context.Background(), http.DefaultClient, "34567890", cfg, &log)
	if err != nil {
		t.Fatalf("AcquireArticle() error: %v", err)
	}
	if !skipped {
		t.Error("second acquisition not skipped")
	}
	if article.Title != "Telehealth utilization in rural clinics" {
		t.Errorf("skipped article lost metadata: %+v", article)
	}
}

func TestAcquireArticleUnknownIdentifier(t *testing.T) {
	cfg := types.AcquisitionConfig{ArticlesDir: t.TempDir()}
	var log strings.Builder
	if _, _, err := AcquireArticle(context.Background(), http.DefaultClient, "not an id", cfg, &log); err == nil {
		t.Fatal("expected error for unknown identifier")
	}
}

func TestAcquireArticlePMIDWithoutDeposit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"linksets": []}`)
	}))
	defer server.Close()

	oldBase := elinkBase
	elinkBase = server.URL
	defer func() { elinkBase = oldBase }()

	cfg := types.AcquisitionConfig{ArticlesDir: t.TempDir()}
	var log strings.Builder
	_, _, err := AcquireArticle(context.Background(), http.DefaultClient, "34567890", cfg, &log)
	if err == nil || !strings.Contains(err.Error(), "no PMC deposit") {
		t.Fatalf("err = %v, want no PMC deposit error", err)
	}
}

func TestAcquireBatchContinuesPastFailures(t *testing.T) {
	server := newAcquireServer(t)
	defer server.Close()
	redirectBases(t, server)

	cfg := types.AcquisitionConfig{ArticlesDir: t.TempDir()}

	var log strings.Builder
	result := AcquireBatch(context.Background(), http.DefaultClient,
		[]string{"34567890", "not an id"}, cfg, &log)

	if result.Downloaded != 1 || result.Failed != 1 || result.Skipped != 0 {
		t.Errorf("result = %+v", result)
	}
	if result.Total() != 2 || !result.HasFailures() {
		t.Errorf("Total() = %d, HasFailures() = %v", result.Total(), result.HasFailures())
	}
	if !strings.Contains(log.String(), "failed:") {
		t.Errorf("log missing failure line: %q", log.String())
	}
}

func TestDownloadFileCleansUpOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "a.pdf")
	err := downloadFile(context.Background(), http.DefaultClient, server.URL, dest, types.AcquisitionConfig{})
	if err == nil {
		t.Fatal("expected error on HTTP 404")
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("destination file exists after failed download")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("temp files left behind: %v", entries)
	}
}
