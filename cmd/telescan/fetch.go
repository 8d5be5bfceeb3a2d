// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/meshintel/telescan/internal/acquire"
	"github.com/meshintel/telescan/internal/pubmed"
	"github.com/meshintel/telescan/internal/secrets"
	"github.com/meshintel/telescan/pkg/types"
)

const (
	defaultSearchTerm = "telehealth utilization measures"
	metadataCSVName   = "article_metadata.csv"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [search term]",
	Short: "Search PubMed and Europe PMC for article metadata",
	Long: `Fetch queries the NCBI E-utilities (and optionally Europe PMC) for
articles matching a search term, deduplicates the results across sources,
and annotates each article with rule-based study-design, data-source, and
measure classifications derived from its abstract.

Results are printed as a table (or JSON with --json), written one YAML
file per article under articles/metadata/, and appended to a combined
CSV under the data directory.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("email", "", "contact email sent to NCBI E-utilities")
	fetchCmd.Flags().String("api-key", "", "NCBI API key for higher rate limits")
	fetchCmd.Flags().Int("max-results", 20, "maximum number of results to return")
	fetchCmd.Flags().Bool("europepmc", false, "also query the Europe PMC REST API")
	fetchCmd.Flags().Bool("json", false, "output results as JSON")
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	fetchCmd.Flags().String("articles-dir", "articles", "base directory for articles")
	fetchCmd.Flags().String("data-dir", "data", "base directory for derived data")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	term := defaultSearchTerm
	if len(args) > 0 {
		term = strings.Join(args, " ")
	}

	email, _ := cmd.Flags().GetString("email")
	apiKey, _ := cmd.Flags().GetString("api-key")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	useEuropePMC, _ := cmd.Flags().GetBool("europepmc")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	articlesDir, _ := cmd.Flags().GetString("articles-dir")
	dataDir, _ := cmd.Flags().GetString("data-dir")

	cfg := types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		MaxResults:        maxResults,
		EnableEuropePMC:   useEuropePMC,
		EntrezEmail:       secrets.Resolve(loadedSecrets, "ncbi-email", email),
		EntrezAPIKey:      secrets.Resolve(loadedSecrets, "ncbi-api-key", apiKey),
		InterBackendDelay: time.Second,
	}

	client := &http.Client{Timeout: cfg.Timeout}

	backends := []pubmed.Backend{
		&pubmed.EntrezBackend{Client: client, Email: cfg.EntrezEmail, APIKey: cfg.EntrezAPIKey},
	}
	if cfg.EnableEuropePMC {
		backends = append(backends, &pubmed.EuropePMCBackend{Client: client})
	}

	out, err := pubmed.Search(context.Background(), term, backends, cfg, os.Stderr)
	if err != nil {
		return err
	}
	pubmed.Annotate(out.Articles)

	if jsonOutput {
		if err := pubmed.FormatJSON(out, os.Stdout); err != nil {
			return err
		}
	} else {
		pubmed.FormatTable(out, os.Stdout)
	}

	if err := writeArticleMetadata(articlesDir, out.Articles); err != nil {
		return err
	}
	return writeMetadataCSV(dataDir, out.Articles)
}

// writeArticleMetadata writes one YAML file per article under
// articlesDir/metadata/, named by PMID or DOI slug. Articles with neither
// identifier are skipped with a warning.
func writeArticleMetadata(articlesDir string, articles []types.PubMedArticle) error {
	metaDir := filepath.Join(articlesDir, "metadata")
	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}

	for i := range articles {
		a := &articles[i]
		var stem string
		switch {
		case a.PMID != "":
			stem = a.PMID
		case a.DOI != "":
			stem = acquire.Slug(acquire.TypeDOI, a.DOI)
		default:
			fmt.Fprintf(os.Stderr, "warning: skipping article with no PMID or DOI: %q\n", a.Title)
			continue
		}

		data, err := yaml.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshaling metadata for %s: %w", stem, err)
		}
		if err := os.WriteFile(filepath.Join(metaDir, stem+".yaml"), data, 0o644); err != nil {
			return fmt.Errorf("writing metadata for %s: %w", stem, err)
		}
	}
	return nil
}

func writeMetadataCSV(dataDir string, articles []types.PubMedArticle) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	path := filepath.Join(dataDir, metadataCSVName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := pubmed.WriteMetadataCSV(f, articles); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %d article(s) to %s\n", len(articles), path)
	return nil
}
