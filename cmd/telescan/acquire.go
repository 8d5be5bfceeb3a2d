package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshintel/telescan/internal/acquire"
	"github.com/meshintel/telescan/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "telescan/0.1"
)

var acquireCmd = &cobra.Command{
	Use:   "acquire [identifiers...]",
	Short: "Download open-access article PDFs",
	Long: `Acquire resolves article identifiers (PMIDs, PMC IDs, DOIs, direct PDF
URLs) to PDF files, downloads them under articles/raw/, and writes metadata
records. PMIDs are resolved to their PubMed Central deposit; articles with
no open-access deposit are reported as failures. Existing PDFs are skipped.`,
	RunE: runAcquire,
}

func init() {
	acquireCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	acquireCmd.Flags().Duration("delay", 0, "delay between consecutive downloads (default 1s)")
	acquireCmd.Flags().String("articles-dir", "articles", "base directory for articles")

	rootCmd.AddCommand(acquireCmd)
}

func runAcquire(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more article identifiers (PMIDs, PMC IDs, DOIs, or URLs)")
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = defaultDelay
	}
	articlesDir, _ := cmd.Flags().GetString("articles-dir")

	cfg := types.AcquisitionConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		DownloadDelay: delay,
		ArticlesDir:   articlesDir,
	}

	client := &http.Client{Timeout: cfg.Timeout}

	result := acquire.AcquireBatch(context.Background(), client, args, cfg, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d article(s) failed acquisition", result.Failed)
	}
	return nil
}
