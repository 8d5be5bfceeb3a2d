// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/meshintel/telescan/internal/measures"
	"github.com/meshintel/telescan/internal/secrets"
	"github.com/meshintel/telescan/pkg/types"
)

const defaultModel = "claude-sonnet-4-20250514"

var measuresCmd = &cobra.Command{
	Use:   "measures [text files...]",
	Short: "Extract utilization measures with the Claude API",
	Long: `Measures sends the head of each converted article to the Claude API and
extracts structured telehealth utilization measures (description, category,
value). With no arguments it processes every text file under articles/text/.
Results are written as JSON and CSV per article under data/measures/.

The API key is read from --api-key, the TELESCAN_ANTHROPIC_API_KEY
environment variable, or .secrets/anthropic-api-key; there is no default.`,
	RunE: runMeasures,
}

func init() {
	measuresCmd.Flags().String("model", defaultModel, "Claude model identifier")
	measuresCmd.Flags().String("api-key", "", "Anthropic API key")
	measuresCmd.Flags().Int("window-size", 0, "leading characters of text sent to the model (default 4000)")
	measuresCmd.Flags().Int("max-retries", 0, "retry attempts for failed API calls (default 3)")
	measuresCmd.Flags().String("articles-dir", "articles", "base directory for articles (contains text/)")
	measuresCmd.Flags().String("output-dir", "data/measures", "directory for per-article measure files")

	rootCmd.AddCommand(measuresCmd)
}

func runMeasures(cmd *cobra.Command, args []string) error {
	model, _ := cmd.Flags().GetString("model")
	apiKey, _ := cmd.Flags().GetString("api-key")
	windowSize, _ := cmd.Flags().GetInt("window-size")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	articlesDir, _ := cmd.Flags().GetString("articles-dir")
	outputDir, _ := cmd.Flags().GetString("output-dir")

	key := secrets.Resolve(loadedSecrets, "anthropic-api-key", apiKey)
	if key == "" {
		return fmt.Errorf("no Anthropic API key: use --api-key, %s, or .secrets/anthropic-api-key",
			secrets.EnvVar("anthropic-api-key"))
	}

	cfg := types.MeasuresConfig{
		AIConfig: types.AIConfig{
			Model:      model,
			APIKey:     key,
			MaxRetries: maxRetries,
		},
		WindowSize: windowSize,
		OutputDir:  outputDir,
	}

	paths := args
	if len(paths) == 0 {
		var err error
		paths, err = filepath.Glob(filepath.Join(articlesDir, "text", "*.txt"))
		if err != nil {
			return fmt.Errorf("listing text files: %w", err)
		}
		if len(paths) == 0 {
			return fmt.Errorf("no text files found under %s", filepath.Join(articlesDir, "text"))
		}
		sort.Strings(paths)
	}

	backend := &measures.ClaudeBackend{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
		Client: &http.Client{Timeout: defaultTimeout},
	}

	ctx := context.Background()
	failed := 0
	for _, path := range paths {
		result, err := measures.AnalyzeFile(ctx, backend, path, cfg, os.Stderr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed:  %s (%v)\n", path, err)
			failed++
			continue
		}
		if err := measures.WriteResult(cfg.OutputDir, result); err != nil {
			return err
		}
		fmt.Printf("analyzed: %s (%d measures)\n", result.Filename, len(result.Measures))
	}

	if failed > 0 {
		return fmt.Errorf("%d article(s) failed measure extraction", failed)
	}
	return nil
}
