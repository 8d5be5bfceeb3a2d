package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/telescan/internal/convert"
	"github.com/meshintel/telescan/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [pdfs...]",
	Short: "Convert article PDFs to plain text",
	Long: `Convert extracts plain text from downloaded PDFs, writing one .txt file
per article under articles/text/. With no arguments it processes every PDF
under articles/raw/. Supports the host pdftotext binary (default) or a
containerized poppler image.`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("backend", "pdftotext", "conversion backend: pdftotext or poppler")
	convertCmd.Flags().String("articles-dir", "articles", "base directory for articles")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	backend, _ := cmd.Flags().GetString("backend")
	articlesDir, _ := cmd.Flags().GetString("articles-dir")

	cfg := types.ConversionConfig{
		Backend:     types.ConversionBackend(backend),
		ArticlesDir: articlesDir,
	}

	conv, err := convert.NewConverter(cfg)
	if err != nil {
		return err
	}

	var result convert.BatchResult
	if len(args) > 0 {
		result = convert.ConvertBatch(conv, args, articlesDir, os.Stdout)
	} else {
		result, err = convert.ConvertDir(conv, cfg, os.Stdout)
		if err != nil {
			return err
		}
	}

	if result.HasFailures() {
		return fmt.Errorf("%d article(s) failed conversion", result.Failed)
	}
	return nil
}
