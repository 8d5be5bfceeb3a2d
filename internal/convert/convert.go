// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements PDF-to-text conversion with pluggable backends.
// Implements: prd005-conversion (R1, R2);
//
//	docs/ARCHITECTURE § Conversion.
package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meshintel/telescan/internal/container"
	"github.com/meshintel/telescan/pkg/types"
)

const (
	// textDir is the subdirectory under the articles base for extracted text.
	textDir = "text"
	// rawDir is the subdirectory under the articles base for raw PDFs.
	rawDir = "raw"
)

// Converter transforms a PDF file into plain text. Different backends
// (host pdftotext, containerized poppler) implement this interface.
type Converter interface {
	// Convert reads a PDF at pdfPath and returns the extracted text.
	Convert(pdfPath string) (string, error)
}

// Status is the outcome of a single conversion.
type Status string

const (
	StatusConverted Status = "converted"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of articles processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any articles failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// NewConverter constructs the backend selected by cfg. The poppler backend
// requires a working container runtime with the poppler image pulled.
func NewConverter(cfg types.ConversionConfig) (Converter, error) {
	switch cfg.Backend {
	case types.BackendPdftotext, "":
		return NewPdftotextConverter()
	case types.BackendPoppler:
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		return NewPopplerConverter(rt)
	default:
		return nil, fmt.Errorf("unknown conversion backend %q", cfg.Backend)
	}
}

// ConvertArticle converts a single PDF to text, writing the result next to
// the raw tree under text/. If the text output already exists the conversion
// is skipped. The extracted text carries no header or frontmatter: the
// analysis stage treats the whole file as article body.
func ConvertArticle(c Converter, pdfPath, articlesDir string, w io.Writer) Status {
	outDir := filepath.Join(articlesDir, textDir)
	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	txtPath := filepath.Join(outDir, stem+".txt")

	if _, err := os.Stat(txtPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", stem)
		return StatusSkipped
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", stem, err)
		return StatusFailed
	}

	text, err := c.Convert(pdfPath)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", stem, err)
		return StatusFailed
	}

	if err := os.WriteFile(txtPath, []byte(text), 0o644); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", stem, err)
		return StatusFailed
	}

	fmt.Fprintf(w, "converted: %s\n", stem)
	return StatusConverted
}

// ConvertBatch processes a list of PDF paths through the converter, printing
// per-file status to w and returning a summary.
func ConvertBatch(c Converter, pdfPaths []string, articlesDir string, w io.Writer) BatchResult {
	var result BatchResult
	for _, p := range pdfPaths {
		switch ConvertArticle(c, p, articlesDir, w) {
		case StatusConverted:
			result.Converted++
		case StatusSkipped:
			result.Skipped++
		case StatusFailed:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

// ConvertDir converts every PDF under the raw/ subdirectory of the
// configured articles tree.
func ConvertDir(c Converter, cfg types.ConversionConfig, w io.Writer) (BatchResult, error) {
	pattern := filepath.Join(cfg.ArticlesDir, rawDir, "*.pdf")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return BatchResult{}, fmt.Errorf("listing PDFs: %w", err)
	}
	if len(paths) == 0 {
		return BatchResult{}, fmt.Errorf("no PDFs found under %s", filepath.Join(cfg.ArticlesDir, rawDir))
	}
	sort.Strings(paths)
	return ConvertBatch(c, paths, cfg.ArticlesDir, w), nil
}
