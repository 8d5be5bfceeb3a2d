// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meshintel/telescan/pkg/types"
)

// fakeConverter implements Converter for testing. It returns canned text
// or an error, depending on configuration.
type fakeConverter struct {
	output string
	err    error
}

func (f *fakeConverter) Convert(pdfPath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

// setupPDF creates a temporary PDF file and returns its path and the temp dir.
func setupPDF(t *testing.T) (pdfPath, tmpDir string) {
	t.Helper()
	tmpDir = t.TempDir()
	rawDir := filepath.Join(tmpDir, "raw")
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		t.Fatal(err)
	}
	pdfPath = filepath.Join(rawDir, "PMC8123456.pdf")
	if err := os.WriteFile(pdfPath, []byte("fake pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	return pdfPath, tmpDir
}

func TestConvertArticle(t *testing.T) {
	tests := []struct {
		name       string
		converter  *fakeConverter
		preCreate  bool // create output text before running
		wantStatus Status
		wantLog    string
	}{
		{
			name:       "successful conversion",
			converter:  &fakeConverter{output: "Telehealth and diabetes care.\n"},
			wantStatus: StatusConverted,
			wantLog:    "converted:",
		},
		{
			name:       "skip existing text",
			converter:  &fakeConverter{output: "should not be called"},
			preCreate:  true,
			wantStatus: StatusSkipped,
			wantLog:    "skipped:",
		},
		{
			name:       "conversion failure",
			converter:  &fakeConverter{err: errors.New("container crashed")},
			wantStatus: StatusFailed,
			wantLog:    "failed:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pdfPath, tmpDir := setupPDF(t)

			if tt.preCreate {
				txtDir := filepath.Join(tmpDir, "text")
				if err := os.MkdirAll(txtDir, 0o755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(filepath.Join(txtDir, "PMC8123456.txt"), []byte("existing"), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			var log bytes.Buffer
			status := ConvertArticle(tt.converter, pdfPath, tmpDir, &log)

			if status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status, tt.wantStatus)
			}
			if !strings.Contains(log.String(), tt.wantLog) {
				t.Errorf("log output %q does not contain %q", log.String(), tt.wantLog)
			}
		})
	}
}

func TestConvertArticleWritesPlainText(t *testing.T) {
	pdfPath, tmpDir := setupPDF(t)
	conv := &fakeConverter{output: "Telehealth Among Rural Veterans\n\nAbstract text here.\n"}

	var log bytes.Buffer
	if status := ConvertArticle(conv, pdfPath, tmpDir, &log); status != StatusConverted {
		t.Fatalf("status = %q, want %q", status, StatusConverted)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "text", "PMC8123456.txt"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	// No frontmatter or header: downstream analysis sees only article body.
	if string(data) != conv.output {
		t.Errorf("output = %q, want converter output verbatim", data)
	}
}

func TestConvertBatch(t *testing.T) {
	tmpDir := t.TempDir()
	rawDir := filepath.Join(tmpDir, "raw")
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		t.Fatal(err)
	}

	// Three PDFs: one will succeed, one is pre-existing, one will fail.
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		if err := os.WriteFile(filepath.Join(rawDir, name), []byte("pdf"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	txtDir := filepath.Join(tmpDir, "text")
	if err := os.MkdirAll(txtDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(txtDir, "b.txt"), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	conv := &selectiveConverter{
		outputs: map[string]string{
			filepath.Join(rawDir, "a.pdf"): "Article A text",
			filepath.Join(rawDir, "b.pdf"): "Article B text",
		},
		errors: map[string]error{
			filepath.Join(rawDir, "c.pdf"): errors.New("bad pdf"),
		},
	}

	paths := []string{
		filepath.Join(rawDir, "a.pdf"),
		filepath.Join(rawDir, "b.pdf"),
		filepath.Join(rawDir, "c.pdf"),
	}

	var log bytes.Buffer
	result := ConvertBatch(conv, paths, tmpDir, &log)

	if result.Converted != 1 {
		t.Errorf("converted = %d, want 1", result.Converted)
	}
	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Skipped)
	}
	if result.Failed != 1 {
		t.Errorf("failed = %d, want 1", result.Failed)
	}
	if !result.HasFailures() {
		t.Error("HasFailures should be true")
	}
	if result.Total() != 3 {
		t.Errorf("total = %d, want 3", result.Total())
	}

	if !strings.Contains(log.String(), "Batch summary:") {
		t.Error("batch output should contain summary line")
	}
}

func TestConvertDir(t *testing.T) {
	tmpDir := t.TempDir()
	rawDir := filepath.Join(tmpDir, "raw")
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(rawDir, "study.pdf"), []byte("pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	conv := &fakeConverter{output: "extracted"}
	cfg := types.ConversionConfig{ArticlesDir: tmpDir}

	var log bytes.Buffer
	result, err := ConvertDir(conv, cfg, &log)
	if err != nil {
		t.Fatalf("ConvertDir() error: %v", err)
	}
	if result.Converted != 1 {
		t.Errorf("converted = %d, want 1", result.Converted)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "text", "study.txt")); err != nil {
		t.Errorf("expected output file: %v", err)
	}
}

func TestConvertDirEmpty(t *testing.T) {
	cfg := types.ConversionConfig{ArticlesDir: t.TempDir()}
	var log bytes.Buffer
	if _, err := ConvertDir(&fakeConverter{}, cfg, &log); err == nil {
		t.Fatal("expected error when raw/ holds no PDFs")
	}
}

// selectiveConverter returns different results per file path.
type selectiveConverter struct {
	outputs map[string]string
	errors  map[string]error
}

func (s *selectiveConverter) Convert(pdfPath string) (string, error) {
	if err, ok := s.errors[pdfPath]; ok {
		return "", err
	}
	if out, ok := s.outputs[pdfPath]; ok {
		return out, nil
	}
	return "", errors.New("unexpected path: " + pdfPath)
}

// mockRunner implements cmdRunner for the pdftotext backend tests.
type mockRunner struct {
	onPath   bool
	output   string
	err      error
	lastName string
	lastArgs []string
}

func (m *mockRunner) LookPath(file string) (string, error) {
	if m.onPath {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockRunner) RunPiped(name string, args []string, stdin io.Reader, stdout io.Writer) error {
	m.lastName = name
	m.lastArgs = args
	if m.err != nil {
		return m.err
	}
	_, _ = stdout.Write([]byte(m.output))
	return nil
}

func TestPdftotextConverter(t *testing.T) {
	runner := &mockRunner{onPath: true, output: "extracted text"}
	conv, err := newPdftotextConverter(runner)
	if err != nil {
		t.Fatalf("newPdftotextConverter() error: %v", err)
	}

	text, err := conv.Convert("/articles/raw/PMC1.pdf")
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if text != "extracted text" {
		t.Errorf("text = %q", text)
	}
	if runner.lastName != "pdftotext" {
		t.Errorf("binary = %q", runner.lastName)
	}
	if strings.Join(runner.lastArgs, " ") != "/articles/raw/PMC1.pdf -" {
		t.Errorf("args = %v", runner.lastArgs)
	}
}

func TestPdftotextConverterMissingBinary(t *testing.T) {
	if _, err := newPdftotextConverter(&mockRunner{onPath: false}); err == nil {
		t.Fatal("expected error when pdftotext missing")
	}
}

func TestPdftotextConverterEmptyOutput(t *testing.T) {
	conv, err := newPdftotextConverter(&mockRunner{onPath: true, output: ""})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := conv.Convert("/articles/raw/PMC1.pdf"); err == nil {
		t.Fatal("expected error on empty output")
	}
}

// mockRuntime implements container.Runtime for the poppler backend tests.
type mockRuntime struct {
	imageErr error
	output   string
	runErr   error
	lastCmd  []string
}

func (m *mockRuntime) Name() string                 { return "docker" }
func (m *mockRuntime) Available() bool              { return true }
func (m *mockRuntime) ImageExists(image string) error { return m.imageErr }

func (m *mockRuntime) Run(image string, cmd []string, stdin io.Reader, stdout io.Writer) error {
	m.lastCmd = cmd
	if m.runErr != nil {
		return m.runErr
	}
	_, _ = io.Copy(io.Discard, stdin)
	_, _ = stdout.Write([]byte(m.output))
	return nil
}

func TestPopplerConverter(t *testing.T) {
	pdfPath, _ := setupPDF(t)

	rt := &mockRuntime{output: "poppler text"}
	conv, err := NewPopplerConverter(rt)
	if err != nil {
		t.Fatalf("NewPopplerConverter() error: %v", err)
	}

	text, err := conv.Convert(pdfPath)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if text != "poppler text" {
		t.Errorf("text = %q", text)
	}
	if strings.Join(rt.lastCmd, " ") != "pdftotext - -" {
		t.Errorf("container cmd = %v", rt.lastCmd)
	}
}

func TestPopplerConverterMissingImage(t *testing.T) {
	rt := &mockRuntime{imageErr: errors.New("no such image")}
	if _, err := NewPopplerConverter(rt); err == nil {
		t.Fatal("expected error when image missing")
	}
}
