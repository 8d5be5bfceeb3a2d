// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
)

const binPdftotext = "pdftotext"

// cmdRunner abstracts command execution for testing.
type cmdRunner interface {
	LookPath(file string) (string, error)
	RunPiped(name string, args []string, stdin io.Reader, stdout io.Writer) error
}

type osRunner struct{}

func (osRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osRunner) RunPiped(name string, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	return cmd.Run()
}

// PdftotextConverter converts PDFs with the host pdftotext binary from
// poppler-utils. This is the default backend; it needs no container runtime.
type PdftotextConverter struct {
	exec cmdRunner
}

// NewPdftotextConverter creates the host-binary converter. It verifies that
// pdftotext is on PATH before returning.
func NewPdftotextConverter() (*PdftotextConverter, error) {
	return newPdftotextConverter(osRunner{})
}

func newPdftotextConverter(exec cmdRunner) (*PdftotextConverter, error) {
	if _, err := exec.LookPath(binPdftotext); err != nil {
		return nil, fmt.Errorf("%s not found on PATH (install poppler-utils): %w", binPdftotext, err)
	}
	return &PdftotextConverter{exec: exec}, nil
}

// Convert runs pdftotext on the PDF at pdfPath, capturing the text from
// stdout.
func (p *PdftotextConverter) Convert(pdfPath string) (string, error) {
	var out bytes.Buffer
	args := []string{pdfPath, "-"}
	if err := p.exec.RunPiped(binPdftotext, args, nil, &out); err != nil {
		return "", fmt.Errorf("converting %s with %s: %w", pdfPath, binPdftotext, err)
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("%s produced empty output for %s", binPdftotext, pdfPath)
	}
	return out.String(), nil
}
