// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"fmt"
	"os"

	"github.com/meshintel/telescan/internal/container"
)

const imagePoppler = "minidocks/poppler:latest"

// PopplerConverter converts PDFs by piping them through a poppler container
// image. It depends on a container.Runtime (docker or podman) injected at
// construction time, so conversion works on hosts without poppler-utils.
type PopplerConverter struct {
	runtime container.Runtime
}

// NewPopplerConverter creates a converter that uses the given container
// runtime to run the poppler image. It verifies that the image exists
// locally before returning.
func NewPopplerConverter(rt container.Runtime) (*PopplerConverter, error) {
	if err := rt.ImageExists(imagePoppler); err != nil {
		return nil, fmt.Errorf("poppler image not available in %s: %w", rt.Name(), err)
	}
	return &PopplerConverter{runtime: rt}, nil
}

// Convert reads the PDF at pdfPath, pipes it through pdftotext inside the
// poppler container, and returns the extracted text.
func (p *PopplerConverter) Convert(pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := p.runtime.Run(imagePoppler, []string{"pdftotext", "-", "-"}, f, &out); err != nil {
		return "", fmt.Errorf("converting %s with poppler: %w", pdfPath, err)
	}

	if out.Len() == 0 {
		return "", fmt.Errorf("poppler produced empty output for %s", pdfPath)
	}

	return out.String(), nil
}
