// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/takeoff/internal/container"
)

const imagePdftotext = "pdftotext:latest"

// pdftotextArgs read the PDF from stdin and write layout-preserving text to
// stdout.
var pdftotextArgs = []string{"-layout", "-enc", "UTF-8", "-", "-"}

// PdftotextConverter converts PDFs by piping them through the pdftotext
// container image. It depends on a container.Runtime (docker or podman)
// injected at construction time.
type PdftotextConverter struct {
	runtime container.Runtime
}

// NewPdftotextConverter creates a converter that uses the given container
// runtime to run the pdftotext image. It verifies that the image exists
// locally before returning.
func NewPdftotextConverter(rt container.Runtime) (*PdftotextConverter, error) {
	if err := rt.ImageExists(imagePdftotext); err != nil {
		return nil, fmt.Errorf("pdftotext image not available in %s: %w", rt.Name(), err)
	}
	return &PdftotextConverter{runtime: rt}, nil
}

// Convert pipes the PDF at pdfPath through the pdftotext container and
// returns the resulting text.
func (p *PdftotextConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := p.runtime.Run(ctx, imagePdftotext, pdftotextArgs, f, &out); err != nil {
		return "", fmt.Errorf("converting %s with pdftotext: %w", pdfPath, err)
	}

	if len(bytes.TrimSpace(out.Bytes())) == 0 {
		return "", fmt.Errorf("pdftotext produced empty output for %s", pdfPath)
	}

	return out.String(), nil
}
