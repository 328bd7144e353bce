// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftables

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pdiddy/ssi-report/internal/container"
	"github.com/pdiddy/ssi-report/pkg/types"
)

// ContainerExtractor pipes the PDF through an extraction image run by a
// container.Runtime (docker or podman) and decodes the JSON it prints.
type ContainerExtractor struct {
	runtime container.Runtime
	image   string
}

// NewContainerExtractor verifies that image exists locally before returning.
func NewContainerExtractor(rt container.Runtime, image string) (*ContainerExtractor, error) {
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("extraction image not available in %s: %w", rt.Name(), err)
	}
	return &ContainerExtractor{runtime: rt, image: image}, nil
}

// Extract runs the image over all pages of pdfPath.
func (c *ContainerExtractor) Extract(ctx context.Context, pdfPath string) ([]types.Table, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := c.runtime.Run(ctx, c.image, []string{"--pages", "all"}, f, &out); err != nil {
		return nil, fmt.Errorf("extracting tables from %s: %w", pdfPath, err)
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("%s produced empty output for %s", c.image, pdfPath)
	}

	var found []types.Table
	if err := json.Unmarshal(out.Bytes(), &found); err != nil {
		return nil, fmt.Errorf("decoding %s output: %w", c.image, err)
	}
	return found, nil
}
