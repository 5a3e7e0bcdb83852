package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// rsvgConvert is the librsvg command used for PDF export.
var rsvgConvert = "rsvg-convert"

// ToPDF converts an SVG produced by [RenderSVG] to PDF. Graphviz has no PDF
// backend here, so this needs librsvg on PATH (brew install librsvg, or
// apt install librsvg2-bin).
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	bin, err := exec.LookPath(rsvgConvert)
	if err != nil {
		return nil, fmt.Errorf("pdf export needs %s from librsvg: %w", rsvgConvert, err)
	}
	cmd := exec.CommandContext(ctx, bin, "--format", "pdf")
	cmd.Stdin = bytes.NewReader(svg)
	var out, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &out, &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", rsvgConvert, err, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}
