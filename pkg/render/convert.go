package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	apperr "github.com/matzehuels/visiongraph/pkg/errors"
)

// Format is an image format a diagram can be written in.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
)

// Converter is the external program used for formats other than SVG.
// It reads SVG on stdin and writes the converted image to stdout.
var Converter = "rsvg-convert"

// ParseFormat returns the format named s, ignoring case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatSVG, FormatPDF, FormatPNG:
		return f, nil
	}
	return "", apperr.New(apperr.ErrCodeInvalidInput, "unknown image format %q", s)
}

// Convert turns an SVG diagram into format f. SVG input is returned as is.
// Scale multiplies the pixel size of PNG output and is ignored otherwise; a
// non-positive scale means 1.
func Convert(ctx context.Context, svg []byte, f Format, scale float64) ([]byte, error) {
	var args []string
	switch f {
	case FormatSVG:
		return svg, nil
	case FormatPDF:
		args = []string{"--format", "pdf"}
	case FormatPNG:
		if scale <= 0 {
			scale = 1
		}
		args = []string{"--format", "png", "--zoom", strconv.FormatFloat(scale, 'f', 2, 64)}
	default:
		return nil, apperr.New(apperr.ErrCodeUnsupported, "cannot convert to %q", f)
	}

	bin, err := exec.LookPath(Converter)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeUnsupported, err,
			"%s output needs %s from librsvg (apt install librsvg2-bin, brew install librsvg)", f, Converter)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = bytes.NewReader(svg)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s %s: %w: %s", Converter, f, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
