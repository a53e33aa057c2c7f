package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/visiongraph/pkg/nodetree"
	"github.com/matzehuels/visiongraph/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds settings and constant inputs to node labels.
	// When false, only the id and function type are shown.
	Detailed bool
}

// ToDOT converts a document to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG] or [Render].
func ToDOT(t *nodetree.NodeTree, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("\n")

	known := make(map[string]bool, len(t.Nodes))
	for _, n := range t.Nodes {
		known[n.ID] = true
	}

	missing := make(map[string]bool)
	for _, n := range t.Nodes {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", n.ID, fmtLabel(n, opts.Detailed))
	}

	buf.WriteString("\n")
	for _, n := range t.Nodes {
		for _, name := range slices.Sorted(maps.Keys(n.Inputs)) {
			l := n.Inputs[name].Link
			if l == nil {
				continue
			}
			from := l.ID
			if !known[from] {
				from = "missing:" + l.ID
				missing[from] = true
			}
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", from, n.ID, l.Name+" → "+name)
		}
	}

	if len(missing) > 0 {
		buf.WriteString("\n")
		for _, id := range slices.Sorted(maps.Keys(missing)) {
			label := strings.TrimPrefix(id, "missing:") + "\n(missing)"
			fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,dashed\", fontcolor=grey];\n", id, label)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n nodetree.Node, detailed bool) string {
	label := n.ID + "\n" + n.Type
	if !detailed {
		return label
	}

	var parts []string
	for _, k := range slices.Sorted(maps.Keys(n.Settings)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Settings[k]))
	}
	for _, k := range slices.Sorted(maps.Keys(n.Inputs)) {
		if in := n.Inputs[k]; in.Link == nil && in.Value != nil {
			parts = append(parts, fmt.Sprintf("%s = %v", k, in.Value))
		}
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// The result can be converted further with [render.Convert].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// Render renders a DOT graph to SVG and converts it to format f with
// [render.Convert].
func Render(ctx context.Context, dot string, f render.Format, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.Convert(ctx, svg, f, scale)
}
