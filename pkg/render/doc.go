// Package render converts pipeline diagrams into image formats.
//
// The [nodelink] subpackage draws a NodeTree document as a Graphviz diagram
// and renders it to SVG in-process. [Convert] turns that SVG into PDF or PNG
// with the external rsvg-convert tool from librsvg:
//
//	dot := nodelink.ToDOT(tree, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//	png, err := render.Convert(ctx, svg, render.FormatPNG, 2.0)
//
// [nodelink]: github.com/matzehuels/visiongraph/pkg/render/nodelink
package render
