// Package nodelink draws NodeTree documents as node-link diagrams.
//
// Each node is a rounded box labelled with its id and function type. Each
// linked input becomes an arrow from the source node to the consumer,
// labelled "output → input". Links whose target is not part of the document
// point from a dashed placeholder so broken wiring stays visible.
//
// # Usage
//
//	dot := nodelink.ToDOT(tree, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// With [Options.Detailed] the labels also list settings and constant
// inputs.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
