// Package pkg holds the libraries behind visiongraph, a node-graph execution
// backend whose pipelines are edited remotely and persisted per profile.
//
// # Overview
//
// A pipeline is a set of nodes, each running one function from a catalog.
// Nodes are wired output-to-input and execute in dependency order on every
// cycle. The libraries translate between the live pipeline and a stable
// JSON document, the nodetree, and keep one nodetree per profile on disk.
//
//  1. [types] - type descriptors and value coercion
//  2. [function] - function schemas, module catalogs, settings construction
//  3. [pipeline] - the live graph and its execution cycle
//  4. [nodetree] - the wire document with its exporter and importer
//  5. [catalog] - the catalog as exported to editors
//  6. [persist] - profile storage
//  7. [fifolock] - the arrival-order lock shared by editors and execution
//
// # Data Flow
//
//	editor ── nodetree JSON ──▶ [nodetree.Import] ──▶ [pipeline.Pipeline]
//	   ▲                                                     │
//	   └──────── [nodetree.Export] ◀─────────────────────────┘
//	                   │
//	                   ▼
//	            [persist.Store] (nodetree_<n>.json)
//
// # Quick Start
//
//	reg := types.NewRegistry()
//	cat, _ := builtin.Catalog(reg)
//	p := pipeline.New(reg, cat, nil)
//
//	doc, _ := nodetree.ReadFile("tree.json")
//	if _, err := nodetree.Import(ctx, p, doc); err != nil {
//	    return err
//	}
//	res, _ := p.Run(ctx)
//	fmt.Println(res.Outputs)
package pkg
