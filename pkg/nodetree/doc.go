// Package nodetree converts between a live [pipeline.Pipeline] and its wire
// and persisted form, the NodeTree document.
//
// # Format
//
//	{
//	  "nodes": [
//	    {
//	      "type": "math/Constant",
//	      "id": "k",
//	      "settings": {"value": 4},
//	      "pos": [120, 40],
//	      "inputs": {}
//	    },
//	    {
//	      "type": "math/Scale",
//	      "id": "s",
//	      "settings": {"factor": 2},
//	      "pos": [],
//	      "inputs": {"x": {"link": {"id": "k", "name": "value"}, "value": null}}
//	    }
//	  ]
//	}
//
// Settings whose value is null are omitted. Each declared input is one of
//
//   - {"link": {"id": ..., "name": ...}, "value": null} for a link to another node's output
//   - {"link": null, "value": v} for a constant
//   - {"link": null, "value": null} for an unconnected input
//
// In links-only mode each input is written as the bare link object or null.
// Decoding accepts both shapes, and YAML documents are accepted by [ReadFile]
// and [DecodeYAML].
//
// # Export
//
// [Export] takes the pipeline lock for the whole walk, so a document never
// reflects a half-applied import. Links whose target node no longer exists
// are written as unconnected.
//
// # Import
//
// [Import] treats a document as the complete set of nodes:
//
//  1. Nodes whose id is absent from the document are deleted. A node whose
//     id is present with a different function type is also deleted and
//     created again with the new type.
//  2. Nodes with new ids are created. Nodes that already exist keep their
//     execution-bound instance.
//  3. In document order, each node's inputs are wired, its settings are
//     applied and its position is stored.
//
// Link targets are not checked; a missing target fails that node when the
// pipeline runs. Settings are built strictly from the document and fall back
// to the declared defaults when keys are missing or extra. A null setting is
// an [ImportError] and stops the import. Nodes reconciled before the error
// stay applied.
package nodetree
