package nodetree

import (
	"context"
	"time"

	"github.com/matzehuels/visiongraph/pkg/observability"
	"github.com/matzehuels/visiongraph/pkg/pipeline"
)

// Options configures the document encoding.
type Options struct {
	// LinksOnly writes each input as a bare link or null instead of the
	// {link, value} wrapper. Constant inputs are written as null.
	LinksOnly bool
}

// Export snapshots p as a document. It holds the pipeline lock for the whole
// walk.
func Export(ctx context.Context, p *pipeline.Pipeline, opts Options) *NodeTree {
	start := time.Now()
	p.Lock()
	defer p.Unlock()

	nodes := p.Nodes()
	t := &NodeTree{Nodes: make([]Node, 0, len(nodes))}
	for _, n := range nodes {
		out := Node{
			Type:     n.Func.Type,
			ID:       n.ID,
			Settings: make(map[string]any, len(n.Settings)),
			Pos:      append([]float64{}, n.Pos...),
			Inputs:   make(map[string]Input, len(n.Func.Inputs)),
		}
		for k, v := range n.Settings {
			if v != nil {
				out.Settings[k] = v
			}
		}
		for _, port := range n.Func.Inputs {
			in := exportLink(p, n.Inputs[port.Name])
			in.Bare = opts.LinksOnly
			out.Inputs[port.Name] = in
		}
		t.Nodes = append(t.Nodes, out)
	}

	observability.NodeTree().OnExport(ctx, len(t.Nodes), time.Since(start))
	return t
}

func exportLink(p *pipeline.Pipeline, l pipeline.Link) Input {
	switch l := l.(type) {
	case pipeline.NodeLink:
		if _, ok := p.Node(l.ID); !ok {
			return Input{}
		}
		return Input{Link: &Link{ID: l.ID, Name: l.Output}}
	case pipeline.StaticLink:
		return Input{Value: l.Value}
	case pipeline.EmptyLink, nil:
		return Input{}
	}
	return Input{}
}
