package nodetree

import (
	"context"
	"fmt"
	"slices"
	"time"

	apperr "github.com/matzehuels/visiongraph/pkg/errors"
	"github.com/matzehuels/visiongraph/pkg/function"
	"github.com/matzehuels/visiongraph/pkg/observability"
	"github.com/matzehuels/visiongraph/pkg/pipeline"
)

// ErrImport is the sentinel matched by every [ImportError].
var ErrImport = apperr.New(apperr.ErrCodeImport, "import failed")

// ImportError reports a node that could not be reconciled. Nodes handled
// before it remain applied.
type ImportError struct {
	NodeID   string
	NodeType string
	Reason   string
	Err      error
}

func (e *ImportError) Error() string {
	msg := fmt.Sprintf("import node %s (%s): %s", e.NodeID, e.NodeType, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns [ErrImport] and the underlying cause, if any.
func (e *ImportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrImport}
	}
	return []error{ErrImport, e.Err}
}

// Stats counts the structural changes made by an import.
type Stats struct {
	Created int
	Deleted int
	// Fallbacks counts nodes whose settings fell back to defaults.
	Fallbacks int
}

// Import reconciles p with doc under the pipeline lock. See the package
// documentation for the algorithm. On error the returned stats describe the
// changes applied before the failure.
func Import(ctx context.Context, p *pipeline.Pipeline, doc *NodeTree) (stats Stats, err error) {
	start := time.Now()
	p.Lock()
	defer p.Unlock()
	defer func() {
		observability.NodeTree().OnImport(ctx, stats.Created, stats.Deleted, time.Since(start), err)
	}()

	logger := p.Logger()
	incoming := make(map[string]*Node, len(doc.Nodes))
	for i := range doc.Nodes {
		dn := &doc.Nodes[i]
		if _, dup := incoming[dn.ID]; dup {
			return stats, &ImportError{NodeID: dn.ID, NodeType: dn.Type, Reason: "duplicate id in document"}
		}
		incoming[dn.ID] = dn
	}

	for _, n := range p.Nodes() {
		dn, keep := incoming[n.ID]
		if keep && dn.Type == n.Func.Type {
			continue
		}
		if keep {
			logger.Info("node type changed, recreating", "id", n.ID, "from", n.Func.Type, "to", dn.Type)
		}
		if err := p.DeleteNode(n.ID); err != nil {
			return stats, err
		}
		stats.Deleted++
	}

	for _, dn := range doc.Nodes {
		if _, ok := p.Node(dn.ID); ok {
			continue
		}
		fn, err := p.Catalog().Lookup(dn.Type)
		if err != nil {
			return stats, &ImportError{NodeID: dn.ID, NodeType: dn.Type, Reason: "cannot create node", Err: err}
		}
		if _, err := p.CreateNode(dn.ID, fn); err != nil {
			return stats, &ImportError{NodeID: dn.ID, NodeType: dn.Type, Reason: "cannot create node", Err: err}
		}
		stats.Created++
	}

	for i := range doc.Nodes {
		dn := &doc.Nodes[i]
		// A null setting rejects the node before any of it is touched.
		if k := nullSetting(dn.Settings); k != "" {
			return stats, &ImportError{NodeID: dn.ID, NodeType: dn.Type, Reason: fmt.Sprintf("setting %q is null", k)}
		}
		n, _ := p.Node(dn.ID)
		if err := wire(p, n, dn); err != nil {
			return stats, err
		}

		settings, fellBack, strictErr := function.Build(p.Registry(), n.Func, dn.Settings)
		if fellBack {
			stats.Fallbacks++
			logger.Warn("settings do not match schema, using defaults", "id", dn.ID, "type", dn.Type, "err", strictErr)
			observability.NodeTree().OnSettingsFallback(ctx, dn.Type)
		}
		_ = p.SetSettings(dn.ID, settings)

		_ = p.SetPos(dn.ID, append([]float64{}, dn.Pos...))
	}

	logger.Debug("imported nodetree", "nodes", len(doc.Nodes), "created", stats.Created, "deleted", stats.Deleted)
	return stats, nil
}

// wire sets every declared input of n from the document. Inputs missing from
// the document are left unconnected; inputs the function does not declare
// are ignored. Links are resolved before any is set, so a coercion failure
// leaves n untouched.
func wire(p *pipeline.Pipeline, n *pipeline.Node, dn *Node) error {
	for name := range dn.Inputs {
		if _, ok := n.Func.Input(name); !ok {
			p.Logger().Warn("ignoring undeclared input", "id", dn.ID, "type", dn.Type, "input", name)
		}
	}
	links := make([]pipeline.Link, len(n.Func.Inputs))
	for i, port := range n.Func.Inputs {
		in := dn.Inputs[port.Name]
		var l pipeline.Link = pipeline.EmptyLink{}
		switch {
		case in.Link != nil:
			l = pipeline.NodeLink{ID: in.Link.ID, Output: in.Link.Name}
		case in.Value != nil:
			v, err := p.Registry().Coerce(port.Type, in.Value)
			if err != nil {
				return &ImportError{NodeID: dn.ID, NodeType: dn.Type, Reason: fmt.Sprintf("input %q", port.Name), Err: err}
			}
			l = pipeline.StaticLink{Value: v}
		}
		links[i] = l
	}
	for i, port := range n.Func.Inputs {
		if err := p.SetInput(dn.ID, port.Name, links[i]); err != nil {
			return err
		}
	}
	return nil
}

// nullSetting returns the first key, in sorted order, whose value is nil.
func nullSetting(settings map[string]any) string {
	var keys []string
	for k, v := range settings {
		if v == nil {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	slices.Sort(keys)
	return keys[0]
}
