package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperr "github.com/matzehuels/visiongraph/pkg/errors"
	"github.com/matzehuels/visiongraph/pkg/observability"
)

var (
	// ErrDanglingLink is reported for a node whose input links to a node or
	// output that does not exist.
	ErrDanglingLink = apperr.New(apperr.ErrCodeExecution, "link target missing")

	// ErrUpstreamFailed is reported for a node that was skipped because a
	// node it depends on failed.
	ErrUpstreamFailed = apperr.New(apperr.ErrCodeExecution, "upstream node failed")

	// ErrCycle is reported for nodes that depend on each other.
	ErrCycle = apperr.New(apperr.ErrCodeExecution, "dependency cycle")
)

// Result is the outcome of one execution cycle.
type Result struct {
	// Outputs holds each successful node's outputs keyed by node id.
	Outputs map[string]map[string]any
	// Failed holds the error of each node that did not run successfully.
	Failed   map[string]error
	Duration time.Duration
}

// Err joins the per-node errors in r, or returns nil if every node ran.
func (r *Result) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for id, err := range r.Failed {
		errs = append(errs, fmt.Errorf("node %s: %w", id, err))
	}
	return errors.Join(errs...)
}

// Run executes every node once, in dependency order, under the pipeline
// lock. A node whose links cannot be resolved fails without running, and
// nodes downstream of a failed node are skipped. Node failures are collected
// in the result rather than returned; the error is non-nil only when ctx is
// done before the cycle completes.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.Lock()
	defer p.Unlock()

	start := time.Now()
	res := &Result{
		Outputs: make(map[string]map[string]any, len(p.order)),
		Failed:  make(map[string]error),
	}

	order, cyclic := p.schedule()
	for _, id := range cyclic {
		res.Failed[id] = ErrCycle
	}

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n := p.nodes[id]
		inputs, err := p.gather(n, res)
		if err != nil {
			res.Failed[id] = err
			continue
		}
		out, err := n.instance.Run(ctx, n.Settings, inputs)
		if err != nil {
			res.Failed[id] = apperr.Wrap(apperr.ErrCodeExecution, err, "%s failed", n.Func.Type)
			continue
		}
		res.Outputs[id] = out
	}

	res.Duration = time.Since(start)
	observability.Pipeline().OnCycle(ctx, len(p.order), len(res.Failed), res.Duration)
	return res, nil
}

// gather resolves the declared inputs of n against the outputs produced so
// far in this cycle.
func (p *Pipeline) gather(n *Node, res *Result) (map[string]any, error) {
	inputs := make(map[string]any, len(n.Func.Inputs))
	for _, in := range n.Func.Inputs {
		switch l := n.Inputs[in.Name].(type) {
		case NodeLink:
			if _, ok := p.nodes[l.ID]; !ok {
				return nil, fmt.Errorf("%w: input %s references node %q", ErrDanglingLink, in.Name, l.ID)
			}
			if _, failed := res.Failed[l.ID]; failed {
				return nil, fmt.Errorf("%w: %s", ErrUpstreamFailed, l.ID)
			}
			v, ok := res.Outputs[l.ID][l.Output]
			if !ok {
				return nil, fmt.Errorf("%w: node %s has no output %q", ErrDanglingLink, l.ID, l.Output)
			}
			inputs[in.Name] = v
		case StaticLink:
			inputs[in.Name] = l.Value
		case EmptyLink, nil:
			inputs[in.Name] = nil
		}
	}
	return inputs, nil
}

// schedule orders nodes so that every node comes after the nodes it links
// to. Ties keep insertion order. Links to missing nodes do not constrain the
// order. Nodes on or downstream of a cycle are returned separately.
func (p *Pipeline) schedule() (order, cyclic []string) {
	inDegree := make(map[string]int, len(p.order))
	children := make(map[string][]string, len(p.order))
	for _, id := range p.order {
		for _, l := range p.nodes[id].Inputs {
			nl, ok := l.(NodeLink)
			if !ok {
				continue
			}
			if _, exists := p.nodes[nl.ID]; !exists {
				continue
			}
			children[nl.ID] = append(children[nl.ID], id)
			inDegree[id]++
		}
	}

	ready := make(map[string]bool, len(p.order))
	for _, id := range p.order {
		if inDegree[id] == 0 {
			ready[id] = true
		}
	}

	done := make(map[string]bool, len(p.order))
	for len(ready) > 0 {
		// Pick the earliest ready node in insertion order.
		var next string
		for _, id := range p.order {
			if ready[id] {
				next = id
				break
			}
		}
		delete(ready, next)
		done[next] = true
		order = append(order, next)
		for _, child := range children[next] {
			inDegree[child]--
			if inDegree[child] == 0 {
				ready[child] = true
			}
		}
	}

	for _, id := range p.order {
		if !done[id] {
			cyclic = append(cyclic, id)
		}
	}
	return order, cyclic
}
