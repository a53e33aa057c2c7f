// Package pipeline holds the live node graph and runs its execution cycle.
//
// A [Pipeline] owns an ordered set of [Node]s keyed by caller-chosen ids and
// the [fifolock.Lock] that serializes every access to them. The graph is
// mutated by the nodetree importer and read by the exporter; the execution
// loop calls [Pipeline.Run] between edits. Mutation primitives expect the
// caller to hold the lock (see [Pipeline.Lock]); Run takes it itself.
//
// # Links
//
// Each declared input of a node is wired by a [Link], which is exactly one
// of [NodeLink], [StaticLink] or [EmptyLink]. Code that consumes links uses a
// type switch over these three cases.
package pipeline

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	apperr "github.com/matzehuels/visiongraph/pkg/errors"
	"github.com/matzehuels/visiongraph/pkg/fifolock"
	"github.com/matzehuels/visiongraph/pkg/function"
	"github.com/matzehuels/visiongraph/pkg/types"
)

var (
	// ErrDuplicateNodeID is returned when creating a node whose id is taken.
	ErrDuplicateNodeID = apperr.New(apperr.ErrCodeInvalidNodeID, "duplicate node id")

	// ErrNodeNotFound is returned for operations on an unknown id.
	ErrNodeNotFound = apperr.New(apperr.ErrCodeInvalidNodeID, "node not found")

	// ErrUnknownInput is returned when wiring an input the function does not declare.
	ErrUnknownInput = apperr.New(apperr.ErrCodeInvalidInput, "unknown input")
)

// Link wires one node input. It is implemented by [NodeLink], [StaticLink]
// and [EmptyLink] only.
type Link interface {
	link()
}

// NodeLink feeds an input from output Output of node ID. The target is not
// required to exist when the link is set; a missing target is reported when
// the graph runs.
type NodeLink struct {
	ID     string
	Output string
}

// StaticLink feeds an input with a constant value.
type StaticLink struct {
	Value any
}

// EmptyLink leaves an input unconnected.
type EmptyLink struct{}

func (NodeLink) link()   {}
func (StaticLink) link() {}
func (EmptyLink) link()  {}

// Node is one function instance in the graph.
type Node struct {
	ID   string
	Func *function.Function

	Settings function.Settings
	// Pos is the editor position. Nodes created before positions were
	// recorded have a nil Pos.
	Pos    []float64
	Inputs map[string]Link

	instance function.Instance
}

// Instance returns the execution-bound instance created with the node.
func (n *Node) Instance() function.Instance { return n.instance }

// Pipeline is the live node graph.
type Pipeline struct {
	lock   fifolock.Lock
	reg    *types.Registry
	cat    *function.Catalog
	logger *log.Logger

	nodes map[string]*Node
	order []string
}

// New returns an empty pipeline over the given registry and catalog.
func New(reg *types.Registry, cat *function.Catalog, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		reg:    reg,
		cat:    cat,
		logger: logger,
		nodes:  make(map[string]*Node),
	}
}

// Lock acquires the pipeline's FIFO lock.
func (p *Pipeline) Lock() { p.lock.Lock() }

// Unlock releases the pipeline's FIFO lock.
func (p *Pipeline) Unlock() { p.lock.Unlock() }

// Waiting reports how many callers are queued on the lock.
func (p *Pipeline) Waiting() int { return p.lock.Waiting() }

// Registry returns the type registry the pipeline was built with.
func (p *Pipeline) Registry() *types.Registry { return p.reg }

// Catalog returns the function catalog the pipeline was built with.
func (p *Pipeline) Catalog() *function.Catalog { return p.cat }

// Logger returns the pipeline's logger.
func (p *Pipeline) Logger() *log.Logger { return p.logger }

// Len returns the number of nodes. The caller must hold the lock.
func (p *Pipeline) Len() int { return len(p.order) }

// Nodes returns the nodes in insertion order. The caller must hold the lock.
func (p *Pipeline) Nodes() []*Node {
	out := make([]*Node, len(p.order))
	for i, id := range p.order {
		out[i] = p.nodes[id]
	}
	return out
}

// Node returns the node with the given id. The caller must hold the lock.
func (p *Pipeline) Node(id string) (*Node, bool) {
	n, ok := p.nodes[id]
	return n, ok
}

// CreateNode adds a node running fn with default settings and every input
// empty. The caller must hold the lock.
func (p *Pipeline) CreateNode(id string, fn *function.Function) (*Node, error) {
	if err := apperr.ValidateNodeID(id); err != nil {
		return nil, err
	}
	if _, ok := p.nodes[id]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateNodeID, id)
	}
	n := &Node{
		ID:       id,
		Func:     fn,
		Settings: function.Defaults(p.reg, fn),
		Inputs:   make(map[string]Link, len(fn.Inputs)),
		instance: fn.NewInstance(),
	}
	for _, in := range fn.Inputs {
		n.Inputs[in.Name] = EmptyLink{}
	}
	p.nodes[id] = n
	p.order = append(p.order, id)
	p.logger.Debug("created node", "id", id, "type", fn.Type)
	return n, nil
}

// DeleteNode removes a node. Inputs of other nodes that were linked to it
// become empty. The caller must hold the lock.
func (p *Pipeline) DeleteNode(id string) error {
	if _, ok := p.nodes[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	delete(p.nodes, id)
	p.order = slices.DeleteFunc(p.order, func(s string) bool { return s == id })

	for _, n := range p.nodes {
		for name, l := range n.Inputs {
			if nl, ok := l.(NodeLink); ok && nl.ID == id {
				n.Inputs[name] = EmptyLink{}
			}
		}
	}
	p.logger.Debug("deleted node", "id", id)
	return nil
}

// SetInput wires a declared input of node id. The caller must hold the lock.
func (p *Pipeline) SetInput(id, input string, l Link) error {
	n, ok := p.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	if _, ok := n.Func.Input(input); !ok {
		return fmt.Errorf("%w: %s has no input %q", ErrUnknownInput, n.Func.Type, input)
	}
	if l == nil {
		l = EmptyLink{}
	}
	n.Inputs[input] = l
	return nil
}

// SetSettings replaces the settings of node id. The caller must hold the lock.
func (p *Pipeline) SetSettings(id string, s function.Settings) error {
	n, ok := p.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	n.Settings = s
	return nil
}

// SetPos records the editor position of node id. The caller must hold the lock.
func (p *Pipeline) SetPos(id string, pos []float64) error {
	n, ok := p.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	n.Pos = pos
	return nil
}
