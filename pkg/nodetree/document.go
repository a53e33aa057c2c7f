package nodetree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"

	apperr "github.com/matzehuels/visiongraph/pkg/errors"
)

// NodeTree is the wire document for a pipeline.
type NodeTree struct {
	Nodes []Node `json:"nodes"`
}

// New returns an empty document.
func New() *NodeTree {
	return &NodeTree{Nodes: []Node{}}
}

// Clone returns a deep copy of t, as it would read back after [Write].
func (t *NodeTree) Clone() (*NodeTree, error) {
	var buf bytes.Buffer
	if err := Write(t, &buf); err != nil {
		return nil, err
	}
	return Decode(&buf)
}

// Node is one node of a document.
type Node struct {
	Type     string           `json:"type"`
	ID       string           `json:"id"`
	Settings map[string]any   `json:"settings"`
	Pos      []float64        `json:"pos"`
	Inputs   map[string]Input `json:"inputs"`
}

// Link references output Name of node ID.
type Link struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Input is the wiring of one node input. Link takes precedence over Value;
// with both nil the input is unconnected.
type Input struct {
	Link  *Link
	Value any
	// Bare selects the links-only encoding.
	Bare bool
}

type wrappedInput struct {
	Link  *Link `json:"link"`
	Value any   `json:"value"`
}

// MarshalJSON implements json.Marshaler.
func (in Input) MarshalJSON() ([]byte, error) {
	if in.Bare {
		return json.Marshal(in.Link)
	}
	return json.Marshal(wrappedInput{Link: in.Link, Value: in.Value})
}

// UnmarshalJSON implements json.Unmarshaler. It accepts the wrapped form,
// a bare link object and null.
func (in *Input) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*in = Input{Bare: true}
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	_, hasLink := raw["link"]
	_, hasValue := raw["value"]
	if hasLink || hasValue {
		var w wrappedInput
		if err := json.Unmarshal(data, &w); err != nil {
			return fmt.Errorf("input: %w", err)
		}
		*in = Input{Link: w.Link, Value: w.Value}
		return nil
	}
	var l Link
	if err := json.Unmarshal(data, &l); err != nil {
		return fmt.Errorf("input link: %w", err)
	}
	*in = Input{Link: &l, Bare: true}
	return nil
}

// Decode reads a JSON document from r.
func Decode(r io.Reader) (*NodeTree, error) {
	var t NodeTree
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidDocument, err, "decode nodetree")
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// DecodeYAML reads a YAML document.
func DecodeYAML(data []byte) (*NodeTree, error) {
	j, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidDocument, err, "decode nodetree yaml")
	}
	return Decode(bytes.NewReader(j))
}

func (t *NodeTree) validate() error {
	if t.Nodes == nil {
		return apperr.New(apperr.ErrCodeInvalidDocument, "missing nodes")
	}
	for i, n := range t.Nodes {
		if n.ID == "" {
			return apperr.New(apperr.ErrCodeInvalidDocument, "node %d: missing id", i)
		}
		if n.Type == "" {
			return apperr.New(apperr.ErrCodeInvalidDocument, "node %s: missing type", n.ID)
		}
	}
	return nil
}

// Write encodes t as indented JSON to w.
func Write(t *NodeTree, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadFile reads a document from path. Files ending in .yaml or .yml are
// decoded as YAML.
func ReadFile(path string) (*NodeTree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(data)
	}
	return Decode(bytes.NewReader(data))
}

// WriteFile writes t as JSON to path.
func WriteFile(t *NodeTree, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(t, f)
}
