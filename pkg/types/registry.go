package types

import (
	"fmt"
	"math"
	"reflect"

	apperr "github.com/matzehuels/visiongraph/pkg/errors"
)

var (
	// ErrUnknownType is returned when a declared type has no table entry and
	// no extension parser accepts it. It indicates a defect in a function
	// schema rather than bad user input.
	ErrUnknownType = apperr.New(apperr.ErrCodeUnknownType, "unknown type")

	// ErrTypeMismatch is returned by Coerce when a value cannot represent the
	// declared type.
	ErrTypeMismatch = apperr.New(apperr.ErrCodeInvalidInput, "type mismatch")
)

// Descriptor is the wire description of a value type.
type Descriptor struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

// Parser describes types the fixed table does not cover. It reports false
// when it does not handle t.
type Parser func(t any) (*Descriptor, bool)

// Registry maps declared types to descriptors. See the package documentation.
type Registry struct {
	names   map[reflect.Type]string
	parsers []Parser
}

// NewRegistry returns the registry with the built-in table and the extension
// parsers in priority order: range, slide, options.
func NewRegistry() *Registry {
	return &Registry{
		names: map[reflect.Type]string{
			reflect.TypeFor[float64]():  "dec",
			reflect.TypeFor[int]():      "int",
			reflect.TypeFor[string]():   "str",
			reflect.TypeFor[bool]():     "boolean",
			reflect.TypeFor[Mat]():      "mat",
			reflect.TypeFor[MatBW]():    "mbw",
			reflect.TypeFor[Contour]():  "cnt",
			reflect.TypeFor[Contours](): "cts",
			reflect.TypeFor[any]():      "any",
		},
		parsers: []Parser{parseRange, parseSlide, parseOptions},
	}
}

func parseRange(t any) (*Descriptor, bool) {
	r, ok := t.(Range)
	if !ok {
		return nil, false
	}
	return &Descriptor{Type: "range", Params: r.Params()}, true
}

func parseSlide(t any) (*Descriptor, bool) {
	s, ok := t.(Slide)
	if !ok {
		return nil, false
	}
	return &Descriptor{Type: "slide", Params: s.Params()}, true
}

func parseOptions(t any) (*Descriptor, bool) {
	o, ok := t.(Options)
	if !ok {
		return nil, false
	}
	return &Descriptor{Type: "box", Params: o.Params()}, true
}

// Describe returns the descriptor for t, or nil for [Void].
func (r *Registry) Describe(t any) (*Descriptor, error) {
	if IsVoid(t) {
		return nil, nil
	}
	if rt, ok := t.(reflect.Type); ok {
		if name, ok := r.names[rt]; ok {
			return &Descriptor{Type: name, Params: map[string]any{}}, nil
		}
	}
	for _, parse := range r.parsers {
		if d, ok := parse(t); ok {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %v (%T)", ErrUnknownType, t, t)
}

// DescribeField describes a setting field. When hasDefault is true the default
// is recorded under params["default"], including zero and false defaults.
func (r *Registry) DescribeField(t any, def any, hasDefault bool) (*Descriptor, error) {
	d, err := r.Describe(t)
	if err != nil || d == nil {
		return d, err
	}
	if hasDefault {
		d.Params["default"] = def
	}
	return d, nil
}

// Coerce converts a decoded wire value into the domain value for t.
func (r *Registry) Coerce(t any, v any) (any, error) {
	if c, ok := t.(Coercer); ok {
		return c.Coerce(v)
	}
	rt, ok := t.(reflect.Type)
	if !ok || r.names[rt] == "" {
		return nil, fmt.Errorf("%w: %v (%T)", ErrUnknownType, t, t)
	}
	return coerceValue(rt, v)
}

// Zero returns the value for a setting of type t that declares no default.
func (r *Registry) Zero(t any) (any, error) {
	if c, ok := t.(Coercer); ok {
		return c.Zero(), nil
	}
	rt, ok := t.(reflect.Type)
	if !ok || r.names[rt] == "" {
		return nil, fmt.Errorf("%w: %v (%T)", ErrUnknownType, t, t)
	}
	return reflect.Zero(rt).Interface(), nil
}

func coerceValue(rt reflect.Type, v any) (any, error) {
	if rt.Kind() == reflect.Interface {
		return v, nil
	}
	switch rt.Kind() {
	case reflect.Float64:
		if f, ok := number(v); ok {
			return f, nil
		}
	case reflect.Int:
		if f, ok := number(v); ok && f == math.Trunc(f) {
			return int(f), nil
		}
	default:
		if v != nil && reflect.TypeOf(v).AssignableTo(rt) {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: cannot use %v (%T) as %s", ErrTypeMismatch, v, v, rt)
}
