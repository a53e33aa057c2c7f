// Package builtin provides a small demonstration function catalog.
//
// The functions are numeric and routing utilities that need no image
// library, so the engine, CLI and server can be exercised without a vision
// backend. Real deployments register their own modules alongside or instead.
package builtin

import (
	"context"
	"fmt"

	"github.com/matzehuels/visiongraph/pkg/function"
	"github.com/matzehuels/visiongraph/pkg/types"
)

// Version is reported for every module in this package.
const Version = "1.0.0"

// Modules returns fresh module definitions. Each call returns new Function
// values because NewCatalog assigns their fully-qualified types.
func Modules() []*function.Module {
	return []*function.Module{Math(), Util()}
}

// Catalog builds a catalog containing only the builtin modules.
func Catalog(reg *types.Registry) (*function.Catalog, error) {
	return function.NewCatalog(reg, Modules()...)
}

// Math returns the "math" module.
func Math() *function.Module {
	return &function.Module{
		Package: "math",
		Version: Version,
		Funcs: []*function.Function{
			{
				Name:     "Constant",
				Settings: []function.Field{function.SettingDefault("value", types.Of[float64](), 0.0)},
				Outputs:  []function.Port{{Name: "value", Type: types.Of[float64]()}},
				New: stateless(func(s function.Settings, _ map[string]any) (map[string]any, error) {
					return map[string]any{"value": s["value"]}, nil
				}),
			},
			{
				Name:    "Add",
				Inputs:  []function.Port{{Name: "a", Type: types.Of[float64]()}, {Name: "b", Type: types.Of[float64]()}},
				Outputs: []function.Port{{Name: "sum", Type: types.Of[float64]()}},
				New: stateless(func(_ function.Settings, in map[string]any) (map[string]any, error) {
					a, b := toFloat(in["a"]), toFloat(in["b"])
					return map[string]any{"sum": a + b}, nil
				}),
			},
			{
				Name:     "Scale",
				Settings: []function.Field{function.SettingDefault("factor", types.Of[float64](), 1.0)},
				Inputs:   []function.Port{{Name: "x", Type: types.Of[float64]()}},
				Outputs:  []function.Port{{Name: "y", Type: types.Of[float64]()}},
				New: stateless(func(s function.Settings, in map[string]any) (map[string]any, error) {
					return map[string]any{"y": toFloat(in["x"]) * toFloat(s["factor"])}, nil
				}),
			},
			{
				Name: "Clamp",
				Settings: []function.Field{
					function.SettingDefault("bounds", types.Range{Min: 0, Max: 255}, types.RangeValue{Min: 0, Max: 255}),
				},
				Inputs:  []function.Port{{Name: "x", Type: types.Of[float64]()}},
				Outputs: []function.Port{{Name: "y", Type: types.Of[float64]()}},
				New: stateless(func(s function.Settings, in map[string]any) (map[string]any, error) {
					b, ok := s["bounds"].(types.RangeValue)
					if !ok {
						return nil, fmt.Errorf("bounds: unexpected %T", s["bounds"])
					}
					return map[string]any{"y": min(max(toFloat(in["x"]), b.Min), b.Max)}, nil
				}),
			},
		},
	}
}

// Util returns the "util" module.
func Util() *function.Module {
	return &function.Module{
		Package: "util",
		Version: Version,
		Funcs: []*function.Function{
			{
				Name:     "Select",
				Settings: []function.Field{function.SettingDefault("source", types.Options{"a", "b"}, "a")},
				Inputs:   []function.Port{{Name: "a", Type: types.Of[any]()}, {Name: "b", Type: types.Of[any]()}},
				Outputs:  []function.Port{{Name: "out", Type: types.Of[any]()}},
				New: stateless(func(s function.Settings, in map[string]any) (map[string]any, error) {
					src, _ := s["source"].(string)
					return map[string]any{"out": in[src]}, nil
				}),
			},
			{
				Name: "Gain",
				Settings: []function.Field{
					function.SettingDefault("level", types.Slide{Min: 0, Max: 100}, 50.0),
					function.Setting("enabled", types.Of[bool]()),
				},
				Inputs:  []function.Port{{Name: "x", Type: types.Of[float64]()}},
				Outputs: []function.Port{{Name: "y", Type: types.Of[float64]()}},
				New: stateless(func(s function.Settings, in map[string]any) (map[string]any, error) {
					x := toFloat(in["x"])
					if on, _ := s["enabled"].(bool); !on {
						return map[string]any{"y": x}, nil
					}
					return map[string]any{"y": x * toFloat(s["level"]) / 100}, nil
				}),
			},
			{
				Name:    "Counter",
				Outputs: []function.Port{{Name: "count", Type: types.Of[int]()}},
				New:     func() function.Instance { return &counter{} },
			},
			{
				Name:   "Sink",
				Inputs: []function.Port{{Name: "value", Type: types.Of[any]()}},
			},
		},
	}
}

// counter counts the execution cycles its node has taken part in.
type counter struct{ n int }

func (c *counter) Run(context.Context, function.Settings, map[string]any) (map[string]any, error) {
	c.n++
	return map[string]any{"count": c.n}, nil
}

func stateless(fn func(function.Settings, map[string]any) (map[string]any, error)) func() function.Instance {
	return func() function.Instance {
		return function.RunFunc(func(_ context.Context, s function.Settings, in map[string]any) (map[string]any, error) {
			return fn(s, in)
		})
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}
