package function

import (
	"context"
	"maps"
)

// Field is one declared setting.
type Field struct {
	Name       string
	Type       any
	Default    any
	HasDefault bool
}

// Setting declares a setting without a default.
func Setting(name string, typ any) Field {
	return Field{Name: name, Type: typ}
}

// SettingDefault declares a setting with a default value.
func SettingDefault(name string, typ any, def any) Field {
	return Field{Name: name, Type: typ, Default: def, HasDefault: true}
}

// Port is a named input or output.
type Port struct {
	Name string
	Type any
}

// Settings is a validated settings bundle keyed by field name.
type Settings map[string]any

// Clone returns a shallow copy of s.
func (s Settings) Clone() Settings {
	return maps.Clone(s)
}

// Instance is the execution-bound side of a node. One Instance is created per
// node identity and lives as long as the node, so it may keep state between
// execution cycles.
type Instance interface {
	Run(ctx context.Context, settings Settings, inputs map[string]any) (map[string]any, error)
}

// RunFunc adapts a plain function to [Instance].
type RunFunc func(ctx context.Context, settings Settings, inputs map[string]any) (map[string]any, error)

// Run calls f.
func (f RunFunc) Run(ctx context.Context, settings Settings, inputs map[string]any) (map[string]any, error) {
	return f(ctx, settings, inputs)
}

// Function is a node function schema.
type Function struct {
	// Name is the short display name.
	Name string
	// Type is the fully-qualified function type, "<package>/<name>".
	// It is assigned by NewCatalog.
	Type string

	Settings []Field
	Inputs   []Port
	Outputs  []Port

	// New creates the execution-bound instance for a node. When nil the
	// node passes nothing through.
	New func() Instance
}

// Input returns the declared input port with the given name.
func (f *Function) Input(name string) (Port, bool) {
	for _, p := range f.Inputs {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// Output returns the declared output port with the given name.
func (f *Function) Output(name string) (Port, bool) {
	for _, p := range f.Outputs {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// NewInstance creates a fresh execution-bound instance for a node.
func (f *Function) NewInstance() Instance {
	if f.New == nil {
		return RunFunc(func(context.Context, Settings, map[string]any) (map[string]any, error) {
			return map[string]any{}, nil
		})
	}
	return f.New()
}
