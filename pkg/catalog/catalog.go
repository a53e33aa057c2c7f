// Package catalog describes the available node functions for editors.
//
// [Export] turns a [function.Catalog] into a [Schema] whose settings, inputs
// and outputs are [types.Descriptor] maps keyed by name. The schema is either
// a flat function list or grouped by module, depending on [Options.Flat]:
//
//	{"funcs": [{"name": "Scale", "type": "math/Scale", "settings": {...}, "inputs": {...}, "outputs": {...}}]}
//	{"modules": [{"package": "math", "version": "1.0.0", "funcs": [...]}]}
//
// Entries whose type is void are left out.
package catalog

import (
	"fmt"

	"github.com/matzehuels/visiongraph/pkg/function"
	"github.com/matzehuels/visiongraph/pkg/types"
)

// Options configures the schema layout.
type Options struct {
	// Flat lists every function at the top level instead of per module.
	Flat bool
}

// Schema is the exported catalog. Exactly one of Funcs and Modules is set.
type Schema struct {
	Funcs   []Func   `json:"funcs,omitempty"`
	Modules []Module `json:"modules,omitempty"`
}

// Module is one exported module.
type Module struct {
	Package string `json:"package"`
	Version string `json:"version"`
	Funcs   []Func `json:"funcs"`
}

// Func is one exported function.
type Func struct {
	Name     string                       `json:"name"`
	Type     string                       `json:"type"`
	Settings map[string]*types.Descriptor `json:"settings"`
	Inputs   map[string]*types.Descriptor `json:"inputs"`
	Outputs  map[string]*types.Descriptor `json:"outputs"`
}

// Export describes cat. It fails if any declared type is unknown to reg.
func Export(reg *types.Registry, cat *function.Catalog, opts Options) (*Schema, error) {
	if opts.Flat {
		funcs, err := exportFuncs(reg, cat.Funcs())
		if err != nil {
			return nil, err
		}
		return &Schema{Funcs: funcs}, nil
	}

	mods := make([]Module, 0, len(cat.Modules()))
	for _, m := range cat.Modules() {
		funcs, err := exportFuncs(reg, m.Funcs)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", m.Package, err)
		}
		mods = append(mods, Module{Package: m.Package, Version: m.Version, Funcs: funcs})
	}
	return &Schema{Modules: mods}, nil
}

func exportFuncs(reg *types.Registry, fns []*function.Function) ([]Func, error) {
	out := make([]Func, 0, len(fns))
	for _, fn := range fns {
		f := Func{
			Name:     fn.Name,
			Type:     fn.Type,
			Settings: make(map[string]*types.Descriptor, len(fn.Settings)),
		}
		for _, field := range fn.Settings {
			d, err := reg.DescribeField(field.Type, field.Default, field.HasDefault)
			if err != nil {
				return nil, fmt.Errorf("%s setting %s: %w", fn.Type, field.Name, err)
			}
			if d != nil {
				f.Settings[field.Name] = d
			}
		}
		var err error
		if f.Inputs, err = describePorts(reg, fn.Inputs); err != nil {
			return nil, fmt.Errorf("%s inputs: %w", fn.Type, err)
		}
		if f.Outputs, err = describePorts(reg, fn.Outputs); err != nil {
			return nil, fmt.Errorf("%s outputs: %w", fn.Type, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func describePorts(reg *types.Registry, ports []function.Port) (map[string]*types.Descriptor, error) {
	out := make(map[string]*types.Descriptor, len(ports))
	for _, p := range ports {
		d, err := reg.Describe(p.Type)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		if d != nil {
			out[p.Name] = d
		}
	}
	return out, nil
}
