package function

import (
	"fmt"

	apperr "github.com/matzehuels/visiongraph/pkg/errors"
	"github.com/matzehuels/visiongraph/pkg/types"
)

// ErrUnknownFunction is returned by [Catalog.Lookup] for an unregistered type.
var ErrUnknownFunction = apperr.New(apperr.ErrCodeUnknownFunction, "unknown function")

// Module is a versioned group of functions sharing a package name.
type Module struct {
	Package string
	Version string
	Funcs   []*Function
}

// Catalog is the immutable set of functions available to a pipeline.
type Catalog struct {
	modules []*Module
	funcs   []*Function
	byType  map[string]*Function
}

// NewCatalog registers the functions of mods in order. It fails on empty or
// duplicate names and on any declared type the registry cannot describe.
func NewCatalog(reg *types.Registry, mods ...*Module) (*Catalog, error) {
	c := &Catalog{byType: make(map[string]*Function)}
	for _, m := range mods {
		if m.Package == "" {
			return nil, fmt.Errorf("module with empty package name")
		}
		for _, fn := range m.Funcs {
			if fn.Name == "" {
				return nil, fmt.Errorf("module %s: function with empty name", m.Package)
			}
			fn.Type = m.Package + "/" + fn.Name
			if _, dup := c.byType[fn.Type]; dup {
				return nil, fmt.Errorf("function %s registered twice", fn.Type)
			}
			if err := checkSchema(reg, fn); err != nil {
				return nil, fmt.Errorf("function %s: %w", fn.Type, err)
			}
			c.byType[fn.Type] = fn
			c.funcs = append(c.funcs, fn)
		}
		c.modules = append(c.modules, m)
	}
	return c, nil
}

func checkSchema(reg *types.Registry, fn *Function) error {
	seen := make(map[string]bool)
	for _, f := range fn.Settings {
		if seen[f.Name] {
			return fmt.Errorf("setting %q declared twice", f.Name)
		}
		seen[f.Name] = true
		if _, err := reg.DescribeField(f.Type, f.Default, f.HasDefault); err != nil {
			return fmt.Errorf("setting %q: %w", f.Name, err)
		}
	}
	for _, ports := range [][]Port{fn.Inputs, fn.Outputs} {
		for _, p := range ports {
			if _, err := reg.Describe(p.Type); err != nil {
				return fmt.Errorf("port %q: %w", p.Name, err)
			}
		}
	}
	return nil
}

// Lookup returns the function with the given fully-qualified type.
func (c *Catalog) Lookup(typ string) (*Function, error) {
	fn, ok := c.byType[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, typ)
	}
	return fn, nil
}

// Modules returns the registered modules in registration order.
func (c *Catalog) Modules() []*Module { return c.modules }

// Funcs returns every registered function in registration order.
func (c *Catalog) Funcs() []*Function { return c.funcs }
