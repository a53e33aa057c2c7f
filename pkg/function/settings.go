package function

import (
	"fmt"
	"slices"
	"strings"

	apperr "github.com/matzehuels/visiongraph/pkg/errors"
	"github.com/matzehuels/visiongraph/pkg/types"
)

// ErrSchemaMismatch is returned by [Strict] when provided settings do not
// match the declared fields.
var ErrSchemaMismatch = apperr.New(apperr.ErrCodeInvalidInput, "settings do not match schema")

// Strict builds settings from provided, which must name exactly the declared
// fields. Values are coerced to their declared types. A field may be absent
// only when its default value is nil, because nil-valued settings are pruned
// from exported documents.
func Strict(reg *types.Registry, fn *Function, provided map[string]any) (Settings, error) {
	var extra []string
	for k := range provided {
		if !slices.ContainsFunc(fn.Settings, func(f Field) bool { return f.Name == k }) {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		slices.Sort(extra)
		return nil, fmt.Errorf("%w: unexpected keys %s", ErrSchemaMismatch, strings.Join(extra, ", "))
	}

	out := make(Settings, len(fn.Settings))
	for _, f := range fn.Settings {
		v, ok := provided[f.Name]
		if !ok {
			if def := defaultValue(reg, f); def != nil {
				return nil, fmt.Errorf("%w: missing key %s", ErrSchemaMismatch, f.Name)
			}
			out[f.Name] = nil
			continue
		}
		cv, err := reg.Coerce(f.Type, v)
		if err != nil {
			return nil, fmt.Errorf("%w: key %s: %w", ErrSchemaMismatch, f.Name, err)
		}
		out[f.Name] = cv
	}
	return out, nil
}

// Defaults builds settings from each field's declared default, or the zero
// value of its type when no default is declared.
func Defaults(reg *types.Registry, fn *Function) Settings {
	out := make(Settings, len(fn.Settings))
	for _, f := range fn.Settings {
		out[f.Name] = defaultValue(reg, f)
	}
	return out
}

// Build tries [Strict] and falls back to [Defaults]. The second result reports
// whether the fallback was used; the error is the reason strict construction
// failed, for logging.
func Build(reg *types.Registry, fn *Function, provided map[string]any) (Settings, bool, error) {
	s, err := Strict(reg, fn, provided)
	if err == nil {
		return s, false, nil
	}
	return Defaults(reg, fn), true, err
}

func defaultValue(reg *types.Registry, f Field) any {
	if f.HasDefault {
		return f.Default
	}
	// Types were checked by NewCatalog, so Zero cannot fail here.
	v, _ := reg.Zero(f.Type)
	return v
}
