package types

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// Coercer is implemented by parametric types that convert wire values into
// domain values themselves.
type Coercer interface {
	// Coerce converts a decoded wire value into the domain value.
	Coerce(v any) (any, error)
	// Zero returns the value used when a setting declares no default.
	Zero() any
}

// Range declares a two-sided interval setting bounded by Min and Max.
// Values are [RangeValue]s. Unless Decimal is set, endpoints are rounded
// to integers.
type Range struct {
	Min     float64
	Max     float64
	Decimal bool
}

// RangeValue is a selected interval. On the wire it is a two-element list.
type RangeValue struct {
	Min float64
	Max float64
}

// Params returns the descriptor parameters for r.
func (r Range) Params() map[string]any {
	return map[string]any{"min": r.Min, "max": r.Max, "decimal": r.Decimal}
}

// Create builds a RangeValue from two endpoints, clamping both into the
// declared bounds. It fails when lo > hi.
func (r Range) Create(lo, hi float64) (RangeValue, error) {
	if lo > hi {
		return RangeValue{}, fmt.Errorf("%w: range lower bound %g exceeds upper bound %g", ErrTypeMismatch, lo, hi)
	}
	lo, hi = clamp(lo, r.Min, r.Max), clamp(hi, r.Min, r.Max)
	if !r.Decimal {
		lo, hi = math.Round(lo), math.Round(hi)
	}
	return RangeValue{Min: lo, Max: hi}, nil
}

// Coerce accepts a RangeValue, a two-element list of numbers, or an object
// with "min" and "max" keys.
func (r Range) Coerce(v any) (any, error) {
	switch vv := v.(type) {
	case RangeValue:
		return r.Create(vv.Min, vv.Max)
	case [2]float64:
		return r.Create(vv[0], vv[1])
	case []float64:
		if len(vv) == 2 {
			return r.Create(vv[0], vv[1])
		}
	case []any:
		if len(vv) == 2 {
			lo, ok1 := number(vv[0])
			hi, ok2 := number(vv[1])
			if ok1 && ok2 {
				return r.Create(lo, hi)
			}
		}
	case map[string]any:
		lo, ok1 := number(vv["min"])
		hi, ok2 := number(vv["max"])
		if ok1 && ok2 {
			return r.Create(lo, hi)
		}
	}
	return nil, fmt.Errorf("%w: cannot use %v (%T) as range", ErrTypeMismatch, v, v)
}

// Zero returns the full declared interval.
func (r Range) Zero() any {
	return RangeValue{Min: r.Min, Max: r.Max}
}

// MarshalJSON encodes v as [min, max].
func (v RangeValue) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{v.Min, v.Max})
}

// UnmarshalJSON decodes [min, max].
func (v *RangeValue) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	v.Min, v.Max = pair[0], pair[1]
	return nil
}

// Slide declares a bounded scalar selector. Values are float64, clamped into
// [Min, Max] and rounded unless Decimal is set.
type Slide struct {
	Min     float64
	Max     float64
	Decimal bool
}

// Params returns the descriptor parameters for s.
func (s Slide) Params() map[string]any {
	return map[string]any{"min": s.Min, "max": s.Max, "decimal": s.Decimal}
}

// Create clamps v into the declared bounds.
func (s Slide) Create(v float64) float64 {
	v = clamp(v, s.Min, s.Max)
	if !s.Decimal {
		v = math.Round(v)
	}
	return v
}

// Coerce accepts any number.
func (s Slide) Coerce(v any) (any, error) {
	f, ok := number(v)
	if !ok {
		return nil, fmt.Errorf("%w: cannot use %v (%T) as slide value", ErrTypeMismatch, v, v)
	}
	return s.Create(f), nil
}

// Zero returns the lower bound.
func (s Slide) Zero() any {
	return s.Create(s.Min)
}

// Options declares an enumerated choice. Values are one of the option strings.
type Options []string

// Params returns the descriptor parameters for o.
func (o Options) Params() map[string]any {
	return map[string]any{"options": []string(o)}
}

// Coerce accepts a string that is one of the declared options.
func (o Options) Coerce(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: cannot use %v (%T) as option", ErrTypeMismatch, v, v)
	}
	if !slices.Contains(o, s) {
		return nil, fmt.Errorf("%w: %q is not one of %v", ErrTypeMismatch, s, []string(o))
	}
	return s, nil
}

// Zero returns the first option, or "" when there are none.
func (o Options) Zero() any {
	if len(o) == 0 {
		return ""
	}
	return o[0]
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// number converts the numeric kinds produced by JSON/YAML decoding and by Go
// callers into float64.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

var (
	_ Coercer = Range{}
	_ Coercer = Slide{}
	_ Coercer = Options{}
)
