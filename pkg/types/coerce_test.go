package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCoerce(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name    string
		typ     any
		in      any
		want    any
		wantErr bool
	}{
		{"float from float", Of[float64](), 1.5, 1.5, false},
		{"float from int", Of[float64](), 3, 3.0, false},
		{"float from json number", Of[float64](), json.Number("2.5"), 2.5, false},
		{"float from string", Of[float64](), "x", nil, true},
		{"int from integral float", Of[int](), 4.0, 4, false},
		{"int from fractional float", Of[int](), 4.5, nil, true},
		{"string", Of[string](), "abc", "abc", false},
		{"string from number", Of[string](), 1.0, nil, true},
		{"bool", Of[bool](), true, true, false},
		{"bool from nil", Of[bool](), nil, nil, true},
		{"any passes through", Of[any](), []any{1.0}, []any{1.0}, false},
		{"image", Of[Mat](), Mat{Width: 2}, Mat{Width: 2}, false},

		{"range from list", Range{Min: 0, Max: 255}, []any{10.0, 20.0}, RangeValue{Min: 10, Max: 20}, false},
		{"range clamps", Range{Min: 0, Max: 100}, []any{-5.0, 500.0}, RangeValue{Min: 0, Max: 100}, false},
		{"range rounds", Range{Min: 0, Max: 100}, []any{1.4, 2.6}, RangeValue{Min: 1, Max: 3}, false},
		{"range decimal", Range{Min: 0, Max: 1, Decimal: true}, []any{0.25, 0.75}, RangeValue{Min: 0.25, Max: 0.75}, false},
		{"range from value", Range{Min: 0, Max: 10}, RangeValue{Min: 1, Max: 2}, RangeValue{Min: 1, Max: 2}, false},
		{"range from object", Range{Min: 0, Max: 10}, map[string]any{"min": 1.0, "max": 2.0}, RangeValue{Min: 1, Max: 2}, false},
		{"range reversed", Range{Min: 0, Max: 10}, []any{5.0, 1.0}, nil, true},
		{"range wrong length", Range{Min: 0, Max: 10}, []any{5.0}, nil, true},

		{"slide clamps", Slide{Min: 0, Max: 10}, 42.0, 10.0, false},
		{"slide rounds", Slide{Min: 0, Max: 10}, 2.4, 2.0, false},
		{"slide decimal", Slide{Min: 0, Max: 1, Decimal: true}, 0.5, 0.5, false},
		{"slide not a number", Slide{Min: 0, Max: 1}, "0.5", nil, true},

		{"option", Options{"a", "b"}, "b", "b", false},
		{"option not declared", Options{"a", "b"}, "c", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.Coerce(tt.typ, tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Coerce() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrTypeMismatch) {
					t.Errorf("Coerce() error = %v, want ErrTypeMismatch", err)
				}
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Coerce() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCoerceUnknownType(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Coerce(Of[uint8](), 1); !errors.Is(err, ErrUnknownType) {
		t.Errorf("Coerce() error = %v, want ErrUnknownType", err)
	}
}

func TestZero(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name string
		typ  any
		want any
	}{
		{"float", Of[float64](), 0.0},
		{"int", Of[int](), 0},
		{"string", Of[string](), ""},
		{"bool", Of[bool](), false},
		{"any", Of[any](), nil},
		{"range", Range{Min: 1, Max: 9}, RangeValue{Min: 1, Max: 9}},
		{"slide", Slide{Min: 3, Max: 9}, 3.0},
		{"options", Options{"x", "y"}, "x"},
		{"empty options", Options{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.Zero(tt.typ)
			if err != nil {
				t.Fatalf("Zero() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Zero() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRangeValueJSON(t *testing.T) {
	v := RangeValue{Min: 10, Max: 20}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[10,20]" {
		t.Errorf("Marshal = %s, want [10,20]", data)
	}

	var back RangeValue
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back != v {
		t.Errorf("Unmarshal = %+v, want %+v", back, v)
	}
}
