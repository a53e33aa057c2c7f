package function

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/visiongraph/pkg/types"
)

func thresholdFunc() *Function {
	return &Function{
		Name: "Threshold",
		Settings: []Field{
			SettingDefault("level", types.Slide{Min: 0, Max: 255}, 128.0),
			SettingDefault("invert", types.Of[bool](), false),
			Setting("mode", types.Options{"binary", "adaptive"}),
			Setting("hue", types.Range{Min: 0, Max: 180}),
		},
	}
}

func TestStrict(t *testing.T) {
	reg := types.NewRegistry()
	fn := thresholdFunc()

	got, err := Strict(reg, fn, map[string]any{
		"level":  300.0,
		"invert": true,
		"mode":   "adaptive",
		"hue":    []any{10.0, 20.0},
	})
	if err != nil {
		t.Fatalf("Strict() error: %v", err)
	}

	want := Settings{
		"level":  255.0,
		"invert": true,
		"mode":   "adaptive",
		"hue":    types.RangeValue{Min: 10, Max: 20},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Strict() mismatch (-want +got):\n%s", diff)
	}
}

func TestStrictMismatch(t *testing.T) {
	reg := types.NewRegistry()
	fn := thresholdFunc()
	full := func() map[string]any {
		return map[string]any{"level": 1.0, "invert": false, "mode": "binary", "hue": []any{0.0, 1.0}}
	}

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"extra key", func(m map[string]any) { m["unknown"] = 1.0 }},
		{"missing key with default", func(m map[string]any) { delete(m, "level") }},
		{"missing key without default", func(m map[string]any) { delete(m, "mode") }},
		{"wrong type", func(m map[string]any) { m["invert"] = "yes" }},
		{"undeclared option", func(m map[string]any) { m["mode"] = "otsu" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := full()
			tt.mutate(m)
			_, err := Strict(reg, fn, m)
			if !errors.Is(err, ErrSchemaMismatch) {
				t.Errorf("Strict() error = %v, want ErrSchemaMismatch", err)
			}
		})
	}
}

func TestStrictAllowsPrunedNil(t *testing.T) {
	reg := types.NewRegistry()
	fn := &Function{Name: "Hold", Settings: []Field{Setting("last", types.Of[any]())}}

	got, err := Strict(reg, fn, map[string]any{})
	if err != nil {
		t.Fatalf("Strict() error: %v", err)
	}
	if v, ok := got["last"]; !ok || v != nil {
		t.Errorf("Strict() = %v, want last=nil", got)
	}
}

func TestDefaults(t *testing.T) {
	reg := types.NewRegistry()

	got := Defaults(reg, thresholdFunc())
	want := Settings{
		"level":  128.0,
		"invert": false,
		"mode":   "binary",
		"hue":    types.RangeValue{Min: 0, Max: 180},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Defaults() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild(t *testing.T) {
	reg := types.NewRegistry()
	fn := thresholdFunc()

	t.Run("strict", func(t *testing.T) {
		s, fellBack, err := Build(reg, fn, map[string]any{"level": 3.0, "invert": true, "mode": "binary", "hue": []any{1.0, 2.0}})
		if err != nil || fellBack {
			t.Fatalf("Build() = fellBack %v, err %v", fellBack, err)
		}
		if s["level"] != 3.0 {
			t.Errorf("level = %v, want 3", s["level"])
		}
	})

	t.Run("fallback on extra key", func(t *testing.T) {
		s, fellBack, err := Build(reg, fn, map[string]any{"level": 3.0, "invert": true, "mode": "binary", "hue": []any{1.0, 2.0}, "x": 1.0})
		if !fellBack || err == nil {
			t.Fatalf("Build() = fellBack %v, err %v; want fallback", fellBack, err)
		}
		if diff := cmp.Diff(Defaults(reg, fn), s); diff != "" {
			t.Errorf("fallback settings mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("fallback on missing key", func(t *testing.T) {
		s, fellBack, _ := Build(reg, fn, map[string]any{"level": 3.0})
		if !fellBack {
			t.Fatal("Build() should fall back")
		}
		if diff := cmp.Diff(Defaults(reg, fn), s); diff != "" {
			t.Errorf("fallback settings mismatch (-want +got):\n%s", diff)
		}
	})
}
