package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParameterSetOrder(t *testing.T) {
	p := NewParameterSet()
	p.Set("projectile", String("n"))
	p.Set("element", String("Fe"))
	p.Set("channels", Bool(true))
	p.Set("mass", Int(56))
	p.Set("element", String("Ni")) // overwrite keeps position

	want := []string{"projectile", "element", "channels", "mass"}
	if got := p.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if v, _ := p.Get("element"); v.Str != "Ni" {
		t.Errorf("element = %q, want Ni", v.Str)
	}

	p.Delete("channels")
	if p.Has("channels") || p.Len() != 3 {
		t.Errorf("Delete did not remove key: %v", p.Keys())
	}
}

func TestParameterSetZeroValue(t *testing.T) {
	var p ParameterSet
	if p.Has("x") {
		t.Error("zero value should be empty")
	}
	p.Set("x", Int(1))
	if !p.Has("x") {
		t.Error("Set on zero value failed")
	}
}

func TestOptionsExcludeReserved(t *testing.T) {
	p := NewParameterSet()
	for _, k := range []string{"ldmodel", "projectile", "energy_mode", "channels", "energy_step", "outspectra"} {
		p.Set(k, String("1"))
	}
	want := []string{"ldmodel", "channels", "outspectra"}
	if got := p.Options(); !reflect.DeepEqual(got, want) {
		t.Errorf("Options() = %v, want %v", got, want)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := NewParameterSet()
	p.Set("mass", Int(1))
	c := p.Clone()
	c.Set("mass", Int(2))
	c.Set("extra", Bool(false))

	if v, _ := p.Get("mass"); v.Num != 1 {
		t.Errorf("original mutated: %v", v)
	}
	if p.Has("extra") {
		t.Error("original gained a key")
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in       string
		kind     ValueKind
		rendered string
	}{
		{"14", KindNumber, "14"},
		{" 1.50 ", KindNumber, "1.50"},
		{"1e-3", KindNumber, "1e-3"},
		{"true", KindBool, "y"},
		{"FALSE", KindBool, "n"},
		{"n", KindString, "n"},
		{"y", KindString, "y"},
		{"Fe", KindString, "Fe"},
	}
	for _, tt := range tests {
		v := ParseValue(tt.in)
		if v.Kind != tt.kind {
			t.Errorf("ParseValue(%q).Kind = %v, want %v", tt.in, v.Kind, tt.kind)
		}
		if got := v.Render(); got != tt.rendered {
			t.Errorf("ParseValue(%q).Render() = %q, want %q", tt.in, got, tt.rendered)
		}
	}
}

func TestRenderEnergy(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Number(1), "1.0"},
		{Number(14.5), "14.5"},
		{Number(0.001), "0.001"},
		{ParseValue("2"), "2"},
		{String("3.25"), "3.25"},
	}
	for _, tt := range tests {
		if got := tt.v.RenderEnergy(); got != tt.want {
			t.Errorf("RenderEnergy(%+v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestValueFloat(t *testing.T) {
	if f, ok := String(" 2.5").Float(); !ok || f != 2.5 {
		t.Errorf("String float = %v %v", f, ok)
	}
	if _, ok := String("abc").Float(); ok {
		t.Error("non-numeric string parsed")
	}
	if _, ok := Bool(true).Float(); ok {
		t.Error("bool parsed as float")
	}
}

func TestParameterSetJSONPreservesOrder(t *testing.T) {
	p := NewParameterSet()
	p.Set("projectile", String("n"))
	p.Set("mass", Int(1))
	p.Set("channels", Bool(true))

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"projectile":"n","mass":1,"channels":true}`
	if string(b) != want {
		t.Errorf("json = %s, want %s", b, want)
	}
}

func TestEnergyOf(t *testing.T) {
	tests := []struct {
		name string
		keys map[string]Value
		mode string
		want EnergyKind
	}{
		{"none", nil, "", EnergyNone},
		{"single", map[string]Value{"energy": Number(1)}, "", EnergySingle},
		{"blank single", map[string]Value{"energy": String(" ")}, "", EnergyNone},
		{"range", map[string]Value{"energy_min": Number(1), "energy_max": Number(5), "energy_step": Number(1)}, "", EnergyRange},
		{"mode only", nil, "range", EnergyRange},
		{"both", map[string]Value{"energy": Number(1), "energy_min": Number(1)}, "", EnergyConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParameterSet()
			for k, v := range tt.keys {
				p.Set(k, v)
			}
			if tt.mode != "" {
				p.Set(KeyEnergyMode, String(tt.mode))
			}
			if got := EnergyOf(p).Kind; got != tt.want {
				t.Errorf("EnergyOf kind = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculationResultCategories(t *testing.T) {
	r := NewCalculationResult()
	if len(r.Datasets) != len(Categories) {
		t.Fatalf("expected %d categories, got %d", len(Categories), len(r.Datasets))
	}
	d := &Dataset{XLabel: AxisEnergy, YLabel: AxisIntensity}
	d.Append(1, 2)
	r.Datasets[CategorySpectra]["n"] = d
	r.Datasets[CategorySpectra]["a"] = &Dataset{}

	if got := r.Names(CategorySpectra); !reflect.DeepEqual(got, []string{"a", "n"}) {
		t.Errorf("Names = %v", got)
	}
	if r.DatasetCount() != 2 {
		t.Errorf("DatasetCount = %d", r.DatasetCount())
	}
	if got, ok := r.Dataset(CategorySpectra, "n"); !ok || got.Len() != 1 {
		t.Errorf("Dataset lookup failed")
	}
}
