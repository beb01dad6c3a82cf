// Package models holds the data types shared by the engine components.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Well-known parameter keys.
const (
	KeyProjectile = "projectile"
	KeyElement    = "element"
	KeyMass       = "mass"
	KeyEnergy     = "energy"
	KeyEnergyMin  = "energy_min"
	KeyEnergyMax  = "energy_max"
	KeyEnergyStep = "energy_step"
	KeyEnergyMode = "energy_mode"
)

// EnergyModeRange selects range energy when set as energy_mode.
const EnergyModeRange = "range"

// reservedKeys are consumed by the required/energy blocks and never passed
// through as options.
var reservedKeys = map[string]bool{
	KeyProjectile: true,
	KeyElement:    true,
	KeyMass:       true,
	KeyEnergy:     true,
	KeyEnergyMin:  true,
	KeyEnergyMax:  true,
	KeyEnergyStep: true,
	KeyEnergyMode: true,
}

// IsReserved reports whether key belongs to the required or energy blocks.
func IsReserved(key string) bool {
	return reservedKeys[key]
}

// ValueKind tags the dynamic type of a Value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindNumber
	KindBool
)

// Value is a parameter value: a number, a string or a boolean.
// Numbers may carry Raw, the text they were read from, which is what gets
// rendered so user input reaches the executable verbatim.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	Bool bool
	Raw  string
}

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number returns a numeric value without source text.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Int returns an integral numeric value.
func Int(i int) Value { return Value{Kind: KindNumber, Num: float64(i), Raw: strconv.Itoa(i)} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// ParseValue interprets text from a parameter file or a --set flag.
// Numeric text becomes a number that keeps its source text; "true" and
// "false" become booleans; anything else is a string. Single letters such
// as "n" or "y" stay strings since they double as particle codes.
func ParseValue(text string) Value {
	s := strings.TrimSpace(text)
	switch strings.ToLower(s) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Value{Kind: KindNumber, Num: f, Raw: s}
	}
	return String(s)
}

// IsEmpty reports whether the value is an empty or blank string.
func (v Value) IsEmpty() bool {
	return v.Kind == KindString && strings.TrimSpace(v.Str) == ""
}

// Render formats the value as it appears in the composed input.
// Booleans render as y/n.
func (v Value) Render() string {
	switch v.Kind {
	case KindBool:
		if v.Bool {
			return "y"
		}
		return "n"
	case KindNumber:
		if v.Raw != "" {
			return v.Raw
		}
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	default:
		return v.Str
	}
}

// RenderEnergy formats an energy value. Numbers without source text always
// carry a decimal point (1 renders as "1.0").
func (v Value) RenderEnergy() string {
	if v.Kind == KindNumber && v.Raw == "" {
		s := strconv.FormatFloat(v.Num, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	}
	return v.Render()
}

// Float returns the numeric interpretation of the value. Strings are parsed.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func (v Value) String() string {
	return v.Render()
}

// MarshalJSON encodes the value as a native JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindBool:
		return json.Marshal(v.Bool)
	case KindNumber:
		return json.Marshal(v.Num)
	default:
		return json.Marshal(v.Str)
	}
}

// ParameterSet is an insertion-ordered mapping from key to Value.
// The zero value is ready to use.
type ParameterSet struct {
	keys   []string
	values map[string]Value
}

// NewParameterSet returns an empty set.
func NewParameterSet() *ParameterSet {
	return &ParameterSet{values: make(map[string]Value)}
}

// Set assigns key. A new key is appended; an existing key keeps its position.
func (p *ParameterSet) Set(key string, v Value) {
	if p.values == nil {
		p.values = make(map[string]Value)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = v
}

// Get returns the value for key.
func (p *ParameterSet) Get(key string) (Value, bool) {
	if p == nil || p.values == nil {
		return Value{}, false
	}
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether key is present.
func (p *ParameterSet) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Delete removes key.
func (p *ParameterSet) Delete(key string) {
	if !p.Has(key) {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (p *ParameterSet) Keys() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of keys.
func (p *ParameterSet) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Options returns the pass-through keys (everything not reserved) in order.
func (p *ParameterSet) Options() []string {
	var out []string
	for _, k := range p.Keys() {
		if !IsReserved(k) {
			out = append(out, k)
		}
	}
	return out
}

// Clone returns an independent copy.
func (p *ParameterSet) Clone() *ParameterSet {
	c := NewParameterSet()
	for _, k := range p.Keys() {
		v, _ := p.Get(k)
		c.Set(k, v)
	}
	return c
}

// Merge sets every key of other on p, in other's order.
func (p *ParameterSet) Merge(other *ParameterSet) {
	for _, k := range other.Keys() {
		v, _ := other.Get(k)
		p.Set(k, v)
	}
}

// MarshalJSON encodes the set as a JSON object preserving key order.
func (p *ParameterSet) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range p.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		v, _ := p.Get(k)
		vb, err := v.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", k, err)
		}
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}
