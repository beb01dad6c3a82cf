package models

import "strings"

// EnergyKind identifies which energy variant a ParameterSet carries.
type EnergyKind int

const (
	EnergyNone EnergyKind = iota
	EnergySingle
	EnergyRange
	// EnergyConflict means both a single energy and range keys are present.
	EnergyConflict
)

func (k EnergyKind) String() string {
	switch k {
	case EnergySingle:
		return "single"
	case EnergyRange:
		return "range"
	case EnergyConflict:
		return "conflict"
	default:
		return "none"
	}
}

// Energy is the energy specification of a ParameterSet. For EnergyRange any
// of Min, Max, Step may be absent (see the Has* fields); the validator
// reports that.
type Energy struct {
	Kind   EnergyKind
	Single Value

	Min, Max, Step          Value
	HasMin, HasMax, HasStep bool
}

// EnergyOf extracts the energy specification from p. The energy key selects
// a single energy; energy_min, energy_max, energy_step or energy_mode=range
// select a range.
func EnergyOf(p *ParameterSet) Energy {
	var e Energy

	single, hasSingle := p.Get(KeyEnergy)
	if hasSingle && single.IsEmpty() {
		hasSingle = false
	}

	e.Min, e.HasMin = p.Get(KeyEnergyMin)
	e.Max, e.HasMax = p.Get(KeyEnergyMax)
	e.Step, e.HasStep = p.Get(KeyEnergyStep)
	hasRange := e.HasMin || e.HasMax || e.HasStep
	if mode, ok := p.Get(KeyEnergyMode); ok && strings.EqualFold(mode.Render(), EnergyModeRange) {
		hasRange = true
	}

	switch {
	case hasSingle && hasRange:
		e.Kind = EnergyConflict
	case hasSingle:
		e.Kind = EnergySingle
		e.Single = single
	case hasRange:
		e.Kind = EnergyRange
	default:
		e.Kind = EnergyNone
	}
	return e
}
