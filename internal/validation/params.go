// Package validation checks parameter sets against the rules the TALYS
// executable expects before anything is written or spawned.
//
// The rule table lives here and nowhere else: the CLI, the batch runner and
// the engine all call Validate.
package validation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/talysviz/talysrun/internal/constants"
	"github.com/talysviz/talysrun/internal/models"
)

// Field names reported in a failed Result.
const (
	FieldParticle = "particle"
	FieldElement  = "element"
	FieldMass     = "mass"
	FieldEnergy   = "energy"
)

// Particles maps each accepted projectile code to its name.
var Particles = map[string]string{
	"n": "neutron",
	"p": "proton",
	"d": "deuteron",
	"t": "triton",
	"h": "helium-3",
	"a": "alpha",
	"g": "gamma",
}

// Result is the outcome of Validate: valid, or invalid with the offending
// field and a human-readable reason.
type Result struct {
	Valid  bool
	Field  string
	Reason string
}

// Err returns nil for a valid result and a *ValidationError otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Field: r.Field, Reason: r.Reason}
}

func (r Result) String() string {
	if r.Valid {
		return "valid"
	}
	return fmt.Sprintf("invalid %s: %s", r.Field, r.Reason)
}

// ValidationError reports a user-correctable parameter problem.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func valid() Result { return Result{Valid: true} }

func invalid(field, format string, args ...interface{}) Result {
	return Result{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks params in a fixed order and returns the first failure.
// It never modifies params.
//
//  1. projectile, element and mass present and non-empty
//  2. projectile is one of n p d t h a g
//  3. mass is an integer in [1, 300]
//  4. element is alphabetic
//  5. exactly one energy variant, within (0, 1000] MeV
//  6. pass-through options are single tokens with single-line values
func Validate(params *models.ParameterSet) Result {
	required := []struct{ key, field string }{
		{models.KeyProjectile, FieldParticle},
		{models.KeyElement, FieldElement},
		{models.KeyMass, FieldMass},
	}
	for _, r := range required {
		v, ok := params.Get(r.key)
		if !ok || v.IsEmpty() {
			return invalid(r.field, "%s is required", r.key)
		}
	}

	projectile, _ := params.Get(models.KeyProjectile)
	if res := validateParticle(projectile.Render()); !res.Valid {
		return res
	}

	mass, _ := params.Get(models.KeyMass)
	if res := validateMass(mass); !res.Valid {
		return res
	}

	element, _ := params.Get(models.KeyElement)
	if res := validateElement(element); !res.Valid {
		return res
	}

	if res := validateEnergy(models.EnergyOf(params)); !res.Valid {
		return res
	}

	for _, key := range params.Options() {
		v, _ := params.Get(key)
		if err := ValidateOption(key, v.Render()); err != nil {
			return invalid(key, "%v", err)
		}
	}

	return valid()
}

func validateParticle(code string) Result {
	if _, ok := Particles[code]; ok {
		return valid()
	}
	if hint := suggestParticle(code); hint != "" {
		return invalid(FieldParticle, "unknown particle %q, did you mean %q?", code, hint)
	}
	return invalid(FieldParticle, "unknown particle %q, expected one of %s", code, particleList())
}

// suggestParticle maps full names ("neutron") and near misses ("nuetron")
// to a particle code.
func suggestParticle(code string) string {
	lc := strings.ToLower(strings.TrimSpace(code))
	if _, ok := Particles[lc]; ok {
		return lc
	}
	best, bestDist := "", constants.SuggestionMaxDistance+1
	for _, c := range particleCodes() {
		name := Particles[c]
		if lc == name {
			return c
		}
		if len(lc) > 1 {
			if d := levenshtein.ComputeDistance(lc, name); d < bestDist {
				best, bestDist = c, d
			}
		}
	}
	return best
}

func particleCodes() []string {
	codes := make([]string, 0, len(Particles))
	for c := range Particles {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

func particleList() string {
	return strings.Join(particleCodes(), ", ")
}

func validateMass(v models.Value) Result {
	f, ok := v.Float()
	if !ok {
		return invalid(FieldMass, "mass number %q is not a number", v.Render())
	}
	// TALYS reads the mass as an integer, so "56.0" and "1e2" are rejected too.
	if _, err := strconv.Atoi(strings.TrimSpace(v.Render())); err != nil {
		return invalid(FieldMass, "mass number %s is not an integer", v.Render())
	}
	if f < constants.MinMassNumber || f > constants.MaxMassNumber {
		return invalid(FieldMass, "mass number %s must be between %d and %d",
			v.Render(), constants.MinMassNumber, constants.MaxMassNumber)
	}
	return valid()
}

func validateElement(v models.Value) Result {
	if v.Kind != models.KindString {
		return invalid(FieldElement, "element symbol %q must be alphabetic", v.Render())
	}
	for _, r := range v.Str {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			return invalid(FieldElement, "element symbol %q must be alphabetic", v.Str)
		}
	}
	return valid()
}

func validateEnergy(e models.Energy) Result {
	switch e.Kind {
	case models.EnergyNone:
		return invalid(FieldEnergy, "an energy or an energy range is required")
	case models.EnergyConflict:
		return invalid(FieldEnergy, "specify either energy or energy_min/energy_max/energy_step, not both")
	case models.EnergySingle:
		f, ok := e.Single.Float()
		if !ok {
			return invalid(FieldEnergy, "energy %q is not a number", e.Single.Render())
		}
		if !inEnergyBounds(f) {
			return invalid(FieldEnergy, "energy %s must be in (0, %g] MeV", e.Single.Render(), constants.MaxEnergyMeV)
		}
		return valid()
	}

	bounds := []struct {
		key string
		v   models.Value
		has bool
	}{
		{models.KeyEnergyMin, e.Min, e.HasMin},
		{models.KeyEnergyMax, e.Max, e.HasMax},
		{models.KeyEnergyStep, e.Step, e.HasStep},
	}
	vals := make([]float64, len(bounds))
	for i, b := range bounds {
		if !b.has || b.v.IsEmpty() {
			return invalid(FieldEnergy, "%s is required for an energy range", b.key)
		}
		f, ok := b.v.Float()
		if !ok {
			return invalid(FieldEnergy, "%s %q is not a number", b.key, b.v.Render())
		}
		vals[i] = f
	}
	lo, hi, step := vals[0], vals[1], vals[2]

	if !inEnergyBounds(lo) || !inEnergyBounds(hi) {
		return invalid(FieldEnergy, "energy range bounds must be in (0, %g] MeV", constants.MaxEnergyMeV)
	}
	if lo >= hi {
		return invalid(FieldEnergy, "energy_min %g must be less than energy_max %g", lo, hi)
	}
	if !(step > 0 && step <= hi-lo) {
		return invalid(FieldEnergy, "energy_step %g must be in (0, %g]", step, hi-lo)
	}
	return valid()
}

func inEnergyBounds(f float64) bool {
	return f > 0 && f <= constants.MaxEnergyMeV
}
