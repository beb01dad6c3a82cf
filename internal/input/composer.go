// Package input renders a parameter set into the line-oriented text the
// TALYS executable reads from stdin.
package input

import (
	"fmt"
	"strings"
	"time"

	"github.com/talysviz/talysrun/internal/models"
)

// DefaultToolName appears in the header comment of composed files.
const DefaultToolName = "talysrun"

// CompositionError means a required key was missing at composition time.
// Validation normally rules this out.
type CompositionError struct {
	Key string
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("cannot compose input: missing required parameter %s", e.Key)
}

// Composer renders ParameterSets. The zero value is usable.
type Composer struct {
	// ToolName is written into the header. Empty means DefaultToolName.
	ToolName string

	// Now supplies the header timestamp. nil means time.Now.
	Now func() time.Time
}

// Compose renders params. Line order is fixed: header, projectile, element,
// mass, one energy line, remaining keys in insertion order, end marker.
func (c Composer) Compose(params *models.ParameterSet) (string, error) {
	required := []string{models.KeyProjectile, models.KeyElement, models.KeyMass}
	values := make([]models.Value, len(required))
	for i, key := range required {
		v, ok := params.Get(key)
		if !ok {
			return "", &CompositionError{Key: key}
		}
		values[i] = v
	}

	energy, err := energyLine(params)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	c.writeHeader(&b)

	b.WriteString("# Required parameters\n")
	for i, key := range required {
		fmt.Fprintf(&b, "%s %s\n", key, values[i].Render())
	}
	b.WriteString(energy)
	b.WriteString("\n")

	b.WriteString("# Optional parameters\n")
	for _, key := range params.Options() {
		v, _ := params.Get(key)
		fmt.Fprintf(&b, "%s %s\n", key, v.Render())
	}

	b.WriteString("\n# End of input file\n")
	return b.String(), nil
}

func (c Composer) writeHeader(b *strings.Builder) {
	name := c.ToolName
	if name == "" {
		name = DefaultToolName
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	fmt.Fprintf(b, "# TALYS input file generated by %s\n", name)
	fmt.Fprintf(b, "# Generated at: %s\n", now().Format("2006-01-02 15:04:05"))
	b.WriteString("#\n\n")
}

func energyLine(params *models.ParameterSet) (string, error) {
	e := models.EnergyOf(params)
	switch e.Kind {
	case models.EnergySingle:
		return fmt.Sprintf("%s %s\n", models.KeyEnergy, e.Single.RenderEnergy()), nil
	case models.EnergyRange:
		switch {
		case !e.HasMin:
			return "", &CompositionError{Key: models.KeyEnergyMin}
		case !e.HasMax:
			return "", &CompositionError{Key: models.KeyEnergyMax}
		case !e.HasStep:
			return "", &CompositionError{Key: models.KeyEnergyStep}
		}
		return fmt.Sprintf("%s %s %s %s\n", models.KeyEnergy,
			e.Min.RenderEnergy(), e.Max.RenderEnergy(), e.Step.RenderEnergy()), nil
	case models.EnergyConflict:
		// rejected by validation; emit the single energy
		v, _ := params.Get(models.KeyEnergy)
		return fmt.Sprintf("%s %s\n", models.KeyEnergy, v.RenderEnergy()), nil
	default:
		return "", &CompositionError{Key: models.KeyEnergy}
	}
}

// Line is one key/value line recovered from composed text.
type Line struct {
	Key    string
	Values []string
}

// Split parses composed text back into key/value lines, skipping comments
// and blank lines. It is the inverse of Compose for everything but the header.
func Split(text string) []Line {
	var lines []Line
	for _, raw := range strings.Split(text, "\n") {
		s := strings.TrimSpace(raw)
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		fields := strings.Fields(s)
		lines = append(lines, Line{Key: fields[0], Values: fields[1:]})
	}
	return lines
}
