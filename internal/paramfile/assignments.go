package paramfile

import (
	"fmt"
	"strings"

	"github.com/talysviz/talysrun/internal/models"
	"github.com/talysviz/talysrun/internal/util/sanitize"
)

// ParseAssignments turns "key=value" strings (from repeated --set flags)
// into a ParameterSet. Later assignments to the same key win.
func ParseAssignments(assignments []string) (*models.ParameterSet, error) {
	params := models.NewParameterSet()
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		key = sanitize.Key(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected key=value", a)
		}
		params.Set(key, models.ParseValue(sanitize.Field(value)))
	}
	return params, nil
}
