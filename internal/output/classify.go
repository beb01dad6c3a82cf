package output

import (
	"path/filepath"
	"strings"

	"github.com/talysviz/talysrun/internal/constants"
	"github.com/talysviz/talysrun/internal/models"
)

// Kind describes how one output file is parsed.
type Kind struct {
	Category models.Category
	Key      string // dataset name within the category
	XLabel   string
	YLabel   string
}

// Classify maps a file name to its category. ok is false for files that
// are listed but not parsed. Rules are tried in order; the first match wins.
func Classify(name string) (Kind, bool) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	switch {
	case name == constants.TotalCrossSectionFile:
		return Kind{models.CategoryTotal, "total", models.AxisEnergy, models.AxisCrossSection}, true
	case strings.HasPrefix(name, constants.ResidualPrefix) && ext == constants.TotalsExtension:
		return Kind{models.CategoryResidual, base, models.AxisEnergy, models.AxisCrossSection}, true
	case ext == constants.SpectrumExtension:
		return Kind{models.CategorySpectra, base, models.AxisEnergy, models.AxisIntensity}, true
	case ext == constants.AngularExtension:
		return Kind{models.CategoryAngular, base, models.AxisAngle, models.AxisCrossSection}, true
	case ext == constants.GammaExtension:
		return Kind{models.CategoryGamma, base, models.AxisEnergy, models.AxisIntensity}, true
	}

	if ok, _ := filepath.Match(constants.ChannelPattern, name); ok {
		return Kind{models.CategoryChannels, name, models.AxisEnergy, models.AxisCrossSection}, true
	}
	return Kind{}, false
}
