package models

import (
	"sort"
	"time"
)

// Category names a semantic group of output datasets.
type Category string

const (
	CategoryTotal    Category = "total_cross_section"
	CategorySpectra  Category = "spectra"
	CategoryAngular  Category = "angular_distributions"
	CategoryResidual Category = "residual_production"
	CategoryChannels Category = "reaction_channels"
	CategoryGamma    Category = "gamma_production"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryTotal,
	CategorySpectra,
	CategoryAngular,
	CategoryResidual,
	CategoryChannels,
	CategoryGamma,
}

// Axis names.
const (
	AxisEnergy       = "energy"
	AxisCrossSection = "cross_section"
	AxisIntensity    = "intensity"
	AxisAngle        = "angle"
)

// Dataset is a pair of equal-length numeric sequences in file order.
type Dataset struct {
	XLabel string    `json:"x_label"`
	YLabel string    `json:"y_label"`
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
}

// Len returns the number of points.
func (d Dataset) Len() int { return len(d.X) }

// Append adds one point.
func (d *Dataset) Append(x, y float64) {
	d.X = append(d.X, x)
	d.Y = append(d.Y, y)
}

// Warning records a file that could not be parsed.
type Warning struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// CalculationResult is the product of a successful run. It is not modified
// after it is handed to the caller.
type CalculationResult struct {
	SessionID   string                           `json:"session_id,omitempty"`
	Elapsed     time.Duration                    `json:"elapsed"`
	Stdout      string                           `json:"stdout"`
	OutputFiles []string                         `json:"output_files"`
	Datasets    map[Category]map[string]*Dataset `json:"datasets"`
	Warnings    []Warning                        `json:"warnings,omitempty"`
	ArchivePath string                           `json:"archive_path,omitempty"`
}

// NewCalculationResult returns a result with every category initialised.
func NewCalculationResult() *CalculationResult {
	r := &CalculationResult{Datasets: make(map[Category]map[string]*Dataset, len(Categories))}
	for _, c := range Categories {
		r.Datasets[c] = make(map[string]*Dataset)
	}
	return r
}

// Dataset returns the named dataset of a category.
func (r *CalculationResult) Dataset(c Category, name string) (*Dataset, bool) {
	d, ok := r.Datasets[c][name]
	return d, ok
}

// Names returns the dataset names of a category, sorted.
func (r *CalculationResult) Names(c Category) []string {
	names := make([]string, 0, len(r.Datasets[c]))
	for n := range r.Datasets[c] {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DatasetCount returns the total number of datasets across categories.
func (r *CalculationResult) DatasetCount() int {
	n := 0
	for _, m := range r.Datasets {
		n += len(m)
	}
	return n
}
