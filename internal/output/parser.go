// Package output discovers the files a TALYS run leaves in its workspace
// and parses them into numeric datasets.
//
// Parsing is tolerant: comment and blank lines are skipped, junk before the
// first data row is ignored, and the first unparsable line after data has
// started ends the table.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/talysviz/talysrun/internal/constants"
	"github.com/talysviz/talysrun/internal/logging"
	"github.com/talysviz/talysrun/internal/models"
	"github.com/talysviz/talysrun/internal/util/buffers"
)

// ParseWarning is a non-fatal problem with one output file.
type ParseWarning struct {
	File string
	Err  error
}

func (w *ParseWarning) Error() string {
	return fmt.Sprintf("could not parse %s: %v", w.File, w.Err)
}

func (w *ParseWarning) Unwrap() error { return w.Err }

// Parser turns a workspace into a CalculationResult.
type Parser struct {
	logger *logging.Logger
}

// NewParser creates a parser.
func NewParser(logger *logging.Logger) *Parser {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Parser{logger: logger}
}

// Parse scans the regular files directly inside dir. It never fails: a
// file that cannot be read gets an empty dataset and a warning on the
// result. The composed input file is not listed as output.
func (p *Parser) Parse(dir string) *models.CalculationResult {
	result := models.NewCalculationResult()

	entries, err := os.ReadDir(dir)
	if err != nil {
		w := &ParseWarning{File: dir, Err: err}
		p.logger.Warn().Err(err).Str("dir", dir).Msg("Cannot list workspace")
		result.Warnings = append(result.Warnings, models.Warning{File: dir, Message: w.Error()})
		return result
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() || entry.Name() == constants.InputFileName {
			continue
		}
		name := entry.Name()
		result.OutputFiles = append(result.OutputFiles, name)

		kind, ok := Classify(name)
		if !ok {
			continue
		}

		ds, err := ParseFile(filepath.Join(dir, name), kind.XLabel, kind.YLabel)
		if err != nil {
			p.logger.Warn().Err(err).Str("file", name).Msg("Output file skipped")
			result.Warnings = append(result.Warnings, models.Warning{File: name, Message: err.Error()})
		} else {
			p.logger.Debug().Str("file", name).Int("points", ds.Len()).Msg("Parsed output file")
		}
		result.Datasets[kind.Category][kind.Key] = ds
	}

	sort.Strings(result.OutputFiles)
	p.logger.Info().
		Int("files", len(result.OutputFiles)).
		Int("datasets", result.DatasetCount()).
		Int("warnings", len(result.Warnings)).
		Msg("Output parsed")
	return result
}

// ParseFile reads one two-column file. On error the returned dataset is
// empty (but labelled) and the error is a *ParseWarning.
func ParseFile(path, xLabel, yLabel string) (*models.Dataset, error) {
	empty := &models.Dataset{XLabel: xLabel, YLabel: yLabel, X: []float64{}, Y: []float64{}}

	f, err := os.Open(path)
	if err != nil {
		return empty, &ParseWarning{File: filepath.Base(path), Err: err}
	}
	defer f.Close()

	x, y, err := ParseTwoColumn(f)
	if err != nil {
		return empty, &ParseWarning{File: filepath.Base(path), Err: err}
	}
	return &models.Dataset{XLabel: xLabel, YLabel: yLabel, X: x, Y: y}, nil
}

// ParseTwoColumn reads whitespace-separated rows whose first two tokens are
// numbers. Comment ('#') and blank lines are skipped anywhere. Any other
// line is skipped before the first data row and ends the table after it.
// Only I/O errors are returned.
func ParseTwoColumn(r io.Reader) ([]float64, []float64, error) {
	x, y := []float64{}, []float64{}

	buf := buffers.GetScanBuffer()
	defer buffers.PutScanBuffer(buf)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(*buf, constants.MaxLineLength)

	started := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		a, b, ok := parsePair(line)
		if !ok {
			if started {
				break
			}
			continue
		}
		x = append(x, a)
		y = append(y, b)
		started = true
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

func parsePair(line string) (float64, float64, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, 0, false
	}
	a, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}
