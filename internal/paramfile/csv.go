package paramfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/talysviz/talysrun/internal/models"
	"github.com/talysviz/talysrun/internal/util/sanitize"
)

// Row is one calculation from a batch file.
type Row struct {
	Line   int
	Params *models.ParameterSet
}

// LoadCSV reads a batch file. The header row names the keys; each following
// row is one parameter set. Empty cells leave the key unset. Lines starting
// with '#' are ignored. Spreadsheet artefacts such as a leading BOM are
// stripped from keys and cells.
func LoadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV is LoadCSV on a reader.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("batch file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, key := range header {
		header[i] = sanitize.Key(key)
		if header[i] == "" {
			return nil, fmt.Errorf("header column %d is empty", i+1)
		}
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read batch file: %w", err)
		}
		line, _ := reader.FieldPos(0)

		params := models.NewParameterSet()
		for i, cell := range record {
			cell = sanitize.Field(cell)
			if cell == "" {
				continue
			}
			params.Set(header[i], models.ParseValue(cell))
		}
		rows = append(rows, Row{Line: line, Params: params})
	}
	return rows, nil
}
