package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/talysviz/talysrun/internal/models"
)

// writeSummary prints the file count, per-category dataset counts and,
// for runs, the elapsed time.
func writeSummary(w io.Writer, title string, r *models.CalculationResult) {
	fmt.Fprintln(w, title)
	if r.SessionID != "" {
		fmt.Fprintf(w, "  Session:      %s\n", r.SessionID)
	}
	if r.Elapsed > 0 {
		fmt.Fprintf(w, "  Elapsed:      %s\n", r.Elapsed.Round(10*time.Millisecond))
	}
	fmt.Fprintf(w, "  Output files: %d\n", len(r.OutputFiles))
	fmt.Fprintf(w, "  Datasets:     %d\n", r.DatasetCount())

	for _, c := range models.Categories {
		names := r.Names(c)
		if len(names) == 0 {
			continue
		}
		fmt.Fprintf(w, "    %-24s %d\n", c, len(names))
	}

	if r.ArchivePath != "" {
		fmt.Fprintf(w, "  Archive:      %s\n", r.ArchivePath)
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "  Warnings:     %d\n", len(r.Warnings))
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "    %s: %s\n", warn.File, warn.Message)
		}
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
