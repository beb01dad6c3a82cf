package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/talysviz/talysrun/internal/core"
	"github.com/talysviz/talysrun/internal/models"
	"github.com/talysviz/talysrun/internal/paramfile"
	"github.com/talysviz/talysrun/internal/progress"
	"github.com/talysviz/talysrun/internal/runner"
)

// statusSkipped marks rows not started because of --fail-fast or Ctrl+C.
const statusSkipped = "skipped"

// batchRecord is one line of the final batch table.
type batchRecord struct {
	Line     int
	Label    string
	Status   string
	Datasets int
	Elapsed  time.Duration
	Err      error
}

// newBatchCmd creates the 'batch' command.
func newBatchCmd() *cobra.Command {
	var (
		ef       engineFlags
		sets     []string
		failFast bool
	)

	cmd := &cobra.Command{
		Use:   "batch <file.csv>",
		Short: "Run one calculation per CSV row",
		Long: `Run a calculation for every row of a CSV file. The header row names the
parameters; empty cells leave a parameter unset. Rows run one after another
on a single engine.

--set assignments apply to every row; values in the file take precedence.

Example file:
  projectile,element,mass,energy
  n,Fe,56,14
  p,Ni,58,20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()
			ctx := GetContext()

			rows, err := paramfile.LoadCSV(args[0])
			if err != nil {
				return err
			}
			shared, err := paramfile.ParseAssignments(sets)
			if err != nil {
				return err
			}

			opts, err := ef.options()
			if err != nil {
				return err
			}
			if _, err := runner.LookupExecutable(opts.Executable); err != nil {
				return err
			}
			engine := core.NewEngine(opts)

			ui := progress.NewBatchUI(len(rows))
			records := make([]batchRecord, 0, len(rows))
			stopped := false

			for i, row := range rows {
				params := rowParams(shared, row)
				rec := batchRecord{Line: row.Line, Label: reactionLabel(params)}

				if stopped || ctx.Err() != nil {
					rec.Status = statusSkipped
					records = append(records, rec)
					continue
				}

				bar := ui.AddRow(i+1, rec.Label)
				result, err := engine.Run(ctx, params, core.Callbacks{
					OnProgress: func(state core.State, message string) {
						bar.SetState(state.String())
					},
				})
				rec.Status, rec.Err = outcomeStatus(err), err
				if result != nil {
					rec.Datasets = result.DatasetCount()
					rec.Elapsed = result.Elapsed
				}
				bar.Complete(rec.Status, err)
				records = append(records, rec)

				if err != nil {
					logger.Debug().Err(err).Int("line", row.Line).Msg("Batch row failed")
					if failFast {
						stopped = true
					}
				}
			}
			ui.Wait()

			writeBatchTable(cmd.OutOrStdout(), records)
			return batchError(records)
		},
	}

	ef.register(cmd)
	cmd.Flags().StringArrayVarP(&sets, "set", "s", nil, "Assignment key=value applied to every row (repeatable)")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Skip the remaining rows after the first failure")
	return cmd
}

// outcomeStatus maps a session error onto its terminal state name.
func outcomeStatus(err error) string {
	switch {
	case err == nil:
		return core.StateCompleted.String()
	case errors.Is(err, core.ErrCancelled):
		return core.StateCancelled.String()
	default:
		return core.StateFailed.String()
	}
}

func writeBatchTable(w io.Writer, records []batchRecord) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-6s %-20s %-10s %-9s %-10s %s\n", "LINE", "REACTION", "STATUS", "DATASETS", "ELAPSED", "ERROR")
	for _, r := range records {
		elapsed := "-"
		if r.Elapsed > 0 {
			elapsed = r.Elapsed.Round(10 * time.Millisecond).String()
		}
		errText := ""
		if r.Err != nil && !errors.Is(r.Err, core.ErrCancelled) {
			errText = r.Err.Error()
		}
		fmt.Fprintf(w, "%-6d %-20s %-10s %-9d %-10s %s\n", r.Line, r.Label, r.Status, r.Datasets, elapsed, errText)
	}
}

// batchError summarises failed, cancelled and skipped rows.
func batchError(records []batchRecord) error {
	counts := map[string]int{}
	for _, r := range records {
		counts[r.Status]++
	}
	completed := counts[core.StateCompleted.String()]
	if completed == len(records) {
		return nil
	}
	return fmt.Errorf("%d of %d rows completed (%d failed, %d cancelled, %d skipped)",
		completed, len(records),
		counts[core.StateFailed.String()],
		counts[core.StateCancelled.String()],
		counts[statusSkipped])
}

// rowParams layers a CSV row over the shared --set assignments.
func rowParams(shared *models.ParameterSet, row paramfile.Row) *models.ParameterSet {
	params := shared.Clone()
	params.Merge(row.Params)
	return params
}
