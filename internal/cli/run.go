package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/talysviz/talysrun/internal/config"
	"github.com/talysviz/talysrun/internal/constants"
	"github.com/talysviz/talysrun/internal/core"
	"github.com/talysviz/talysrun/internal/export"
	"github.com/talysviz/talysrun/internal/http"
	"github.com/talysviz/talysrun/internal/progress"
	"github.com/talysviz/talysrun/internal/runner"
)

// newRunCmd creates the 'run' command.
func newRunCmd() *cobra.Command {
	var (
		pf       paramFlags
		ef       engineFlags
		jsonOut  bool
		doExport bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one TALYS calculation",
		Long: `Validate the parameters, run TALYS in a fresh workspace and print a
summary of the parsed output. The workspace is removed afterwards; use
--archive-dir (or workspace.archive_dir) to keep a tar.gz copy.

Ctrl+C stops the talys process and reports the run as cancelled.

Examples:
  talysrun run --set projectile=n --set element=Fe --set mass=56 --set energy=14
  talysrun run -f fe56.hcl --json > fe56.json
  talysrun run -f fe56.hcl --export`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			params, err := pf.load()
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

			// Export needs an archive even when none was configured.
			if doExport && opts.ArchiveDir == "" {
				tmp, err := os.MkdirTemp(opts.WorkspaceDir, "talysrun-export-")
				if err != nil {
					return fmt.Errorf("failed to create archive directory: %w", err)
				}
				defer os.RemoveAll(tmp)
				opts.ArchiveDir = tmp
			}

			engine := core.NewEngine(opts)

			var reporter progress.Reporter = progress.NewCLIProgress()
			if jsonOut {
				reporter = progress.NewNoOpProgress()
			}
			stop := progress.Follow(engine.EventBus(), "", reporter)

			result, err := engine.Run(GetContext(), params, core.Callbacks{})
			stop()
			if err != nil {
				return err
			}

			var exportURL string
			if doExport {
				exportURL, err = exportArchive(GetContext(), GetConfig(), result.ArchivePath)
				if err != nil {
					return err
				}
				logger.Info().Str("url", exportURL).Msg("Run exported")
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			out := cmd.OutOrStdout()
			writeSummary(out, "Calculation completed: "+reactionLabel(params), result)
			if exportURL != "" {
				fmt.Fprintf(out, "  Exported:     %s\n", exportURL)
			}
			return nil
		},
	}

	pf.register(cmd)
	ef.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the full result as JSON")
	cmd.Flags().BoolVar(&doExport, "export", false, "Upload the workspace archive to export.target")
	return cmd
}

// exportArchive uploads archivePath to the configured export target.
func exportArchive(ctx context.Context, cfg *config.Config, archivePath string) (string, error) {
	if archivePath == "" {
		return "", errors.New("no archive was written for this run")
	}
	logger := GetLogger()

	proxyCfg := cfg.Proxy
	if http.NeedsProxyPassword(proxyCfg) {
		password, err := promptPassword(fmt.Sprintf("Proxy password for %s: ", proxyCfg.User))
		if err != nil {
			return "", err
		}
		proxyCfg.Password = password
	}

	client, err := http.NewTransferClient(proxyCfg, logger)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.ExportTimeout)
	defer cancel()

	exporter, err := export.New(ctx, cfg.Export, client, logger)
	if err != nil {
		return "", err
	}
	return exporter.Upload(ctx, archivePath)
}
