package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/talysviz/talysrun/internal/archive"
	"github.com/talysviz/talysrun/internal/output"
)

// newParseCmd creates the 'parse' command.
func newParseCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "parse <dir|archive.tar.gz>",
		Short: "Parse the output of an earlier TALYS run",
		Long: `Parse TALYS output files from a directory, or from a workspace archive
written by 'talysrun run --archive-dir', and print the same summary as a run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, cleanup, err := resolveOutputDir(args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			result := output.NewParser(GetLogger()).Parse(dir)
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			writeSummary(cmd.OutOrStdout(), "Parsed "+args[0], result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the full result as JSON")
	return cmd
}

// resolveOutputDir returns a directory to parse. Archives are extracted to
// a temporary directory that cleanup removes.
func resolveOutputDir(target string) (string, func(), error) {
	noop := func() {}

	if strings.HasSuffix(target, ".tar.gz") || strings.HasSuffix(target, ".tgz") {
		tmp, err := os.MkdirTemp("", "talysrun-parse-")
		if err != nil {
			return "", noop, fmt.Errorf("failed to create temp directory: %w", err)
		}
		cleanup := func() { os.RemoveAll(tmp) }
		dir, err := archive.ExtractTarGz(target, tmp)
		if err != nil {
			cleanup()
			return "", noop, err
		}
		return dir, cleanup, nil
	}

	info, err := os.Stat(target)
	if err != nil {
		return "", noop, err
	}
	if !info.IsDir() {
		return "", noop, fmt.Errorf("%s is not a directory or .tar.gz archive", target)
	}
	return target, noop, nil
}
