package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/talysviz/talysrun/internal/core"
	"github.com/talysviz/talysrun/internal/input"
)

// newValidateCmd creates the 'validate' command.
func newValidateCmd() *cobra.Command {
	var pf paramFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check reaction parameters without running TALYS",
		Long: `Check reaction parameters against the TALYS rules: projectile code,
element symbol, mass number and energy (single value or range).

Examples:
  talysrun validate --set projectile=n --set element=Fe --set mass=56 --set energy=14
  talysrun validate -f fe56.hcl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := pf.load()
			if err != nil {
				return err
			}

			engine := core.NewEngine(core.Options{Logger: GetLogger()})
			result := engine.Validate(params)
			if !result.Valid {
				return result.Err()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", reactionLabel(params), result)
			return nil
		},
	}

	pf.register(cmd)
	return cmd
}

// newComposeCmd creates the 'compose' command.
func newComposeCmd() *cobra.Command {
	var (
		pf         paramFlags
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Print the TALYS input file for a parameter set",
		Long: `Validate the parameters and print the talys.inp text that a run would
feed to the executable. Use -o to write it to a file instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := pf.load()
			if err != nil {
				return err
			}

			engine := core.NewEngine(core.Options{
				Logger:   GetLogger(),
				Composer: input.Composer{},
			})
			text, err := engine.Compose(params)
			if err != nil {
				return err
			}

			if outputPath == "" {
				fmt.Fprint(cmd.OutOrStdout(), text)
				return nil
			}
			if err := os.WriteFile(outputPath, []byte(text), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outputPath, err)
			}
			GetLogger().Info().Str("path", outputPath).Msg("Input file written")
			return nil
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the input file here instead of stdout")
	return cmd
}
