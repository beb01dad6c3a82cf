// Package cli provides the command-line interface for talysrun.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talysviz/talysrun/internal/config"
	"github.com/talysviz/talysrun/internal/logging"
	"github.com/talysviz/talysrun/internal/pathutil"
	"github.com/talysviz/talysrun/internal/version"
)

var (
	// Global flags
	cfgFile string
	logFile string
	verbose bool

	// Loaded once per invocation in PersistentPreRunE
	appConfig *config.Config
	logger    *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "talysrun",
		Short: "Run TALYS nuclear reaction calculations",
		Long: `talysrun ` + version.Version + ` - Built: ` + version.BuildTime + `
Validates reaction parameters, composes the TALYS input, runs the talys
executable in an isolated workspace and parses the output tables.

Parameters come from an HCL file (--param-file) and/or --set key=value
flags. Defaults for the executable, timeout, workspace and export target
are read from the configuration file (see 'talysrun config path').`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if err := pathutil.ResolveAll(&cfg.Workspace.BaseDir, &cfg.Workspace.ArchiveDir, &logFile); err != nil {
				return fmt.Errorf("failed to resolve paths: %w", err)
			}
			if cfg.Logging.File != "default" {
				if err := pathutil.ResolveAll(&cfg.Logging.File); err != nil {
					return fmt.Errorf("failed to resolve log file: %w", err)
				}
			}
			appConfig = cfg

			level := cfg.Logging.Level
			if verbose {
				level = "debug"
			}
			file := cfg.LogFile()
			if logFile != "" {
				file = logFile
			}
			l, err := logging.NewLogger(logging.Options{
				File:       file,
				Level:      level,
				MaxSizeMB:  cfg.Logging.MaxSizeMB,
				MaxBackups: cfg.Logging.MaxBackups,
			})
			if err != nil {
				return fmt.Errorf("failed to initialise logging: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				logger.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this rotating file")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	rootCmd.AddCommand(newCompletionCmd(rootCmd))
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// newCompletionCmd replaces cobra's default completion command with one
// subcommand per shell.
func newCompletionCmd(rootCmd *cobra.Command) *cobra.Command {
	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for talysrun.

QUICK TEST (current session only):
  source <(talysrun completion bash)`,
	}

	shells := []struct {
		name string
		gen  func(w io.Writer) error
	}{
		{"bash", rootCmd.GenBashCompletion},
		{"zsh", rootCmd.GenZshCompletion},
		{"fish", func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) }},
		{"powershell", rootCmd.GenPowerShellCompletion},
	}
	for _, sh := range shells {
		gen := sh.gen
		completionCmd.AddCommand(&cobra.Command{
			Use:   sh.name,
			Short: "Generate " + sh.name + " completion script",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return gen(cmd.OutOrStdout())
			},
		})
	}
	return completionCmd
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// A second Ctrl+C while cleanup runs just repeats the message.
	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\n\nReceived signal %v, cancelling calculation...\n", sig)
				fmt.Fprintf(os.Stderr, "   Please wait for the talys process to stop.\n\n")
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)
	cancelFunc()

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newComposeCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetConfig returns the configuration loaded for this invocation, or
// defaults when called before the root command ran.
func GetConfig() *config.Config {
	if appConfig == nil {
		appConfig = config.NewConfig()
		appConfig.ApplyEnv()
	}
	return appConfig
}

// GetContext returns the global CLI context with signal handling.
// This context will be cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}
