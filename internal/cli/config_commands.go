package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/talysviz/talysrun/internal/config"
	"github.com/talysviz/talysrun/internal/export"
	"github.com/talysviz/talysrun/internal/runner"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage talysrun configuration",
		Long: `Configuration management commands for talysrun.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  test  - Check the configuration and locate the talys executable
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// configPath returns --config or the default location.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultConfigPath()
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for talysrun.

Use --force to overwrite an existing configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Configuration already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			cfg := promptConfig(newPrompter(cmd.InOrStdin(), out), GetConfig())
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			GetLogger().Info().Str("path", path).Msg("Configuration saved")
			fmt.Fprintln(out)
			fmt.Fprintf(out, "✓ Configuration saved to: %s\n", path)
			fmt.Fprintln(out, "Check it with: talysrun config test")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

// promptConfig asks for each setting, offering current values as defaults.
func promptConfig(p *prompter, current *config.Config) *config.Config {
	cfg := *current

	fmt.Fprintln(p.out, "talysrun Configuration Setup")
	fmt.Fprintln(p.out, "============================")
	fmt.Fprintln(p.out)

	cfg.Talys.Executable = p.String("TALYS executable", cfg.Talys.Executable)
	cfg.Talys.TimeoutSeconds = p.Int("Run timeout (seconds)", cfg.Talys.TimeoutSeconds)
	cfg.Workspace.BaseDir = p.String("Workspace directory (empty = system temp)", cfg.Workspace.BaseDir)
	cfg.Workspace.ArchiveDir = p.String("Archive directory (empty = no archives)", cfg.Workspace.ArchiveDir)

	fmt.Fprintln(p.out)
	if p.Confirm("Configure export?") {
		cfg.Export.Target = p.String("Export target (s3://bucket/prefix or azure://container/prefix)", cfg.Export.Target)
		if strings.HasPrefix(cfg.Export.Target, export.SchemeS3+"://") {
			cfg.Export.Region = p.String("AWS region", cfg.Export.Region)
			cfg.Export.Endpoint = p.String("S3 endpoint (empty = AWS)", cfg.Export.Endpoint)
		}
	}

	fmt.Fprintln(p.out)
	if p.Confirm("Configure proxy?") {
		cfg.Proxy.Mode = p.String("Proxy mode (no-proxy, system, basic, ntlm)", cfg.Proxy.Mode)
		if cfg.Proxy.Mode == "basic" || cfg.Proxy.Mode == "ntlm" {
			cfg.Proxy.Host = p.String("Proxy host", cfg.Proxy.Host)
			cfg.Proxy.Port = p.Int("Proxy port", cfg.Proxy.Port)
			cfg.Proxy.User = p.String("Proxy user", cfg.Proxy.User)
		}
	}

	return &cfg
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration settings.

Priority: flags > environment (TALYS_EXECUTABLE, TALYS_TIMEOUT,
AZURE_STORAGE_SAS_URL) > config file > defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			showConfig(cmd.OutOrStdout(), GetConfig(), path)
			return nil
		},
	}
}

func showConfig(w io.Writer, cfg *config.Config, path string) {
	fmt.Fprintln(w, "Current Configuration")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "TALYS:")
	fmt.Fprintf(w, "  Executable: %s\n", cfg.Talys.Executable)
	fmt.Fprintf(w, "  Timeout:    %s\n", cfg.Timeout())
	fmt.Fprintf(w, "  Grace:      %s\n", cfg.Grace())
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Workspace:")
	fmt.Fprintf(w, "  Base Dir:    %s\n", orDefault(cfg.Workspace.BaseDir, "<system temp>"))
	fmt.Fprintf(w, "  Archive Dir: %s\n", orDefault(cfg.Workspace.ArchiveDir, "<disabled>"))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Logging:")
	fmt.Fprintf(w, "  Level: %s\n", orDefault(cfg.Logging.Level, "info"))
	fmt.Fprintf(w, "  File:  %s\n", orDefault(cfg.LogFile(), "<console only>"))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Export:")
	fmt.Fprintf(w, "  Target: %s\n", orDefault(cfg.Export.Target, "<disabled>"))
	if cfg.Export.Region != "" {
		fmt.Fprintf(w, "  Region: %s\n", cfg.Export.Region)
	}
	if cfg.Export.Endpoint != "" {
		fmt.Fprintf(w, "  Endpoint: %s\n", cfg.Export.Endpoint)
	}
	fmt.Fprintf(w, "  Access Key: %s\n", secretState(cfg.Export.AccessKeyID))
	fmt.Fprintf(w, "  SAS URL:    %s\n", secretState(cfg.Export.AzureSASURL))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Proxy:")
	fmt.Fprintf(w, "  Mode: %s\n", cfg.Proxy.Mode)
	if cfg.Proxy.Host != "" {
		fmt.Fprintf(w, "  Host: %s\n", cfg.Proxy.Host)
		fmt.Fprintf(w, "  Port: %d\n", cfg.Proxy.Port)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Configuration file: %s\n", path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(w, "  (file does not exist - using defaults)")
	}
}

// secretState never prints any part of a secret.
func secretState(s string) string {
	if s == "" {
		return "<not set>"
	}
	return fmt.Sprintf("<set (%d chars)>", len(s))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Check the configuration and locate the talys executable",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg := GetConfig()

			if err := cfg.Validate(); err != nil {
				fmt.Fprintln(out, "✗ Configuration INVALID")
				return fmt.Errorf("invalid configuration: %w", err)
			}
			fmt.Fprintln(out, "✓ Configuration valid")

			path, err := runner.LookupExecutable(cfg.Talys.Executable)
			if err != nil {
				GetLogger().Error().Err(err).Msg("Executable check failed")
				fmt.Fprintln(out, "✗ TALYS executable NOT FOUND")
				return err
			}
			fmt.Fprintf(out, "✓ TALYS executable: %s\n", path)

			if cfg.Export.Target != "" {
				if _, err := export.ParseTarget(cfg.Export.Target); err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Export target: %s\n", cfg.Export.Target)
			}
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path, err := configPath()
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "  %s\n", path)
			if info, err := os.Stat(path); err == nil {
				fmt.Fprintln(out, "Status: ✓ File exists")
				fmt.Fprintf(out, "Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintln(out, "Status: File does not exist")
				fmt.Fprintln(out, "Create a configuration file with: talysrun config init")
			}
			return nil
		},
	}
}
