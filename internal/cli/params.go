package cli

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/talysviz/talysrun/internal/core"
	"github.com/talysviz/talysrun/internal/models"
	"github.com/talysviz/talysrun/internal/paramfile"
	"github.com/talysviz/talysrun/internal/pathutil"
)

// ErrNoParameters is returned when neither --param-file nor --set was given.
var ErrNoParameters = errors.New("no parameters given; use --param-file or --set key=value")

// paramFlags collects reaction parameters from an HCL file and --set
// assignments. Assignments override the file.
type paramFlags struct {
	file string
	sets []string
}

func (f *paramFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "param-file", "f", "", "HCL parameter file")
	cmd.Flags().StringArrayVarP(&f.sets, "set", "s", nil, "Parameter assignment key=value (repeatable)")
}

func (f *paramFlags) load() (*models.ParameterSet, error) {
	params := models.NewParameterSet()
	if f.file != "" {
		fromFile, err := paramfile.LoadHCL(f.file)
		if err != nil {
			return nil, err
		}
		params.Merge(fromFile)
	}

	overrides, err := paramfile.ParseAssignments(f.sets)
	if err != nil {
		return nil, err
	}
	params.Merge(overrides)

	if params.Len() == 0 {
		return nil, ErrNoParameters
	}
	return params, nil
}

// engineFlags override the configured engine options for one invocation.
type engineFlags struct {
	executable string
	timeout    time.Duration
	archiveDir string
	workDir    string
}

func (f *engineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.executable, "executable", "", "TALYS executable (overrides config)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Run timeout, e.g. 10m (overrides config)")
	cmd.Flags().StringVar(&f.archiveDir, "archive-dir", "", "Write <session-id>.tar.gz of each workspace here")
	cmd.Flags().StringVar(&f.workDir, "work-dir", "", "Parent directory for run workspaces")
}

func (f *engineFlags) options() (core.Options, error) {
	if err := pathutil.ResolveAll(&f.archiveDir, &f.workDir); err != nil {
		return core.Options{}, err
	}

	opts := core.OptionsFromConfig(GetConfig())
	if f.executable != "" {
		opts.Executable = f.executable
	}
	if f.timeout > 0 {
		opts.Timeout = f.timeout
	}
	if f.archiveDir != "" {
		opts.ArchiveDir = f.archiveDir
	}
	if f.workDir != "" {
		opts.WorkspaceDir = f.workDir
	}
	opts.Logger = GetLogger()
	return opts, nil
}

// reactionLabel renders "n + Fe56" style labels for progress rows.
func reactionLabel(params *models.ParameterSet) string {
	render := func(key string) string {
		if v, ok := params.Get(key); ok {
			return v.Render()
		}
		return "?"
	}
	var b strings.Builder
	b.WriteString(render(models.KeyProjectile))
	b.WriteString(" + ")
	b.WriteString(render(models.KeyElement))
	b.WriteString(render(models.KeyMass))
	return b.String()
}
