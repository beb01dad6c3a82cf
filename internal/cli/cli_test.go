package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/talysviz/talysrun/internal/archive"
	"github.com/talysviz/talysrun/internal/core"
	"github.com/talysviz/talysrun/internal/models"
	"github.com/talysviz/talysrun/internal/paramfile"
	"github.com/talysviz/talysrun/internal/runner"
)

func TestAddCommands(t *testing.T) {
	root := NewRootCmd()
	AddCommands(root)

	for _, name := range []string{"validate", "compose", "run", "batch", "parse", "config", "version", "completion"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("command %q not registered", name)
		}
	}
	for _, flag := range []string{"config", "verbose", "log-file"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestParamFlagsLoad(t *testing.T) {
	hclPath := filepath.Join(t.TempDir(), "fe56.hcl")
	src := "projectile = \"n\"\nelement = \"Fe\"\nmass = 56\nenergy = 14.0\n"
	if err := os.WriteFile(hclPath, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	pf := paramFlags{file: hclPath, sets: []string{"energy=20", "outspectra=y"}}
	params, err := pf.load()
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"projectile", "element", "mass", "energy", "outspectra"}
	if got := params.Keys(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("keys = %v, want %v", got, want)
	}
	if v, _ := params.Get("energy"); v.Render() != "20" {
		t.Errorf("energy = %q, --set must override the file", v.Render())
	}

	if _, err := (&paramFlags{}).load(); !errors.Is(err, ErrNoParameters) {
		t.Errorf("empty load err = %v", err)
	}
	if _, err := (&paramFlags{sets: []string{"novalue"}}).load(); err == nil {
		t.Error("expected error for malformed --set")
	}
	if _, err := (&paramFlags{file: filepath.Join(t.TempDir(), "none.hcl")}).load(); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEngineFlagsOverrideConfig(t *testing.T) {
	ef := engineFlags{executable: "/opt/talys", timeout: 2 * time.Minute, archiveDir: "/arch"}
	opts, err := ef.options()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Executable != "/opt/talys" || opts.Timeout != 2*time.Minute || opts.ArchiveDir != "/arch" {
		t.Errorf("options = %+v", opts)
	}
	if opts.Logger == nil {
		t.Error("logger not set")
	}

	defaults, _ := (&engineFlags{}).options()
	if defaults.Executable != GetConfig().Talys.Executable || defaults.Timeout != GetConfig().Timeout() {
		t.Errorf("defaults = %+v", defaults)
	}
}

func TestReactionLabel(t *testing.T) {
	params, _ := paramfile.ParseAssignments([]string{"projectile=n", "element=Fe", "mass=56"})
	if got := reactionLabel(params); got != "n + Fe56" {
		t.Errorf("label = %q", got)
	}
	if got := reactionLabel(models.NewParameterSet()); got != "? + ??" {
		t.Errorf("empty label = %q", got)
	}
}

func TestOutcomeStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "completed"},
		{core.ErrCancelled, "cancelled"},
		{fmt.Errorf("session: %w", core.ErrCancelled), "cancelled"},
		{&runner.NonZeroExitError{Code: 1}, "failed"},
	}
	for _, tt := range tests {
		if got := outcomeStatus(tt.err); got != tt.want {
			t.Errorf("outcomeStatus(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestBatchTableAndError(t *testing.T) {
	records := []batchRecord{
		{Line: 2, Label: "n + Fe56", Status: "completed", Datasets: 3, Elapsed: 1500 * time.Millisecond},
		{Line: 3, Label: "p + Ni58", Status: "failed", Err: errors.New("talys exited with code 1")},
		{Line: 4, Label: "a + O16", Status: statusSkipped},
	}

	var out bytes.Buffer
	writeBatchTable(&out, records)
	s := out.String()
	for _, want := range []string{"LINE", "n + Fe56", "1.5s", "talys exited with code 1", "skipped"} {
		if !strings.Contains(s, want) {
			t.Errorf("table missing %q:\n%s", want, s)
		}
	}

	err := batchError(records)
	if err == nil || err.Error() != "1 of 3 rows completed (1 failed, 0 cancelled, 1 skipped)" {
		t.Errorf("batchError = %v", err)
	}
	if err := batchError(records[:1]); err != nil {
		t.Errorf("all completed err = %v", err)
	}
}

func TestRowParamsRowWins(t *testing.T) {
	shared, _ := paramfile.ParseAssignments([]string{"energy=14", "outspectra=y"})
	rowSet, _ := paramfile.ParseAssignments([]string{"projectile=p", "energy=20"})

	params := rowParams(shared, paramfile.Row{Line: 2, Params: rowSet})
	if v, _ := params.Get("energy"); v.Render() != "20" {
		t.Errorf("energy = %q", v.Render())
	}
	if !params.Has("outspectra") || !params.Has("projectile") {
		t.Errorf("keys = %v", params.Keys())
	}
	if shared.Has("projectile") {
		t.Error("shared set modified")
	}
}

func TestWriteSummary(t *testing.T) {
	r := models.NewCalculationResult()
	r.SessionID = "abc"
	r.Elapsed = 2340 * time.Millisecond
	r.OutputFiles = []string{"total.tot", "n014.spe", "output.txt"}
	r.Datasets[models.CategoryTotal]["total"] = &models.Dataset{}
	r.Datasets[models.CategorySpectra]["n014"] = &models.Dataset{}
	r.Warnings = []models.Warning{{File: "n014.spe", Message: "no data rows"}}

	var out bytes.Buffer
	writeSummary(&out, "Calculation completed", r)
	s := out.String()
	for _, want := range []string{"Session:      abc", "2.34s", "Output files: 3", "Datasets:     2",
		"total_cross_section", "spectra", "n014.spe: no data rows"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "gamma_production") {
		t.Errorf("empty category listed:\n%s", s)
	}
}

func TestResolveOutputDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "total.tot"), []byte("1.0 2.0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, cleanup, err := resolveOutputDir(dir)
	if err != nil || got != dir {
		t.Fatalf("dir: got %q, %v", got, err)
	}
	cleanup()

	archivePath := filepath.Join(t.TempDir(), "run.tar.gz")
	if err := archive.CreateTarGz(dir, archivePath, "run", nil); err != nil {
		t.Fatal(err)
	}
	extracted, cleanup, err := resolveOutputDir(archivePath)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if _, err := os.Stat(filepath.Join(extracted, "total.tot")); err != nil {
		t.Errorf("extracted file missing: %v", err)
	}
	cleanup()
	if _, err := os.Stat(extracted); !os.IsNotExist(err) {
		t.Errorf("cleanup left %s", extracted)
	}

	if _, _, err := resolveOutputDir(filepath.Join(dir, "total.tot")); err == nil {
		t.Error("expected error for a plain file")
	}
}

func TestValidateCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCmd()
	AddCommands(cmd)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.conf"),
		"validate", "--set", "projectile=n", "--set", "element=Fe", "--set", "mass=56", "--set", "energy=14"})
	cmd.SetOut(&out)
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != "n + Fe56: valid" {
		t.Errorf("output = %q", out.String())
	}

	cmd = NewRootCmd()
	AddCommands(cmd)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.conf"),
		"validate", "--set", "projectile=q", "--set", "element=Fe", "--set", "mass=56", "--set", "energy=14"})
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Error("expected validation error for projectile q")
	}
}

func TestComposeCommandWritesFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "talys.inp")
	cmd := NewRootCmd()
	AddCommands(cmd)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.conf"),
		"compose", "-o", outPath, "--set", "projectile=n", "--set", "element=Fe", "--set", "mass=56", "--set", "energy=14"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{"projectile n", "element Fe", "mass 56", "energy 14"} {
		if !strings.Contains(string(data), line) {
			t.Errorf("input missing %q:\n%s", line, data)
		}
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := executeCompletion(shell)
		if err != nil {
			t.Errorf("completion %s: %v", shell, err)
			continue
		}
		if !strings.Contains(out, "talysrun") {
			t.Errorf("completion %s output does not mention talysrun", shell)
		}
	}
}

func executeCompletion(shell string) (string, error) {
	var out bytes.Buffer
	cmd := NewRootCmd()
	AddCommands(cmd)
	cmd.SetArgs([]string{"completion", shell})
	cmd.SetOut(&out)
	err := cmd.Execute()
	return out.String(), err
}
