//go:build unix

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talysviz/talysrun/internal/models"
)

func fakeTalys(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talys")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	AddCommands(cmd)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.conf")}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

const totalScript = `cat > /dev/null
printf '# E xs\n1.0 100.0\n2.0 200.0\n' > total.tot
printf '0.5 1.0\n' > n014.spe
`

func TestRunCommandJSON(t *testing.T) {
	script := fakeTalys(t, totalScript)
	archiveDir := t.TempDir()

	out, err := executeRoot(t, "run", "--json", "--executable", script,
		"--work-dir", t.TempDir(), "--archive-dir", archiveDir,
		"--set", "projectile=n", "--set", "element=Fe", "--set", "mass=56", "--set", "energy=14")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var result models.CalculationResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if result.SessionID == "" {
		t.Error("session id missing")
	}
	if strings.Join(result.OutputFiles, ",") != "n014.spe,total.tot" {
		t.Errorf("output files = %v", result.OutputFiles)
	}
	total := result.Datasets[models.CategoryTotal]["total"]
	if total == nil || len(total.X) != 2 || total.Y[1] != 200.0 {
		t.Errorf("total = %+v", total)
	}
	if _, err := os.Stat(result.ArchivePath); err != nil {
		t.Errorf("archive: %v", err)
	}
}

func TestRunCommandSummary(t *testing.T) {
	script := fakeTalys(t, totalScript)

	out, err := executeRoot(t, "run", "--executable", script, "--work-dir", t.TempDir(),
		"--set", "projectile=n", "--set", "element=Fe", "--set", "mass=56", "--set", "energy=14")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"Calculation completed: n + Fe56", "Output files: 2", "total_cross_section", "spectra"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRunCommandFailures(t *testing.T) {
	params := []string{"--set", "projectile=n", "--set", "element=Fe", "--set", "mass=56", "--set", "energy=14"}

	if _, err := executeRoot(t, append([]string{"run", "--executable", filepath.Join(t.TempDir(), "missing")}, params...)...); err == nil {
		t.Error("expected error for missing executable")
	}

	failing := fakeTalys(t, "echo 'bad input' >&2\nexit 2\n")
	_, err := executeRoot(t, append([]string{"run", "--executable", failing, "--work-dir", t.TempDir()}, params...)...)
	if err == nil || !strings.Contains(err.Error(), "bad input") {
		t.Errorf("non-zero exit err = %v", err)
	}
}

func TestBatchCommand(t *testing.T) {
	// Fails for protons so one row of three fails.
	script := fakeTalys(t, `if grep -q '^projectile p' talys.inp; then exit 1; fi
cat > /dev/null
printf '1.0 100.0\n' > total.tot
`)
	csvPath := filepath.Join(t.TempDir(), "rows.csv")
	csv := "projectile,element,mass\nn,Fe,56\np,Ni,58\nn,O,16\n"
	if err := os.WriteFile(csvPath, []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := executeRoot(t, "batch", csvPath, "--executable", script, "--work-dir", t.TempDir(), "--set", "energy=14")
	if err == nil || !strings.Contains(err.Error(), "2 of 3 rows completed (1 failed") {
		t.Errorf("batch err = %v", err)
	}
	for _, want := range []string{"n + Fe56", "p + Ni58", "n + O16", "failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}

	out, err = executeRoot(t, "batch", csvPath, "--fail-fast", "--executable", script, "--work-dir", t.TempDir(), "--set", "energy=14")
	if err == nil || !strings.Contains(err.Error(), "1 skipped") {
		t.Errorf("fail-fast err = %v\n%s", err, out)
	}
}

func TestParseCommandOnArchive(t *testing.T) {
	script := fakeTalys(t, totalScript)
	archiveDir := t.TempDir()

	if _, err := executeRoot(t, "run", "--executable", script, "--work-dir", t.TempDir(), "--archive-dir", archiveDir,
		"--set", "projectile=n", "--set", "element=Fe", "--set", "mass=56", "--set", "energy=14"); err != nil {
		t.Fatal(err)
	}
	matches, _ := filepath.Glob(filepath.Join(archiveDir, "*.tar.gz"))
	if len(matches) != 1 {
		t.Fatalf("archives = %v", matches)
	}

	out, err := executeRoot(t, "parse", matches[0])
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(out, "Output files: 2") || !strings.Contains(out, "total_cross_section") {
		t.Errorf("parse output:\n%s", out)
	}
}
