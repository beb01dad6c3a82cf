package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	base, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	homeResolved, _ := Resolve(home)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"existing", base, base},
		{"missing tail", filepath.Join(base, "a", "b"), filepath.Join(base, "a", "b")},
		{"home", "~", homeResolved},
		{"under home", "~/talys-archive-missing", filepath.Join(homeResolved, "talys-archive-missing")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.in)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveFollowsSymlinkedParent(t *testing.T) {
	base, _ := filepath.EvalSymlinks(t.TempDir())
	target := filepath.Join(base, "real")
	if err := os.Mkdir(target, 0700); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(base, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skip("symlinks not supported")
	}

	got, err := Resolve(filepath.Join(link, "runs"))
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(target, "runs"); got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}
}

func TestResolveAll(t *testing.T) {
	base, _ := filepath.EvalSymlinks(t.TempDir())
	a, b := base, ""
	if err := ResolveAll(&a, &b, nil); err != nil {
		t.Fatal(err)
	}
	if a != base || b != "" {
		t.Errorf("a=%q b=%q", a, b)
	}
}
