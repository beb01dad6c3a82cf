package archive

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func listEntries(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	tr := tar.NewReader(gz)
	var names []string
	for {
		h, err := tr.Next()
		if err != nil {
			break
		}
		names = append(names, h.Name)
	}
	sort.Strings(names)
	return names
}

func TestCreateAndExtract(t *testing.T) {
	src := t.TempDir()
	files := map[string]string{
		"total.tot":        "1 2\n",
		"talys.inp":        "projectile n\n",
		"sub/rp026056.tot": "3 4\n",
	}
	for name, content := range files {
		p := filepath.Join(src, name)
		if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}

	out := filepath.Join(t.TempDir(), "archive", "sess.tar.gz")
	if err := CreateTarGz(src, out, "sess", []string{"*.inp"}); err != nil {
		t.Fatalf("CreateTarGz: %v", err)
	}

	want := []string{"sess/sub/", "sess/sub/rp026056.tot", "sess/total.tot"}
	got := listEntries(t, out)
	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %s, want %s", i, got[i], want[i])
		}
	}

	dest := t.TempDir()
	dir, err := ExtractTarGz(out, dest)
	if err != nil {
		t.Fatalf("ExtractTarGz: %v", err)
	}
	if dir != filepath.Join(dest, "sess") {
		t.Errorf("root dir = %s", dir)
	}
	data, err := os.ReadFile(filepath.Join(dir, "total.tot"))
	if err != nil || string(data) != "1 2\n" {
		t.Errorf("total.tot = %q, %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "talys.inp")); !os.IsNotExist(err) {
		t.Error("excluded file was archived")
	}
}

func TestCreateMissingSource(t *testing.T) {
	out := filepath.Join(t.TempDir(), "x.tar.gz")
	if err := CreateTarGz(filepath.Join(t.TempDir(), "nope"), out, "x", nil); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("archive created for missing source")
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evil.tar.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	body := []byte("pwned")
	if err := tw.WriteHeader(&tar.Header{Name: "../escape.txt", Mode: 0600, Size: int64(len(body)), Typeflag: tar.TypeReg}); err != nil {
		t.Fatal(err)
	}
	tw.Write(body)
	tw.Close()
	gz.Close()
	f.Close()

	dest := t.TempDir()
	if _, err := ExtractTarGz(path, dest); err == nil {
		t.Fatal("expected traversal error")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dest), "escape.txt")); !os.IsNotExist(err) {
		t.Error("file escaped destination")
	}
}

func TestPathInDirectory(t *testing.T) {
	base := t.TempDir()
	tests := []struct {
		path string
		ok   bool
	}{
		{"total.tot", true},
		{"run/total.tot", true},
		{"run/../total.tot", true},
		{"foo..bar", true},
		{"../etc/passwd", false},
		{"..", false},
		{"run/../../x", false},
		{"/etc/passwd", false},
		{"", false},
	}
	for _, tt := range tests {
		_, err := PathInDirectory(tt.path, base)
		if (err == nil) != tt.ok {
			t.Errorf("PathInDirectory(%q) err = %v, want ok=%v", tt.path, err, tt.ok)
		}
	}
}
