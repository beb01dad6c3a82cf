package diskspace

import (
	"fmt"
	"path/filepath"
	"testing"
)

func TestCheck(t *testing.T) {
	dir := t.TempDir()

	available, ok := Available(dir)
	if !ok {
		t.Skip("free space not available on this platform")
	}
	if available <= 0 {
		t.Fatalf("Available = %d", available)
	}

	if err := Check(dir, 1024); err != nil {
		t.Errorf("1 KB check failed: %v", err)
	}

	// 100 PB exceeds any test machine
	err := Check(dir, 100<<50)
	if !IsInsufficientSpaceError(err) {
		t.Fatalf("expected InsufficientSpaceError, got %v", err)
	}
	if e := err.(*InsufficientSpaceError); e.Path != dir || e.AvailableBytes <= 0 {
		t.Errorf("error fields = %+v", e)
	}
}

func TestCheckUnknownFilesystem(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does", "not", "exist")
	if err := Check(missing, 100<<50); err != nil {
		t.Errorf("unqueryable path should pass, got %v", err)
	}
}

func TestIsInsufficientSpaceError(t *testing.T) {
	err := &InsufficientSpaceError{Path: "/tmp", RequiredBytes: 1000, AvailableBytes: 500}
	if !IsInsufficientSpaceError(err) {
		t.Error("direct error not recognised")
	}
	if !IsInsufficientSpaceError(fmt.Errorf("workspace: %w", err)) {
		t.Error("wrapped error not recognised")
	}
	if IsInsufficientSpaceError(fmt.Errorf("other")) {
		t.Error("unrelated error recognised")
	}
}
