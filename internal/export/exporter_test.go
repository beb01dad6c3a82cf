package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/talysviz/talysrun/internal/config"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    Target
		wantErr bool
	}{
		{"s3://bucket", Target{Scheme: "s3", Bucket: "bucket"}, false},
		{"s3://bucket/talys/runs/", Target{Scheme: "s3", Bucket: "bucket", Prefix: "talys/runs"}, false},
		{"azure://results/fe56", Target{Scheme: "azure", Bucket: "results", Prefix: "fe56"}, false},
		{"gs://bucket", Target{}, true},
		{"bucket/prefix", Target{}, true},
		{"s3://", Target{}, true},
	}
	for _, tt := range tests {
		got, err := ParseTarget(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTarget(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTarget(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseTarget("ftp://x"); !errors.Is(err, config.ErrInvalidExportScheme) {
		t.Errorf("err = %v, want ErrInvalidExportScheme", err)
	}
}

func TestTargetKeyAndURL(t *testing.T) {
	target := Target{Scheme: "s3", Bucket: "b", Prefix: "runs"}
	key := target.Key("/tmp/archive/3f2a.tar.gz")
	if key != "runs/3f2a.tar.gz" {
		t.Errorf("Key = %q", key)
	}
	if got := target.URL(key); got != "s3://b/runs/3f2a.tar.gz" {
		t.Errorf("URL = %q", got)
	}

	if key := (Target{Scheme: "s3", Bucket: "b"}).Key("x.tar.gz"); key != "x.tar.gz" {
		t.Errorf("Key without prefix = %q", key)
	}
}

func TestNewErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, config.ExportConfig{}, nil, nil); !errors.Is(err, ErrNoTarget) {
		t.Errorf("empty target err = %v", err)
	}
	if _, err := New(ctx, config.ExportConfig{Target: "azure://c"}, nil, nil); !errors.Is(err, ErrMissingSASURL) {
		t.Errorf("azure without SAS err = %v", err)
	}
	if _, err := New(ctx, config.ExportConfig{Target: "nfs://x"}, nil, nil); err == nil {
		t.Error("expected error for unknown scheme")
	}
}

func TestNewAzure(t *testing.T) {
	exp, err := New(context.Background(), config.ExportConfig{
		Target:      "azure://results/talys",
		AzureSASURL: "https://acct.blob.core.windows.net/?sv=2022-11-02&sig=abc",
	}, nethttp.DefaultClient, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := exp.(*AzureExporter); !ok {
		t.Errorf("exporter = %T", exp)
	}
}

func TestS3Upload(t *testing.T) {
	content := []byte("fake tar.gz payload")

	var mu sync.Mutex
	var gotMethod, gotPath string
	var gotBody []byte
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotMethod, gotPath, gotBody = r.Method, r.URL.Path, body
		mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(nethttp.StatusOK)
	}))
	defer srv.Close()

	archivePath := filepath.Join(t.TempDir(), "sess-1.tar.gz")
	if err := os.WriteFile(archivePath, content, 0600); err != nil {
		t.Fatal(err)
	}

	exp, err := New(context.Background(), config.ExportConfig{
		Target:          "s3://talys-bucket/runs",
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
	}, srv.Client(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	url, err := exp.Upload(context.Background(), archivePath)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "s3://talys-bucket/runs/sess-1.tar.gz" {
		t.Errorf("url = %q", url)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotMethod != nethttp.MethodPut || gotPath != "/talys-bucket/runs/sess-1.tar.gz" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
	if !bytes.Contains(gotBody, content) {
		t.Errorf("body = %q", gotBody)
	}
}

func TestS3UploadMissingArchive(t *testing.T) {
	exp, err := New(context.Background(), config.ExportConfig{
		Target:          "s3://b",
		Region:          "us-east-1",
		Endpoint:        "http://127.0.0.1:1",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
	}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := exp.Upload(context.Background(), filepath.Join(t.TempDir(), "none.tar.gz")); err == nil {
		t.Error("expected error for missing archive")
	}
}
