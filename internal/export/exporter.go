// Package export uploads run archives to S3 or Azure Blob Storage.
package export

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/talysviz/talysrun/internal/config"
	"github.com/talysviz/talysrun/internal/logging"
)

// Target schemes.
const (
	SchemeS3    = "s3"
	SchemeAzure = "azure"
)

// ErrNoTarget is returned by New when no export target is configured.
var ErrNoTarget = errors.New("no export target configured")

// Exporter uploads one archive and returns its remote location.
type Exporter interface {
	Upload(ctx context.Context, archivePath string) (string, error)
}

// Target is a parsed s3://bucket/prefix or azure://container/prefix.
type Target struct {
	Scheme string
	Bucket string // bucket or container
	Prefix string
}

// ParseTarget parses an export target.
func ParseTarget(s string) (Target, error) {
	scheme, rest, ok := strings.Cut(strings.TrimSpace(s), "://")
	if !ok || (scheme != SchemeS3 && scheme != SchemeAzure) {
		return Target{}, fmt.Errorf("%w: %q", config.ErrInvalidExportScheme, s)
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Target{}, fmt.Errorf("export target %q has no bucket or container", s)
	}
	return Target{Scheme: scheme, Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
}

// Key returns the object name for archivePath under the prefix.
func (t Target) Key(archivePath string) string {
	return path.Join(t.Prefix, filepath.Base(archivePath))
}

// URL returns the remote location of key.
func (t Target) URL(key string) string {
	return fmt.Sprintf("%s://%s/%s", t.Scheme, t.Bucket, key)
}

// New returns the exporter for cfg.Target. httpClient carries the proxy
// and retry settings; nil uses the SDK defaults.
func New(ctx context.Context, cfg config.ExportConfig, httpClient *nethttp.Client, logger *logging.Logger) (Exporter, error) {
	if cfg.Target == "" {
		return nil, ErrNoTarget
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	target, err := ParseTarget(cfg.Target)
	if err != nil {
		return nil, err
	}

	switch target.Scheme {
	case SchemeS3:
		return NewS3Exporter(ctx, target, cfg, httpClient, logger)
	default:
		return NewAzureExporter(target, cfg, httpClient, logger)
	}
}
