package export

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	"github.com/talysviz/talysrun/internal/config"
	"github.com/talysviz/talysrun/internal/http"
	"github.com/talysviz/talysrun/internal/logging"
)

// ErrMissingSASURL is returned for azure:// targets without a SAS URL.
var ErrMissingSASURL = errors.New("azure export needs export.azure_sas_url or " + config.EnvAzureSASURL)

// AzureExporter uploads archives as block blobs using an account SAS URL.
type AzureExporter struct {
	client *azblob.Client
	target Target
	logger *logging.Logger
}

// NewAzureExporter builds a blob client from cfg.AzureSASURL, of the form
// https://<account>.blob.core.windows.net/?<sas-token>.
func NewAzureExporter(target Target, cfg config.ExportConfig, httpClient *nethttp.Client, logger *logging.Logger) (*AzureExporter, error) {
	if cfg.AzureSASURL == "" {
		return nil, ErrMissingSASURL
	}

	opts := &azblob.ClientOptions{}
	if httpClient != nil {
		opts.ClientOptions = azcore.ClientOptions{Transport: httpClient}
	}
	client, err := azblob.NewClientWithNoCredential(cfg.AzureSASURL, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}

	return &AzureExporter{client: client, target: target, logger: logger}, nil
}

// Upload writes archivePath to the container under the target prefix.
func (e *AzureExporter) Upload(ctx context.Context, archivePath string) (string, error) {
	name := e.target.Key(archivePath)

	err := http.ExecuteWithRetry(ctx, http.DefaultRetryConfig(), func() error {
		f, err := os.Open(archivePath)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer f.Close()

		_, err = e.client.UploadFile(ctx, e.target.Bucket, name, f, &azblob.UploadFileOptions{
			HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr("application/gzip")},
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to azure://%s/%s: %w", archivePath, e.target.Bucket, name, err)
	}

	url := e.target.URL(name)
	e.logger.Info().Str("archive", archivePath).Str("url", url).Msg("Archive exported")
	return url, nil
}
