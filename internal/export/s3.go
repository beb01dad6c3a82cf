package export

import (
	"context"
	"fmt"
	nethttp "net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/talysviz/talysrun/internal/config"
	"github.com/talysviz/talysrun/internal/http"
	"github.com/talysviz/talysrun/internal/logging"
)

// S3Exporter uploads archives with PutObject.
type S3Exporter struct {
	client *s3.Client
	target Target
	logger *logging.Logger
}

// NewS3Exporter builds an S3 client. Static credentials from cfg take
// precedence over the default AWS credential chain.
func NewS3Exporter(ctx context.Context, target Target, cfg config.ExportConfig, httpClient *nethttp.Client, logger *logging.Logger) (*S3Exporter, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if httpClient != nil {
		opts = append(opts, awsconfig.WithHTTPClient(httpClient))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(awscreds.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Exporter{client: client, target: target, logger: logger}, nil
}

// Upload puts archivePath under the target prefix.
func (e *S3Exporter) Upload(ctx context.Context, archivePath string) (string, error) {
	key := e.target.Key(archivePath)

	err := http.ExecuteWithRetry(ctx, http.DefaultRetryConfig(), func() error {
		f, err := os.Open(archivePath)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer f.Close()

		_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(e.target.Bucket),
			Key:         aws.String(key),
			Body:        f,
			ContentType: aws.String("application/gzip"),
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to s3://%s/%s: %w", archivePath, e.target.Bucket, key, err)
	}

	url := e.target.URL(key)
	e.logger.Info().Str("archive", archivePath).Str("url", url).Msg("Archive exported")
	return url, nil
}
