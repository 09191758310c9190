package export

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kafbridge/kafbridge/pkg/config"
)

// S3Mirror uploads generated artifacts to an S3-compatible store so they
// outlive the container's local data directory.
type S3Mirror struct {
	cfg config.S3Config
}

func NewS3Mirror(cfg config.S3Config) *S3Mirror {
	return &S3Mirror{cfg: cfg}
}

// Upload pushes the artifact at path under the configured prefix and
// returns the remote location.
func (m *S3Mirror) Upload(ctx context.Context, path, name string) (string, error) {
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion(m.cfg.Region),
		awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(m.cfg.AccessKey, m.cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return "", fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if m.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(m.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	uploader := manager.NewUploader(client)

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer file.Close()

	key := m.cfg.Prefix + name
	res, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.cfg.Bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return res.Location, nil
}
