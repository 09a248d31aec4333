package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hotelbey/bey/backend"
)

const (
	TypeLocal = "local"
	TypeS3    = "s3"
)

type Options struct {
	Type string // "local" or "s3"

	// local
	Dir string // Directory, the documents are written to.

	// S3 or S3 compatible
	S3AccessKey string
	S3Bucket    string
	S3Endpoint  string // Optional endpoint of a S3 compatible storage.
	S3Region    string
	S3SecretKey string

	// PublicURL is the base URL of downloadable documents.
	// If empty, S3 documents are downloadable via presigned URLs, which expire after PresignExpires.
	PublicURL      string
	PresignExpires time.Duration
}

// New creates a [backend.DocumentStore] of the configured type.
func New(ctx context.Context, options Options) (backend.DocumentStore, error) {
	switch options.Type {
	case TypeLocal:
		return NewLocal(options.Dir, options.PublicURL)
	case TypeS3:
		if options.S3Bucket == "" {
			return nil, errors.New("S3 bucket is empty")
		}

		loadOptions := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(options.S3Region),
		}

		if options.S3AccessKey != "" && options.S3SecretKey != "" {
			provider := credentials.NewStaticCredentialsProvider(options.S3AccessKey, options.S3SecretKey, "")
			loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(provider))
		}

		awsConfig, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %v", err)
		}

		client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			if options.S3Endpoint != "" {
				o.BaseEndpoint = aws.String(options.S3Endpoint)
			}
			o.UsePathStyle = true
		})

		return NewS3(client, options.S3Bucket, options.PublicURL, options.PresignExpires), nil
	default:
		return nil, fmt.Errorf("unsupported document store type %q", options.Type)
	}
}
