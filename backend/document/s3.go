package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hotelbey/bey/backend"
)

// NewS3 creates a document store, which puts documents as objects into a S3 bucket.
func NewS3(client *s3.Client, bucket string, publicURL string, presignExpires time.Duration) *S3 {
	if presignExpires <= 0 {
		presignExpires = time.Hour
	}

	return &S3{
		client:         client,
		presignClient:  s3.NewPresignClient(client),
		bucket:         bucket,
		publicURL:      strings.TrimSuffix(publicURL, "/"),
		presignExpires: presignExpires,
	}
}

type S3 struct {
	client         *s3.Client
	presignClient  *s3.PresignClient
	bucket         string
	publicURL      string
	presignExpires time.Duration
}

func (d *S3) GenerateURL(ctx context.Context, name string) (string, error) {
	if d.publicURL != "" {
		return d.publicURL + "/" + name, nil
	}

	req, err := d.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(name),
	}, s3.WithPresignExpires(d.presignExpires))
	if err != nil {
		return "", fmt.Errorf("failed to presign URL of document %s: %v", name, err)
	}
	return req.URL, nil
}

func (d *S3) Get(ctx context.Context, name string) ([]byte, string, error) {
	res, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, "", backend.ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to get document %s from S3: %v", name, err)
	}

	defer res.Body.Close()

	content, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read document %s from S3: %v", name, err)
	}

	contentType := defaultContentType
	if res.ContentType != nil {
		contentType = *res.ContentType
	}

	return content, contentType, nil
}

func (d *S3) Save(ctx context.Context, name string, content []byte, contentType string) error {
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put document %s to S3: %v", name, err)
	}
	return nil
}
