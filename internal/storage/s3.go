// Package storage keeps document payloads in an S3 bucket, separate from
// the metadata rows in Postgres. Listing documents never touches a payload.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"docshare/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Storage struct {
	client *s3.Client
	bucket string
}

func NewS3Storage(client *s3.Client, bucket string) *S3Storage {
	return &S3Storage{client: client, bucket: bucket}
}

// Upload stores a payload under the given key.
func (s *S3Storage) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload payload %s: %w", key, err)
	}

	return nil
}

// Download returns a reader over the payload stored under key. The caller
// owns the reader and must close it.
func (s *S3Storage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, types.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to download payload %s: %w", key, err)
	}

	return out.Body, nil
}

// Delete removes the payload stored under key. Deleting a missing key is
// not an error.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete payload %s: %w", key, err)
	}

	return nil
}
