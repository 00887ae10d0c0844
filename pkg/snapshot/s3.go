// pkg/snapshot/s3.go
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// PutObjectAPI is the part of the S3 client the uploader needs
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader archives snapshot files under bucket/prefix
type S3Uploader struct {
	client PutObjectAPI
	bucket string
	prefix string
	logger *zap.Logger
}

// NewS3Client builds an S3 client from the default AWS credential chain
func NewS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	return s3.New(s3.Options{
		Region:       cfg.Region,
		Credentials:  cfg.Credentials,
		HTTPClient:   cfg.HTTPClient,
		BaseEndpoint: cfg.BaseEndpoint,
		UsePathStyle: true,
	}), nil
}

// NewS3Uploader creates an uploader for the bucket
func NewS3Uploader(client PutObjectAPI, bucket, prefix string, logger *zap.Logger) (*S3Uploader, error) {
	if client == nil {
		return nil, errors.New("S3 client cannot be nil")
	}
	if bucket == "" {
		return nil, errors.New("S3 bucket is required")
	}
	return &S3Uploader{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger.Named("snapshot-s3"),
	}, nil
}

// Key returns the object key of a run's snapshot
func (u *S3Uploader) Key(runID string) string {
	return path.Join(u.prefix, runID+".csv")
}

// UploadFile uploads the file as the snapshot of runID and returns its key
func (u *S3Uploader) UploadFile(ctx context.Context, runID, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	key := u.Key(runID)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("text/csv"),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot to s3://%s/%s: %w", u.bucket, key, err)
	}

	u.logger.Info("Uploaded snapshot",
		zap.String("bucket", u.bucket),
		zap.String("key", key))
	return key, nil
}
