package upload

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// ErrInvalidS3Config is returned when required S3 settings are missing.
var ErrInvalidS3Config = errors.New("s3 storage: bucket and region are required")

// S3Client is the subset of the S3 API the storage needs. Narrowed for
// mock-based tests.
type S3Client interface {
	PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error)
}

// S3Config contains configuration for S3 upload storage.
type S3Config struct {
	Bucket      string
	Region      string
	AccessKeyID string
	SecretKey   string
	KeyPrefix   string // optional key namespace, e.g. "images/"
}

// S3Storage stores uploads in an S3 bucket. Useful when the storefront
// runs on more than one node and local disk cannot hold shared images.
type S3Storage struct {
	client    S3Client
	bucket    string
	keyPrefix string
}

// S3Option configures S3Storage.
type S3Option func(*S3Storage)

// WithS3Client sets a pre-configured client, primarily for tests.
func WithS3Client(client S3Client) S3Option {
	return func(s *S3Storage) {
		s.client = client
	}
}

// NewS3Storage creates an S3-backed upload storage.
func NewS3Storage(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Storage, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidS3Config
	}

	s := &S3Storage{
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		loadOpts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.Region),
		}
		// Static credentials if provided, IAM role or env otherwise.
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, "")))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("s3 storage: load aws config: %w", err)
		}
		s.client = s3aws.NewFromConfig(awsCfg)
	}

	return s, nil
}

func (s *S3Storage) Put(ctx context.Context, name string, contentType string, content io.Reader) (string, error) {
	key := s.keyPrefix + name

	_, err := s.client.PutObject(ctx, &s3aws.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        content,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("s3 storage: put %q failed (code: %s): %w", key, apiErr.ErrorCode(), err)
		}
		return "", fmt.Errorf("s3 storage: put %q failed: %w", key, err)
	}

	return key, nil
}
