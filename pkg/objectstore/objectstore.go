// Package objectstore holds the S3 client the deployment stage pushes
// model bundles to and the serving layer fetches them from.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/versich-treue/vtml-go/pkg/bundle"
	"github.com/versich-treue/vtml-go/pkg/config"
)

// S3Store talks to one bucket. Callers own the handle; there is no shared
// global client.
type S3Store struct {
	client *s3.Client
	bucket string
}

// New builds an S3 client for the configured bucket. Explicit credentials
// from the environment take precedence; otherwise the default provider
// chain applies.
func New(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return &S3Store{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.ModelBucket,
	}, nil
}

// Bucket returns the bucket this store writes to.
func (s *S3Store) Bucket() string {
	return s.bucket
}

// Exists reports whether an object is present under the key. A missing
// object is not an error.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("heading s3://%s/%s: %w", s.bucket, key, err)
	}
	return true, nil
}

// Upload streams a local file to the key, replacing whatever is there.
func (s *S3Store) Upload(ctx context.Context, key, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// FetchBundle downloads and decodes the model bundle under the key. The
// boolean reports whether the object was there at all; absence is the
// normal first-run state, not an error.
func (s *S3Store) FetchBundle(ctx context.Context, key string) (*bundle.ModelBundle, bool, error) {
	exists, err := s.Exists(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, false, fmt.Errorf("fetching s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	b, err := bundle.Decode(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("decoding s3://%s/%s: %w", s.bucket, key, err)
	}
	return b, true, nil
}
