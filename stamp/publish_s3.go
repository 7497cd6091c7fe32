package stamp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/freshen-dev/freshen/types"
)

// S3Config holds configuration for publishing to an S3-hosted deployment.
type S3Config struct {
	// Bucket is the S3 bucket serving the application (required).
	Bucket string
	// Prefix is the key prefix within the bucket (optional).
	Prefix string
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers
	// (e.g. Cloudflare R2, MinIO). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing (bucket in path, not
	// subdomain). Required by most S3-compatible providers.
	UsePathStyle bool
}

// Validate checks that required S3 configuration is present.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("S3 bucket is required")
	}
	return nil
}

// s3API is the slice of the S3 client the publisher uses.
// Narrowed for test fakes.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads the manifest to the bucket serving the deployment.
// CacheControl no-cache is set so CDN edges revalidate the manifest even
// though clients also cache-bust on fetch.
type S3Publisher struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Publisher creates an S3 publisher using the AWS SDK default
// credential chain (env vars, shared config, IAM role).
func NewS3Publisher(ctx context.Context, cfg S3Config) (*S3Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &S3Publisher{
		client: s3.NewFromConfig(awsConfig, s3Opts...),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// NewS3PublisherWithClient creates an S3 publisher with a caller-supplied
// client. Used in tests.
func NewS3PublisherWithClient(client s3API, bucket, prefix string) *S3Publisher {
	return &S3Publisher{client: client, bucket: bucket, prefix: prefix}
}

// Publish uploads the manifest to <prefix>/<filename> in the bucket.
func (p *S3Publisher) Publish(ctx context.Context, identity types.BuildIdentity, filename string) error {
	data, err := identity.Manifest().Encode()
	if err != nil {
		return err
	}

	key := filename
	if p.prefix != "" {
		key = strings.TrimSuffix(p.prefix, "/") + "/" + filename
	}

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(p.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String("application/json"),
		CacheControl: aws.String("no-cache"),
	})
	if err != nil {
		return fmt.Errorf("publish manifest to s3://%s/%s: %w", p.bucket, key, err)
	}

	return nil
}

// Verify S3Publisher implements the publisher interface.
var _ Publisher = (*S3Publisher)(nil)
