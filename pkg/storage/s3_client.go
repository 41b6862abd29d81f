package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client issues presigned upload URLs against an S3-compatible object store.
type S3Client interface {
	PresignPut(ctx context.Context, bucket, key, contentType string, expiration time.Duration) (string, error)
	PublicURL(bucket, key string) string
}

// S3Options configures the client. Endpoint and static keys are optional;
// without them the default AWS credential chain and endpoints are used.
type S3Options struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	ForcePathStyle  bool
}

type s3Client struct {
	presigner     *s3.PresignClient
	publicBaseURL string
}

// NewS3Client builds an S3Client from opts.
func NewS3Client(ctx context.Context, opts S3Options) (S3Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	return &s3Client{
		presigner:     s3.NewPresignClient(client),
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
	}, nil
}

func (c *s3Client) PresignPut(ctx context.Context, bucket, key, contentType string, expiration time.Duration) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:       aws.String(bucket),
		Key:          aws.String(key),
		CacheControl: aws.String("max-age=3600"),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	req, err := c.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(expiration))
	if err != nil {
		return "", fmt.Errorf("failed to presign upload for %s/%s: %w", bucket, key, err)
	}
	return req.URL, nil
}

func (c *s3Client) PublicURL(bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicBaseURL, bucket, key)
}
