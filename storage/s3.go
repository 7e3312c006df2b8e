package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client the disk uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Storage struct {
	client     S3API
	bucket     string
	region     string
	prefix     string
	baseURL    string
	publicURLs bool
}

type S3Config struct {
	Bucket     string
	Region     string
	Endpoint   string // DO Spaces, R2, MinIO
	Prefix     string
	BaseURL    string
	PublicURLs bool
	AccessKey  string
	SecretKey  string
}

func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return NewS3StorageWithClient(client, cfg), nil
}

// NewS3StorageWithClient builds the disk around an existing client.
func NewS3StorageWithClient(client S3API, cfg S3Config) *S3Storage {
	return &S3Storage{
		client:     client,
		bucket:     cfg.Bucket,
		region:     cfg.Region,
		prefix:     strings.Trim(cfg.Prefix, "/"),
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		publicURLs: cfg.PublicURLs,
	}
}

func (s *S3Storage) key(p string) string {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if s.prefix == "" {
		return p
	}
	return s.prefix + "/" + p
}

func (s *S3Storage) Save(ctx context.Context, path string, contents io.Reader, options ...Option) error {
	opts := NewOptions(options...)

	putParams := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
		Body:   contents,
	}

	if opts.ContentType != "" {
		putParams.ContentType = aws.String(opts.ContentType)
	}

	if opts.CacheControl != "" {
		putParams.CacheControl = aws.String(opts.CacheControl)
	}

	if opts.Visibility == VisibilityPublic {
		putParams.ACL = types.ObjectCannedACLPublicRead
	}

	_, err := s.client.PutObject(ctx, putParams)
	if err != nil {
		return fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return nil
}

func (s *S3Storage) Delete(ctx context.Context, path string) error {
	// DeleteObject succeeds for missing keys.
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}

	return nil
}

func (s *S3Storage) URL(path string) string {
	key := s.key(path)

	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, key)
	}

	if s.publicURLs {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
	}

	return "/" + key
}
