package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/radz2291/RZ-Property/internal/config"
)

// IBlobStore is the blob store adapter for property images.
type IBlobStore interface {
	// Upload stores body under key and returns its public URL.
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
	// Delete removes key. A missing object counts as deleted.
	Delete(ctx context.Context, key string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	PublicURL(key string) string
	KeyFromURL(url string) (string, bool)
	ListBuckets(ctx context.Context) ([]string, error)
	// EnsureBucket creates the bucket with public read access if it is missing.
	EnsureBucket(ctx context.Context) (created bool, err error)
}

// s3Storage implements IBlobStore on S3 or an S3-compatible endpoint.
type s3Storage struct {
	cfg        *config.Config
	s3Client   *s3.Client
	bucket     string
	publicBase string
}

// NewS3Storage creates the S3 blob store.
func NewS3Storage(cfg *config.Config) (IBlobStore, error) {
	opts := []func(*aws_config.LoadOptions) error{aws_config.WithRegion(cfg.S3Region)}
	if cfg.AwsAccessKeyID != "" {
		opts = append(opts, aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"", // session token
		)))
	}
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	return &s3Storage{
		cfg:        cfg,
		s3Client:   s3Client,
		bucket:     cfg.S3Bucket,
		publicBase: strings.TrimRight(cfg.S3PublicBaseURL, "/"),
	}, nil
}

func (s *s3Storage) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

func (s *s3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

func (s *s3Storage) Download(ctx context.Context, key string) ([]byte, string, error) {
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to download object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, aws.ToString(out.ContentType), nil
}

func (s *s3Storage) PublicURL(key string) string {
	return publicURL(s.publicBase, key)
}

func (s *s3Storage) KeyFromURL(url string) (string, bool) {
	return keyFromURL(s.publicBase, s.bucket, url)
}

func (s *s3Storage) ListBuckets(ctx context.Context) ([]string, error) {
	out, err := s.s3Client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	names := make([]string, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		names = append(names, aws.ToString(b.Name))
	}
	return names, nil
}

func (s *s3Storage) EnsureBucket(ctx context.Context) (bool, error) {
	_, err := s.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return false, nil
	}
	if !isNotFound(err) {
		return false, fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if s.cfg.S3Region != "" && s.cfg.S3Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.cfg.S3Region),
		}
	}
	if _, err := s.s3Client.CreateBucket(ctx, input); err != nil {
		return false, fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}

	if _, err := s.s3Client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(s.bucket),
		Policy: aws.String(publicReadPolicy(s.bucket)),
	}); err != nil {
		return true, fmt.Errorf("bucket %s created but public read policy failed: %w", s.bucket, err)
	}

	log.Printf("Created public bucket %s", s.bucket)
	return true, nil
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Sid":"PublicRead","Effect":"Allow","Principal":"*","Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	var nsb *types.NoSuchBucket
	if errors.As(err, &nf) || errors.As(err, &nsk) || errors.As(err, &nsb) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return true
		}
	}
	return false
}

func publicURL(base, key string) string {
	return base + "/" + strings.TrimLeft(key, "/")
}

// keyFromURL strips the public base URL, falling back to the part after
// "/<bucket>/" for URLs written under an older base.
func keyFromURL(base, bucket, url string) (string, bool) {
	if base != "" && strings.HasPrefix(url, base+"/") {
		key := strings.TrimPrefix(url, base+"/")
		return key, key != ""
	}
	marker := "/" + bucket + "/"
	if i := strings.Index(url, marker); i >= 0 {
		key := url[i+len(marker):]
		if q := strings.IndexAny(key, "?#"); q >= 0 {
			key = key[:q]
		}
		return key, key != ""
	}
	return "", false
}
