package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Options configures an S3Backend.
type S3Options struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string // optional, for S3-compatible services

	// Static credentials; when empty the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
}

// S3API is the subset of the S3 client used by S3Backend.
type S3API interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Backend stores the snapshot as one object per host: <prefix>/<hostID>/mapping.json.
type S3Backend struct {
	client   S3API
	uploader *manager.Uploader
	bucket   string
	key      string
}

// NewS3Backend loads AWS configuration and creates a backend for hostID.
func NewS3Backend(ctx context.Context, opts S3Options, hostID string) (*S3Backend, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 store requires s3_bucket to be set")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3BackendWithClient(client, opts.Bucket, opts.Prefix, hostID), nil
}

// NewS3BackendWithClient creates a backend around an existing client.
func NewS3BackendWithClient(client S3API, bucket, prefix, hostID string) *S3Backend {
	return &S3Backend{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		key:      path.Join(prefix, hostID, "mapping.json"),
	}
}

func (b *S3Backend) Location() string { return "s3://" + b.bucket + "/" + b.key }

func (b *S3Backend) Put(r io.Reader, size int64) error {
	_, err := b.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.key),
		Body:          r,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("uploading snapshot: %w", err)
	}
	return nil
}

func (b *S3Backend) Get(w io.Writer) (bool, error) {
	out, err := b.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return false, nil
		}
		return false, fmt.Errorf("downloading snapshot: %w", err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return false, fmt.Errorf("reading snapshot object: %w", err)
	}
	return true, nil
}

// ValidateSetup checks that the bucket exists and is reachable with the configured credentials.
func (b *S3Backend) ValidateSetup() error {
	_, err := b.client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", b.bucket, err)
	}
	return nil
}

// Compile-time check that S3Backend implements Backend.
var _ Backend = (*S3Backend)(nil)
