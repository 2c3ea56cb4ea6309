package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 keeps objects in a map. Only single-part uploads are supported,
// which is all the uploader uses for payloads below its part size.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	bucket  string
}

func newFakeS3(bucket string) *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), bucket: bucket}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if aws.ToString(in.Bucket) != f.bucket {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart upload not supported by fake")
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart upload not supported by fake")
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart upload not supported by fake")
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

func TestS3Backend(t *testing.T) {
	t.Parallel()

	client := newFakeS3("snapshots")
	b := NewS3BackendWithClient(client, "snapshots", "fleet", "host-1")
	assert.Equal(t, "s3://snapshots/fleet/host-1/mapping.json", b.Location())

	var buf bytes.Buffer
	found, err := b.Get(&buf)
	require.NoError(t, err)
	assert.False(t, found, "missing object means no snapshot")

	payload := []byte(`{"device":"~"}`)
	require.NoError(t, b.Put(bytes.NewReader(payload), int64(len(payload))))
	assert.Contains(t, client.objects, "fleet/host-1/mapping.json")

	found, err = b.Get(&buf)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload, buf.Bytes())

	assert.NoError(t, b.ValidateSetup())
	assert.Error(t, NewS3BackendWithClient(client, "other", "", "h").ValidateSetup())
}

func TestNewS3Backend_RequiresBucket(t *testing.T) {
	t.Parallel()

	_, err := NewS3Backend(context.Background(), S3Options{Region: "us-east-1"}, "h")
	assert.ErrorContains(t, err, "s3_bucket")
}
