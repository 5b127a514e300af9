package store

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 implements just the calls S3Store makes.
type fakeS3 struct {
	s3iface.S3API
	objects map[string][]byte

	putAttempts int
	putFailures int // fail this many puts before succeeding
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	f.putAttempts++
	if f.putFailures > 0 {
		f.putFailures--
		return nil, errors.New("connection reset")
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.StringValue(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "no such key", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObjectWithContext(ctx aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.StringValue(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2PagesWithContext(ctx aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	page := &s3.ListObjectsV2Output{}
	prefix := aws.StringValue(in.Prefix)
	for key := range f.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			page.Contents = append(page.Contents, &s3.Object{Key: aws.String(key)})
		}
	}
	fn(page, true)
	return nil
}

func TestS3PutGetDelete(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	st := NewS3WithAPI(api, "wdi")

	require.NoError(t, st.Put(ctx, "fct_a.parquet", []byte("aaa")))
	data, err := st.Get(ctx, "fct_a.parquet")
	require.NoError(t, err)
	assert.Equal(t, []byte("aaa"), data)

	require.NoError(t, st.Delete(ctx, "fct_a.parquet"))
	_, err = st.Get(ctx, "fct_a.parquet")
	assert.ErrorIs(t, err, ErrNotFound)
}

// An absent key surfaces ErrNotFound without retrying: the first-ever
// cycle's missing manifest must not wait out a backoff loop.
func TestS3GetNotFoundIsPermanent(t *testing.T) {
	st := NewS3WithAPI(newFakeS3(), "wdi")
	_, err := st.Get(context.Background(), "manifest.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3PutRetriesTransientFailure(t *testing.T) {
	api := newFakeS3()
	api.putFailures = 2
	st := NewS3WithAPI(api, "wdi")

	require.NoError(t, st.Put(context.Background(), "fct_a.parquet", []byte("aaa")))
	assert.Equal(t, 3, api.putAttempts)
	assert.Equal(t, []byte("aaa"), api.objects["fct_a.parquet"])
}

func TestS3List(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	st := NewS3WithAPI(api, "wdi")
	require.NoError(t, st.Put(ctx, "fct_a.parquet", nil))
	require.NoError(t, st.Put(ctx, "dim_b.parquet", nil))

	keys, err := st.List(ctx, "fct_")
	require.NoError(t, err)
	assert.Equal(t, []string{"fct_a.parquet"}, keys)
}
