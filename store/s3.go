package store

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

// S3Config points the store at an S3-compatible bucket. Endpoint and
// ForcePathStyle cover non-AWS providers such as Cloudflare R2 or MinIO.
// Credentials come from the default chain (env, shared config, role).
type S3Config struct {
	Bucket         string
	Region         string
	Endpoint       string
	ForcePathStyle bool
}

// S3Store implements Store on the S3 API. Every operation retries
// transient failures with exponential backoff; puts and deletes are
// idempotent so a retry after a half-applied call converges to the same
// end state.
type S3Store struct {
	api    s3iface.S3API
	bucket string
}

func NewS3(cfg S3Config) (*S3Store, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.ForcePathStyle {
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating aws session")
	}
	return &S3Store{api: s3.New(sess), bucket: cfg.Bucket}, nil
}

// NewS3WithAPI injects an S3 API implementation, used by tests.
func NewS3WithAPI(api s3iface.S3API, bucket string) *S3Store {
	return &S3Store{api: api, bucket: bucket}
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	op := func() error {
		_, err := s.api.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(data),
			ContentLength: aws.Int64(int64(len(data))),
		})
		return err
	}
	return errors.Wrapf(s.retry(ctx, op), "putting s3 object %v", key)
}

func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	var content []byte
	op := func() error {
		result, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			if aerr, ok := err.(awserr.Error); ok {
				switch aerr.Code() {
				case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
					return backoff.Permanent(ErrNotFound)
				}
			}
			return err
		}
		defer result.Body.Close()
		content, err = io.ReadAll(result.Body)
		return err
	}
	if err := s.retry(ctx, op); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "fetching s3 object %v", key)
	}
	return content, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	op := func() error {
		_, err := s.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		return err
	}
	return errors.Wrapf(s.retry(ctx, op), "deleting s3 object %v", key)
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	op := func() error {
		keys = keys[:0]
		return s.api.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(prefix),
		}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, obj := range page.Contents {
				keys = append(keys, aws.StringValue(obj.Key))
			}
			return true
		})
	}
	if err := s.retry(ctx, op); err != nil {
		return nil, errors.Wrapf(err, "listing s3 prefix %v", prefix)
	}
	return keys, nil
}

func (s *S3Store) retry(ctx context.Context, op backoff.Operation) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}
