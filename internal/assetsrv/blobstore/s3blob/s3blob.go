// Package s3blob stores blobs in an S3 compatible bucket.
package s3blob

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"
	"github.com/tansive/assetvault/internal/assetsrv/blobstore"
	"github.com/tansive/assetvault/internal/common/apperrors"
)

type Options struct {
	Bucket           string
	Region           string
	Endpoint         string // non-empty for MinIO and other S3 compatible services
	AccessKeyID      string
	SecretAccessKey  string
	OperationTimeout time.Duration
}

type Store struct {
	client    *s3.Client
	uploader  *manager.Uploader
	bucket    string
	opTimeout time.Duration
}

var _ blobstore.BlobStore = (*Store)(nil)

// New loads the default AWS configuration chain, overridden by static
// credentials when both keys are set.
func New(ctx context.Context, opts Options) (*Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	timeout := opts.OperationTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Store{
		client:    client,
		uploader:  manager.NewUploader(client),
		bucket:    opts.Bucket,
		opTimeout: timeout,
	}, nil
}

func (s *Store) convertError(ctx context.Context, op, key string, err error) apperrors.Error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return blobstore.ErrBlobNotFound.Msg("blob not found: " + key)
	}
	log.Ctx(ctx).Error().Err(err).Str("op", op).Str("bucket", s.bucket).Str("key", key).Msg("s3 operation failed")
	return blobstore.ErrStorageUnavailable.Err(err)
}

// Put streams the body to the bucket, switching to a multipart upload once it
// outgrows one part. Callers bound the upload size before it gets here.
func (s *Store) Put(ctx context.Context, key string, r io.Reader) (int64, apperrors.Error) {
	if err := blobstore.ValidateKey(key); err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	body := &countingReader{r: r}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return 0, s.convertError(ctx, "put", key, err)
	}
	return body.n.Load(), nil
}

type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

// Get waits at most the operation timeout for the object to start arriving.
// The body may stream for longer, but a read that makes no progress for the
// operation timeout fails with ErrStorageUnavailable.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, apperrors.Error) {
	ctx, cancel := context.WithCancel(ctx)
	timer := time.AfterFunc(s.opTimeout, cancel)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		timer.Stop()
		cancel()
		return nil, s.convertError(ctx, "get", key, err)
	}
	return &idleBody{ReadCloser: out.Body, ctx: ctx, cancel: cancel, timer: timer, idle: s.opTimeout}, nil
}

// idleBody cancels its request when no bytes arrive for idle.
type idleBody struct {
	io.ReadCloser
	ctx    context.Context
	cancel context.CancelFunc
	timer  *time.Timer
	idle   time.Duration
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if n > 0 {
		b.timer.Reset(b.idle)
	}
	if err != nil && !errors.Is(err, io.EOF) && b.ctx.Err() != nil {
		return n, blobstore.ErrStorageUnavailable.Err(err)
	}
	return n, err
}

func (b *idleBody) Close() error {
	b.timer.Stop()
	b.cancel()
	return b.ReadCloser.Close()
}

func (s *Store) Exists(ctx context.Context, key string) (bool, apperrors.Error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		appErr := s.convertError(ctx, "head", key, err)
		if errors.Is(appErr, blobstore.ErrBlobNotFound) {
			return false, nil
		}
		return false, appErr
	}
	return true, nil
}

func (s *Store) Delete(ctx context.Context, key string) apperrors.Error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		appErr := s.convertError(ctx, "delete", key, err)
		if errors.Is(appErr, blobstore.ErrBlobNotFound) {
			return nil
		}
		return appErr
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, apperrors.Error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	keys := make([]string, 0)
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, s.convertError(ctx, "list", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	sort.Strings(keys)
	return keys, nil
}
