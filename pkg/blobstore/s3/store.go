// Package s3 is a blobstore.Store backed by an S3-compatible bucket.
// Each entity's blob is stored at key "<bucket>/main/<entityId>"
// within the configured S3 bucket, mirroring the local-filesystem
// backend's layout.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/bucketfs/bucketfs/internal/telemetry"
	"github.com/bucketfs/bucketfs/pkg/blobstore"
	"github.com/bucketfs/bucketfs/pkg/storeerr"
)

// Config configures a Store.
type Config struct {
	Client          *s3.Client // takes precedence over the fields below
	Bucket          string
	KeyPrefix       string
	Region          string
	Endpoint        string // non-empty for S3-compatible providers (MinIO, R2, ...)
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
}

// Store is an S3-backed blobstore.Store.
type Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// New constructs a Store, building an S3 client from cfg if one was
// not supplied directly.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("blobstore/s3: bucket is required")
	}

	client := cfg.Client
	if client == nil {
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.Region))
		}
		if cfg.AccessKeyID != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, storeerr.NewOther("blobstore/s3: load aws config: " + err.Error())
		}
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.ForcePathStyle
		})
	}

	return &Store{client: client, bucket: cfg.Bucket, keyPrefix: cfg.KeyPrefix}, nil
}

func (s *Store) objectKey(bucket, entityID string) string {
	return s.keyPrefix + bucket + "/main/" + entityID
}

// NewWriter buffers the blob in memory and commits it with a single
// PutObject on Close, mirroring the filesystem backend's
// all-or-nothing commit semantics without requiring a multipart
// session for every write.
func (s *Store) NewWriter(ctx context.Context, bucket, entityID string) (blobstore.Writer, error) {
	return &writer{ctx: ctx, store: s, bucket: bucket, entityID: entityID}, nil
}

type writer struct {
	ctx      context.Context
	store    *Store
	bucket   string
	entityID string
	buf      bytes.Buffer
	done     bool
}

func (w *writer) Write(p []byte) (int, error) {
	if w.done {
		return 0, storeerr.NewClosed("blob writer")
	}
	return w.buf.Write(p)
}

func (w *writer) Close() error {
	if w.done {
		return storeerr.NewClosed("blob writer")
	}
	w.done = true

	ctx, span := telemetry.StartBlobSpan(w.ctx, telemetry.SpanBlobPut, w.entityID,
		telemetry.Bucket(w.bucket), telemetry.StoreType("s3"), telemetry.Size(int64(w.buf.Len())))
	defer span.End()

	_, err := w.store.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(w.store.bucket),
		Key:    aws.String(w.store.objectKey(w.bucket, w.entityID)),
		Body:   bytes.NewReader(w.buf.Bytes()),
	})
	if err != nil {
		err = storeerr.NewOther("blobstore/s3: put object: " + err.Error())
		telemetry.RecordError(ctx, err)
		return err
	}
	return nil
}

func (w *writer) Abort(reason error) error {
	if w.done {
		return storeerr.NewClosed("blob writer")
	}
	w.done = true
	w.buf.Reset()
	return nil
}

// Reader fetches entityID's blob.
func (s *Store) Reader(ctx context.Context, bucket, entityID string) (io.ReadCloser, error) {
	ctx, span := telemetry.StartBlobSpan(ctx, telemetry.SpanBlobGet, entityID, telemetry.Bucket(bucket), telemetry.StoreType("s3"))
	defer span.End()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(bucket, entityID)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			err = storeerr.NewFileNotFound(bucket, entityID)
		} else {
			err = storeerr.NewOther("blobstore/s3: get object: " + err.Error())
		}
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	return out.Body, nil
}

// Remove deletes entityID's blob. Absence is not an error, matching
// S3's own DeleteObject semantics.
func (s *Store) Remove(ctx context.Context, bucket, entityID string) error {
	ctx, span := telemetry.StartBlobSpan(ctx, telemetry.SpanBlobDelete, entityID, telemetry.Bucket(bucket), telemetry.StoreType("s3"))
	defer span.End()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(bucket, entityID)),
	})
	if err != nil {
		err = storeerr.NewOther("blobstore/s3: delete object: " + err.Error())
		telemetry.RecordError(ctx, err)
		return err
	}
	return nil
}

// Stat reports entityID's blob size via HeadObject.
func (s *Store) Stat(ctx context.Context, bucket, entityID string) (int64, error) {
	ctx, span := telemetry.StartBlobSpan(ctx, telemetry.SpanBlobStat, entityID, telemetry.Bucket(bucket), telemetry.StoreType("s3"))
	defer span.End()

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(bucket, entityID)),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			err = storeerr.NewFileNotFound(bucket, entityID)
		} else {
			err = storeerr.NewOther(fmt.Sprintf("blobstore/s3: head object: %v", err))
		}
		telemetry.RecordError(ctx, err)
		return 0, err
	}
	return aws.ToInt64(out.ContentLength), nil
}

var _ blobstore.Store = (*Store)(nil)
