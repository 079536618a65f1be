// Package blob stores import/export documents in a gocloud.dev bucket.
package blob

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"attrschema/config"
	"attrschema/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	// Bucket drivers selectable through the export bucket URL scheme.
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

type bucketStore struct {
	bucket *blob.Bucket
	logger *slog.Logger
}

// Params holds the dependencies of the export store, injected by Fx.
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// New opens the export bucket configured under export.bucketUrl.
// Without a bucket URL no store is provided and store-backed transfers fail.
func New(params Params) (service.ExportStore, error) {
	cfg := params.Config.Export
	if cfg == nil || cfg.BucketURL == "" {
		params.Logger.Info("Export bucket not configured, store-backed transfers disabled")

		return nil, nil
	}

	store, err := Open(params.Ctx, cfg.BucketURL, params.Logger)
	if err != nil {
		return nil, err
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})

	return store, nil
}

// Open opens a bucket URL such as file:///var/lib/attrschema, mem:// or gs://bucket.
func Open(ctx context.Context, bucketURL string, logger *slog.Logger) (service.ExportStore, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open export bucket %s", bucketURL)
	}

	logger.Info("Export bucket opened", slog.String("bucket_url", bucketURL))

	return &bucketStore{bucket: bucket, logger: logger}, nil
}

// Write stores data under key, replacing any previous document.
func (s *bucketStore) Write(ctx context.Context, key string, data []byte) error {
	opts := &blob.WriterOptions{ContentType: contentType(key)}
	if err := s.bucket.WriteAll(ctx, key, data, opts); err != nil {
		return errors.Wrapf(err, "failed to write export document %s", key)
	}

	s.logger.Debug("Export document written", slog.String("key", key), slog.Int("bytes", len(data)))

	return nil
}

// Read loads the document stored under key.
func (s *bucketStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, errors.Wrap(service.ErrObjectNotFound, key)
		}

		return nil, errors.Wrapf(err, "failed to read export document %s", key)
	}

	return data, nil
}

// List returns the keys under prefix in lexical order.
func (s *bucketStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to list export documents")
		}
		if !obj.IsDir {
			keys = append(keys, obj.Key)
		}
	}

	return keys, nil
}

// Close releases the bucket.
func (s *bucketStore) Close() error {
	return errors.WithStack(s.bucket.Close())
}

func contentType(key string) string {
	switch {
	case strings.HasSuffix(key, ".yaml"), strings.HasSuffix(key, ".yml"):
		return "application/yaml"
	case strings.HasSuffix(key, ".json"):
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
