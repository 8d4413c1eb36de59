package commands

import (
	"context"
	"fmt"

	"github.com/bucketfs/bucketfs/internal/config"
	"github.com/bucketfs/bucketfs/pkg/blobstore"
	"github.com/bucketfs/bucketfs/pkg/blobstore/cache"
	"github.com/bucketfs/bucketfs/pkg/blobstore/fs"
	"github.com/bucketfs/bucketfs/pkg/blobstore/s3"
	"github.com/bucketfs/bucketfs/pkg/bucketname"
	"github.com/bucketfs/bucketfs/pkg/catalog"
	"github.com/bucketfs/bucketfs/pkg/manager"
	"github.com/bucketfs/bucketfs/pkg/registry"
)

// loadedConfig loads the process config from the --config path on
// every call; every subcommand needs it to locate the registry and
// default storage settings.
func loadedConfig() (*config.Config, error) {
	path, _ := rootCmd.PersistentFlags().GetString("config")
	return config.Load(path)
}

func openRegistry(cfg *config.Config) (*registry.Registry, error) {
	return registry.New(&cfg.Registry)
}

// openBucket resolves name against the registry and opens a Manager
// whose catalog lives under the bucket's registered storage root and
// whose blob store is the one cfg.Storage.Backend selects.
func openBucket(ctx context.Context, cfg *config.Config, reg *registry.Registry, name string) (*manager.Manager, func(), error) {
	if _, err := bucketname.Parse(name); err != nil {
		return nil, nil, err
	}

	bucket, err := reg.GetBucket(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("bucket %q: %w", name, err)
	}

	catalogPath := bucket.StorageRoot + "/catalog.db"
	cat := catalog.New(catalogPath,
		catalog.WithBucket(name),
		catalog.WithMaxDescriptionSize(cfg.Storage.MaxDescriptionSize),
		catalog.WithMaxMetadataJSONSize(cfg.Storage.MaxMetadataJSONSize),
	)

	blobs, closeBlobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	mgr := manager.New(name, cat, blobs)
	if err := mgr.Open(ctx); err != nil {
		closeBlobs()
		return nil, nil, err
	}

	cleanup := func() {
		_ = mgr.Close(ctx)
		closeBlobs()
		_ = reg.TouchLastOpened(ctx, name)
	}
	return mgr, cleanup, nil
}

// openBlobStore opens the blob store shared by every bucket. Buckets are
// scoped inside it by name, not by directory layout, so fs-backed storage
// is rooted at cfg.Storage.Root rather than any one bucket's storage root.
func openBlobStore(ctx context.Context, cfg *config.Config) (blobstore.Store, func(), error) {
	var backend blobstore.Store
	noop := func() {}

	switch cfg.Storage.Backend {
	case "s3":
		store, err := s3.New(ctx, s3.Config{
			Bucket:          cfg.Storage.S3.Bucket,
			KeyPrefix:       cfg.Storage.S3.KeyPrefix,
			Region:          cfg.Storage.S3.Region,
			Endpoint:        cfg.Storage.S3.Endpoint,
			AccessKeyID:     cfg.Storage.S3.AccessKeyID,
			SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
			ForcePathStyle:  cfg.Storage.S3.ForcePathStyle,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("open s3 blob store: %w", err)
		}
		backend = store
	default:
		store, err := fs.New(fs.Config{BasePath: cfg.Storage.Root})
		if err != nil {
			return nil, noop, fmt.Errorf("open fs blob store: %w", err)
		}
		backend = store
	}

	if !cfg.Storage.Cache.Enabled {
		return backend, noop, nil
	}

	cached, err := cache.New(cache.Config{
		Backend:             backend,
		Dir:                 cfg.Storage.Cache.Dir,
		MaxCachedEntitySize: cfg.Storage.Cache.MaxCachedEntitySize.Int64(),
	})
	if err != nil {
		return nil, noop, fmt.Errorf("open blob cache: %w", err)
	}
	return cached, func() { _ = cached.Close() }, nil
}
