package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/discochess/chess960/internal/codec"
	"github.com/discochess/chess960/internal/dataset"
	"github.com/discochess/chess960/internal/store"
	"github.com/discochess/chess960/internal/store/diskstore"
	"github.com/discochess/chess960/internal/store/gcsstore"
	"github.com/discochess/chess960/internal/store/s3store"
)

// openStore opens the store at location: s3://bucket/prefix,
// gs://bucket/prefix or a local directory. Local directories are locked
// against concurrent writers when lock is set.
func openStore(ctx context.Context, location string, c codec.Codec, lock bool) (store.Store, error) {
	switch {
	case strings.HasPrefix(location, "s3://"):
		bucket, prefix := splitBucket(strings.TrimPrefix(location, "s3://"))
		if bucket == "" {
			return nil, fmt.Errorf("invalid store location %q: missing bucket", location)
		}
		s, err := s3store.New(ctx, bucket, c, s3store.WithPrefix(prefix))
		if err != nil {
			return nil, err
		}
		return s, nil

	case strings.HasPrefix(location, "gs://"):
		bucket, prefix := splitBucket(strings.TrimPrefix(location, "gs://"))
		if bucket == "" {
			return nil, fmt.Errorf("invalid store location %q: missing bucket", location)
		}
		s, err := gcsstore.New(ctx, bucket, c, gcsstore.WithPrefix(prefix))
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	var opts []diskstore.Option
	if lock {
		opts = append(opts, diskstore.WithLock())
	}
	s, err := diskstore.New(location, c, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func splitBucket(s string) (bucket, prefix string) {
	bucket, prefix, _ = strings.Cut(s, "/")
	return bucket, strings.Trim(prefix, "/")
}

// ledgerStore opens the store holding the analysis ledgers.
func ledgerStore(ctx context.Context, lock bool) (store.Store, error) {
	c, err := codec.ForName(compress)
	if err != nil {
		return nil, err
	}
	location := outputURL
	if location == "" {
		location = dataDir
	}
	return openStore(ctx, location, c, lock)
}

// datasetLoader opens the position list in the data directory.
func datasetLoader() (*dataset.Loader, store.Store, error) {
	s, err := diskstore.New(dataDir, codec.Identity())
	if err != nil {
		return nil, nil, err
	}
	return dataset.NewLoader(s, dataset.FileName), s, nil
}
