// Package gcsstore implements a Google Cloud Storage backend.
package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/discochess/chess960/internal/codec"
	"github.com/discochess/chess960/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is a Google Cloud Storage backend.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
	codec  codec.Codec

	clientOpts []option.ClientOption
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = strings.TrimSuffix(prefix, "/")
		if s.prefix != "" {
			s.prefix += "/"
		}
	}
}

// WithEndpoint points the client at an emulator such as fake-gcs-server.
// Requests are sent unauthenticated.
func WithEndpoint(endpoint string) Option {
	return func(s *Store) {
		s.clientOpts = append(s.clientOpts,
			option.WithEndpoint(endpoint),
			option.WithoutAuthentication(),
		)
	}
}

// New creates a new GCS store.
// The bucket must already exist.
// The codec handles compression/decompression.
func New(ctx context.Context, bucketName string, c codec.Codec, opts ...Option) (*Store, error) {
	s := &Store{codec: c}
	for _, opt := range opts {
		opt(s)
	}

	client, err := storage.NewClient(ctx, s.clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}
	s.client = client
	s.bucket = client.Bucket(bucketName)
	return s, nil
}

// Read downloads and decompresses the named object.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := s.bucket.Object(s.key(name)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("creating reader: %w", err)
	}
	defer reader.Close()

	data, err := codec.Decode(s.codec, reader)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// Write compresses data and uploads it as the named object. The object only
// becomes visible once the writer is closed successfully.
func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	encoded, err := codec.Encode(s.codec, data)
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	w := s.bucket.Object(s.key(name)).NewWriter(ctx)
	if s.codec.Extension() == "" {
		w.ContentType = "application/json"
	}
	if _, err := w.Write(encoded); err != nil {
		w.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing %s: %w", name, err)
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(name string) string {
	return s.prefix + store.ObjectName(name, s.codec.Extension())
}
