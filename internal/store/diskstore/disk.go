// Package diskstore implements a local filesystem storage backend.
package diskstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/discochess/chess960/internal/codec"
	"github.com/discochess/chess960/internal/store"
)

// LockName is the lock file created in the root directory by WithLock.
const LockName = ".chess960.lock"

// ErrLocked is returned by New when another process holds the directory lock.
var ErrLocked = errors.New("diskstore: directory is locked by another process")

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is a filesystem storage backend rooted at a directory.
type Store struct {
	root  string
	codec codec.Codec
	lock  *flock.Flock
}

// Option configures a Store.
type Option func(*Store)

// WithLock takes an exclusive advisory lock on the root directory for the
// lifetime of the store, so that two runs never write the same ledgers.
func WithLock() Option {
	return func(s *Store) {
		s.lock = flock.New(filepath.Join(s.root, LockName))
	}
}

// New creates a disk store rooted at the given directory, creating it if
// needed. The codec handles compression/decompression.
func New(root string, c codec.Codec, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating root directory: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	s := &Store{
		root:  root,
		codec: c,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.lock != nil {
		ok, err := s.lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("locking %s: %w", root, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrLocked, root)
		}
	}

	return s, nil
}

// Read reads and decompresses the named file.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	data, err := codec.Decode(s.codec, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// Write compresses data and replaces the named file atomically: the content
// goes to a temporary file in the same directory which is then renamed over
// the target.
func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded, err := codec.Encode(s.codec, data)
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	path := s.Path(name)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}

// Close releases the directory lock, if held.
func (s *Store) Close() error {
	if s.lock == nil {
		return nil
	}
	return s.lock.Unlock()
}

// Path returns the filesystem path for a named object.
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(store.ObjectName(name, s.codec.Extension())))
}
