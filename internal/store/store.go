// Package store defines the storage backend interface for ledger and dataset
// files.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a named object does not exist in the store.
var ErrNotFound = errors.New("store: object not found")

// Store defines the interface for storage backends.
// Names are slash-separated and carry no compression extension; backends
// add the extension of their codec and compress transparently.
type Store interface {
	// Read returns the decompressed content of the named object.
	Read(ctx context.Context, name string) ([]byte, error)

	// Write replaces the named object with data. A reader never observes
	// a partially written object.
	Write(ctx context.Context, name string, data []byte) error

	// Close releases any resources held by the store.
	Close() error
}

// ObjectName returns name with the codec extension appended.
func ObjectName(name, ext string) string {
	if ext == "" {
		return name
	}
	return name + "." + ext
}
