package dataset

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/discochess/chess960/internal/store"
)

// Loader reads the dataset from a store once. Concurrent callers of Load
// share a single in-flight read, and later callers get the same snapshot.
// The returned Dataset must be treated as read-only; use Clone to modify.
type Loader struct {
	store store.Store
	name  string

	group singleflight.Group

	mu       sync.Mutex
	snapshot *Dataset
}

// NewLoader returns a loader for the named dataset object.
func NewLoader(s store.Store, name string) *Loader {
	if name == "" {
		name = FileName
	}
	return &Loader{store: s, name: name}
}

// Load returns the dataset, reading it on first use.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	l.mu.Lock()
	snap := l.snapshot
	l.mu.Unlock()
	if snap != nil {
		return snap, nil
	}

	v, err, _ := l.group.Do(l.name, func() (any, error) {
		l.mu.Lock()
		snap := l.snapshot
		l.mu.Unlock()
		if snap != nil {
			return snap, nil
		}

		data, err := l.store.Read(ctx, l.name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", l.name, err)
		}
		d, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", l.name, err)
		}

		l.mu.Lock()
		l.snapshot = d
		l.mu.Unlock()
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dataset), nil
}

// Save writes d to the store under the loader's name.
func (l *Loader) Save(ctx context.Context, d *Dataset) error {
	data, err := d.Encode()
	if err != nil {
		return err
	}
	if err := l.store.Write(ctx, l.name, data); err != nil {
		return fmt.Errorf("writing %s: %w", l.name, err)
	}
	return nil
}
