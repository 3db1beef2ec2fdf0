// Package ledger persists per-position results keyed by start position id.
//
// A ledger is a JSON object whose keys are decimal position ids. It is read
// once at startup and rewritten whole on every save, keys in ascending
// numeric order.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/discochess/chess960/internal/store"
)

// ErrBadKey is returned by Load when a key is not a decimal id.
var ErrBadKey = errors.New("ledger: key is not a position id")

// Ledger is a concurrency-safe map from position id to entry, backed by a
// named object in a store.
type Ledger[T any] struct {
	store store.Store
	name  string

	mu      sync.RWMutex
	entries map[int]T
}

// New returns an empty ledger stored as name in s.
func New[T any](s store.Store, name string) *Ledger[T] {
	return &Ledger[T]{
		store:   s,
		name:    name,
		entries: make(map[int]T),
	}
}

// Name returns the object name of the ledger.
func (l *Ledger[T]) Name() string { return l.name }

// Load replaces the in-memory entries with the stored ledger. A missing
// object is an empty ledger.
func (l *Ledger[T]) Load(ctx context.Context) error {
	data, err := l.store.Read(ctx, l.name)
	if errors.Is(err, store.ErrNotFound) {
		l.mu.Lock()
		l.entries = make(map[int]T)
		l.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading %s: %w", l.name, err)
	}

	entries, err := Decode[T](data)
	if err != nil {
		return fmt.Errorf("loading %s: %w", l.name, err)
	}

	l.mu.Lock()
	l.entries = entries
	l.mu.Unlock()
	return nil
}

// Save writes the whole ledger to the store.
func (l *Ledger[T]) Save(ctx context.Context) error {
	l.mu.RLock()
	data, err := Encode(l.entries)
	l.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("saving %s: %w", l.name, err)
	}

	if err := l.store.Write(ctx, l.name, data); err != nil {
		return fmt.Errorf("saving %s: %w", l.name, err)
	}
	return nil
}

// Len returns the number of entries.
func (l *Ledger[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Has reports whether id has an entry.
func (l *Ledger[T]) Has(id int) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[id]
	return ok
}

// Get returns the entry for id.
func (l *Ledger[T]) Get(id int) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.entries[id]
	return v, ok
}

// Set stores the entry for id, replacing any previous one.
func (l *Ledger[T]) Set(id int, v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[id] = v
}

// Keys returns all ids in ascending order.
func (l *Ledger[T]) Keys() []int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return sortedKeys(l.entries)
}

// Encode renders entries as an indented JSON object with keys in ascending
// numeric order.
func Encode[T any](entries map[int]T) ([]byte, error) {
	if len(entries) == 0 {
		return []byte("{}\n"), nil
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, id := range sortedKeys(entries) {
		v, err := json.MarshalIndent(entries[id], "  ", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding entry %d: %w", id, err)
		}
		if i > 0 {
			buf.WriteString(",\n")
		}
		fmt.Fprintf(&buf, "  %q: ", strconv.Itoa(id))
		buf.Write(v)
	}
	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

// Decode parses a JSON object keyed by decimal ids.
func Decode[T any](data []byte) (map[int]T, error) {
	var raw map[string]T
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding ledger: %w", err)
	}

	entries := make(map[int]T, len(raw))
	for k, v := range raw {
		id, err := strconv.Atoi(k)
		if err != nil || id < 0 {
			return nil, fmt.Errorf("%w: %q", ErrBadKey, k)
		}
		entries[id] = v
	}
	return entries, nil
}

func sortedKeys[T any](m map[int]T) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
