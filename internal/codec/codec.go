// Package codec provides compression for ledger and dataset files.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrUnknown is returned by ForName for an unsupported codec name.
var ErrUnknown = errors.New("codec: unknown codec")

// Codec provides compression and decompression functionality.
type Codec interface {
	// Reader wraps r to decompress data read from it.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to compress data written to it.
	Writer(w io.Writer) (io.WriteCloser, error)
	// Extension returns the file extension without dot (e.g., "zst", "gz").
	// Returns empty string for no compression.
	Extension() string
}

// ForName returns the codec registered under name.
// Accepted names are "zstd", "gzip" and "none" (or empty).
func ForName(name string) (Codec, error) {
	switch name {
	case "zstd", "zst":
		return Zstd(), nil
	case "gzip", "gz":
		return Gzip(), nil
	case "none", "":
		return Identity(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
}

// Encode compresses data with c.
func Encode(c Codec, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := c.Writer(&buf)
	if err != nil {
		return nil, fmt.Errorf("creating compressor: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("compressing: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("flushing compressor: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads all of r through c's decompressor.
func Decode(c Codec, r io.Reader) ([]byte, error) {
	dr, err := c.Reader(r)
	if err != nil {
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	defer dr.Close()

	data, err := io.ReadAll(dr)
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}
	return data, nil
}
