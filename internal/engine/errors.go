package engine

import (
	"errors"
	"fmt"
	"os"
)

// EnvEngine is the environment variable overriding the engine binary path.
const EnvEngine = "CHESS960_ENGINE"

// DefaultPath is used when neither a flag nor EnvEngine names a binary.
const DefaultPath = "/opt/homebrew/bin/stockfish"

var (
	// ErrExited indicates the engine process exited or its output closed.
	ErrExited = errors.New("engine: process exited")

	// ErrStalled indicates a search did not complete before its deadline.
	ErrStalled = errors.New("engine: search stalled")

	// ErrNotStarted indicates the engine was used before Start.
	ErrNotStarted = errors.New("engine: not started")

	// ErrHandshake indicates the engine did not complete the uci/isready handshake.
	ErrHandshake = errors.New("engine: handshake failed")
)

// LaunchError reports an engine binary that could not be started.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("engine: cannot launch %q (set %s or --engine to override): %v", e.Path, EnvEngine, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ResolvePath returns flagValue if set, else the EnvEngine or STOCKFISH_PATH
// environment variables, else DefaultPath.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	for _, key := range []string{EnvEngine, "STOCKFISH_PATH"} {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
	}
	return DefaultPath
}
