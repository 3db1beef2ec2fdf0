package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Process is a running engine that accepts UCI commands line by line and
// emits its output as lines.
type Process interface {
	// Write sends one command line. A trailing newline is added.
	Write(line string) error

	// Lines returns the output stream. The channel is closed when the process
	// has exited and all output has been delivered.
	Lines() <-chan string

	// Kill terminates the process immediately.
	Kill() error

	// Wait blocks until the process has exited.
	Wait() error
}

// Launcher starts a new engine process.
type Launcher func(ctx context.Context) (Process, error)

// ExecLauncher returns a Launcher that runs the binary at path with no
// arguments. Standard error is merged into the line stream.
func ExecLauncher(path string) Launcher {
	return func(ctx context.Context) (Process, error) {
		return startExec(path)
	}
}

// execProcess is a Process backed by os/exec.
type execProcess struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string

	mu     sync.Mutex
	closed bool

	done    chan struct{}
	waitErr error
}

func startExec(path string) (*execProcess, error) {
	cmd := exec.Command(path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &LaunchError{Path: path, Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &LaunchError{Path: path, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &LaunchError{Path: path, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Path: path, Err: err}
	}

	p := &execProcess{
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan string, 256),
		done:  make(chan struct{}),
	}

	var g errgroup.Group
	g.Go(func() error { return p.pump(stdout) })
	g.Go(func() error { return p.pump(stderr) })

	go func() {
		// Readers finish at EOF, which happens once the process exits.
		_ = g.Wait()
		close(p.lines)
		p.waitErr = cmd.Wait()
		close(p.done)
	}()

	return p, nil
}

func (p *execProcess) pump(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		p.lines <- scanner.Text()
	}
	return scanner.Err()
}

func (p *execProcess) Write(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrExited
	}
	if _, err := io.WriteString(p.stdin, line+"\n"); err != nil {
		return fmt.Errorf("writing %q: %w", line, err)
	}
	return nil
}

func (p *execProcess) Lines() <-chan string {
	return p.lines
}

func (p *execProcess) Kill() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		p.stdin.Close()
	}
	p.mu.Unlock()

	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (p *execProcess) Wait() error {
	<-p.done
	return p.waitErr
}
