package pwrstat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// DefaultCommand is the status command run every cycle.
var DefaultCommand = []string{"pwrstat", "-status"}

// waitDelay bounds how long Run waits for output pipes after the command is
// killed by a timeout or cancellation.
const waitDelay = time.Second

// CommandError reports a status command that could not be run or exited
// non-zero. Stderr holds whatever the command printed, trimmed.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("executing %v: %v", e.Args, e.Err)
	}
	return fmt.Sprintf("executing %v: %v: %s", e.Args, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExitCode returns the command's exit status, or -1 if it never exited
// normally (not found, killed, timed out).
func (e *CommandError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Interrupted reports whether the command was killed by SIGINT or SIGTERM,
// as happens when a terminal Ctrl-C or a service stop reaches the whole
// process group.
func (e *CommandError) Interrupted() bool {
	var exitErr *exec.ExitError
	if !errors.As(e.Err, &exitErr) {
		return false
	}
	ws, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return false
	}
	return ws.Signal() == syscall.SIGINT || ws.Signal() == syscall.SIGTERM
}

// LookPath reports whether name can be found on PATH, returning its full path.
func LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%q not found: %w", name, err)
	}
	return path, nil
}

// CommandPoller runs the status command once per Poll and parses its stdout.
// A zero Timeout waits for the command indefinitely.
type CommandPoller struct {
	Args    []string
	Timeout time.Duration
}

// NewCommandPoller returns a poller for args, or DefaultCommand when args is
// empty.
func NewCommandPoller(args []string, timeout time.Duration) *CommandPoller {
	if len(args) == 0 {
		args = DefaultCommand
	}
	return &CommandPoller{Args: args, Timeout: timeout}
}

// Poll runs the command and parses its output. A non-zero exit returns a
// *CommandError carrying the captured stderr.
func (p *CommandPoller) Poll(ctx context.Context) (StatusMap, error) {
	out, err := p.Run(ctx)
	if err != nil {
		return nil, err
	}
	return Parse(string(out)), nil
}

// Run executes the command and returns its raw stdout.
func (p *CommandPoller) Run(ctx context.Context) ([]byte, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Args[0], p.Args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", p.Timeout, err)
		}
		return nil, &CommandError{
			Args:   p.Args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.Bytes(), nil
}

// Close is a no-op; each Poll starts a fresh process.
func (p *CommandPoller) Close() error { return nil }
