// Package toolchain runs the external tools wargo delegates to.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/wasm-rgame/wargo/log"
)

// Command describes one invocation of an external tool.
type Command struct {
	// Step is a human readable label of what the invocation is for.
	Step string
	Tool string
	Args []string
	Dir  string
	Env  []string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Tool + " " + strings.Join(c.Args, " "))
}

// ToolFailureError is returned when an external tool cannot be started or
// exits with a non-zero status.
type ToolFailureError struct {
	Step     string
	Tool     string
	Args     []string
	ExitCode int
	Output   string
	Err      error
}

func (e *ToolFailureError) Error() string {
	var b strings.Builder
	if e.ExitCode < 0 {
		fmt.Fprintf(&b, "%s: failed to execute '%s': %s", e.Step, e.Tool, e.Err)
	} else {
		fmt.Fprintf(&b, "%s: '%s' exited with status %d", e.Step, e.Tool, e.ExitCode)
	}
	if e.Output != "" {
		fmt.Fprintf(&b, "\n\n%s", strings.TrimRight(e.Output, "\n"))
	}
	fmt.Fprintf(&b, "\n\nFull command: `%s`", Command{Tool: e.Tool, Args: e.Args})
	return b.String()
}

func (e *ToolFailureError) Unwrap() error {
	return e.Err
}

// Runner executes external tools.
type Runner interface {
	// Run executes the command, discarding its output on success.
	Run(ctx context.Context, cmd Command) error
	// Output executes the command and returns its standard output.
	Output(ctx context.Context, cmd Command) ([]byte, error)
}

// waitDelay bounds how long a killed tool's children may keep its output
// pipes open.
const waitDelay = time.Second

// ExecRunner runs tools as subprocesses. Cancelling the context kills the
// running subprocess.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

func (ExecRunner) Run(ctx context.Context, cmd Command) error {
	_, err := execute(ctx, cmd)
	return err
}

func (ExecRunner) Output(ctx context.Context, cmd Command) ([]byte, error) {
	return execute(ctx, cmd)
}

func execute(ctx context.Context, cmd Command) ([]byte, error) {
	log.Debug("Running '%s' in '%s'.\n", cmd, cmd.Dir)

	c := exec.CommandContext(ctx, cmd.Tool, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	c.WaitDelay = waitDelay

	var stdout bytes.Buffer
	combined := &lockedBuffer{}
	c.Stdout = io.MultiWriter(&stdout, combined)
	c.Stderr = combined

	err := c.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	failure := &ToolFailureError{
		Step:     cmd.Step,
		Tool:     cmd.Tool,
		Args:     cmd.Args,
		ExitCode: -1,
		Output:   combined.String(),
		Err:      err,
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		failure.ExitCode = exitErr.ExitCode()
	}
	if ctx.Err() != nil {
		failure.Err = ctx.Err()
	}
	return nil, failure
}

// lockedBuffer collects stdout and stderr, which exec writes from separate
// goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// LookPath reports the resolved path of tool, or "" if it is not installed.
func LookPath(tool string) string {
	p, err := exec.LookPath(tool)
	if err != nil {
		return ""
	}
	return p
}
