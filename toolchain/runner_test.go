package toolchain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if LookPath("sh") == "" {
		t.Skip("sh is not available")
	}
}

func TestRunSuccess(t *testing.T) {
	requireShell(t)

	out, err := ExecRunner{}.Output(context.Background(), Command{
		Step: "Echo",
		Tool: "sh",
		Args: []string{"-c", "echo hello; echo noise >&2"},
	})
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(out))
}

func TestRunFailureCarriesOutput(t *testing.T) {
	requireShell(t)

	err := ExecRunner{}.Run(context.Background(), Command{
		Step: "Build project targeting wasm32-unknown-unknown",
		Tool: "sh",
		Args: []string{"-c", "echo 'error[E0425]: cannot find value' >&2; exit 101"},
		Dir:  t.TempDir(),
	})

	var failure *ToolFailureError
	require.True(t, errors.As(err, &failure))
	require.Equal(t, 101, failure.ExitCode)
	require.Equal(t, "Build project targeting wasm32-unknown-unknown", failure.Step)
	require.Contains(t, failure.Output, "error[E0425]")
	require.Contains(t, err.Error(), "exited with status 101")
	require.Contains(t, err.Error(), "error[E0425]: cannot find value")
}

func TestRunMissingTool(t *testing.T) {
	err := ExecRunner{}.Run(context.Background(), Command{
		Step: "Run wasm-bindgen",
		Tool: "wargo-test-tool-that-does-not-exist",
	})

	var failure *ToolFailureError
	require.True(t, errors.As(err, &failure))
	require.Equal(t, -1, failure.ExitCode)
	require.Contains(t, err.Error(), "failed to execute")
}

func TestRunCancelled(t *testing.T) {
	requireShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := ExecRunner{}.Run(ctx, Command{Step: "Sleep", Tool: "sh", Args: []string{"-c", "sleep 10"}})
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestRecorder(t *testing.T) {
	boom := errors.New("boom")
	r := &Recorder{Handle: func(cmd Command) ([]byte, error) {
		if cmd.Tool == "wasm-bindgen" {
			return nil, boom
		}
		return []byte("ok"), nil
	}}

	out, err := r.Output(context.Background(), Command{Tool: "cargo"})
	require.NoError(t, err)
	require.Equal(t, "ok", string(out))
	require.ErrorIs(t, r.Run(context.Background(), Command{Tool: "wasm-bindgen"}), boom)
	require.Len(t, r.Calls(), 2)
}
