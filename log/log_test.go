package log

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	SetOutput(&buf)
	color, verbose, indent := Color, Verbose, IndentationLevel
	Color = false
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		Color, Verbose, IndentationLevel = color, verbose, indent
	})
	return &buf
}

func TestLogIndentation(t *testing.T) {
	buf := captureOutput(t)

	IndentationLevel = 2
	Log("Processing '%s'.\n", "demo")

	require.Equal(t, "    Processing 'demo'.\n", buf.String())
}

func TestLevelPrefixes(t *testing.T) {
	buf := captureOutput(t)

	Success("built\n")
	Warning("skipped %d\n", 1)
	Error("broken\n")

	require.Equal(t, "Success: built\nWarning: skipped 1\nError: broken\n", buf.String())
}

func TestDebugOnlyWhenVerbose(t *testing.T) {
	buf := captureOutput(t)

	Verbose = false
	Debug("hidden\n")
	require.Empty(t, buf.String())

	Verbose = true
	Debug("shown\n")
	require.Equal(t, "Debug: shown\n", buf.String())
}
