package log

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"
)

// Spinner is shown while long running external tools execute.
var Spinner = newSpinner()

var spinnerEnabled = term.IsTerminal(int(os.Stderr.Fd()))

func newSpinner() *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Writer = os.Stderr
	return s
}

// StartSpinner starts the spinner with the given suffix. It is a no-op when
// stderr is not a terminal or verbose output is selected, since the tool output
// would be interleaved with the spinner frames.
func StartSpinner(suffix string) {
	if !spinnerEnabled || Verbose {
		return
	}
	Spinner.Suffix = " " + suffix
	Spinner.Start()
}

// StopSpinner stops the spinner if it is running.
func StopSpinner() {
	if Spinner.Active() {
		Spinner.Stop()
	}
}
