package build

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// StepResult is the outcome of one build step.
type StepResult struct {
	Name     string
	Label    string
	Outcome  Outcome
	Duration time.Duration
	Err      error
}

// Report lists every build step in execution order, including the ones a
// failure prevented from running.
type Report struct {
	Steps []StepResult
	State State
	// OutDir is the bundled output directory, set once bundling succeeded.
	OutDir string
}

func (r Report) Succeeded() bool {
	return r.State == Done
}

// Table renders the report for the terminal.
func (r Report) Table() string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleRounded)

	tbl.AppendHeader(table.Row{"step", "outcome", "duration"})
	for _, step := range r.Steps {
		duration := "-"
		if step.Outcome != OutcomeSkipped {
			duration = step.Duration.Round(time.Millisecond).String()
		}
		tbl.AppendRow(table.Row{step.Label, step.Outcome, duration})
	}

	return tbl.Render()
}
