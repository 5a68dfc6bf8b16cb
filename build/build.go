// Package build turns a wasm-rgame project into a directory that can be served
// to a browser. It runs three steps in a fixed order and stops at the first
// failure: compile (cargo), bind (wasm-bindgen) and bundle (web runtime plus
// bindings).
package build

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/wasm-rgame/wargo/config"
	"github.com/wasm-rgame/wargo/log"
	"github.com/wasm-rgame/wargo/project"
	"github.com/wasm-rgame/wargo/release"
	"github.com/wasm-rgame/wargo/toolchain"
	"github.com/wasm-rgame/wargo/util"
	"github.com/wasm-rgame/wargo/wasm"
)

const wasmTarget = "wasm32-unknown-unknown"

const defaultTargetDir = "target"

// ErrUnsafeOutDir is returned when the output directory would swallow the
// project or the inputs of the bundle.
var ErrUnsafeOutDir = errors.New("unsafe output directory")

// Options configures an Orchestrator.
type Options struct {
	Project project.Descriptor
	Config  config.Config
	Runner  toolchain.Runner
	// Runtime provides the static web runtime that is bundled with the bindings.
	Runtime release.Source
}

// Layout holds the paths a build reads and writes.
type Layout struct {
	Root      string
	Profile   string
	TargetDir string
	// Artifact is the module produced by cargo.
	Artifact string
	// Staging receives the wasm-bindgen output.
	Staging string
	OutDir  string
}

func NewLayout(p project.Descriptor, cfg config.Config) Layout {
	profile := "debug"
	if cfg.Release {
		profile = "release"
	}

	targetDir := cfg.TargetDir
	if targetDir == "" {
		targetDir = defaultTargetDir
	}
	targetDir = resolve(p.Root, targetDir)

	outDir := filepath.Join(targetDir, "wasm-rgame", p.Name)
	if cfg.OutDir != "" {
		outDir = resolve(p.Root, cfg.OutDir)
	}

	return Layout{
		Root:      p.Root,
		Profile:   profile,
		TargetDir: targetDir,
		Artifact:  filepath.Join(targetDir, wasmTarget, profile, p.CrateName+".wasm"),
		Staging:   filepath.Join(targetDir, "wargo", "bindgen", p.Name),
		OutDir:    outDir,
	}
}

// CheckOutDir fails with ErrUnsafeOutDir when replacing OutDir would remove
// the project, the target directory or one of the bundle inputs. runtimeDir
// is skipped when empty.
func (l Layout) CheckOutDir(runtimeDir string) error {
	guarded := []struct{ what, path string }{
		{"project root", l.Root},
		{"target directory", l.TargetDir},
		{"bindings staging directory", l.Staging},
	}
	for _, g := range guarded {
		if util.IsWithin(l.OutDir, g.path) {
			return fmt.Errorf("%w: '%s' contains the %s '%s'", ErrUnsafeOutDir, l.OutDir, g.what, g.path)
		}
	}

	inputs := []struct{ what, path string }{{"bindings staging directory", l.Staging}}
	if runtimeDir != "" {
		inputs = append(inputs, struct{ what, path string }{"web runtime", runtimeDir})
	}
	for _, in := range inputs {
		if util.IsWithin(l.OutDir, in.path) || util.IsWithin(in.path, l.OutDir) {
			return fmt.Errorf("%w: '%s' overlaps the %s '%s'", ErrUnsafeOutDir, l.OutDir, in.what, in.path)
		}
	}
	return nil
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

type step struct {
	name  string
	label string
	// state is the orchestrator state while the step runs.
	state State
	run   func(ctx context.Context) error
}

// Orchestrator runs one build. It is not reusable: once the build is done or
// failed, Run returns ErrInvalidTransition.
type Orchestrator struct {
	opts   Options
	layout Layout
	state  State
	now    func() time.Time
}

func New(opts Options) *Orchestrator {
	return &Orchestrator{
		opts:   opts,
		layout: NewLayout(opts.Project, opts.Config),
		state:  Idle,
		now:    time.Now,
	}
}

func (o *Orchestrator) State() State {
	return o.state
}

func (o *Orchestrator) Layout() Layout {
	return o.layout
}

func (o *Orchestrator) transition(to State) error {
	next, err := Transition(o.state, to)
	if err != nil {
		return err
	}
	log.Debug("Build state: %s -> %s.\n", o.state, next)
	o.state = next
	return nil
}

func (o *Orchestrator) steps() []step {
	return []step{
		{name: "compile", label: "Build project targeting " + wasmTarget, state: Compiling, run: o.compile},
		{name: "bind", label: "Generate JavaScript bindings", state: GeneratingBindings, run: o.bind},
		{name: "bundle", label: "Bundle web runtime and bindings", state: Bundling, run: o.bundle},
	}
}

// Run executes the build steps in order. The report always lists every step;
// steps after a failed one are reported as skipped.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	steps := o.steps()

	report := Report{State: o.state, Steps: make([]StepResult, len(steps))}
	for i, s := range steps {
		report.Steps[i] = StepResult{Name: s.name, Label: s.label, Outcome: OutcomeSkipped}
	}

	if o.state == Idle {
		if err := o.layout.CheckOutDir(""); err != nil {
			if terr := o.transition(Failed); terr != nil {
				return report, terr
			}
			report.State = o.state
			return report, err
		}
	}

	for i, s := range steps {
		if err := o.transition(s.state); err != nil {
			report.State = o.state
			return report, err
		}

		log.Log("%s.\n", s.label)
		log.IndentationLevel++
		start := o.now()
		err := s.run(ctx)
		report.Steps[i].Duration = o.now().Sub(start)
		log.IndentationLevel--

		if err != nil {
			report.Steps[i].Outcome = OutcomeFailed
			report.Steps[i].Err = err
			if terr := o.transition(Failed); terr != nil {
				return report, terr
			}
			report.State = o.state
			return report, fmt.Errorf("step '%s' failed: %w", s.name, err)
		}
		report.Steps[i].Outcome = OutcomeSucceeded
	}

	if err := o.transition(Done); err != nil {
		return report, err
	}
	report.State = o.state
	report.OutDir = o.layout.OutDir
	return report, nil
}

func (o *Orchestrator) compile(ctx context.Context) error {
	cfg := o.opts.Config

	args := []string{"build", "--target", wasmTarget}
	if cfg.Release {
		args = append(args, "--release")
	}
	cmd := toolchain.Command{
		Step: "Build project targeting " + wasmTarget,
		Tool: cfg.Cargo,
		Args: args,
		Dir:  o.opts.Project.Root,
	}
	if o.layout.TargetDir != filepath.Join(o.opts.Project.Root, defaultTargetDir) {
		cmd.Env = []string{"CARGO_TARGET_DIR=" + o.layout.TargetDir}
	}

	log.StartSpinner("compiling")
	err := o.opts.Runner.Run(ctx, cmd)
	log.StopSpinner()
	if err != nil {
		return err
	}

	artifact, err := wasm.Inspect(ctx, o.layout.Artifact)
	if err != nil {
		return err
	}
	log.Debug("'%s' imports %d functions and exports: %s.\n", artifact.Path, artifact.ImportedFuncs, strings.Join(artifact.Exports, ", "))
	if !artifact.ExportsMemory {
		log.Warning("'%s' does not export its memory.\n", artifact.Path)
	}
	return nil
}

func (o *Orchestrator) bindgenArgs() []string {
	if len(o.opts.Config.BindgenArgs) > 0 {
		return o.opts.Config.BindgenArgs
	}
	return []string{"--no-modules", "--no-modules-global", o.opts.Project.CrateName, "--no-typescript"}
}

func (o *Orchestrator) bind(ctx context.Context) error {
	if err := util.RemoveAll(o.layout.Staging); err != nil {
		return err
	}
	if err := util.MkdirAll(o.layout.Staging); err != nil {
		return err
	}

	args := []string{o.layout.Artifact}
	args = append(args, o.bindgenArgs()...)
	args = append(args, "--out-dir", o.layout.Staging)

	log.StartSpinner("generating bindings")
	defer log.StopSpinner()
	return o.opts.Runner.Run(ctx, toolchain.Command{
		Step: "Run wasm-bindgen",
		Tool: o.opts.Config.WasmBindgen,
		Args: args,
		Dir:  o.opts.Project.Root,
	})
}
