package project

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/wasm-rgame/wargo/assets"
	"github.com/wasm-rgame/wargo/log"
	"github.com/wasm-rgame/wargo/toolchain"
	"github.com/wasm-rgame/wargo/util"
)

// ErrAlreadyInitialized is returned by Initialize when the directory already
// holds a cargo project.
var ErrAlreadyInitialized = errors.New("directory already contains a Cargo.toml, the project is already initialized")

// InitOptions configures Initialize and New.
type InitOptions struct {
	// Name overrides the package name, which defaults to the directory name.
	Name string
	// Cargo is the cargo binary.
	Cargo            string
	FrameworkVersion string
	BindgenVersion   string
	// DryRun prints the changes as unified diffs to DiffOutput instead of
	// running cargo and writing files.
	DryRun     bool
	DiffOutput io.Writer
}

func (opts InitOptions) withDefaults() InitOptions {
	if opts.Cargo == "" {
		opts.Cargo = "cargo"
	}
	if opts.FrameworkVersion == "" {
		opts.FrameworkVersion = "0.1"
	}
	if opts.BindgenVersion == "" {
		opts.BindgenVersion = "0.2"
	}
	if opts.DiffOutput == nil {
		opts.DiffOutput = os.Stdout
	}
	return opts
}

// Initialize turns dir into a wasm-rgame project: `cargo init --lib` creates
// the package, then the entrypoint and bootstrap sources are written and the
// framework dependencies are added to Cargo.toml.
func Initialize(ctx context.Context, runner toolchain.Runner, dir string, opts InitOptions) (Descriptor, error) {
	opts = opts.withDefaults()

	if util.FileExists(filepath.Join(dir, CargoTomlFileName)) {
		return Descriptor{}, ErrAlreadyInitialized
	}

	if opts.DryRun {
		return dryRun(dir, opts)
	}

	log.Log("Initializing the project.. ")
	args := []string{"init", "--lib"}
	if opts.Name != "" {
		args = append(args, "--name", opts.Name)
	}
	err := runner.Run(ctx, toolchain.Command{
		Step: "Initialize project with `cargo init --lib`",
		Tool: opts.Cargo,
		Args: args,
		Dir:  dir,
	})
	if err != nil {
		return Descriptor{}, fmt.Errorf("failed to initialize project with `cargo init`: %w", err)
	}
	log.Log("done!\n")

	descriptor, err := Load(dir)
	if err != nil {
		return Descriptor{}, err
	}

	log.Log("Adding in bootstrap files.. ")
	for _, file := range assets.ScaffoldFiles {
		content, err := render(file, descriptor.CrateName, opts)
		if err != nil {
			return Descriptor{}, err
		}

		target := filepath.Join(descriptor.Root, filepath.FromSlash(file.Path))
		if file.Append {
			err = util.AppendFile(target, content)
		} else {
			err = util.WriteFile(target, content)
		}
		if err != nil {
			return Descriptor{}, err
		}
	}
	log.Log("done!\n")

	log.Success("Finished initializing project '%s'. Run 'wargo build' next to get started!\n", descriptor.Name)
	return descriptor, nil
}

// New creates dir and initializes a project inside it.
func New(ctx context.Context, runner toolchain.Runner, dir string, opts InitOptions) (Descriptor, error) {
	if _, err := os.Stat(dir); err == nil {
		return Descriptor{}, &util.FileError{Op: "create directory", Path: dir, Err: os.ErrExist}
	}
	if !opts.DryRun {
		if err := util.MkdirAll(dir); err != nil {
			return Descriptor{}, err
		}
	}
	return Initialize(ctx, runner, dir, opts)
}

func render(file assets.ScaffoldFile, crateName string, opts InitOptions) ([]byte, error) {
	var buf bytes.Buffer
	err := assets.Templates.ExecuteTemplate(&buf, file.Template, assets.ProjectTemplate{
		CrateName:        crateName,
		FrameworkVersion: opts.FrameworkVersion,
		BindgenVersion:   opts.BindgenVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", file.Template, err)
	}
	return buf.Bytes(), nil
}

// dryRun prints what Initialize would write. cargo is not run, so the package
// name is derived the way cargo derives it and Cargo.toml is diffed against an
// empty file.
func dryRun(dir string, opts InitOptions) (Descriptor, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return Descriptor{}, &util.FileError{Op: "resolve", Path: dir, Err: err}
	}

	name := opts.Name
	if name == "" {
		name = filepath.Base(absDir)
	}
	descriptor := Descriptor{
		Root:       absDir,
		Name:       name,
		CrateName:  CrateName(name),
		Entrypoint: filepath.Join(absDir, filepath.FromSlash(EntrypointPath)),
	}

	for _, file := range assets.ScaffoldFiles {
		content, err := render(file, descriptor.CrateName, opts)
		if err != nil {
			return Descriptor{}, err
		}

		target := filepath.Join(absDir, filepath.FromSlash(file.Path))
		var existing []byte
		if util.FileExists(target) {
			if existing, err = util.ReadFile(target); err != nil {
				return Descriptor{}, err
			}
		}
		if file.Append {
			content = append(append([]byte{}, existing...), content...)
		}

		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(existing)),
			B:        difflib.SplitLines(string(content)),
			FromFile: "a/" + file.Path,
			ToFile:   "b/" + file.Path,
			Context:  3,
		})
		if err != nil {
			return Descriptor{}, fmt.Errorf("failed to diff %s: %w", file.Path, err)
		}
		fmt.Fprint(opts.DiffOutput, diff)
	}
	return descriptor, nil
}
