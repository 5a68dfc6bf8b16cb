// Package project reads and scaffolds wasm-rgame cargo projects.
package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wasm-rgame/wargo/log"
	"github.com/wasm-rgame/wargo/util"
)

// CargoTomlFileName is the manifest that marks a project root.
const CargoTomlFileName = "Cargo.toml"

// CargoLockFileName is the lockfile the framework version is read from.
const CargoLockFileName = "Cargo.lock"

// EntrypointPath is the project relative path of the crate root.
const EntrypointPath = "src/lib.rs"

// ErrNoCargoToml is returned when no Cargo.toml is found.
var ErrNoCargoToml = errors.New("no Cargo.toml found, run 'wargo init' first")

// Descriptor describes a wasm-rgame project on disk.
type Descriptor struct {
	// Root is the absolute path of the directory holding Cargo.toml.
	Root string
	// Name is the package name declared in Cargo.toml.
	Name string
	// CrateName is the name cargo gives the compiled artifact.
	CrateName string
	// Entrypoint is the absolute path of the crate root source file.
	Entrypoint string
}

type cargoToml struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

// CrateName converts a package name into the name of its build artifacts.
func CrateName(packageName string) string {
	return strings.ReplaceAll(packageName, "-", "_")
}

// FindRoot walks up from dir until it finds a directory with a Cargo.toml.
func FindRoot(dir string) (string, error) {
	p, err := filepath.Abs(dir)
	if err != nil {
		return "", &util.FileError{Op: "resolve", Path: dir, Err: err}
	}

	for {
		if util.FileExists(filepath.Join(p, CargoTomlFileName)) {
			return p, nil
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", ErrNoCargoToml
		}
		p = parent
	}
}

// Load reads the descriptor of the project rooted at root.
func Load(root string) (Descriptor, error) {
	cargoTomlPath := filepath.Join(root, CargoTomlFileName)
	if !util.FileExists(cargoTomlPath) {
		return Descriptor{}, ErrNoCargoToml
	}

	data, err := util.ReadFile(cargoTomlPath)
	if err != nil {
		return Descriptor{}, err
	}

	var manifest cargoToml
	if _, err := toml.Decode(string(data), &manifest); err != nil {
		return Descriptor{}, fmt.Errorf("cannot parse %s: %w", cargoTomlPath, err)
	}
	if manifest.Package.Name == "" {
		return Descriptor{}, fmt.Errorf("%s has no [package] name", cargoTomlPath)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Descriptor{}, &util.FileError{Op: "resolve", Path: root, Err: err}
	}

	descriptor := Descriptor{
		Root:       absRoot,
		Name:       manifest.Package.Name,
		CrateName:  CrateName(manifest.Package.Name),
		Entrypoint: filepath.Join(absRoot, filepath.FromSlash(EntrypointPath)),
	}
	log.Debug("Loaded project '%s' from '%s'.\n", descriptor.Name, descriptor.Root)
	return descriptor, nil
}
