package project

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasm-rgame/wargo/toolchain"
	"github.com/wasm-rgame/wargo/util"
)

const cargoTomlFixture = `[package]
name = "wasm-snake"
version = "0.1.0"
authors = ["someone"]

[dependencies]
`

const cargoLockFixture = `# This file is automatically @generated by Cargo.
[[package]]
name = "aho-corasick"
version = "0.6.4"
source = "registry+https://github.com/rust-lang/crates.io-index"

[[package]]
name = "wasm-rgame"
version = "0.3.1"
source = "registry+https://github.com/rust-lang/crates.io-index"
dependencies = [
 "wasm-bindgen 0.2.11 (registry+https://github.com/rust-lang/crates.io-index)",
]

[[package]]
name = "wasm-rgame"
version = "0.1.0"
`

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, util.WriteFile(filepath.Join(root, CargoTomlFileName), []byte(cargoTomlFixture)))
	return root
}

func TestFindRootWalksUp(t *testing.T) {
	root := writeProject(t)
	nested := filepath.Join(root, "src", "nested")
	require.NoError(t, util.MkdirAll(nested))

	found, err := FindRoot(nested)
	require.NoError(t, err)
	require.Equal(t, root, found)
}

func TestFindRootOutsideProject(t *testing.T) {
	_, err := FindRoot(t.TempDir())
	require.ErrorIs(t, err, ErrNoCargoToml)
}

func TestLoad(t *testing.T) {
	root := writeProject(t)

	d, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, "wasm-snake", d.Name)
	require.Equal(t, "wasm_snake", d.CrateName)
	require.Equal(t, filepath.Join(root, "src", "lib.rs"), d.Entrypoint)
}

func TestLoadWithoutPackageName(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, util.WriteFile(filepath.Join(root, CargoTomlFileName), []byte("[workspace]\nmembers = []\n")))

	_, err := Load(root)
	require.ErrorContains(t, err, "has no [package] name")
}

func TestFindLockedVersion(t *testing.T) {
	v, found, err := FindLockedVersion("wasm-rgame", cargoLockFixture)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, util.Version{Major: 0, Minor: 3, Patch: 1}, v)

	v, found, err = FindLockedVersion("aho-corasick", cargoLockFixture)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v0.6.4", v.String())

	_, found, err = FindLockedVersion("serde", cargoLockFixture)
	require.NoError(t, err)
	require.False(t, found)
}

func TestFindLockedPrereleaseVersion(t *testing.T) {
	v, found, err := FindLockedVersion("wasm-rgame", "[[package]]\nname = \"wasm-rgame\"\nversion = \"0.2.0-alpha.1\"\n")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, util.Version{Minor: 2, Prerelease: "-alpha.1"}, v)

	v, found, err = FindLockedVersion("wasm-rgame", "[[package]]\nname = \"wasm-rgame\"\nversion = \"0.1.3+build.5\"\n")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v0.1.3", v.Canonical())

	_, _, err = FindLockedVersion("wasm-rgame", "[[package]]\nname = \"wasm-rgame\"\nversion = \"0.1\"\n")
	require.ErrorContains(t, err, "unsupported version '0.1'")
}

func TestFrameworkVersion(t *testing.T) {
	root := writeProject(t)
	d, err := Load(root)
	require.NoError(t, err)

	_, err = d.FrameworkVersion("wasm-rgame")
	require.ErrorContains(t, err, "cannot read Cargo.lock")

	require.NoError(t, util.WriteFile(filepath.Join(root, CargoLockFileName), []byte(cargoLockFixture)))
	v, err := d.FrameworkVersion("wasm-rgame")
	require.NoError(t, err)
	require.Equal(t, "v0.3.1", v.String())

	_, err = d.FrameworkVersion("wasm-rgame-js")
	require.ErrorContains(t, err, "cannot find package 'wasm-rgame-js'")
}

// fakeCargoInit behaves like `cargo init --lib` for the purposes of Initialize.
func fakeCargoInit(t *testing.T) *toolchain.Recorder {
	return &toolchain.Recorder{Handle: func(cmd toolchain.Command) ([]byte, error) {
		name := filepath.Base(cmd.Dir)
		for i, arg := range cmd.Args {
			if arg == "--name" {
				name = cmd.Args[i+1]
			}
		}
		manifest := "[package]\nname = \"" + name + "\"\nversion = \"0.1.0\"\n\n[dependencies]\n"
		require.NoError(t, util.WriteFile(filepath.Join(cmd.Dir, CargoTomlFileName), []byte(manifest)))
		require.NoError(t, util.WriteFile(filepath.Join(cmd.Dir, "src", "lib.rs"), []byte("// generated by cargo\n")))
		return nil, nil
	}}
}

func TestInitialize(t *testing.T) {
	dir := t.TempDir()
	runner := fakeCargoInit(t)

	d, err := Initialize(context.Background(), runner, dir, InitOptions{Name: "wasm-snake"})
	require.NoError(t, err)
	require.Equal(t, "wasm_snake", d.CrateName)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "cargo", calls[0].Tool)
	require.Equal(t, []string{"init", "--lib", "--name", "wasm-snake"}, calls[0].Args)

	lib, err := os.ReadFile(filepath.Join(dir, "src", "lib.rs"))
	require.NoError(t, err)
	require.Contains(t, string(lib), "`wasm_snake` loader")
	require.NotContains(t, string(lib), "generated by cargo")

	manifest, err := os.ReadFile(filepath.Join(dir, CargoTomlFileName))
	require.NoError(t, err)
	require.Contains(t, string(manifest), "wasm-rgame = \"0.1\"")
	require.Contains(t, string(manifest), "crate-type = [\"cdylib\"]")

	require.FileExists(t, filepath.Join(dir, "src", "bootstrap.rs"))
	require.FileExists(t, filepath.Join(dir, "src", "simple_box.rs"))

	// The scaffolded manifest must stay loadable.
	_, err = Load(dir)
	require.NoError(t, err)
}

func TestInitializeTwiceFails(t *testing.T) {
	dir := t.TempDir()
	runner := fakeCargoInit(t)

	_, err := Initialize(context.Background(), runner, dir, InitOptions{})
	require.NoError(t, err)

	_, err = Initialize(context.Background(), runner, dir, InitOptions{})
	require.ErrorIs(t, err, ErrAlreadyInitialized)
	require.Len(t, runner.Calls(), 1)
}

func TestInitializeCargoFailure(t *testing.T) {
	dir := t.TempDir()
	failure := &toolchain.ToolFailureError{Step: "init", Tool: "cargo", ExitCode: 101, Output: "error: destination is not empty"}
	runner := &toolchain.Recorder{Handle: func(toolchain.Command) ([]byte, error) { return nil, failure }}

	_, err := Initialize(context.Background(), runner, dir, InitOptions{})

	var toolErr *toolchain.ToolFailureError
	require.True(t, errors.As(err, &toolErr))
	require.NoFileExists(t, filepath.Join(dir, "src", "bootstrap.rs"))
}

func TestInitializeDryRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "wasm-snake")
	runner := &toolchain.Recorder{}
	var out bytes.Buffer

	d, err := New(context.Background(), runner, dir, InitOptions{DryRun: true, DiffOutput: &out})
	require.NoError(t, err)
	require.Equal(t, "wasm_snake", d.CrateName)
	require.Empty(t, runner.Calls())
	require.NoDirExists(t, dir)

	require.Contains(t, out.String(), "+++ b/src/lib.rs")
	require.Contains(t, out.String(), "+++ b/Cargo.toml")
	require.Contains(t, out.String(), "+crate-type = [\"cdylib\"]")
}

func TestNewRefusesExistingPath(t *testing.T) {
	_, err := New(context.Background(), &toolchain.Recorder{}, t.TempDir(), InitOptions{})

	var fileErr *util.FileError
	require.ErrorAs(t, err, &fileErr)
}
