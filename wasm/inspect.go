// Package wasm checks compiled game artifacts before bindings are generated.
package wasm

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/davidmdm/x/xerr"
	"github.com/tetratelabs/wazero"

	"github.com/wasm-rgame/wargo/util"
)

// Artifact summarizes a compiled WebAssembly module.
type Artifact struct {
	Path string
	// Exports lists the exported function names, sorted.
	Exports       []string
	ImportedFuncs int
	ExportsMemory bool
}

// Inspect compiles the module at path without instantiating it. A module that
// wazero refuses to compile is reported as invalid.
func Inspect(ctx context.Context, path string) (artifact Artifact, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, &util.FileError{Op: "read", Path: path, Err: err}
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
	defer func() {
		err = xerr.MultiErrFrom("", err, runtime.Close(ctx))
	}()

	module, err := runtime.CompileModule(ctx, data)
	if err != nil {
		return Artifact{}, fmt.Errorf("'%s' is not a valid WebAssembly module: %w", path, err)
	}

	artifact = Artifact{
		Path:          path,
		Exports:       []string{},
		ImportedFuncs: len(module.ImportedFunctions()),
		ExportsMemory: len(module.ExportedMemories()) > 0,
	}
	for name := range module.ExportedFunctions() {
		artifact.Exports = append(artifact.Exports, name)
	}
	sort.Strings(artifact.Exports)

	return artifact, nil
}
