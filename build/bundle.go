package build

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/wasm-rgame/wargo/log"
	"github.com/wasm-rgame/wargo/manifest"
	"github.com/wasm-rgame/wargo/util"
)

// ProjectNamePlaceholder is replaced with the crate name in runtime files.
const ProjectNamePlaceholder = "$PROJECT_NAME"

type bundleFile struct {
	source     string
	substitute bool
}

func (o *Orchestrator) bundle(ctx context.Context) error {
	pkg := o.opts.Config.Runtime.Package
	version, err := o.opts.Project.FrameworkVersion(pkg)
	if err != nil {
		return err
	}
	log.Log("The project is using %s version %s.\n", pkg, version)

	// Everything that can fail without touching the output directory goes first.
	runtime, err := o.opts.Runtime.Fetch(ctx, version)
	if err != nil {
		return err
	}

	files := util.NewOrderedMap[string, bundleFile]()
	if err := collectFiles(&files, runtime.Dir, true); err != nil {
		return err
	}
	if err := collectFiles(&files, o.layout.Staging, false); err != nil {
		return err
	}

	manifestPath := filepath.Join(o.layout.OutDir, manifest.FileName)
	previous, hasPrevious, err := manifest.Read(manifestPath)
	if err != nil {
		log.Warning("Ignoring previous bundle manifest: %s.\n", err)
		hasPrevious = false
	}

	if err := o.layout.CheckOutDir(runtime.Dir); err != nil {
		return err
	}
	log.Debug("Replacing '%s'.\n", o.layout.OutDir)
	if err := util.RemoveAll(o.layout.OutDir); err != nil {
		return err
	}
	if err := util.MkdirAll(o.layout.OutDir); err != nil {
		return err
	}

	replacement := []byte(o.opts.Project.CrateName)
	for _, entry := range files.Entries() {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := util.ReadFile(entry.Value.source)
		if err != nil {
			return err
		}
		if entry.Value.substitute && utf8.Valid(data) {
			data = bytes.ReplaceAll(data, []byte(ProjectNamePlaceholder), replacement)
		}
		if err := util.WriteFile(filepath.Join(o.layout.OutDir, filepath.FromSlash(entry.Key)), data); err != nil {
			return err
		}
	}

	current, err := manifest.Generate(o.layout.OutDir, manifest.Info{
		Project: o.opts.Project.Name,
		Profile: o.layout.Profile,
		Runtime: manifest.Runtime{
			Kind:   runtime.Kind.String(),
			Source: runtime.Source,
			Tag:    runtime.Tag,
			Sha256: runtime.Sha256,
		},
	})
	if err != nil {
		return err
	}
	if err := manifest.Write(manifestPath, current); err != nil {
		return err
	}
	if hasPrevious {
		manifest.Diff(current, previous).Log()
	}

	log.Success("Bundled %d files into '%s'. View the project at '%s'.\n",
		len(current.Files), o.layout.OutDir, filepath.Join(o.layout.OutDir, "index.html"))
	return nil
}

// collectFiles adds the files below dir to files, keyed by their slash
// separated path relative to dir. Hidden files and directories are skipped. A
// path that is already taken is an error.
func collectFiles(files *util.OrderedMap[string, bundleFile], dir string, substitute bool) error {
	if !util.DirExists(dir) {
		return &util.FileError{Op: "read directory", Path: dir, Err: os.ErrNotExist}
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			log.Debug("Skipping hidden '%s'.\n", path)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := os.Stat(path)
		if err != nil {
			return &util.FileError{Op: "stat", Path: path, Err: err}
		}
		if !info.Mode().IsRegular() {
			log.Warning("Skipping '%s', it is not a regular file.\n", path)
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if err := files.Insert(rel, bundleFile{source: path, substitute: substitute}); err != nil {
			return fmt.Errorf("'%s' is provided by both the web runtime and the bindings", rel)
		}
		return nil
	})
}
