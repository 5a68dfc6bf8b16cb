// Package manifest records the contents of a bundled output directory so that
// consecutive builds can be compared.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/davidmdm/x/xerr"

	"github.com/wasm-rgame/wargo/log"
	"github.com/wasm-rgame/wargo/util"
)

// FileName is the manifest's name inside the output directory. It is hidden so
// it is not served with the bundle.
const FileName = ".wargo-manifest.yaml"

type Runtime struct {
	Kind   string `yaml:"kind"`
	Source string `yaml:"source"`
	Tag    string `yaml:"tag,omitempty"`
	Sha256 string `yaml:"sha256,omitempty"`
}

type File struct {
	Path   string `yaml:"path"`
	Sha256 string `yaml:"sha256"`
}

type Manifest struct {
	WargoVersion string  `yaml:"wargo_version"`
	Project      string  `yaml:"project"`
	Profile      string  `yaml:"profile"`
	Runtime      Runtime `yaml:"runtime"`
	Files        []File  `yaml:"files"`
}

// Info is the part of the manifest that is not derived from the bundled files.
type Info struct {
	Project string
	Profile string
	Runtime Runtime
}

type FileDiff struct {
	Path     string
	Old, New string
}

type DiffResult struct {
	Differ       bool
	WargoVersion string
	Runtime      string
	Profile      string
	Modified     []FileDiff
	Added        []File
	Removed      []File
}

// Generate hashes every regular file below dir, ordered by path.
func Generate(dir string, info Info) (Manifest, error) {
	manifest := Manifest{
		WargoVersion: util.WargoVersion.String(),
		Project:      info.Project,
		Profile:      info.Profile,
		Runtime:      info.Runtime,
		Files:        []File{},
	}

	hashes := util.NewOrderedMap[string, string]()
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == FileName {
			return nil
		}

		sum, err := hashFile(path)
		if err != nil {
			return err
		}
		return hashes.Insert(rel, sum)
	})
	if err != nil {
		return manifest, fmt.Errorf("failed to generate manifest of '%s': %w", dir, err)
	}

	for _, entry := range hashes.Entries() {
		manifest.Files = append(manifest.Files, File{Path: entry.Key, Sha256: entry.Value})
	}
	return manifest, nil
}

func hashFile(path string) (sum string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return "", &util.FileError{Op: "open", Path: path, Err: err}
	}
	defer func() {
		err = xerr.MultiErrFrom("", err, file.Close())
	}()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", &util.FileError{Op: "read", Path: path, Err: err}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Read loads the manifest at path. The boolean is false if there is none.
func Read(path string) (Manifest, bool, error) {
	if !util.FileExists(path) {
		return Manifest{}, false, nil
	}
	var manifest Manifest
	if err := util.ReadYaml(path, &manifest); err != nil {
		return Manifest{}, false, err
	}
	return manifest, true, nil
}

func Write(path string, manifest Manifest) error {
	return util.WriteYaml(path, manifest)
}

func (r Runtime) String() string {
	if r.Tag != "" {
		return fmt.Sprintf("%s@%s", r.Source, r.Tag)
	}
	if r.Sha256 != "" {
		return fmt.Sprintf("%s (sha256 %.12s)", r.Source, r.Sha256)
	}
	return r.Source
}

func Diff(newManifest, oldManifest Manifest) DiffResult {
	result := DiffResult{}

	if newManifest.WargoVersion != oldManifest.WargoVersion {
		result.Differ = true
		result.WargoVersion = fmt.Sprintf("wargo version changed from %s to %s", oldManifest.WargoVersion, newManifest.WargoVersion)
	}
	if newManifest.Runtime != oldManifest.Runtime {
		result.Differ = true
		result.Runtime = fmt.Sprintf("web runtime changed from %s to %s", oldManifest.Runtime, newManifest.Runtime)
	}
	if newManifest.Profile != oldManifest.Profile {
		result.Differ = true
		result.Profile = fmt.Sprintf("profile changed from %s to %s", oldManifest.Profile, newManifest.Profile)
	}

	oldFiles := indexFiles(oldManifest.Files)
	newFiles := indexFiles(newManifest.Files)

	// Walk the new files for additions and modifications, then the old ones for removals.
	for _, file := range newManifest.Files {
		if oldFile, found := oldFiles.Lookup(file.Path); found {
			if oldFile.Sha256 != file.Sha256 {
				result.Differ = true
				result.Modified = append(result.Modified, FileDiff{Path: file.Path, Old: oldFile.Sha256, New: file.Sha256})
			}
		} else {
			result.Differ = true
			result.Added = append(result.Added, file)
		}
	}

	for _, file := range oldManifest.Files {
		if _, found := newFiles.Lookup(file.Path); !found {
			result.Differ = true
			result.Removed = append(result.Removed, file)
		}
	}

	return result
}

func indexFiles(files []File) util.OrderedMap[string, File] {
	index := util.NewOrderedMap[string, File]()
	index.AllowOverrides()
	for _, file := range files {
		_ = index.Insert(file.Path, file)
	}
	return index
}

func filePaths(files []File) []string {
	return util.MappedSlice(files, func(f File) string { return f.Path })
}

// Log prints the difference between two bundles.
func (r DiffResult) Log() {
	if !r.Differ {
		log.Log("Bundle is unchanged since the last build.\n")
		return
	}

	log.Log("Bundle changed since the last build:\n")
	log.IndentationLevel++
	defer func() { log.IndentationLevel-- }()

	for _, message := range []string{r.WargoVersion, r.Runtime, r.Profile} {
		if message != "" {
			log.Log("%s\n", message)
		}
	}
	for _, path := range filePaths(r.Added) {
		log.Log("added    %s\n", path)
	}
	for _, path := range filePaths(r.Removed) {
		log.Log("removed  %s\n", path)
	}
	for _, diff := range r.Modified {
		log.Log("modified %s\n", diff.Path)
	}
}
