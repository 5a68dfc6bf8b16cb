package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/davidmdm/x/xerr"
	"gopkg.in/yaml.v2"
)

// FileMode is the default FileMode used when creating files.
const FileMode = 0664

// DirMode is the default FileMode used when creating directories.
const DirMode = 0775

// FileError reports a failed filesystem operation on a path.
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("failed to %s '%s': %s", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// FileExists checks whether some file exists.
func FileExists(file string) bool {
	stat, err := os.Stat(file)
	return err == nil && !stat.IsDir()
}

// DirExists checks whether some directory exists.
func DirExists(dir string) bool {
	stat, err := os.Stat(dir)
	return err == nil && stat.IsDir()
}

// IsWithin reports whether p is dir or lies below it. Both paths are made
// absolute first; paths that cannot be resolved are never within dir.
func IsWithin(dir, p string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// MkdirAll creates a directory and all missing parents.
func MkdirAll(dir string) error {
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return &FileError{"create directory", dir, err}
	}
	return nil
}

// RemoveAll removes a directory tree. Missing directories are not an error.
func RemoveAll(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return &FileError{"remove", dir, err}
	}
	return nil
}

// ReadFile reads a whole file.
func ReadFile(file string) ([]byte, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, &FileError{"read", file, err}
	}
	return data, nil
}

// WriteFile writes data to a file, creating parent directories as needed.
func WriteFile(file string, data []byte) error {
	if err := MkdirAll(filepath.Dir(file)); err != nil {
		return err
	}
	if err := os.WriteFile(file, data, FileMode); err != nil {
		return &FileError{"write", file, err}
	}
	return nil
}

// AppendFile appends data to an existing file.
func AppendFile(file string, data []byte) (err error) {
	f, err := os.OpenFile(file, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return &FileError{"open", file, err}
	}
	defer func() {
		err = xerr.MultiErrFrom("", err, f.Close())
	}()

	if _, err := f.Write(data); err != nil {
		return &FileError{"append to", file, err}
	}
	return nil
}

// ReadYaml reads and decodes a YAML file into v.
func ReadYaml(file string, v interface{}) error {
	data, err := ReadFile(file)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse '%s': %w", file, err)
	}
	return nil
}

// WriteYaml encodes v as YAML and writes it to a file.
func WriteYaml(file string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode '%s': %w", file, err)
	}
	return WriteFile(file, data)
}
