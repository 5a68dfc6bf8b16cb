package release

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/davidmdm/x/xerr"

	"github.com/wasm-rgame/wargo/log"
	"github.com/wasm-rgame/wargo/netrc"
	"github.com/wasm-rgame/wargo/util"
)

// MetadataFileName records the origin of an extracted archive.
const MetadataFileName = ".metadata"

const archiveDirName = "archive"

type metadataFile struct {
	URL    string
	Sha256 string
}

// TarSource is a runtime published as a single .tar.gz archive. The archive has
// no version of its own, so the framework version is not consulted.
type TarSource struct {
	URL      string
	CacheDir string
	Netrc    netrc.Netrc
	Client   *http.Client
}

func (s TarSource) Fetch(ctx context.Context, want util.Version) (Release, error) {
	dest := filepath.Join(s.CacheDir, archiveDirName)

	var metadata metadataFile
	if util.FileExists(filepath.Join(dest, MetadataFileName)) {
		if err := util.ReadYaml(filepath.Join(dest, MetadataFileName), &metadata); err == nil && metadata.URL == s.URL {
			log.Debug("Using cached web runtime from '%s'.\n", dest)
			return Release{Kind: TarKind, Source: s.URL, Dir: dest, Sha256: metadata.Sha256}, nil
		}
		if err := util.RemoveAll(dest); err != nil {
			return Release{}, err
		}
	}

	sum, err := s.download(ctx, dest)
	if err != nil {
		return Release{}, err
	}
	return Release{Kind: TarKind, Source: s.URL, Dir: dest, Sha256: sum}, nil
}

// download extracts the archive into a temporary sibling of dest and moves it
// into place once extraction succeeded, so an interrupted download never leaves
// a half extracted runtime in the cache.
func (s TarSource) download(ctx context.Context, dest string) (sum string, err error) {
	log.Log("Downloading '%s'.\n", s.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if auth := s.Netrc.AuthForURL(s.URL); auth != nil {
		req.SetBasicAuth(auth.User, auth.Password)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	response, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download archive: %w", err)
	}
	defer func() {
		err = xerr.MultiErrFrom("", err, response.Body.Close())
	}()

	if response.StatusCode >= 400 {
		return "", fmt.Errorf("failed to download archive: unexpected status %s", response.Status)
	}

	if err := util.MkdirAll(filepath.Dir(dest)); err != nil {
		return "", err
	}
	tmp, err := os.MkdirTemp(filepath.Dir(dest), archiveDirName+"-*")
	if err != nil {
		return "", &util.FileError{Op: "create directory", Path: filepath.Dir(dest), Err: err}
	}
	defer os.RemoveAll(tmp)

	hasher := sha256.New()
	if err := Extract(io.TeeReader(response.Body, hasher), tmp); err != nil {
		return "", err
	}
	// Drain the rest so the checksum covers the whole archive.
	if _, err := io.Copy(hasher, response.Body); err != nil {
		return "", fmt.Errorf("failed to download archive: %w", err)
	}

	sum = hex.EncodeToString(hasher.Sum(nil))
	if err := util.WriteYaml(filepath.Join(tmp, MetadataFileName), metadataFile{s.URL, sum}); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, dest); err != nil {
		return "", &util.FileError{Op: "move", Path: dest, Err: err}
	}
	return sum, nil
}

func getRoot(p string) string {
	firstSlash := strings.IndexByte(p, '/')
	if firstSlash == -1 {
		return p
	}
	return p[0:firstSlash]
}

// stripRoot leaves a leading /, which is fine because results are joined onto dest.
func stripRoot(p string) string {
	root := getRoot(p)
	if p == root {
		return "/"
	}
	return p[len(root):]
}

// Extract unpacks a gzipped tar archive with exactly one root directory into
// dest, dropping that root directory.
func Extract(r io.Reader, dest string) error {
	gzFile, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to decompress: %w", err)
	}

	if err := util.MkdirAll(dest); err != nil {
		return err
	}
	realDest, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return &util.FileError{Op: "resolve", Path: dest, Err: err}
	}

	tarReader := tar.NewReader(gzFile)
	tarRootDir := ""
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to decompress: %w", err)
		}

		// GitHub tarballs start with a pax global header carrying the commit id.
		if header.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		name := strings.TrimPrefix(path.Clean(header.Name), "./")
		if name == ".." || strings.HasPrefix(name, "../") || path.IsAbs(name) {
			return fmt.Errorf("failed to decompress: entry '%s' escapes the archive", header.Name)
		}

		headerRootDir := getRoot(name)
		if header.Typeflag != tar.TypeDir && headerRootDir == name {
			return fmt.Errorf("failed to decompress: archive can't have files outside root directory")
		}
		if tarRootDir == "" {
			tarRootDir = headerRootDir
		} else if tarRootDir != headerRootDir {
			return fmt.Errorf("failed to decompress: archive can't have more than one root directory")
		}

		target := filepath.Join(realDest, filepath.FromSlash(stripRoot(name)))

		// Directories are not guaranteed to be visited before their files, so
		// parents are created with a default mode and fixed up when visited.
		switch header.Typeflag {
		case tar.TypeDir:
			log.Debug("Creating directory '%s'.\n", target)
			if err := os.MkdirAll(target, os.FileMode(header.Mode)|0700); err != nil {
				return &util.FileError{Op: "create directory", Path: target, Err: err}
			}
			if err := checkInside(realDest, target, header.Name); err != nil {
				return err
			}
			if err := os.Chmod(target, os.FileMode(header.Mode)|0700); err != nil {
				return &util.FileError{Op: "change mode of", Path: target, Err: err}
			}
		case tar.TypeReg:
			if err := prepareParent(realDest, target, header.Name); err != nil {
				return err
			}
			log.Debug("Creating file '%s'.\n", target)
			if err := writeEntry(target, tarReader, os.FileMode(header.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := prepareParent(realDest, target, header.Name); err != nil {
				return err
			}
			resolved := filepath.Join(filepath.Dir(target), filepath.FromSlash(header.Linkname))
			if path.IsAbs(header.Linkname) || !util.IsWithin(realDest, resolved) {
				return fmt.Errorf("failed to decompress: symlink '%s' points outside the archive", header.Name)
			}
			log.Debug("Creating symlink from '%s' to '%s'.\n", target, header.Linkname)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return &util.FileError{Op: "create symlink", Path: target, Err: err}
			}
		case tar.TypeLink:
			linkname := strings.TrimPrefix(path.Clean(header.Linkname), "./")
			if getRoot(linkname) != tarRootDir {
				return fmt.Errorf("failed to decompress: archive can't have more than one root directory")
			}
			oldname := filepath.Join(realDest, filepath.FromSlash(stripRoot(linkname)))
			if err := prepareParent(realDest, target, header.Name); err != nil {
				return err
			}
			if err := checkInside(realDest, oldname, header.Linkname); err != nil {
				return err
			}
			log.Debug("Creating link from '%s' to '%s'.\n", target, oldname)
			if err := os.Link(oldname, target); err != nil {
				return &util.FileError{Op: "create link", Path: target, Err: err}
			}
		default:
			return fmt.Errorf("unknown tar type flag %d for entry '%s'", header.Typeflag, header.Name)
		}
	}

	if tarRootDir == "" {
		return fmt.Errorf("failed to decompress: archive is empty")
	}
	return checkSymlinks(realDest)
}

// prepareParent creates the parent directory of target and makes sure no
// earlier symlink redirects it, or target itself, outside realDest.
func prepareParent(realDest, target, entry string) error {
	parent := filepath.Dir(target)
	if err := util.MkdirAll(parent); err != nil {
		return err
	}
	if err := checkInside(realDest, parent, entry); err != nil {
		return err
	}
	if info, err := os.Lstat(target); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("failed to decompress: entry '%s' replaces a symlink", entry)
	}
	return nil
}

func checkInside(realDest, p, entry string) error {
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return &util.FileError{Op: "resolve", Path: p, Err: err}
	}
	if !util.IsWithin(realDest, resolved) {
		return fmt.Errorf("failed to decompress: entry '%s' escapes the archive", entry)
	}
	return nil
}

// checkSymlinks fails when an extracted symlink is dangling or resolves
// outside realDest.
func checkSymlinks(realDest string) error {
	return filepath.WalkDir(realDest, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink == 0 {
			return nil
		}
		resolved, err := filepath.EvalSymlinks(p)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &util.FileError{Op: "resolve", Path: p, Err: err}
		}
		if err != nil || !util.IsWithin(realDest, resolved) {
			return fmt.Errorf("failed to decompress: symlink '%s' points outside the archive", p)
		}
		return nil
	})
}

func writeEntry(target string, r io.Reader, mode os.FileMode) (err error) {
	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode|0600)
	if err != nil {
		return &util.FileError{Op: "create", Path: target, Err: err}
	}
	defer func() {
		err = xerr.MultiErrFrom("", err, file.Close())
	}()

	if _, err := io.Copy(file, r); err != nil {
		return &util.FileError{Op: "write", Path: target, Err: err}
	}
	return nil
}
