// Package release obtains the static web runtime (HTML and JavaScript loader)
// that wasm-rgame projects are bundled with.
package release

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wasm-rgame/wargo/log"
	"github.com/wasm-rgame/wargo/netrc"
	"github.com/wasm-rgame/wargo/util"
)

const githubPrefix = "https://github.com/"

// Kind identifies how a runtime source is obtained.
type Kind int

const (
	LocalKind Kind = iota
	TarKind
	GitKind
)

func (k Kind) String() string {
	switch k {
	case LocalKind:
		return "local"
	case TarKind:
		return "tar"
	case GitKind:
		return "git"
	default:
		return "unknown"
	}
}

// Release is a web runtime checked out on disk.
type Release struct {
	Kind   Kind
	Source string
	// Tag is the release tag, empty for local directories and plain archives.
	Tag string
	// Dir holds the runtime files.
	Dir string
	// Sha256 is the checksum of the downloaded archive, empty for other kinds.
	Sha256 string
}

// Source obtains a runtime release matching a framework version.
type Source interface {
	Fetch(ctx context.Context, want util.Version) (Release, error)
}

// Options configures Open.
type Options struct {
	// Path is a local runtime directory. It takes precedence over URL.
	Path string
	// URL is a .git or .tar.gz location.
	URL string
	// Mirror replaces the https://github.com/ prefix of URL when set.
	Mirror   string
	CacheDir string
	Netrc    netrc.Netrc
}

// Open picks the source implementation for opts.
func Open(opts Options) (Source, error) {
	if opts.Path != "" {
		log.Debug("Using local web runtime '%s'.\n", opts.Path)
		return LocalSource{Path: opts.Path}, nil
	}

	url := ApplyMirror(opts.URL, opts.Mirror)
	cacheDir := cacheDirFor(opts.CacheDir, url)

	if strings.HasSuffix(url, ".tar.gz") {
		log.Debug("Runtime URL ends in '.tar.gz'. Using a tarball source.\n")
		return TarSource{URL: url, CacheDir: cacheDir, Netrc: opts.Netrc}, nil
	}
	if strings.HasSuffix(url, ".git") {
		log.Debug("Runtime URL ends in '.git'. Using a git source.\n")
		return NewGitSource(url, cacheDir, opts.Netrc), nil
	}

	return nil, fmt.Errorf("failed to determine runtime source type from url '%s'", url)
}

// ApplyMirror rewrites GitHub URLs onto mirror.
func ApplyMirror(url, mirror string) string {
	if mirror == "" || !strings.HasPrefix(url, githubPrefix) {
		return url
	}
	if !strings.HasSuffix(mirror, "/") {
		mirror += "/"
	}
	return mirror + strings.TrimPrefix(url, githubPrefix)
}

// cacheDirFor returns a per-source directory below the runtime cache.
func cacheDirFor(cacheDir, url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(cacheDir, "runtime", hex.EncodeToString(sum[:])[:16])
}

// LocalSource is a runtime directory on disk, used as is.
type LocalSource struct {
	Path string
}

func (s LocalSource) Fetch(ctx context.Context, want util.Version) (Release, error) {
	dir, err := filepath.Abs(s.Path)
	if err != nil {
		return Release{}, &util.FileError{Op: "resolve", Path: s.Path, Err: err}
	}
	if !util.DirExists(dir) {
		return Release{}, fmt.Errorf("local web runtime '%s' is not a directory", dir)
	}
	return Release{Kind: LocalKind, Source: dir, Dir: dir}, nil
}
