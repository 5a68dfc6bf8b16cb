package release

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/wasm-rgame/wargo/log"
	"github.com/wasm-rgame/wargo/netrc"
	"github.com/wasm-rgame/wargo/util"
)

// GitSource is a runtime repository whose release tags follow the framework's
// versions. The tag matching the framework version is shallow-cloned into the
// cache and reused on later builds.
type GitSource struct {
	URL      string
	CacheDir string

	listTags func(ctx context.Context) ([]string, error)
	clone    func(ctx context.Context, dest, tag string) error
}

// NewGitSource returns a GitSource talking to the remote with go-git.
func NewGitSource(url, cacheDir string, credentials netrc.Netrc) GitSource {
	var auth transport.AuthMethod
	if basic := credentials.AuthForURL(url); basic != nil {
		auth = &githttp.BasicAuth{Username: basic.User, Password: basic.Password}
	}

	return GitSource{
		URL:      url,
		CacheDir: cacheDir,
		listTags: func(ctx context.Context) ([]string, error) {
			return listRemoteTags(ctx, url, auth)
		},
		clone: func(ctx context.Context, dest, tag string) error {
			return cloneTag(ctx, url, auth, dest, tag)
		},
	}
}

func (s GitSource) Fetch(ctx context.Context, want util.Version) (Release, error) {
	log.Log("Looking up releases of '%s'.\n", s.URL)
	tags, err := s.listTags(ctx)
	if err != nil {
		return Release{}, fmt.Errorf("failed to list releases of '%s': %w", s.URL, err)
	}

	tag, err := ChooseVersion(want, tags)
	if err != nil {
		return Release{}, fmt.Errorf("%w (framework version %s, source '%s')", err, want, s.URL)
	}
	log.Log("Found release '%s' for framework version %s.\n", tag, want)

	dest := filepath.Join(s.CacheDir, tag)
	if util.DirExists(dest) {
		log.Debug("Using cached web runtime from '%s'.\n", dest)
		return Release{Kind: GitKind, Source: s.URL, Tag: tag, Dir: dest}, nil
	}

	if err := util.MkdirAll(s.CacheDir); err != nil {
		return Release{}, err
	}
	tmp, err := os.MkdirTemp(s.CacheDir, tag+"-*")
	if err != nil {
		return Release{}, &util.FileError{Op: "create directory", Path: s.CacheDir, Err: err}
	}
	defer os.RemoveAll(tmp)

	log.Log("Cloning '%s' at '%s'.\n", s.URL, tag)
	if err := s.clone(ctx, tmp, tag); err != nil {
		return Release{}, fmt.Errorf("failed to clone '%s' at '%s': %w", s.URL, tag, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return Release{}, &util.FileError{Op: "move", Path: dest, Err: err}
	}
	return Release{Kind: GitKind, Source: s.URL, Tag: tag, Dir: dest}, nil
}

func listRemoteTags(ctx context.Context, url string, auth transport.AuthMethod) ([]string, error) {
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: auth, PeelingOption: git.IgnorePeeled})
	if err != nil {
		return nil, err
	}

	tags := []string{}
	for _, ref := range refs {
		if ref.Name().IsTag() {
			tags = append(tags, ref.Name().Short())
		}
	}
	log.Debug("Remote '%s' has %d tags.\n", url, len(tags))
	return tags, nil
}

func cloneTag(ctx context.Context, url string, auth transport.AuthMethod, dest, tag string) error {
	log.StartSpinner("cloning " + tag)
	defer log.StopSpinner()

	_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:           url,
		Auth:          auth,
		ReferenceName: plumbing.NewTagReferenceName(tag),
		SingleBranch:  true,
		Depth:         1,
		Tags:          git.NoTags,
	})
	return err
}
