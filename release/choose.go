package release

import (
	"errors"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/wasm-rgame/wargo/util"
)

var (
	// ErrNoReleases is returned when a source publishes no release tags at all.
	ErrNoReleases = errors.New("found no releases of the web runtime")
	// ErrNoMatchingRelease is returned when every release is newer than the
	// framework version the project uses.
	ErrNoMatchingRelease = errors.New("found no release of the web runtime for the framework version")
)

// ChooseVersion picks the release tag matching the framework version want: the
// greatest tag that is not newer than want. Tags look like "v0.1.0"; the
// leading "v" is optional and tags that are not semantic versions are ignored.
//
// Pre-releases follow semantic version ordering: 0.2.0-alpha.1 is older than
// 0.2.0. Build metadata is ignored.
//
// For example with want 0.3.1 and tags [v0.2.0, v0.3.0, v0.5.2] the result is
// v0.3.0, the most up-to-date release that still works with 0.3.1.
func ChooseVersion(want util.Version, tags []string) (string, error) {
	if len(tags) == 0 {
		return "", ErrNoReleases
	}

	wanted := want.Canonical()
	chosen, chosenVersion := "", ""
	for _, tag := range tags {
		version := tag
		if !strings.HasPrefix(version, "v") {
			version = "v" + version
		}
		if !semver.IsValid(version) || semver.Compare(version, wanted) > 0 {
			continue
		}
		if chosen == "" || semver.Compare(version, chosenVersion) > 0 {
			chosen, chosenVersion = tag, version
		}
	}

	if chosen == "" {
		return "", ErrNoMatchingRelease
	}
	return chosen, nil
}
