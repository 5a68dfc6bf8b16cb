package util

import (
	"fmt"
	"regexp"
	"strconv"

	"golang.org/x/mod/semver"
)

type Version struct {
	Major uint
	Minor uint
	Patch uint
	// Prerelease includes its leading '-', for example "-alpha.1".
	Prerelease string
	// Build includes its leading '+'. It is ignored when comparing versions.
	Build string
}

// WargoVersion is the version of this tool.
var WargoVersion = Version{Major: 0, Minor: 3, Patch: 0}

var versionRegexp = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`)

// ParseVersion parses a `vX.Y.Z` or `X.Y.Z` semantic version, optionally
// followed by a pre-release and build metadata as in `1.0.0-alpha.1+build.5`.
func ParseVersion(s string) (Version, error) {
	match := versionRegexp.FindStringSubmatch(s)
	if match == nil {
		return Version{}, fmt.Errorf("invalid version string '%s'", s)
	}

	parts := []uint{}
	for _, m := range match[1:4] {
		part, err := strconv.ParseUint(m, 10, 32)
		if err != nil {
			return Version{}, err
		}
		parts = append(parts, uint(part))
	}
	v := Version{parts[0], parts[1], parts[2], match[4], match[5]}
	if !semver.IsValid(v.String()) {
		return Version{}, fmt.Errorf("invalid version string '%s'", s)
	}
	return v, nil
}

func (v Version) String() string {
	return fmt.Sprintf("v%d.%d.%d%s%s", v.Major, v.Minor, v.Patch, v.Prerelease, v.Build)
}

// Canonical drops the build metadata, leaving the part versions are ordered by.
func (v Version) Canonical() string {
	return semver.Canonical(v.String())
}
