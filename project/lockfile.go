package project

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/wasm-rgame/wargo/util"
)

type lockedPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

type cargoLock struct {
	Packages []lockedPackage `toml:"package"`
}

// FindLockedVersion returns the version of pkg recorded in the Cargo.lock
// contents. When the lockfile holds several versions of pkg the first one wins.
func FindLockedVersion(pkg string, lockfile string) (util.Version, bool, error) {
	var lock cargoLock
	if _, err := toml.Decode(lockfile, &lock); err != nil {
		return util.Version{}, false, fmt.Errorf("cannot parse %s: %w", CargoLockFileName, err)
	}

	for _, p := range lock.Packages {
		if p.Name != pkg {
			continue
		}
		version, err := util.ParseVersion(p.Version)
		if err != nil {
			return util.Version{}, false, fmt.Errorf("package '%s' has an unsupported version '%s' in %s", pkg, p.Version, CargoLockFileName)
		}
		return version, true, nil
	}
	return util.Version{}, false, nil
}

// FrameworkVersion reads the locked version of pkg from the project's Cargo.lock.
func (d Descriptor) FrameworkVersion(pkg string) (util.Version, error) {
	data, err := util.ReadFile(filepath.Join(d.Root, CargoLockFileName))
	if err != nil {
		return util.Version{}, fmt.Errorf("cannot read %s, run 'cargo build' once to create it: %w", CargoLockFileName, err)
	}

	version, found, err := FindLockedVersion(pkg, string(data))
	if err != nil {
		return util.Version{}, err
	}
	if !found {
		return util.Version{}, fmt.Errorf("cannot find package '%s' in %s", pkg, CargoLockFileName)
	}
	return version, nil
}
