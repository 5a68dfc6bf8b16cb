package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wasm-rgame/wargo/build"
	"github.com/wasm-rgame/wargo/manifest"
)

func newManifestCmd(a *app) *cobra.Command {
	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Args:  cobra.NoArgs,
		Short: "Inspects bundle manifests",
		Long:  `Inspects the manifests wargo writes into every bundled output directory.`,
	}

	diffCmd := &cobra.Command{
		Use:   "diff [newManifest] oldManifest",
		Args:  cobra.RangeArgs(1, 2),
		Short: "Diffs two bundle manifests and lists the files that differ",
		Long: `Diffs two bundle manifests and lists the files that differ. If [newManifest] is
omitted, the manifest of the current project's output directory is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var newPath, oldPath string
			if len(args) == 2 {
				newPath, oldPath = args[0], args[1]
			} else {
				descriptor, cfg, err := a.loadProject()
				if err != nil {
					return err
				}
				newPath = filepath.Join(build.NewLayout(descriptor, cfg).OutDir, manifest.FileName)
				oldPath = args[0]
			}

			newManifest, err := readManifest(newPath)
			if err != nil {
				return err
			}
			oldManifest, err := readManifest(oldPath)
			if err != nil {
				return err
			}

			manifest.Diff(newManifest, oldManifest).Log()
			return nil
		},
	}

	manifestCmd.AddCommand(diffCmd)
	return manifestCmd
}

func readManifest(path string) (manifest.Manifest, error) {
	m, found, err := manifest.Read(path)
	if err != nil {
		return manifest.Manifest{}, err
	}
	if !found {
		return manifest.Manifest{}, fmt.Errorf("no manifest at '%s', run 'wargo build' first", path)
	}
	return m, nil
}
