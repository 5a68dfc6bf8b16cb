package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wasm-rgame/wargo/build"
	"github.com/wasm-rgame/wargo/log"
	"github.com/wasm-rgame/wargo/util"
)

func newCleanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Args:  cobra.NoArgs,
		Short: "Removes the bundled output and the generated bindings",
		Long: `Removes the bundled output and the generated bindings. Compiled artifacts are
left to 'cargo clean'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptor, cfg, err := a.loadProject()
			if err != nil {
				return err
			}

			layout := build.NewLayout(descriptor, cfg)
			runtimeDir := ""
			if cfg.Runtime.Path != "" {
				if runtimeDir, err = filepath.Abs(cfg.Runtime.Path); err != nil {
					return &util.FileError{Op: "resolve", Path: cfg.Runtime.Path, Err: err}
				}
			}
			if err := layout.CheckOutDir(runtimeDir); err != nil {
				return err
			}
			for _, dir := range []string{layout.OutDir, layout.Staging} {
				if !util.DirExists(dir) {
					continue
				}
				log.Debug("Removing '%s'.\n", dir)
				if err := util.RemoveAll(dir); err != nil {
					return err
				}
			}
			log.Success("Cleaned '%s'.\n", descriptor.Name)
			return nil
		},
	}
}
