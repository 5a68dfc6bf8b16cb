package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wasm-rgame/wargo/build"
	"github.com/wasm-rgame/wargo/log"
)

func newBuildCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [--release] [--js-path PATH] [--out-dir DIR]",
		Args:  cobra.NoArgs,
		Short: "Builds the current project",
		Long: `Builds the current project and packs the compiled module with the JavaScript
bindings and the web runtime into the output directory.

The web runtime release is chosen to match the wasm-rgame version recorded in
Cargo.lock, unless --js-path points at a local copy.`,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, a)
		},
	}

	cmd.Flags().Bool("release", false, "Build with the release profile")
	cmd.Flags().String("js-path", "", "Use a local directory for the web runtime instead of downloading the matching release")
	cmd.Flags().String("out-dir", "", "Output directory, defaults to target/wasm-rgame/<name>")

	for key, flag := range map[string]string{
		"release":      "release",
		"runtime.path": "js-path",
		"out_dir":      "out-dir",
	} {
		if err := a.loader.BindFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	return cmd
}

func runBuild(cmd *cobra.Command, a *app) error {
	descriptor, cfg, err := a.loadProject()
	if err != nil {
		return err
	}

	source, err := a.runtimeSource(cfg)
	if err != nil {
		return err
	}

	orchestrator := build.New(build.Options{
		Project: descriptor,
		Config:  cfg,
		Runner:  a.runner,
		Runtime: source,
	})

	log.Log("Building '%s'.\n", descriptor.Name)
	report, err := orchestrator.Run(cmd.Context())
	fmt.Fprintln(cmd.ErrOrStderr(), report.Table())
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	log.Success("Finished building '%s'.\n", descriptor.Name)
	return nil
}
