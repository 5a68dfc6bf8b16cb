package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wasm-rgame/wargo/project"
)

func newInitCmd(a *app) *cobra.Command {
	var opts project.InitOptions

	cmd := &cobra.Command{
		Use:   "init",
		Args:  cobra.NoArgs,
		Short: "Initializes the current directory as a wasm-rgame project",
		Long: `Initializes the current directory as a wasm-rgame project. Runs 'cargo init --lib',
writes the game entrypoint and adds the framework dependencies to Cargo.toml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.dir()
			if err != nil {
				return err
			}
			if err := a.initOptions(cmd, &opts); err != nil {
				return err
			}
			_, err = project.Initialize(cmd.Context(), a.runner, dir, opts)
			return err
		},
	}

	addInitFlags(cmd, &opts)
	return cmd
}

func newNewCmd(a *app) *cobra.Command {
	var opts project.InitOptions

	cmd := &cobra.Command{
		Use:   "new <path>",
		Args:  cobra.ExactArgs(1),
		Short: "Creates a new wasm-rgame project at <path>",
		Long:  `Creates the directory <path> and initializes a wasm-rgame project inside it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !filepath.IsAbs(path) {
				dir, err := a.dir()
				if err != nil {
					return err
				}
				path = filepath.Join(dir, path)
			}
			if err := a.initOptions(cmd, &opts); err != nil {
				return err
			}
			_, err := project.New(cmd.Context(), a.runner, path, opts)
			return err
		},
	}

	addInitFlags(cmd, &opts)
	return cmd
}

func addInitFlags(cmd *cobra.Command, opts *project.InitOptions) {
	cmd.Flags().StringVar(&opts.Name, "name", "", "Set the package name, defaults to the directory name")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the files that would be written as diffs instead of writing them")
}

// initOptions fills in the settings that come from the configuration. There is
// no project yet, so only the user configuration applies.
func (a *app) initOptions(cmd *cobra.Command, opts *project.InitOptions) error {
	cfg, err := a.loader.Load(a.configFile, "")
	if err != nil {
		return err
	}
	opts.Cargo = cfg.Cargo
	opts.DiffOutput = cmd.OutOrStdout()
	return nil
}
