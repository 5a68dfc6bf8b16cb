package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/davidmdm/x/xcontext"
	"github.com/spf13/cobra"

	"github.com/wasm-rgame/wargo/config"
	"github.com/wasm-rgame/wargo/log"
	"github.com/wasm-rgame/wargo/netrc"
	"github.com/wasm-rgame/wargo/project"
	"github.com/wasm-rgame/wargo/release"
	"github.com/wasm-rgame/wargo/toolchain"
)

// UnknownCommandError is returned for a subcommand wargo does not have.
type UnknownCommandError struct {
	Name      string
	Available []string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command '%s', available commands: %s", e.Name, strings.Join(e.Available, ", "))
}

// app holds what the commands share. Tests replace the runner, the working
// directory and the runtime source.
type app struct {
	configFile string
	workDir    string
	runner     toolchain.Runner
	lookPath   func(tool string) string
	loader     *config.Loader
	openSource func(opts release.Options) (release.Source, error)
}

func newApp() *app {
	return &app{
		runner:     toolchain.ExecRunner{},
		lookPath:   toolchain.LookPath,
		loader:     config.NewLoader(),
		openSource: release.Open,
	}
}

func (a *app) dir() (string, error) {
	if a.workDir != "" {
		return a.workDir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

// loadProject finds the enclosing project and loads it with its configuration.
func (a *app) loadProject() (project.Descriptor, config.Config, error) {
	dir, err := a.dir()
	if err != nil {
		return project.Descriptor{}, config.Config{}, err
	}
	root, err := project.FindRoot(dir)
	if err != nil {
		return project.Descriptor{}, config.Config{}, err
	}
	descriptor, err := project.Load(root)
	if err != nil {
		return project.Descriptor{}, config.Config{}, err
	}
	cfg, err := a.loader.Load(a.configFile, root)
	if err != nil {
		return project.Descriptor{}, config.Config{}, err
	}
	return descriptor, cfg, nil
}

func (a *app) runtimeSource(cfg config.Config) (release.Source, error) {
	opts := release.Options{
		Path:     cfg.Runtime.Path,
		URL:      cfg.Runtime.Source,
		Mirror:   cfg.Mirror,
		CacheDir: cfg.CacheDir,
	}
	if opts.Path == "" {
		opts.Netrc = netrc.Load()
	}
	return a.openSource(opts)
}

// NewRootCmd returns the wargo command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "wargo",
		Short: "Tool used with wasm-rgame projects",
		Long: `wargo creates and builds wasm-rgame projects. It compiles the game with cargo,
generates JavaScript bindings with wasm-bindgen and bundles them with the
framework's web runtime into a directory that can be served to a browser.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		// Flags after an unknown command are ignored and the command is reported.
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString()); err != nil {
				return fmt.Errorf("failed to print usage: %w", err)
			}
			if len(args) == 0 {
				return errors.New("no command provided")
			}
			return &UnknownCommandError{Name: args[0], Available: availableCommands(cmd)}
		},
	}

	root.PersistentFlags().BoolVarP(&log.Verbose, "verbose", "v", false, "Print debug output")
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "Configuration file to use instead of the user configuration")

	root.AddCommand(
		newInitCmd(a),
		newNewCmd(a),
		newBuildCmd(a),
		newCleanCmd(a),
		newManifestCmd(a),
		newVersionCmd(a),
		newCompletionCmd(),
	)
	return root
}

func availableCommands(root *cobra.Command) []string {
	names := []string{}
	for _, c := range root.Commands() {
		if c.IsAvailableCommand() {
			names = append(names, c.Name())
		}
	}
	return names
}

func run(ctx context.Context, root *cobra.Command, args []string, stdout, stderr io.Writer) error {
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		log.Error("%s.\n", strings.TrimSuffix(err.Error(), "."))
	}
	return err
}

// Execute runs wargo with the process arguments and exits with status 1 on
// failure. This is called by main.main().
func Execute() {
	ctx, done := xcontext.WithSignalCancelation(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := run(ctx, NewRootCmd(), os.Args[1:], os.Stdout, os.Stderr)
	done()
	if err != nil {
		os.Exit(1)
	}
}
