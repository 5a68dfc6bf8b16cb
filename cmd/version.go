package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/wasm-rgame/wargo/log"
	"github.com/wasm-rgame/wargo/toolchain"
	"github.com/wasm-rgame/wargo/util"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Args:  cobra.NoArgs,
		Short: "Prints the version of this tool and of the tools it runs",
		Long: `Prints the version of this tool and the version and location of the cargo and
wasm-bindgen installations it runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loader.Load(a.configFile, "")
			if err != nil {
				return err
			}

			tbl := table.NewWriter()
			tbl.SetStyle(table.StyleRounded)
			tbl.AppendHeader(table.Row{"tool", "version", "path"})

			tbl.AppendRow(table.Row{"wargo", util.WargoVersion, ""})
			for _, tool := range []string{cfg.Cargo, cfg.WasmBindgen} {
				path := a.lookPath(tool)
				if path == "" {
					tbl.AppendRow(table.Row{tool, "not installed", ""})
					continue
				}
				tbl.AppendRow(table.Row{tool, toolVersion(cmd, a.runner, path), path})
			}

			fmt.Fprintln(cmd.OutOrStdout(), tbl.Render())
			return nil
		},
	}
}

func toolVersion(cmd *cobra.Command, runner toolchain.Runner, tool string) string {
	output, err := runner.Output(cmd.Context(), toolchain.Command{
		Step: "Query version",
		Tool: tool,
		Args: []string{"--version"},
	})
	if err != nil {
		log.Debug("Unable to query the version of '%s': %s\n", tool, err)
		return "unknown"
	}
	return strings.TrimSpace(string(output))
}
