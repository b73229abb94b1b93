package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/config"
)

func newInitCmd(g *globalOptions) *cobra.Command {
	var (
		asYAML bool
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a vhdl_senscheck.json configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := config.FileName
			if asYAML {
				configPath = strings.TrimSuffix(configPath, ".json") + ".yaml"
			}
			out := cmd.OutOrStdout()

			if _, err := os.Stat(configPath); err == nil && !force {
				fmt.Fprintf(out, "Config file %s already exists. Overwrite? [y/N]: ", configPath)
				response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				response = strings.TrimSpace(response)
				if response != "y" && response != "Y" {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			cfg := config.DefaultConfig()
			if err := cfg.Save(configPath); err != nil {
				return &exitErr{code: exitError, err: fmt.Errorf("creating config: %w", err)}
			}
			g.logger.Debugw("config written", "path", configPath)

			fmt.Fprintf(out, "Created %s\n", configPath)
			fmt.Fprintln(out, "\nEdit this file to configure:")
			fmt.Fprintln(out, "  - Library file patterns")
			fmt.Fprintln(out, "  - Third-party libraries and ignored files")
			fmt.Fprintln(out, "  - Report format, output and waiver policies")
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "write YAML instead of JSON")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file without asking")
	return cmd
}
