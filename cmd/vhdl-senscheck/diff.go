package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/report"
)

func newDiffCmd(g *globalOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "diff <old-report> <new-report>",
		Short: "Show violations added and removed between two reports",
		Long: `Diff compares two reports written by check (JSON, YAML or XML, chosen by
file extension). Line numbers and letter case are ignored, so moving code
around does not produce churn. Exits 1 when violations were added.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prev, err := report.LoadDocument(args[0])
			if err != nil {
				return &exitErr{code: exitError, err: err}
			}
			next, err := report.LoadDocument(args[1])
			if err != nil {
				return &exitErr{code: exitError, err: err}
			}
			if prev.Rule != "" && next.Rule != "" && prev.Rule != next.Rule {
				g.logger.Warnw("comparing reports of different rules", "old", prev.Rule, "new", next.Rule)
			}

			delta := report.ComputeDelta(prev, next)
			out := cmd.OutOrStdout()
			switch strings.ToLower(format) {
			case "text":
				err = writeDelta(out, delta)
			case "json", "yaml":
				err = encodeDelta(out, delta, format)
			default:
				err = fmt.Errorf("unknown diff format %q (want text, json or yaml)", format)
			}
			if err != nil {
				return &exitErr{code: exitError, err: err}
			}

			if len(delta.Added) > 0 {
				return &exitErr{code: exitViolations}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	return cmd
}

func encodeDelta(w io.Writer, d report.Delta, format string) error {
	if d.Added == nil {
		d.Added = []model.Violation{}
	}
	if d.Removed == nil {
		d.Removed = []model.Violation{}
	}
	if strings.EqualFold(format, "json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return err
	}
	return enc.Close()
}
