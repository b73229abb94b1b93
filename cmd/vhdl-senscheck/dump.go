package main

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
)

type dumpOptions struct {
	format  string
	output  string
	noCache bool
}

func newDumpCmd(g *globalOptions) *cobra.Command {
	do := &dumpOptions{}
	cmd := &cobra.Command{
		Use:   "dump [path...]",
		Short: "Print the structural model the checker sees",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, g, do, args)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&do.format, "format", "f", "json", "model format: json, yaml or xml")
	flags.StringVarP(&do.output, "output", "o", "", "output file (default stdout)")
	flags.BoolVar(&do.noCache, "no-cache", false, "ignore and do not update the model cache")
	return cmd
}

func runDump(cmd *cobra.Command, g *globalOptions, do *dumpOptions, args []string) error {
	cfg, err := g.loadConfig(projectRoot(args))
	if err != nil {
		return &exitErr{code: exitError, err: err}
	}
	if do.noCache {
		disabled := false
		cfg.Analysis.Cache.Enabled = &disabled
	}

	idx, err := newIndexer(g, cfg, args)
	if err != nil {
		return &exitErr{code: exitError, err: err}
	}
	project, err := idx.Build(cmd.Context())
	if err != nil {
		return &exitErr{code: exitNoBuild, err: err}
	}

	var buf bytes.Buffer
	if err := encodeProject(&buf, project, do.format); err != nil {
		return &exitErr{code: exitError, err: err}
	}
	if do.output == "" || do.output == "-" {
		_, err = cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(do.output, buf.Bytes(), 0o644); err != nil {
		return &exitErr{code: exitError, err: fmt.Errorf("writing model: %w", err)}
	}
	g.logger.Infow("model written", "path", do.output, "files", len(project))
	return nil
}

// projectXML lists the files in key order; encoding/xml has no map support.
type projectXML struct {
	XMLName xml.Name     `xml:"project"`
	Files   []model.File `xml:"file"`
}

func encodeProject(w io.Writer, project model.Project, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(project)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(project); err != nil {
			return err
		}
		return enc.Close()
	case "xml":
		ids := make([]string, 0, len(project))
		for id := range project {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		doc := projectXML{Files: make([]model.File, 0, len(ids))}
		for _, id := range ids {
			doc.Files = append(doc.Files, project[id])
		}
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
		enc := xml.NewEncoder(w)
		enc.Indent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	default:
		return fmt.Errorf("unknown model format %q (want json, yaml or xml)", format)
	}
}
