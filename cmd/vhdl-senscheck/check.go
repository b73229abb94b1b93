package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/config"
	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/indexer"
	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/policy"
	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/report"
	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/sensitivity"
	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/validator"
)

const (
	severityError   = "error"
	severityWarning = "warning"
)

type checkOptions struct {
	format   string
	output   string
	waivers  string
	baseline string
	jobs     int
	noCache  bool
	timing   bool
}

func newCheckCmd(g *globalOptions) *cobra.Command {
	co := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Check the sensitivity lists of all synchronous processes",
		Long: `Check builds the structural model of the project at path (default ".") and
reports every clock or reset missing from a sensitivity list and every
sensitivity entry that is neither.

Exit status: 0 clean, 1 violations found, 2 model could not be built,
3 report could not be written, 4 other errors.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, g, co, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&co.format, "format", "f", "", "report format: text, json, yaml or xml")
	flags.StringVarP(&co.output, "output", "o", "", "report file (default stdout)")
	flags.StringVar(&co.waivers, "waivers", "", "Rego waiver policy file or directory")
	flags.StringVar(&co.baseline, "baseline", "", "previous JSON/YAML/XML report; only new violations fail the run")
	flags.IntVarP(&co.jobs, "jobs", "j", 0, "files processed in parallel (0 = config or CPU count)")
	flags.BoolVar(&co.noCache, "no-cache", false, "ignore and do not update the model cache")
	flags.BoolVar(&co.timing, "timing", false, "write per-stage timings to timing.jsonl")
	return cmd
}

func runCheck(cmd *cobra.Command, g *globalOptions, co *checkOptions, args []string) error {
	ctx := cmd.Context()
	root := projectRoot(args)

	cfg, err := g.loadConfig(root)
	if err != nil {
		return &exitErr{code: exitError, err: err}
	}
	if !cfg.IsRuleEnabled(sensitivity.RuleID) {
		g.logger.Infow("rule disabled by configuration", "rule", sensitivity.RuleID)
		return nil
	}
	co.apply(cfg)

	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return &exitErr{code: exitError, err: err}
	}

	idx, err := newIndexer(g, cfg, args)
	if err != nil {
		return &exitErr{code: exitError, err: err}
	}
	idx.Timing = co.timing

	reportValidator, err := validator.NewReportValidator()
	if err != nil {
		return &exitErr{code: exitError, err: err}
	}
	fileSink := report.NewFileSink(sensitivity.RuleID, cfg.Report.Output, format)
	fileSink.Validator = reportValidator
	fileSink.Stdout = cmd.OutOrStdout()

	var sink report.Sink = fileSink
	if cfg.Report.Waivers != "" {
		engine, err := policy.New(cfg.Report.Waivers)
		if err != nil {
			return &exitErr{code: exitError, err: err}
		}
		sink = report.NewWaiverSink(ctx, fileSink, engine, g.logger)
	}

	rule := sensitivity.NewRule(idx, g.logger)
	rule.Checker.Parallel = parallelism(cfg)

	status, res, err := rule.Launch(ctx, sink)
	switch status {
	case sensitivity.StatusNoBuild:
		return &exitErr{code: exitNoBuild, err: err}
	case sensitivity.StatusNoResult:
		return &exitErr{code: exitNoResult, err: err}
	case sensitivity.StatusFailed:
		return &exitErr{code: exitError, err: err}
	}

	stats := idx.Stats()
	g.logger.Infow("check complete",
		"status", status,
		"files", stats.Files,
		"synchronous", stats.Model.Synchronous,
		"violations", res.Count,
	)
	if res.Path != "" {
		g.logger.Infow("report written", "path", res.Path)
	}

	failing := res.Count
	if co.baseline != "" {
		prev, err := report.LoadDocument(co.baseline)
		if err != nil {
			return &exitErr{code: exitError, err: err}
		}
		delta := report.ComputeDelta(prev, res.Document)
		if err := writeDelta(cmd.ErrOrStderr(), delta); err != nil {
			return &exitErr{code: exitError, err: err}
		}
		failing = len(delta.Added)
	}

	if failing > 0 {
		if cfg.GetRuleSeverity(sensitivity.RuleID, severityError) == severityWarning {
			g.logger.Warnw("violations reported at warning severity", "rule", sensitivity.RuleID, "violations", failing)
			return nil
		}
		return &exitErr{code: exitViolations}
	}
	return nil
}

// apply lets command-line flags override the configuration.
func (co *checkOptions) apply(cfg *config.Config) {
	if co.format != "" {
		cfg.Report.Format = co.format
	}
	if co.output != "" {
		cfg.Report.Output = co.output
	}
	if co.waivers != "" {
		cfg.Report.Waivers = co.waivers
	}
	if co.jobs > 0 {
		cfg.Analysis.MaxParallelFiles = co.jobs
	}
	if co.noCache {
		disabled := false
		cfg.Analysis.Cache.Enabled = &disabled
	}
}

// newIndexer builds the model builder for the given command-line paths.
// Several paths are checked together, keyed relative to the working
// directory.
func newIndexer(g *globalOptions, cfg *config.Config, args []string) (*indexer.Indexer, error) {
	idx := indexer.New(projectRoot(args), cfg, g.logger)
	if len(args) > 1 {
		idx.Root = "."
		idx.Files = args
	}
	mv, err := validator.NewModelValidator()
	if err != nil {
		return nil, err
	}
	idx.Validator = mv
	return idx, nil
}

func parallelism(cfg *config.Config) int {
	if cfg.Analysis.MaxParallelFiles > 0 {
		return cfg.Analysis.MaxParallelFiles
	}
	return runtime.GOMAXPROCS(0)
}

// writeDelta prints the violations added and removed since a baseline.
func writeDelta(w io.Writer, d report.Delta) error {
	for _, v := range d.Added {
		if _, err := fmt.Fprintf(w, "+ %s:%d %s (%s/%s/%s) %s\n", v.FileName, v.Line, v.Signal, v.Entity, v.Architecture, v.Process, v.Direction()); err != nil {
			return err
		}
	}
	for _, v := range d.Removed {
		if _, err := fmt.Fprintf(w, "- %s:%d %s (%s/%s/%s) %s\n", v.FileName, v.Line, v.Signal, v.Entity, v.Architecture, v.Process, v.Direction()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d added, %d removed\n", len(d.Added), len(d.Removed))
	return err
}
