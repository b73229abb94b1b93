package sensitivity

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/report"
)

// RuleID names the sensitivity-list rule in reports.
const RuleID = "STD_05000"

// Status is the outcome code of a rule run.
type Status int

const (
	// StatusOK means the checks ran and the report was written.
	StatusOK Status = iota
	// StatusNoBuild means the structural model could not be built; nothing
	// was checked.
	StatusNoBuild
	// StatusNoResult means the checks ran but the sink was unavailable.
	StatusNoResult
	// StatusFailed covers cancellation and sink errors after initialization.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoBuild:
		return "build required"
	case StatusNoResult:
		return "no result"
	default:
		return "failed"
	}
}

// ModelBuilder produces the structural model of the project. Failures wrap
// model.ErrModelNotBuilt.
type ModelBuilder interface {
	Build(ctx context.Context) (model.Project, error)
}

// ModelBuilderFunc adapts a function to ModelBuilder.
type ModelBuilderFunc func(ctx context.Context) (model.Project, error)

func (f ModelBuilderFunc) Build(ctx context.Context) (model.Project, error) {
	return f(ctx)
}

// Rule checks the sensitivity lists of all synchronous processes of a
// project and reports the findings to a sink.
type Rule struct {
	Builder ModelBuilder
	Checker *Checker
	Logger  *zap.SugaredLogger
}

// NewRule returns a rule with a sequential checker.
func NewRule(builder ModelBuilder, logger *zap.SugaredLogger) *Rule {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	checker := NewChecker()
	checker.Logger = logger
	return &Rule{Builder: builder, Checker: checker, Logger: logger}
}

// Launch builds the model, checks it and drains the findings into sink.
// The model must be complete: a build failure aborts with StatusNoBuild
// before any check runs or the sink is touched.
func (r *Rule) Launch(ctx context.Context, sink report.Sink) (Status, *report.Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	project, err := r.Builder.Build(ctx)
	if err != nil {
		logger.Warnw("build required before checking sensitivity lists", "error", err)
		if !errors.Is(err, model.ErrModelNotBuilt) {
			err = fmt.Errorf("%w: %v", model.ErrModelNotBuilt, err)
		}
		return StatusNoBuild, nil, err
	}

	checker := r.Checker
	if checker == nil {
		checker = NewChecker()
	}
	violations, err := checker.Check(ctx, project)
	if err != nil {
		return StatusFailed, nil, err
	}

	var collector Collector
	collector.Add(violations...)
	logger.Infow("sensitivity check complete", "files", len(project), "violations", collector.Len())

	res, err := collector.Drain(sink)
	switch {
	case errors.Is(err, report.ErrSinkUnavailable):
		logger.Warnw("report sink unavailable, no result produced", "error", err)
		return StatusNoResult, nil, err
	case err != nil:
		return StatusFailed, nil, err
	}
	return StatusOK, res, nil
}
