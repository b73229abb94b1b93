// Package sensitivity verifies that the sensitivity list of every
// synchronous process names exactly its clocks and their resets.
//
// Two independent passes run per process. The first requires every clock and
// reset to be covered by the list; the second requires every list entry to
// be covered by a clock or reset. Vector signals may be covered as a whole or
// bit by bit, and partial coverage is reported one bit at a time.
package sensitivity

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
)

// Scope is the position of a process in the project tree. It is passed by
// value down the traversal.
type Scope struct {
	File         string
	Entity       string
	Architecture string
	Process      string
}

func (s Scope) violation(line int, signal string, requiredMissing, vectorRelated bool) model.Violation {
	return model.Violation{
		FileName:          s.File,
		Line:              line,
		Entity:            s.Entity,
		Architecture:      s.Architecture,
		Process:           s.Process,
		Signal:            signal,
		IsRequiredMissing: requiredMissing,
		IsVectorRelated:   vectorRelated,
	}
}

// ProcessName is the name a process is reported under: its label, or its
// line when it has none.
func ProcessName(p model.Process) string {
	if p.Label != "" {
		return p.Label
	}
	return fmt.Sprintf("process@%d", p.Line)
}

// CheckProcess runs both passes on p. Combinational processes yield nothing.
func CheckProcess(scope Scope, p model.Process) []model.Violation {
	if !p.IsSynchronous {
		return nil
	}
	var out []model.Violation
	out = append(out, checkSensitivityList(scope, p)...)
	out = append(out, checkSensitivityUsed(scope, p)...)
	return out
}

// checkSensitivityList reports clocks and resets the list does not cover.
// Each reset is matched on its own, independently of its clock.
func checkSensitivityList(scope Scope, p model.Process) []model.Violation {
	listed := p.SensitivityRefs()
	var out []model.Violation
	for _, clk := range p.ClockSignals {
		out = append(out, uncovered(scope, clk.SignalRef, listed, true)...)
		if !clk.HasSynchronousReset {
			continue
		}
		for _, rst := range clk.ResetSignals {
			out = append(out, uncovered(scope, rst.SignalRef, listed, true)...)
		}
	}
	return out
}

// checkSensitivityUsed reports list entries that no clock or reset accounts for.
func checkSensitivityUsed(scope Scope, p model.Process) []model.Violation {
	required := p.RequiredSignals()
	var out []model.Violation
	for _, s := range p.SensitivityList {
		out = append(out, uncovered(scope, s.SignalRef, required, false)...)
	}
	return out
}

func uncovered(scope Scope, ref model.SignalRef, candidates []model.SignalRef, requiredMissing bool) []model.Violation {
	res := Covers(ref, candidates)
	switch res.Kind {
	case Full:
		return nil
	case PartialBits:
		out := make([]model.Violation, 0, len(res.Missing))
		for _, i := range res.Missing {
			out = append(out, scope.violation(ref.Location.Line, BitName(ref.VectorName, i), requiredMissing, true))
		}
		return out
	default:
		return []model.Violation{scope.violation(ref.Location.Line, ref.Name, requiredMissing, ref.VectorShaped())}
	}
}

// CheckFile walks one file depth-first. Missing entities, architectures or
// processes are skipped.
func CheckFile(fileID string, f model.File) []model.Violation {
	var out []model.Violation
	for _, ent := range f.Entities {
		for _, arch := range ent.Architectures {
			for _, proc := range arch.Processes {
				scope := Scope{
					File:         fileID,
					Entity:       ent.Name,
					Architecture: arch.Name,
					Process:      ProcessName(proc),
				}
				out = append(out, CheckProcess(scope, proc)...)
			}
		}
	}
	return out
}

// Checker checks every file of a project.
type Checker struct {
	// Parallel bounds the number of files checked at once (0 or less means
	// one at a time).
	Parallel int

	Logger *zap.SugaredLogger
}

// NewChecker returns a sequential checker that logs nothing.
func NewChecker() *Checker {
	return &Checker{Parallel: 1, Logger: zap.NewNop().Sugar()}
}

// Check returns the violations of the whole project. Files are visited in
// sorted order and per-file results are merged in that order, so the output
// does not depend on Parallel.
func (c *Checker) Check(ctx context.Context, project model.Project) ([]model.Violation, error) {
	ids := make([]string, 0, len(project))
	for id := range project {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	limit := c.Parallel
	if limit < 1 {
		limit = 1
	}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	perFile := make([][]model.Violation, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perFile[i] = CheckFile(id, project[id])
			logger.Debugw("checked file", "file", id, "violations", len(perFile[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("checking project: %w", err)
	}

	var out []model.Violation
	for _, vs := range perFile {
		out = append(out, vs...)
	}
	return out, nil
}
