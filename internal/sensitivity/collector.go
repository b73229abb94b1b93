package sensitivity

import (
	"fmt"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/report"
)

// Collector accumulates violations in discovery order for one run. It does
// not deduplicate.
type Collector struct {
	violations []model.Violation
}

// Add appends vs.
func (c *Collector) Add(vs ...model.Violation) {
	c.violations = append(c.violations, vs...)
}

// Len is the number of collected violations.
func (c *Collector) Len() int {
	return len(c.violations)
}

// Violations returns a copy of the collected violations.
func (c *Collector) Violations() []model.Violation {
	out := make([]model.Violation, len(c.violations))
	copy(out, c.violations)
	return out
}

// Drain hands every violation to sink and finalizes it. If the sink cannot
// initialize nothing is recorded and ErrSinkUnavailable is returned; if a
// record or the finalization fails the sink is aborted. The collector is
// empty afterwards either way.
func (c *Collector) Drain(sink report.Sink) (*report.Result, error) {
	defer func() { c.violations = nil }()

	if err := sink.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrSinkUnavailable, err)
	}
	for _, v := range c.violations {
		if err := sink.Record(v); err != nil {
			sink.Abort()
			return nil, fmt.Errorf("recording violation: %w", err)
		}
	}
	res, err := sink.Finalize()
	if err != nil {
		sink.Abort()
		return nil, fmt.Errorf("finalizing report: %w", err)
	}
	return res, nil
}
