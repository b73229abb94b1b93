package report

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
)

// Waiver decides whether a violation is accepted and left out of reports.
type Waiver interface {
	Waived(ctx context.Context, v model.Violation) (bool, error)
}

// WaiverSink forwards to Next every violation Waiver does not waive.
type WaiverSink struct {
	Next   Sink
	Waiver Waiver
	Ctx    context.Context
	Logger *zap.SugaredLogger

	waived int
}

// NewWaiverSink wraps next.
func NewWaiverSink(ctx context.Context, next Sink, w Waiver, logger *zap.SugaredLogger) *WaiverSink {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &WaiverSink{Next: next, Waiver: w, Ctx: ctx, Logger: logger}
}

func (s *WaiverSink) Initialize() error {
	s.waived = 0
	return s.Next.Initialize()
}

func (s *WaiverSink) Record(v model.Violation) error {
	ok, err := s.Waiver.Waived(s.Ctx, v)
	if err != nil {
		return fmt.Errorf("waiver for %s:%d %s: %w", v.FileName, v.Line, v.Signal, err)
	}
	if ok {
		s.waived++
		s.Logger.Debugw("violation waived", "file", v.FileName, "line", v.Line, "signal", v.Signal)
		return nil
	}
	return s.Next.Record(v)
}

func (s *WaiverSink) Finalize() (*Result, error) {
	if s.waived > 0 {
		s.Logger.Infow("waived violations", "count", s.waived)
	}
	return s.Next.Finalize()
}

func (s *WaiverSink) Abort() {
	s.Next.Abort()
}

// Waived is the number of violations dropped since Initialize.
func (s *WaiverSink) Waived() int {
	return s.waived
}
