package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/validator"
)

// FileSink buffers violations and writes one report when finalized. With
// an empty Path or "-" the report goes to Stdout instead of a file.
type FileSink struct {
	Rule   string
	Path   string
	Format Format

	// Validator, when set, checks the document before it is written.
	Validator *validator.ReportValidator

	// Stdout receives the report when Path is empty; defaults to os.Stdout.
	Stdout io.Writer

	records     []model.Violation
	tmp         *os.File
	initialized bool
}

// NewFileSink returns a sink writing format to path.
func NewFileSink(rule, path string, format Format) *FileSink {
	return &FileSink{Rule: rule, Path: path, Format: format}
}

func (s *FileSink) toStdout() bool {
	return s.Path == "" || s.Path == "-"
}

// Initialize reserves the output: a temp file next to Path, renamed into
// place by Finalize.
func (s *FileSink) Initialize() error {
	format, err := ParseFormat(string(s.Format))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSinkUnavailable, err)
	}
	s.Format = format
	s.records = s.records[:0]
	if s.toStdout() {
		if s.Stdout == nil {
			s.Stdout = os.Stdout
		}
		s.initialized = true
		return nil
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: report dir: %v", ErrSinkUnavailable, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-report-*")
	if err != nil {
		return fmt.Errorf("%w: temp report file: %v", ErrSinkUnavailable, err)
	}
	s.tmp = tmp
	s.initialized = true
	return nil
}

// Record appends v to the report.
func (s *FileSink) Record(v model.Violation) error {
	if !s.initialized {
		return fmt.Errorf("%w: record before initialize", ErrSinkUnavailable)
	}
	s.records = append(s.records, v)
	return nil
}

// Finalize validates and writes the report.
func (s *FileSink) Finalize() (*Result, error) {
	if !s.initialized {
		return nil, fmt.Errorf("%w: finalize before initialize", ErrSinkUnavailable)
	}
	s.initialized = false

	doc := NewDocument(s.Rule, s.records)
	if s.Validator != nil {
		if err := s.Validator.Validate(doc); err != nil {
			s.discard()
			return nil, fmt.Errorf("report contract violation: %w", err)
		}
	}

	if s.toStdout() {
		if err := Encode(s.Stdout, doc, s.Format); err != nil {
			return nil, fmt.Errorf("writing report: %w", err)
		}
		return &Result{Count: len(doc.Violations), Document: doc}, nil
	}

	var buf bytes.Buffer
	if err := Encode(&buf, doc, s.Format); err != nil {
		s.discard()
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	if err := s.commit(buf.Bytes()); err != nil {
		return nil, err
	}
	return &Result{Path: s.Path, Count: len(doc.Violations), Document: doc}, nil
}

// Abort drops the buffered records and removes the temp file.
func (s *FileSink) Abort() {
	s.initialized = false
	s.records = s.records[:0]
	s.discard()
}

func (s *FileSink) commit(data []byte) error {
	tmp := s.tmp
	s.tmp = nil
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write report file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close report file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename report file: %w", err)
	}
	return nil
}

func (s *FileSink) discard() {
	if s.tmp == nil {
		return
	}
	_ = s.tmp.Close()
	_ = os.Remove(s.tmp.Name())
	s.tmp = nil
}

// MemorySink keeps the report in memory.
type MemorySink struct {
	Rule string

	// FailInitialize makes Initialize return ErrSinkUnavailable.
	FailInitialize bool

	Recorded []model.Violation
}

func (s *MemorySink) Initialize() error {
	if s.FailInitialize {
		return ErrSinkUnavailable
	}
	s.Recorded = nil
	return nil
}

func (s *MemorySink) Record(v model.Violation) error {
	s.Recorded = append(s.Recorded, v)
	return nil
}

func (s *MemorySink) Finalize() (*Result, error) {
	doc := NewDocument(s.Rule, s.Recorded)
	return &Result{Count: len(doc.Violations), Document: doc}, nil
}

func (s *MemorySink) Abort() {}
