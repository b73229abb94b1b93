// Package report turns violations into persisted report documents.
package report

import (
	"encoding/xml"
	"errors"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
)

// ErrSinkUnavailable is returned by Sink.Initialize when the sink cannot
// accept a report. Checks still run, but the run yields no result.
var ErrSinkUnavailable = errors.New("report sink unavailable")

// Sink receives the violations of one run, in order.
//
// Initialize is called once before any Record. If it fails, Record and
// Finalize are never called. Finalize persists the report and returns a
// handle to it. Abort releases whatever Initialize reserved without
// writing a report; it is called instead of Finalize when recording fails
// and is a no-op after Finalize.
type Sink interface {
	Initialize() error
	Record(v model.Violation) error
	Finalize() (*Result, error)
	Abort()
}

// Result is the handle of a persisted report.
type Result struct {
	// Path is where the report was written; empty for stdout and memory sinks.
	Path     string
	Count    int
	Document Document
}

// Summary counts violations by kind.
type Summary struct {
	Total         int `json:"total" yaml:"total" xml:"total,attr"`
	Missing       int `json:"missing" yaml:"missing" xml:"missing,attr"`
	Unused        int `json:"unused" yaml:"unused" xml:"unused,attr"`
	VectorRelated int `json:"vector_related" yaml:"vector_related" xml:"vectorRelated,attr"`
}

// Document is the serialized form of a report. It carries no timestamps so
// reports of an unchanged project are byte-identical.
type Document struct {
	XMLName    xml.Name          `json:"-" yaml:"-" xml:"report"`
	Rule       string            `json:"rule" yaml:"rule" xml:"rule,attr"`
	Violations []model.Violation `json:"violations" yaml:"violations" xml:"violation"`
	Summary    Summary           `json:"summary" yaml:"summary" xml:"summary"`
}

// NewDocument builds a document, keeping violation order.
func NewDocument(rule string, violations []model.Violation) Document {
	doc := Document{
		Rule:       rule,
		Violations: make([]model.Violation, 0, len(violations)),
	}
	for _, v := range violations {
		doc.Violations = append(doc.Violations, v)
		doc.Summary.Total++
		if v.IsRequiredMissing {
			doc.Summary.Missing++
		} else {
			doc.Summary.Unused++
		}
		if v.IsVectorRelated {
			doc.Summary.VectorRelated++
		}
	}
	return doc
}
