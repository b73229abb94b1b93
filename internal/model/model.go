// Package model holds the structural view of a VHDL project that the
// sensitivity checker consumes: files, entities, architectures and the
// clocked processes inside them.
//
// Values in this package are produced once per run by the extractor and are
// treated as read-only by everything downstream.
package model

import (
	"errors"
	"strings"
)

// ErrModelNotBuilt is returned (wrapped) by model builders when the
// structural model could not be constructed. Checking a partial model would
// report false violations, so callers abort the run instead.
var ErrModelNotBuilt = errors.New("structural model not built")

// Location is a source position.
type Location struct {
	Line int `json:"line" yaml:"line" xml:"line,attr" msgpack:"line"`
}

// SignalRef identifies a signal or a sensitivity-list entry.
//
// Name is the rendered reference exactly as written: "clk", "data" for a
// whole vector, "data(3)" for a bit or "data(3 downto 1)" for a slice.
// VectorName is the base name without index and is only meaningful when
// IsVector or IsPartOfVector is set. Left and Right are the declared bounds
// (whole vector) or the referenced bounds (bit or slice).
type SignalRef struct {
	Name           string   `json:"name" yaml:"name" xml:"name,attr" msgpack:"name"`
	IsVector       bool     `json:"is_vector" yaml:"is_vector" xml:"vector,attr" msgpack:"is_vector"`
	IsPartOfVector bool     `json:"is_part_of_vector" yaml:"is_part_of_vector" xml:"partOfVector,attr" msgpack:"is_part_of_vector"`
	VectorName     string   `json:"vector_name,omitempty" yaml:"vector_name,omitempty" xml:"vectorName,attr,omitempty" msgpack:"vector_name"`
	Ascending      bool     `json:"ascending" yaml:"ascending" xml:"ascending,attr" msgpack:"ascending"`
	Left           int      `json:"left" yaml:"left" xml:"left,attr" msgpack:"left"`
	Right          int      `json:"right" yaml:"right" xml:"right,attr" msgpack:"right"`
	Location       Location `json:"location" yaml:"location" xml:"location" msgpack:"location"`
}

// String returns the rendered name.
func (s SignalRef) String() string {
	return s.Name
}

// VectorShaped reports whether the reference names a vector or a part of one.
func (s SignalRef) VectorShaped() bool {
	return s.IsVector || s.IsPartOfVector
}

// SameName compares rendered names case-insensitively.
func (s SignalRef) SameName(other string) bool {
	return strings.EqualFold(s.Name, other)
}

// ResetSignal is a reset owned by exactly one clock.
type ResetSignal struct {
	SignalRef `yaml:",inline" msgpack:",inline"`
}

// ClockSignal is a clock a process is edge-sensitive to.
type ClockSignal struct {
	SignalRef           `yaml:",inline" msgpack:",inline"`
	HasSynchronousReset bool          `json:"has_synchronous_reset" yaml:"has_synchronous_reset" xml:"synchronousReset,attr" msgpack:"has_synchronous_reset"`
	ResetSignals        []ResetSignal `json:"reset_signals,omitempty" yaml:"reset_signals,omitempty" xml:"reset,omitempty" msgpack:"reset_signals"`
}

// Sensitivity is one entry of a process sensitivity list.
type Sensitivity struct {
	SignalRef `yaml:",inline" msgpack:",inline"`
}

// Process is a VHDL process statement.
type Process struct {
	Label           string        `json:"label" yaml:"label" xml:"label,attr" msgpack:"label"`
	Line            int           `json:"line" yaml:"line" xml:"line,attr" msgpack:"line"`
	IsSynchronous   bool          `json:"is_synchronous" yaml:"is_synchronous" xml:"synchronous,attr" msgpack:"is_synchronous"`
	ClockSignals    []ClockSignal `json:"clock_signals,omitempty" yaml:"clock_signals,omitempty" xml:"clock,omitempty" msgpack:"clock_signals"`
	SensitivityList []Sensitivity `json:"sensitivity_list,omitempty" yaml:"sensitivity_list,omitempty" xml:"sensitivity,omitempty" msgpack:"sensitivity_list"`
}

// RequiredSignals returns the clocks followed by the resets of each clock
// that has a synchronous reset, in declaration order.
func (p Process) RequiredSignals() []SignalRef {
	var out []SignalRef
	for _, clk := range p.ClockSignals {
		out = append(out, clk.SignalRef)
		if !clk.HasSynchronousReset {
			continue
		}
		for _, rst := range clk.ResetSignals {
			out = append(out, rst.SignalRef)
		}
	}
	return out
}

// SensitivityRefs returns the sensitivity entries as plain references.
func (p Process) SensitivityRefs() []SignalRef {
	out := make([]SignalRef, 0, len(p.SensitivityList))
	for _, s := range p.SensitivityList {
		out = append(out, s.SignalRef)
	}
	return out
}

// Architecture is an architecture body and the processes it contains.
type Architecture struct {
	Name       string    `json:"name" yaml:"name" xml:"name,attr" msgpack:"name"`
	EntityName string    `json:"entity_name" yaml:"entity_name" xml:"entity,attr" msgpack:"entity_name"`
	Line       int       `json:"line" yaml:"line" xml:"line,attr" msgpack:"line"`
	Processes  []Process `json:"processes,omitempty" yaml:"processes,omitempty" xml:"process,omitempty" msgpack:"processes"`
}

// Entity is an entity declaration with the architectures bound to it.
type Entity struct {
	Name          string         `json:"name" yaml:"name" xml:"name,attr" msgpack:"name"`
	Line          int            `json:"line" yaml:"line" xml:"line,attr" msgpack:"line"`
	Architectures []Architecture `json:"architectures,omitempty" yaml:"architectures,omitempty" xml:"architecture,omitempty" msgpack:"architectures"`
}

// File is the structural model of one source file.
type File struct {
	Path     string   `json:"path" yaml:"path" xml:"path,attr" msgpack:"path"`
	Entities []Entity `json:"entities,omitempty" yaml:"entities,omitempty" xml:"entity,omitempty" msgpack:"entities"`
}

// Project maps file identity to its structural model.
type Project map[string]File

// Stats counts the elements of a project.
type Stats struct {
	Files         int `json:"files"`
	Entities      int `json:"entities"`
	Architectures int `json:"architectures"`
	Processes     int `json:"processes"`
	Synchronous   int `json:"synchronous"`
}

// Stats walks the project and counts its elements.
func (p Project) Stats() Stats {
	st := Stats{Files: len(p)}
	for _, f := range p {
		st.Entities += len(f.Entities)
		for _, e := range f.Entities {
			st.Architectures += len(e.Architectures)
			for _, a := range e.Architectures {
				st.Processes += len(a.Processes)
				for _, proc := range a.Processes {
					if proc.IsSynchronous {
						st.Synchronous++
					}
				}
			}
		}
	}
	return st
}

// Violation is a single sensitivity-list finding.
//
// IsRequiredMissing distinguishes the two directions: true when a clock or
// reset is absent from the sensitivity list, false when a listed entry does
// not correspond to any clock or reset. IsVectorRelated marks findings about
// a vector or one of its bits.
type Violation struct {
	FileName          string `json:"file" yaml:"file" xml:"file,attr" msgpack:"file"`
	Line              int    `json:"line" yaml:"line" xml:"line,attr" msgpack:"line"`
	Entity            string `json:"entity" yaml:"entity" xml:"entity,attr" msgpack:"entity"`
	Architecture      string `json:"architecture" yaml:"architecture" xml:"architecture,attr" msgpack:"architecture"`
	Process           string `json:"process" yaml:"process" xml:"process,attr" msgpack:"process"`
	Signal            string `json:"signal" yaml:"signal" xml:"signal,attr" msgpack:"signal"`
	IsRequiredMissing bool   `json:"is_required_missing" yaml:"is_required_missing" xml:"requiredMissing,attr" msgpack:"is_required_missing"`
	IsVectorRelated   bool   `json:"is_vector_related" yaml:"is_vector_related" xml:"vectorRelated,attr" msgpack:"is_vector_related"`
}

// Direction renders IsRequiredMissing for humans.
func (v Violation) Direction() string {
	if v.IsRequiredMissing {
		return "missing"
	}
	return "unused"
}
