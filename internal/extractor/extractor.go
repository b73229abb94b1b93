// Package extractor builds the structural model of VHDL source files:
// entities, architectures and the processes inside them, with their
// sensitivity lists and the clocks and resets their if-chains test. Design
// units are located by a regex scanner over comment-stripped text.
package extractor

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
)

// Version identifies the shape of the extracted model. Bump it whenever
// extraction results change for the same input.
const Version = "senscheck-2"

// Scanner names the design-unit scanner; cached models record it.
const Scanner = "regex"

// Extractor turns VHDL files into model.File values. It holds no state and
// is safe for concurrent use.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract reads and extracts one file.
func (e *Extractor) Extract(ctx context.Context, filePath string) (model.File, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return model.File{Path: filePath}, fmt.Errorf("reading file: %w", err)
	}
	return e.ExtractSource(ctx, filePath, content)
}

// ExtractSource extracts already loaded content; filePath is only recorded.
func (e *Extractor) ExtractSource(ctx context.Context, filePath string, content []byte) (model.File, error) {
	if err := ctx.Err(); err != nil {
		return model.File{Path: filePath}, err
	}

	src := newSource(content)
	decls := collectDeclarations(src.text)

	return scanUnits(src, decls).file(filePath), nil
}

// designUnits are the entities and architectures of one file, in source
// order.
type designUnits struct {
	entities      []model.Entity
	architectures []model.Architecture
}

// file binds every architecture to its entity. Architectures of entities
// declared in another file get a stand-in entity at the architecture's line.
func (u designUnits) file(path string) model.File {
	f := model.File{Path: path, Entities: append([]model.Entity(nil), u.entities...)}
	for _, arch := range u.architectures {
		idx := -1
		for i := range f.Entities {
			if strings.EqualFold(f.Entities[i].Name, arch.EntityName) {
				idx = i
				break
			}
		}
		if idx < 0 {
			f.Entities = append(f.Entities, model.Entity{Name: arch.EntityName, Line: arch.Line})
			idx = len(f.Entities) - 1
		}
		f.Entities[idx].Architectures = append(f.Entities[idx].Architectures, arch)
	}
	return f
}

// scanUnits locates entities and architectures. An architecture extends to
// the next design unit or the end of the file.
func scanUnits(src *source, decls declarations) designUnits {
	var units designUnits

	type boundary struct {
		offset int
		arch   []int
	}
	var bounds []boundary
	for _, m := range matchEntities(src.text) {
		units.entities = append(units.entities, model.Entity{
			Name: src.text[m[2]:m[3]],
			Line: src.lineAt(m[2]),
		})
		bounds = append(bounds, boundary{offset: m[0]})
	}
	for _, m := range matchArchitectures(src.text) {
		bounds = append(bounds, boundary{offset: m[0], arch: m})
	}
	sort.Slice(bounds, func(i, j int) bool { return bounds[i].offset < bounds[j].offset })

	for i, b := range bounds {
		if b.arch == nil {
			continue
		}
		end := len(src.text)
		if i+1 < len(bounds) {
			end = bounds[i+1].offset
		}
		m := b.arch
		arch := model.Architecture{
			Name:       src.text[m[2]:m[3]],
			EntityName: src.text[m[4]:m[5]],
			Line:       src.lineAt(m[2]),
		}
		for _, span := range findProcesses(src, m[1], end) {
			arch.Processes = append(arch.Processes, analyzeProcess(src, decls, span))
		}
		units.architectures = append(units.architectures, arch)
	}
	return units
}
