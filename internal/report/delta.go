package report

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
)

// Delta captures violations that appeared or disappeared between two runs.
type Delta struct {
	Added   []model.Violation `json:"added" yaml:"added"`
	Removed []model.Violation `json:"removed" yaml:"removed"`
}

// Empty reports whether the two runs agree.
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// ComputeDelta diffs two documents. Line numbers are not part of a
// violation's identity, so edits that only move code produce no delta.
func ComputeDelta(prev, next Document) Delta {
	return Delta{
		Added:   diffViolations(prev.Violations, next.Violations),
		Removed: diffViolations(next.Violations, prev.Violations),
	}
}

func diffViolations(from, to []model.Violation) []model.Violation {
	fromSet := make(map[string]int, len(from))
	for _, v := range from {
		fromSet[violationKey(v)]++
	}
	diff := []model.Violation{}
	for _, v := range to {
		k := violationKey(v)
		if fromSet[k] > 0 {
			fromSet[k]--
			continue
		}
		diff = append(diff, v)
	}
	return diff
}

func violationKey(v model.Violation) string {
	return strings.Join([]string{
		v.FileName,
		strings.ToLower(v.Entity),
		strings.ToLower(v.Architecture),
		strings.ToLower(v.Process),
		strings.ToLower(v.Signal),
		boolKey(v.IsRequiredMissing),
		boolKey(v.IsVectorRelated),
	}, "|")
}

func boolKey(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// LoadDocument reads a report written in JSON, YAML or XML; the format is
// taken from the file extension.
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading report: %w", err)
	}

	var doc Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".xml":
		err = xml.Unmarshal(data, &doc)
	default:
		return Document{}, fmt.Errorf("reading report %s: unsupported extension", path)
	}
	if err != nil {
		return Document{}, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return doc, nil
}
