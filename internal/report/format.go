package report

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
)

// Format selects how a document is serialized.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXML  Format = "xml"
	FormatText Format = "text"
)

// ParseFormat accepts a format name case-insensitively; empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatJSON, FormatYAML, FormatXML, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want json, yaml, xml or text)", s)
	}
}

// Encode writes doc to w in the given format.
func Encode(w io.Writer, doc Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatXML:
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
		enc := xml.NewEncoder(w)
		enc.Indent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	case FormatText:
		return encodeText(w, doc)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// encodeText renders one line per violation. Styling is only emitted when
// w is a terminal.
func encodeText(w io.Writer, doc Document) error {
	r := lipgloss.NewRenderer(w)
	missing := r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	unused := r.NewStyle().Foreground(lipgloss.Color("11"))
	dim := r.NewStyle().Faint(true)

	for _, v := range doc.Violations {
		icon, style := "⚠", unused
		if v.IsRequiredMissing {
			icon, style = "✗", missing
		}
		_, err := fmt.Fprintf(w, "%s [%s] %s:%d - %s %s\n",
			style.Render(icon), doc.Rule, v.FileName, v.Line,
			describe(v), dim.Render(scopeOf(v)))
		if err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\n=== Sensitivity Summary ===\n  Missing:  %d\n  Unused:   %d\n  Vector:   %d\n  Total:    %d\n",
		doc.Summary.Missing, doc.Summary.Unused, doc.Summary.VectorRelated, doc.Summary.Total)
	return err
}

func describe(v model.Violation) string {
	if v.IsRequiredMissing {
		return fmt.Sprintf("%q is missing from the sensitivity list", v.Signal)
	}
	return fmt.Sprintf("%q in the sensitivity list is not a clock or reset", v.Signal)
}

func scopeOf(v model.Violation) string {
	return fmt.Sprintf("(%s/%s/%s)", v.Entity, v.Architecture, v.Process)
}
