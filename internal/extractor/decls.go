package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
)

// vectorDecl is the declared range of a vector port or signal.
type vectorDecl struct {
	ascending bool
	left      int
	right     int
}

// declarations maps lowercased signal names to their vector range. Signals
// without an entry are scalars, or vectors whose bounds are not literals.
type declarations map[string]vectorDecl

// collectDeclarations scans the port and signal declarations of text.
func collectDeclarations(text string) declarations {
	decls := declarations{}
	for _, stmt := range strings.Split(text, ";") {
		if loc := portOpenPattern.FindStringIndex(stmt); loc != nil {
			stmt = stmt[loc[1]:]
		}
		if m := portDeclPattern.FindStringSubmatch(stmt); m != nil {
			decls.add(m)
			continue
		}
		if m := signalDeclPattern.FindStringSubmatch(stmt); m != nil {
			decls.add(m)
		}
	}
	return decls
}

var nameSeparator = regexp.MustCompile(`\s*,\s*`)

func (d declarations) add(m []string) {
	left, errL := strconv.Atoi(m[2])
	right, errR := strconv.Atoi(m[4])
	if errL != nil || errR != nil {
		return
	}
	decl := vectorDecl{ascending: strings.EqualFold(m[3], "to"), left: left, right: right}
	for _, name := range nameSeparator.Split(strings.TrimSpace(m[1]), -1) {
		if name != "" {
			d[strings.ToLower(name)] = decl
		}
	}
}

// ref turns the text of a signal reference into a model reference. Names of
// declared vectors become whole-vector references; indexed names become bit
// or slice references. Anything else is kept verbatim as a scalar.
func (d declarations) ref(text string, line int) model.SignalRef {
	text = strings.Join(strings.Fields(text), " ")
	ref := model.SignalRef{Name: text, Location: model.Location{Line: line}}

	m := refPattern.FindStringSubmatch(text)
	if m == nil {
		return ref
	}
	name := m[1]
	decl, declared := d[strings.ToLower(name)]

	if m[2] == "" {
		if declared {
			ref.Name = name
			ref.IsVector = true
			ref.VectorName = name
			ref.Ascending = decl.ascending
			ref.Left = decl.left
			ref.Right = decl.right
		}
		return ref
	}

	left, err := strconv.Atoi(m[2])
	if err != nil {
		return ref
	}
	right := left
	ascending := declared && decl.ascending
	if m[3] != "" {
		if right, err = strconv.Atoi(m[4]); err != nil {
			return ref
		}
		ascending = strings.EqualFold(m[3], "to")
	}

	ref.IsPartOfVector = true
	ref.VectorName = name
	ref.Ascending = ascending
	ref.Left = left
	ref.Right = right
	if m[3] == "" {
		ref.Name = name + "(" + strconv.Itoa(left) + ")"
	} else {
		ref.Name = name + "(" + strconv.Itoa(left) + " " + strings.ToLower(m[3]) + " " + strconv.Itoa(right) + ")"
	}
	return ref
}
