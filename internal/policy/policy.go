package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
)

// WaiveQuery is the rule a waiver policy defines. It is evaluated once per
// violation with the violation as input:
//
//	package vhdl.sensitivity
//
//	waive if {
//		input.signal == "scan_en"
//		input.is_required_missing == false
//	}
const WaiveQuery = "data.vhdl.sensitivity.waive"

// Engine evaluates Rego waiver policies against violations.
type Engine struct {
	query rego.PreparedEvalQuery
}

// New loads every .rego file at path (a single file or a directory).
func New(path string) (*Engine, error) {
	var files []string
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading waiver policy: %w", err)
	}
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "*.rego"))
		if err != nil {
			return nil, fmt.Errorf("finding policy files: %w", err)
		}
	} else {
		files = []string{path}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no policy files found in %s", path)
	}

	modules := make(map[string]string, len(files))
	for _, f := range files {
		content, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		modules[f] = string(content)
	}
	return NewFromModules(modules)
}

// NewFromModules prepares the waive query over in-memory modules keyed by
// file name.
func NewFromModules(modules map[string]string) (*Engine, error) {
	opts := []func(*rego.Rego){rego.Query(WaiveQuery)}
	for name, src := range modules {
		opts = append(opts, rego.Module(name, src))
	}

	query, err := rego.New(opts...).PrepareForEval(context.Background())
	if err != nil {
		return nil, fmt.Errorf("preparing waiver query: %w", err)
	}
	return &Engine{query: query}, nil
}

// Waived reports whether the policy waives v. An undefined waive rule means
// the violation stands.
func (e *Engine) Waived(ctx context.Context, v model.Violation) (bool, error) {
	input, err := structToMap(v)
	if err != nil {
		return false, fmt.Errorf("converting input: %w", err)
	}

	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("evaluating waivers: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	waived, ok := rs[0].Expressions[0].Value.(bool)
	return ok && waived, nil
}

func structToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	err = json.Unmarshal(data, &result)
	return result, err
}
