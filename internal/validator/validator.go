package validator

// =============================================================================
// VALIDATOR: THE CONTRACT GUARD
// =============================================================================
//
// The model builder and the report sinks talk to the checker through plain
// data. If a field is renamed or an invariant breaks (a vector without a base
// name, a process without a line, a summary that does not add up), the checker
// would silently produce wrong findings. The CUE schemas below turn that into
// an immediate, precise error.
//
// WHEN VALIDATION FAILS:
//  1. Do not suppress the error.
//  2. Trace it back: extractor bug, cache bug or sink bug.
//  3. Fix the producer, then the schema if the contract really changed.
// =============================================================================

import (
	"embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed model_schema.cue
var modelSchemaFS embed.FS

//go:embed report_schema.cue
var reportSchemaFS embed.FS

// contract is a compiled schema and the definition values are checked against.
type contract struct {
	ctx    *cue.Context
	schema cue.Value
	def    string
}

func newContract(fs embed.FS, file, def string) (*contract, error) {
	ctx := cuecontext.New()

	schemaBytes, err := fs.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("loading embedded schema %s: %w", file, err)
	}

	schema := ctx.CompileBytes(schemaBytes)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", file, schema.Err())
	}

	return &contract{ctx: ctx, schema: schema, def: def}, nil
}

func (c *contract) unify(data interface{}) (cue.Value, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return cue.Value{}, fmt.Errorf("marshaling data to JSON: %w", err)
	}
	return c.unifyJSON(jsonBytes)
}

func (c *contract) unifyJSON(jsonBytes []byte) (cue.Value, error) {
	dataValue := c.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("compiling data as CUE: %w", dataValue.Err())
	}

	def := c.schema.LookupPath(cue.ParsePath(c.def))
	if def.Err() != nil {
		return cue.Value{}, fmt.Errorf("looking up %s definition: %w", c.def, def.Err())
	}

	return def.Unify(dataValue), nil
}

func (c *contract) validate(data interface{}) error {
	unified, err := c.unify(data)
	if err != nil {
		return err
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s schema validation failed: %w", c.def, err)
	}
	return nil
}

func (c *contract) validateJSON(jsonBytes []byte) error {
	unified, err := c.unifyJSON(jsonBytes)
	if err != nil {
		return err
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s schema validation failed: %w", c.def, err)
	}
	return nil
}

func (c *contract) errors(data interface{}) []string {
	unified, err := c.unify(data)
	if err != nil {
		return []string{err.Error()}
	}
	err = unified.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var errs []string
	for _, e := range errors.Errors(err) {
		errs = append(errs, e.Error())
	}
	return errs
}

// ModelValidator checks a structural model (model.Project) before it reaches
// the checker.
type ModelValidator struct {
	c *contract
}

// NewModelValidator creates a validator with the embedded model schema.
func NewModelValidator() (*ModelValidator, error) {
	c, err := newContract(modelSchemaFS, "model_schema.cue", "#Project")
	if err != nil {
		return nil, err
	}
	return &ModelValidator{c: c}, nil
}

// Validate checks that the project conforms to #Project.
func (v *ModelValidator) Validate(project interface{}) error {
	return v.c.validate(project)
}

// ValidateJSON validates JSON bytes directly against #Project.
func (v *ModelValidator) ValidateJSON(jsonBytes []byte) error {
	return v.c.validateJSON(jsonBytes)
}

// ValidationErrors returns every individual schema error, or nil.
func (v *ModelValidator) ValidationErrors(project interface{}) []string {
	return v.c.errors(project)
}

// ReportValidator checks report documents before a sink persists them.
type ReportValidator struct {
	c *contract
}

// NewReportValidator creates a validator with the embedded report schema.
func NewReportValidator() (*ReportValidator, error) {
	c, err := newContract(reportSchemaFS, "report_schema.cue", "#Report")
	if err != nil {
		return nil, err
	}
	return &ReportValidator{c: c}, nil
}

// Validate checks that the document conforms to #Report.
func (v *ReportValidator) Validate(doc interface{}) error {
	return v.c.validate(doc)
}

// ValidateJSON validates JSON bytes directly against #Report.
func (v *ReportValidator) ValidateJSON(jsonBytes []byte) error {
	return v.c.validateJSON(jsonBytes)
}
