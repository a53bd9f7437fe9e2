// Package schema adapts JSON Schema documents to the wizard engine's Schema
// contract.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Iron-Ham/wizard/internal/wizard"
)

const baseURL = "https://wizard.invalid/schemas/"

// JSONSchema is a compiled JSON Schema (draft 2020-12 unless the document
// declares otherwise). It implements wizard.Schema.
type JSONSchema struct {
	name    string
	schema  *jsonschema.Schema
	printer *message.Printer
}

var _ wizard.Schema = (*JSONSchema)(nil)

// Compile compiles a schema given as a decoded document, typically a map
// read from a YAML flow file.
func Compile(name string, doc any) (*JSONSchema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("schema %s: encode: %w", name, err)
	}
	return CompileJSON(name, raw)
}

// CompileJSON compiles a schema from its JSON text.
func CompileJSON(name string, raw []byte) (*JSONSchema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("schema %s: parse: %w", name, err)
	}

	loc := baseURL + url.PathEscape(name) + ".json"
	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft2020)
	if err := c.AddResource(loc, doc); err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	sch, err := c.Compile(loc)
	if err != nil {
		return nil, fmt.Errorf("schema %s: compile: %w", name, err)
	}

	return &JSONSchema{
		name:    name,
		schema:  sch,
		printer: message.NewPrinter(language.English),
	}, nil
}

// Name returns the name the schema was compiled under.
func (s *JSONSchema) Name() string { return s.name }

// Check validates data and reports the first leaf error, prefixed with its
// instance location when it is not the document root.
func (s *JSONSchema) Check(data any) wizard.SchemaResult {
	inst, err := normalize(data)
	if err != nil {
		return wizard.SchemaResult{FirstErrorMessage: err.Error()}
	}

	err = s.schema.Validate(inst)
	if err == nil {
		return wizard.SchemaResult{Success: true}
	}

	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return wizard.SchemaResult{FirstErrorMessage: err.Error()}
	}
	return wizard.SchemaResult{FirstErrorMessage: s.firstMessage(verr)}
}

func (s *JSONSchema) firstMessage(verr *jsonschema.ValidationError) string {
	leaf := verr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	msg := leaf.ErrorKind.LocalizedString(s.printer)
	if len(leaf.InstanceLocation) == 0 {
		return msg
	}
	return "/" + strings.Join(leaf.InstanceLocation, "/") + ": " + msg
}

// normalize round-trips data through JSON so the validator sees the same
// value types it would for a parsed document (json.Number, []any,
// map[string]any). A nil payload is treated as an empty object.
func normalize(data any) (any, error) {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("step data is not JSON encodable: %w", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}
