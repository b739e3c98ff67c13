package taskdef

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
	"github.com/aretw0/stepflow/pkg/schema"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Definition is a validated task together with the rules declared inline.
type Definition struct {
	Task *domain.Task
	// Rules holds the skip list and branches of the document, in that order.
	// Named rules stay in Task.Rules for the caller to resolve.
	Rules []ports.ConditionalRule
}

var (
	stepTypes = []string{
		domain.StepTypeInstruction, domain.StepTypeForm, domain.StepTypeActive,
		domain.StepTypeCompletion, domain.StepTypeSection,
	}

	taskSchema = schema.Schema{
		"id":               schema.String(),
		"title":            schema.Optional(schema.String()),
		"steps":            schema.List(schema.Map()),
		"progress_markers": schema.Optional(schema.List(schema.String())),
		"rules":            schema.Optional(schema.List(schema.String())),
		"skip":             schema.Optional(schema.List(schema.String())),
		"branches":         schema.Optional(schema.List(schema.Map())),
	}

	stepSchema = schema.Schema{
		"id":     schema.String(),
		"type":   schema.Optional(schema.OneOf(stepTypes...)),
		"fields": schema.Optional(schema.List(schema.Map())),
		"steps":  schema.Optional(schema.List(schema.Map())),
	}

	fieldSchema = schema.Schema{
		"id":        schema.String(),
		"data_type": schema.String(),
		"choices": schema.Optional(schema.List(schema.Custom("choice", func(v any) error {
			switch v.(type) {
			case string, map[string]any:
				return nil
			}
			return fmt.Errorf("expected text or map, got %T", v)
		}))),
		"rules": schema.Optional(schema.List(schema.Map())),
	}

	branchSchema = schema.Schema{
		"after": schema.String(),
		"field": schema.String(),
	}
)

// ParseFile reads and decodes a task file.
func ParseFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		var de *DefinitionError
		if errors.As(err, &de) {
			de.Source = path
		}
		return nil, err
	}
	return def, nil
}

// Parse decodes a YAML or JSON document.
func Parse(data []byte) (*Definition, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &DefinitionError{Err: fmt.Errorf("failed to parse document: %w", err)}
	}
	return Decode(raw)
}

// Decode validates and builds a definition from its generic map form.
func Decode(raw map[string]any) (*Definition, error) {
	if err := validateRaw(raw); err != nil {
		return nil, &DefinitionError{Err: err}
	}
	def, err := decodeTaskDef(raw)
	if err != nil {
		return nil, &DefinitionError{Err: err}
	}
	return Build(def)
}

// DecodeStep decodes one step document, such as markdown frontmatter.
func DecodeStep(raw map[string]any) (StepDef, error) {
	var sd StepDef
	if err := validateStepRaw("", raw); err != nil {
		return sd, err
	}
	err := decodeInto(raw, &sd)
	return sd, err
}

func decodeTaskDef(raw map[string]any) (TaskDef, error) {
	var def TaskDef
	err := decodeInto(raw, &def)
	return def, err
}

func decodeInto(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
		DecodeHook:  choiceShorthand,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		var me *mapstructure.Error
		if errors.As(err, &me) {
			errs := make([]error, 0, len(me.Errors))
			for _, msg := range me.Errors {
				errs = append(errs, errors.New(msg))
			}
			return &schema.AggregateError{Errors: errs}
		}
		return err
	}
	return nil
}

var choiceDefType = reflect.TypeOf(ChoiceDef{})

func choiceShorthand(from, to reflect.Type, data any) (any, error) {
	if to == choiceDefType && from.Kind() == reflect.String {
		return map[string]any{"text": data, "value": data}, nil
	}
	return data, nil
}

func validateRaw(raw map[string]any) error {
	errs := []error{schema.Validate(taskSchema, raw)}
	steps, _ := raw["steps"].([]any)
	for i, s := range steps {
		if m, ok := s.(map[string]any); ok {
			errs = append(errs, validateStepRaw(fmt.Sprintf("steps.%d", i), m))
		}
	}
	branches, _ := raw["branches"].([]any)
	for i, b := range branches {
		if m, ok := b.(map[string]any); ok {
			errs = append(errs, prefix(fmt.Sprintf("branches.%d", i), schema.Validate(branchSchema, m)))
		}
	}
	return schema.Join(errs...)
}

func validateStepRaw(path string, raw map[string]any) error {
	errs := []error{prefix(path, schema.Validate(stepSchema, raw))}
	fields, _ := raw["fields"].([]any)
	for i, f := range fields {
		if m, ok := f.(map[string]any); ok {
			errs = append(errs, prefix(join(path, fmt.Sprintf("fields.%d", i)), schema.Validate(fieldSchema, m)))
		}
	}
	children, _ := raw["steps"].([]any)
	for i, c := range children {
		if m, ok := c.(map[string]any); ok {
			errs = append(errs, validateStepRaw(join(path, fmt.Sprintf("steps.%d", i)), m))
		}
	}
	return schema.Join(errs...)
}

func prefix(path string, err error) error {
	if path == "" {
		return err
	}
	return schema.Prefix(path, err)
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
