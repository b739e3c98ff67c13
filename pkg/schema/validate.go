package schema

import "sort"

// Schema is a map of field names to their expected types.
// Example: {"id": String(), "steps": List(Map()), "title": Optional(String())}
type Schema map[string]Type

// Validate checks if data conforms to the schema. Keys whose type is not
// Optional are required. Failures are reported in key order, wrapped in an
// *AggregateError.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		fieldType := schema[key]
		value, exists := data[key]
		if !exists {
			if _, optional := fieldType.(OptionalType); optional {
				continue
			}
			errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			continue
		}
		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidateValue checks a single value, reporting failures under key.
func ValidateValue(key string, t Type, value any) error {
	if err := t.Validate(value); err != nil {
		return &ValidationError{Key: key, Reason: err.Error(), Value: value}
	}
	return nil
}
