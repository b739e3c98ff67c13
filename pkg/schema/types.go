package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/stepflow/pkg/domain"
)

// Type defines the contract for value validation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "integer").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

type stringType struct{}

func (stringType) Name() string { return domain.BaseTypeString }

func (stringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

type integerType struct{}

func (integerType) Name() string { return domain.BaseTypeInteger }

func (integerType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return nil
	case reflect.Float32, reflect.Float64:
		// JSON numbers decode as float64.
		f := rv.Float()
		if f == float64(int64(f)) {
			return nil
		}
		return fmt.Errorf("expected integer, got fractional number %v", f)
	default:
		return fmt.Errorf("expected integer, got %T", value)
	}
}

type decimalType struct{ name string }

func (t decimalType) Name() string { return t.name }

func (t decimalType) Validate(value any) error {
	switch reflect.ValueOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return nil
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
}

type booleanType struct{}

func (booleanType) Name() string { return domain.BaseTypeBoolean }

func (booleanType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected boolean, got %T", value)
	}
	return nil
}

// ListType validates slices of a specific element type.
type ListType struct {
	Elem Type
}

func (t *ListType) Name() string { return "list." + t.Elem.Name() }

func (t *ListType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected list, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.Elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// OptionalType marks a schema key that may be absent or nil.
type OptionalType struct {
	Type
}

// Validate accepts nil and otherwise defers to the wrapped type.
func (t OptionalType) Validate(value any) error {
	if value == nil {
		return nil
	}
	return t.Type.Validate(value)
}

// String creates a string validator.
func String() Type { return stringType{} }

// Integer accepts any integer kind and whole floating point numbers.
func Integer() Type { return integerType{} }

// Decimal accepts any numeric kind.
func Decimal() Type { return decimalType{name: domain.BaseTypeDecimal} }

// Boolean creates a boolean validator.
func Boolean() Type { return booleanType{} }

// List creates a validator for lists of elem.
func List(elem Type) Type { return &ListType{Elem: elem} }

// Custom creates a validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// Optional wraps t so that a missing key or nil value passes validation.
func Optional(t Type) Type { return OptionalType{Type: t} }

// Map accepts decoded objects.
func Map() Type {
	return Custom("map", func(v any) error {
		if _, ok := v.(map[string]any); !ok {
			return fmt.Errorf("expected map, got %T", v)
		}
		return nil
	})
}

// OneOf accepts one of the given strings.
func OneOf(values ...string) Type {
	return Custom("oneOf("+strings.Join(values, "|")+")", func(v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		for _, want := range values {
			if s == want {
				return nil
			}
		}
		return fmt.Errorf("must be one of %s", strings.Join(values, ", "))
	})
}

var (
	dateType = Custom(domain.BaseTypeDate, func(v any) error {
		switch d := v.(type) {
		case time.Time:
			return nil
		case string:
			if _, err := time.Parse(time.DateOnly, d); err == nil {
				return nil
			}
			if _, err := time.Parse(time.RFC3339, d); err == nil {
				return nil
			}
			return fmt.Errorf("expected date (YYYY-MM-DD or RFC 3339), got %q", d)
		default:
			return fmt.Errorf("expected date, got %T", v)
		}
	})

	durationType = Custom(domain.BaseTypeDuration, func(v any) error {
		if s, ok := v.(string); ok {
			if _, err := time.ParseDuration(s); err != nil {
				return fmt.Errorf("expected duration: %w", err)
			}
			return nil
		}
		if _, ok := v.(time.Duration); ok {
			return nil
		}
		// Bare numbers are seconds.
		return Decimal().Validate(v)
	})
)

// ForBaseType returns the validator of a single value of the given base answer type.
func ForBaseType(base string) (Type, error) {
	switch base {
	case domain.BaseTypeString:
		return String(), nil
	case domain.BaseTypeInteger, domain.BaseTypeYear:
		return Integer(), nil
	case domain.BaseTypeDecimal:
		return Decimal(), nil
	case domain.BaseTypeFraction:
		return decimalType{name: domain.BaseTypeFraction}, nil
	case domain.BaseTypeBoolean:
		return Boolean(), nil
	case domain.BaseTypeDate:
		return dateType, nil
	case domain.BaseTypeDuration:
		return durationType, nil
	default:
		return nil, fmt.Errorf("unsupported base type: %s", base)
	}
}

// ForDataType returns the validator of a complete answer to a field of type dt.
// Multiple choice and multiple component answers are lists of the base type.
func ForDataType(dt domain.InputDataType) (Type, error) {
	return ForAnswerType(dt.AnswerResultType())
}

// ForAnswerType parses an AnswerResult type tag such as "integer" or "list.string".
func ForAnswerType(answerType string) (Type, error) {
	if elem, ok := strings.CutPrefix(answerType, "list."); ok {
		t, err := ForAnswerType(elem)
		if err != nil {
			return nil, err
		}
		return List(t), nil
	}
	return ForBaseType(answerType)
}
