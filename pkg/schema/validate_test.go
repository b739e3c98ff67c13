package schema

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/stepflow/pkg/domain"
)

func TestValidate_Success(t *testing.T) {
	s := Schema{
		"id":       String(),
		"order":    Integer(),
		"weight":   Decimal(),
		"optional": Boolean(),
		"tags":     List(String()),
		"title":    Optional(String()),
	}

	data := map[string]any{
		"id":       "intro",
		"order":    float64(3),
		"weight":   0.5,
		"optional": true,
		"tags":     []any{"a", "b"},
	}

	if err := Validate(s, data); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_MissingAndMismatched(t *testing.T) {
	s := Schema{
		"id":    String(),
		"order": Integer(),
		"title": Optional(String()),
	}

	err := Validate(s, map[string]any{"order": 1.5, "title": nil})
	if err == nil {
		t.Fatal("Validate() should fail")
	}

	errs := ValidationErrors(err)
	if len(errs) != 2 {
		t.Fatalf("Validate() = %d errors, want 2: %v", len(errs), err)
	}

	var first *ValidationError
	if !errors.As(errs[0], &first) || first.Key != "id" || first.Reason != "required" {
		t.Errorf("first error = %v, want required id", errs[0])
	}
	var second *ValidationError
	if !errors.As(errs[1], &second) || second.Key != "order" {
		t.Errorf("second error = %v, want order mismatch", errs[1])
	}
	if !strings.Contains(err.Error(), "2 validation errors") {
		t.Errorf("aggregate message = %q", err.Error())
	}
}

func TestValidate_EmptySchema(t *testing.T) {
	if err := Validate(nil, map[string]any{"anything": 1}); err != nil {
		t.Errorf("empty schema should accept everything, got %v", err)
	}
}

func TestForAnswerType(t *testing.T) {
	tests := []struct {
		answerType string
		value      any
		wantErr    bool
	}{
		{"string", "hello", false},
		{"string", 1, true},
		{"integer", 42, false},
		{"integer", float64(42), false},
		{"integer", 4.2, true},
		{"year", 1999, false},
		{"decimal", 4.2, false},
		{"decimal", "4.2", true},
		{"fraction", 0.25, false},
		{"boolean", false, false},
		{"boolean", "false", true},
		{"date", "2024-06-01", false},
		{"date", time.Now(), false},
		{"date", "yesterday", true},
		{"duration", "1h30m", false},
		{"duration", 90, false},
		{"duration", "soon", true},
		{"list.string", []any{"a", "b"}, false},
		{"list.string", []any{"a", 1}, true},
		{"list.integer", "1", true},
	}

	for _, tt := range tests {
		t.Run(tt.answerType, func(t *testing.T) {
			typ, err := ForAnswerType(tt.answerType)
			if err != nil {
				t.Fatalf("ForAnswerType(%q) error = %v", tt.answerType, err)
			}
			err = typ.Validate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}

	if _, err := ForAnswerType("colour"); err == nil {
		t.Error("ForAnswerType should reject unknown types")
	}
}

func TestForDataType(t *testing.T) {
	typ, err := ForDataType(domain.InputDataType{Collection: domain.CollectionMultipleChoice, Base: domain.BaseTypeInteger})
	if err != nil {
		t.Fatal(err)
	}
	if typ.Name() != "list.integer" {
		t.Errorf("Name() = %q, want list.integer", typ.Name())
	}

	typ, err = ForDataType(domain.InputDataType{Collection: domain.CollectionSingleChoice, Base: domain.BaseTypeString})
	if err != nil {
		t.Fatal(err)
	}
	if typ.Name() != "string" {
		t.Errorf("Name() = %q, want string", typ.Name())
	}
}

func TestOneOf(t *testing.T) {
	typ := OneOf("instruction", "form")
	if err := typ.Validate("form"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := typ.Validate("quiz"); err == nil {
		t.Error("expected error for value outside the set")
	}
}

func TestPrefixAndJoin(t *testing.T) {
	inner := Validate(Schema{"id": String()}, map[string]any{})
	err := Join(Prefix("steps.2", inner), nil, errors.New("plain"))

	errs := ValidationErrors(err)
	if len(errs) != 2 {
		t.Fatalf("Join() = %d errors, want 2", len(errs))
	}
	var ve *ValidationError
	if !errors.As(errs[0], &ve) || ve.Key != "steps.2.id" {
		t.Errorf("prefixed key = %v, want steps.2.id", errs[0])
	}

	single := Prefix("fields.0", ValidateValue("value", Integer(), "x"))
	if !errors.As(single, &ve) || ve.Key != "fields.0.value" {
		t.Errorf("prefixed single error = %v", single)
	}

	if Join(nil, nil) != nil {
		t.Error("Join of nils should be nil")
	}
}
