package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/schema"
)

var (
	yes = map[string]bool{"y": true, "yes": true, "true": true, "1": true}
	no  = map[string]bool{"n": true, "no": true, "false": true, "0": true}
)

// ParseAnswer converts typed input into an answer for field. Choice fields
// take 1-based choice numbers. The result is checked against the field's
// data type.
func ParseAnswer(field domain.InputField, line string) (any, error) {
	var (
		value any
		err   error
	)
	if len(field.Choices) > 0 {
		value, err = pickValues(field, line)
	} else {
		value, err = parseBase(field.DataType.Base, line)
	}
	if err != nil {
		return nil, err
	}

	typ, err := schema.ForDataType(field.DataType)
	if err != nil {
		return nil, err
	}
	if err := typ.Validate(value); err != nil {
		return nil, err
	}
	return value, nil
}

func pickValues(field domain.InputField, line string) (any, error) {
	picks, err := parsePicks(line, len(field.Choices))
	if err != nil {
		return nil, err
	}
	if field.DataType.Collection != domain.CollectionMultipleChoice {
		if len(picks) != 1 {
			return nil, fmt.Errorf("pick a single choice")
		}
		return field.Choices[picks[0]].Value, nil
	}
	values := make([]any, 0, len(picks))
	for _, i := range picks {
		values = append(values, field.Choices[i].Value)
	}
	return values, nil
}

func parseBase(base, line string) (any, error) {
	switch base {
	case domain.BaseTypeInteger, domain.BaseTypeYear:
		n, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("expected a whole number, got %q", line)
		}
		return n, nil
	case domain.BaseTypeDecimal, domain.BaseTypeFraction:
		f, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", line)
		}
		return f, nil
	case domain.BaseTypeBoolean:
		switch l := strings.ToLower(line); {
		case yes[l]:
			return true, nil
		case no[l]:
			return false, nil
		}
		return nil, fmt.Errorf("answer yes or no")
	default:
		return line, nil
	}
}
