package domain

import "reflect"

// Survey rule operators.
const (
	OperatorSkip               = "de"
	OperatorEqual              = "eq"
	OperatorNotEqual           = "ne"
	OperatorLessThan           = "lt"
	OperatorGreaterThan        = "gt"
	OperatorLessThanOrEqual    = "le"
	OperatorGreaterThanOrEqual = "ge"
)

// SurveyRule redirects navigation based on the answer of the field it belongs to.
type SurveyRule struct {
	// Operator defaults to OperatorEqual.
	Operator       string `json:"ruleOperator,omitempty" yaml:"ruleOperator,omitempty" mapstructure:"ruleOperator"`
	MatchingAnswer any    `json:"matchingAnswer,omitempty" yaml:"matchingAnswer,omitempty" mapstructure:"matchingAnswer"`
	// SkipToIdentifier defaults to ExitIdentifier when the rule matches.
	SkipToIdentifier string `json:"skipToIdentifier,omitempty" yaml:"skipToIdentifier,omitempty" mapstructure:"skipToIdentifier"`
}

// Evaluate returns the identifier to navigate to, or "" when the rule does not match.
// A nil result is treated as "no answer".
func (r SurveyRule) Evaluate(res Result) string {
	var answer any
	if ar, ok := res.(AnswerResult); ok {
		answer = ar.Answer
	}
	if !r.matches(answer) {
		return ""
	}
	if r.SkipToIdentifier == "" {
		return ExitIdentifier
	}
	return r.SkipToIdentifier
}

func (r SurveyRule) matches(answer any) bool {
	op := r.Operator
	if op == "" {
		op = OperatorEqual
	}
	if op == OperatorSkip {
		return answer == nil
	}
	if answer == nil {
		return false
	}
	switch op {
	case OperatorEqual:
		return AnswerContains(answer, r.MatchingAnswer)
	case OperatorNotEqual:
		return !AnswerContains(answer, r.MatchingAnswer)
	case OperatorLessThan:
		c, ok := compareValues(answer, r.MatchingAnswer)
		return ok && c < 0
	case OperatorGreaterThan:
		c, ok := compareValues(answer, r.MatchingAnswer)
		return ok && c > 0
	case OperatorLessThanOrEqual:
		c, ok := compareValues(answer, r.MatchingAnswer)
		return ok && c <= 0
	case OperatorGreaterThanOrEqual:
		c, ok := compareValues(answer, r.MatchingAnswer)
		return ok && c >= 0
	}
	return false
}

// AnswerContains compares scalars by value, treating numeric kinds alike.
// List answers of any slice type match when any element does.
func AnswerContains(answer, want any) bool {
	switch list := answer.(type) {
	case nil:
		return valuesEqual(answer, want)
	case []any:
		for _, v := range list {
			if valuesEqual(v, want) {
				return true
			}
		}
		return false
	}
	v := reflect.ValueOf(answer)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return valuesEqual(answer, want)
	}
	for i := range v.Len() {
		if valuesEqual(v.Index(i).Interface(), want) {
			return true
		}
	}
	return false
}

func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

func compareValues(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if !okA || !okB {
		return 0, false
	}
	switch {
	case sa < sb:
		return -1, true
	case sa > sb:
		return 1, true
	}
	return 0, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
