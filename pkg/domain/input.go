package domain

import (
	"fmt"
	"strings"
)

// Base answer types.
const (
	BaseTypeBoolean  = "boolean"
	BaseTypeDate     = "date"
	BaseTypeDecimal  = "decimal"
	BaseTypeDuration = "duration"
	BaseTypeFraction = "fraction"
	BaseTypeInteger  = "integer"
	BaseTypeString   = "string"
	BaseTypeYear     = "year"
)

// Collection types wrap a base type.
const (
	CollectionSingleChoice      = "singleChoice"
	CollectionMultipleChoice    = "multipleChoice"
	CollectionMultipleComponent = "multipleComponent"
)

// Standard UI hints.
const (
	UIHintList        = "list"
	UIHintCheckbox    = "checkbox"
	UIHintRadioButton = "radioButton"
	UIHintPicker      = "picker"
	UIHintSlider      = "slider"
	UIHintToggle      = "toggle"
	UIHintTextField   = "textfield"
	UIHintPopover     = "popover"
)

const dataTypeDelimiter = "."

// InputDataType is the declared type of an input field, e.g. "integer" or
// "singleChoice.string".
type InputDataType struct {
	Collection string `json:"collection,omitempty"`
	Base       string `json:"base"`
}

// ParseInputDataType parses the dotted data type notation.
func ParseInputDataType(s string) (InputDataType, error) {
	if s == "" {
		return InputDataType{}, fmt.Errorf("empty data type")
	}
	parts := strings.Split(s, dataTypeDelimiter)
	switch len(parts) {
	case 1:
		if isCollectionType(parts[0]) {
			// A bare collection defaults to string choices.
			return InputDataType{Collection: parts[0], Base: BaseTypeString}, nil
		}
		if !isBaseType(parts[0]) {
			return InputDataType{}, fmt.Errorf("unknown data type %q", s)
		}
		return InputDataType{Base: parts[0]}, nil
	case 2:
		if !isCollectionType(parts[0]) || !isBaseType(parts[1]) {
			return InputDataType{}, fmt.Errorf("unknown data type %q", s)
		}
		return InputDataType{Collection: parts[0], Base: parts[1]}, nil
	default:
		return InputDataType{}, fmt.Errorf("malformed data type %q", s)
	}
}

func (t InputDataType) String() string {
	if t.Collection == "" {
		return t.Base
	}
	return t.Collection + dataTypeDelimiter + t.Base
}

// IsCollection reports whether the type wraps a base type in a collection.
func (t InputDataType) IsCollection() bool { return t.Collection != "" }

// AnswerResultType is the type tag carried by AnswerResults for this data type.
// Multiple choice answers are lists of the base type.
func (t InputDataType) AnswerResultType() string {
	switch t.Collection {
	case CollectionMultipleChoice, CollectionMultipleComponent:
		return "list." + t.Base
	default:
		return t.Base
	}
}

// StandardUIHints returns the hints a renderer may use for the type, preferred first.
func (t InputDataType) StandardUIHints() []string {
	switch t.Collection {
	case CollectionSingleChoice:
		return []string{UIHintList, UIHintRadioButton, UIHintPicker, UIHintSlider}
	case CollectionMultipleChoice:
		return []string{UIHintList, UIHintCheckbox}
	case CollectionMultipleComponent:
		return []string{UIHintPicker, UIHintTextField}
	}
	switch t.Base {
	case BaseTypeBoolean:
		return []string{UIHintToggle, UIHintList, UIHintCheckbox}
	case BaseTypeInteger, BaseTypeDecimal, BaseTypeFraction:
		return []string{UIHintTextField, UIHintSlider, UIHintPicker}
	case BaseTypeDate, BaseTypeYear, BaseTypeDuration:
		return []string{UIHintPicker, UIHintTextField}
	default:
		return []string{UIHintTextField}
	}
}

// IsListSelectionHint reports whether rows of choices are rendered for the hint.
func IsListSelectionHint(hint string) bool {
	switch hint {
	case UIHintList, UIHintCheckbox, UIHintRadioButton:
		return true
	}
	return false
}

func isBaseType(s string) bool {
	switch s {
	case BaseTypeBoolean, BaseTypeDate, BaseTypeDecimal, BaseTypeDuration,
		BaseTypeFraction, BaseTypeInteger, BaseTypeString, BaseTypeYear:
		return true
	}
	return false
}

func isCollectionType(s string) bool {
	switch s {
	case CollectionSingleChoice, CollectionMultipleChoice, CollectionMultipleComponent:
		return true
	}
	return false
}

// InputField is one question or control within a form step.
type InputField struct {
	Identifier   string        `json:"identifier"`
	Prompt       string        `json:"prompt,omitempty"`
	PromptDetail string        `json:"promptDetail,omitempty"`
	Placeholder  string        `json:"placeholder,omitempty"`
	Optional     bool          `json:"optional,omitempty"`
	DataType     InputDataType `json:"dataType"`
	UIHint       string        `json:"uiHint,omitempty"`
	Choices      []Choice      `json:"choices,omitempty"`
	SurveyRules  []SurveyRule  `json:"surveyRules,omitempty"`
}

// Choice is a selectable option of a choice field.
type Choice struct {
	Text   string `json:"text"`
	Detail string `json:"detail,omitempty"`
	// Value is the answer contributed when selected. A nil value contributes
	// nothing and is cleared whenever another choice changes.
	Value     any    `json:"value,omitempty"`
	Exclusive bool   `json:"exclusive,omitempty"`
	Icon      string `json:"icon,omitempty"`
}
