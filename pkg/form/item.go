package form

import "github.com/aretw0/stepflow/pkg/domain"

// AdapterItem is one displayable row of an ItemGroup.
type AdapterItem interface {
	Identifier() string
	RowIndex() int
	UIHint() string
	Field() domain.InputField
	// Answer is the row's contribution to the group answer.
	Answer() any
}

// InputFieldItem is the single row of a text, number or picker field.
type InputFieldItem struct {
	field      domain.InputField
	uiHint     string
	identifier string
	rowIndex   int
}

// NewInputFieldItem creates a row for field.
func NewInputFieldItem(field domain.InputField, uiHint string, rowIndex int) *InputFieldItem {
	return &InputFieldItem{field: field, uiHint: uiHint, identifier: field.Identifier, rowIndex: rowIndex}
}

func (i *InputFieldItem) Identifier() string       { return i.identifier }
func (i *InputFieldItem) RowIndex() int            { return i.rowIndex }
func (i *InputFieldItem) UIHint() string           { return i.uiHint }
func (i *InputFieldItem) Field() domain.InputField { return i.field }

// Answer is always nil: the group stores the answer of a single-row field.
func (i *InputFieldItem) Answer() any { return nil }

// ChoiceItem is one selectable choice row.
type ChoiceItem struct {
	InputFieldItem
	Choice   domain.Choice
	Selected bool
}

// Answer returns the choice value while selected.
func (c *ChoiceItem) Answer() any {
	if c.Selected {
		return c.Choice.Value
	}
	return nil
}
