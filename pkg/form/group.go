package form

import (
	"fmt"
	"strconv"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/google/uuid"
)

// FieldInfo describes how a group's field is rendered and recorded.
type FieldInfo struct {
	UIHint                   string `json:"uiHint"`
	AnswerType               string `json:"answerType"`
	RequiresExclusiveSection bool   `json:"requiresExclusiveSection"`
}

// GroupInfo positions a group within the adapter.
type GroupInfo struct {
	SectionIndex      int    `json:"sectionIndex"`
	BeginningRowIndex int    `json:"beginningRowIndex"`
	UUID              string `json:"uuid"`
}

// ItemGroup is the answer state of one input field.
type ItemGroup interface {
	Identifier() string
	Field() domain.InputField
	FieldInfo() FieldInfo
	GroupInfo() GroupInfo
	Items() []AdapterItem

	Answer() any
	// SetAnswer stores a raw answer. Only optionality is validated at this layer.
	SetAnswer(v any)
	// SetAnswerFromResult rehydrates the group from a prior AnswerResult.
	// The group is left untouched unless StatusOK is returned.
	SetAnswerFromResult(res domain.Result) Status
	IsAnswerValid() bool

	place(section, row int)
}

// InputFieldItemGroup is the ItemGroup of a field rendered as one or more
// rows sharing a single answer.
type InputFieldItemGroup struct {
	field  domain.InputField
	info   FieldInfo
	group  GroupInfo
	items  []AdapterItem
	answer any
}

var _ ItemGroup = (*InputFieldItemGroup)(nil)

// NewInputFieldItemGroup creates a group. A missing UUID is generated.
func NewInputFieldItemGroup(field domain.InputField, info FieldInfo, items []AdapterItem, group GroupInfo) *InputFieldItemGroup {
	if group.UUID == "" {
		group.UUID = uuid.NewString()
	}
	return &InputFieldItemGroup{field: field, info: info, group: group, items: items}
}

func (g *InputFieldItemGroup) Identifier() string       { return g.field.Identifier }
func (g *InputFieldItemGroup) Field() domain.InputField { return g.field }
func (g *InputFieldItemGroup) FieldInfo() FieldInfo     { return g.info }
func (g *InputFieldItemGroup) GroupInfo() GroupInfo     { return g.group }
func (g *InputFieldItemGroup) Items() []AdapterItem     { return g.items }
func (g *InputFieldItemGroup) Answer() any              { return g.answer }
func (g *InputFieldItemGroup) SetAnswer(v any)          { g.answer = v }

func (g *InputFieldItemGroup) place(section, row int) {
	g.group.SectionIndex = section
	g.group.BeginningRowIndex = row
}

// IsAnswerValid reports whether the group may be submitted. The group is
// optional only when its field and every item's field are optional.
func (g *InputFieldItemGroup) IsAnswerValid() bool {
	optional := g.field.Optional
	for _, item := range g.items {
		optional = optional && item.Field().Optional
	}
	return optional || g.answer != nil
}

func (g *InputFieldItemGroup) SetAnswerFromResult(res domain.Result) Status {
	answer, status := g.answerFromResult(res)
	if status != StatusOK {
		return status
	}
	g.SetAnswer(answer)
	return StatusOK
}

func (g *InputFieldItemGroup) answerFromResult(res domain.Result) (any, Status) {
	ar, ok := res.(domain.AnswerResult)
	if !ok || ar.AnswerType != g.info.AnswerType {
		return nil, StatusTypeMismatch
	}
	return ar.Answer, StatusOK
}

// ChoiceItemGroup is the ItemGroup of a choice field rendered as a list of
// selectable rows.
type ChoiceItemGroup struct {
	*InputFieldItemGroup
	SingleSelection bool
	choices         []*ChoiceItem
}

var _ ItemGroup = (*ChoiceItemGroup)(nil)

// NewChoiceItemGroup builds the group for a choice field. Rows are only
// created when uiHint is a list selection hint; otherwise the choices are
// expected to be presented by a picker in a single row.
func NewChoiceItemGroup(beginningRowIndex int, field domain.InputField, uiHint, answerType string) *ChoiceItemGroup {
	single := true
	var choices []*ChoiceItem
	if domain.IsListSelectionHint(uiHint) {
		if field.DataType.IsCollection() {
			single = field.DataType.Collection == domain.CollectionSingleChoice
		}
		for i, choice := range field.Choices {
			row := beginningRowIndex + i
			id := strconv.Itoa(row)
			if choice.Value != nil {
				id = fmt.Sprint(choice.Value)
			}
			choices = append(choices, &ChoiceItem{
				InputFieldItem: InputFieldItem{field: field, uiHint: uiHint, identifier: id, rowIndex: row},
				Choice:         choice,
			})
		}
	}
	if answerType == "" {
		answerType = field.DataType.AnswerResultType()
	}

	var items []AdapterItem
	for _, c := range choices {
		items = append(items, c)
	}
	if len(items) == 0 {
		items = []AdapterItem{NewInputFieldItem(field, uiHint, beginningRowIndex)}
	}

	info := FieldInfo{
		UIHint:                   uiHint,
		AnswerType:               answerType,
		RequiresExclusiveSection: beginningRowIndex == 0 && len(choices) > 0,
	}
	return &ChoiceItemGroup{
		InputFieldItemGroup: NewInputFieldItemGroup(field, info, items, GroupInfo{BeginningRowIndex: beginningRowIndex}),
		SingleSelection:     single,
		choices:             choices,
	}
}

// ChoiceItems returns the selectable rows.
func (g *ChoiceItemGroup) ChoiceItems() []*ChoiceItem { return g.choices }

// SetAnswer stores the answer and selects the rows whose values it contains.
// Values that match no choice are dropped. A single selection group keeps
// only the first matching row.
func (g *ChoiceItemGroup) SetAnswer(v any) {
	if len(g.choices) == 0 {
		g.InputFieldItemGroup.SetAnswer(v)
		return
	}
	matched := false
	for _, c := range g.choices {
		c.Selected = v != nil && c.Choice.Value != nil && domain.AnswerContains(v, c.Choice.Value)
		if g.SingleSelection && c.Selected {
			c.Selected = !matched
			matched = true
		}
	}
	g.answer = g.selectedAnswer()
}

func (g *ChoiceItemGroup) SetAnswerFromResult(res domain.Result) Status {
	answer, status := g.answerFromResult(res)
	if status != StatusOK {
		return status
	}
	g.SetAnswer(answer)
	return StatusOK
}

// Select toggles item, the row at path, and updates the siblings: every other
// row is cleared when the group is single selection or an exclusive choice is
// involved; exclusive and valueless rows are always cleared.
func (g *ChoiceItemGroup) Select(item AdapterItem, path IndexPath) (SelectResult, Status) {
	idx := g.indexOf(item, path)
	if idx < 0 {
		return SelectResult{}, StatusNotFound
	}
	target := g.choices[idx]

	deselectOthers := g.SingleSelection || target.Choice.Exclusive
	for i, c := range g.choices {
		if i != idx && c.Selected && c.Choice.Exclusive {
			deselectOthers = true
		}
	}

	target.Selected = !target.Selected

	cleared := false
	for i, c := range g.choices {
		if i == idx {
			continue
		}
		if deselectOthers || c.Choice.Exclusive || c.Choice.Value == nil {
			if c.Selected {
				cleared = true
			}
			c.Selected = false
		}
	}

	g.answer = g.selectedAnswer()
	return SelectResult{Selected: target.Selected, ReloadSection: cleared}, StatusOK
}

// indexOf finds the target row, preferring the index path and falling back
// to the item itself when the path is stale.
func (g *ChoiceItemGroup) indexOf(item AdapterItem, path IndexPath) int {
	idx := path.Row - g.group.BeginningRowIndex
	if idx >= 0 && idx < len(g.choices) && (item == nil || AdapterItem(g.choices[idx]) == item) {
		return idx
	}
	for i, c := range g.choices {
		if item != nil && AdapterItem(c) == item {
			return i
		}
	}
	return -1
}

func (g *ChoiceItemGroup) selectedAnswer() any {
	var values []any
	for _, c := range g.choices {
		if c.Selected && c.Choice.Value != nil {
			values = append(values, c.Choice.Value)
		}
	}
	if len(values) == 0 {
		return nil
	}
	if g.SingleSelection {
		return values[0]
	}
	return values
}
