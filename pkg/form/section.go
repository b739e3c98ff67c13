package form

import (
	"strconv"

	"github.com/aretw0/stepflow/pkg/domain"
)

// Section is a run of rows displayed together.
type Section struct {
	Identifier string        `json:"identifier"`
	Index      int           `json:"index"`
	Title      string        `json:"title,omitempty"`
	Subtitle   string        `json:"subtitle,omitempty"`
	Items      []AdapterItem `json:"-"`
	// SingleFormItem sections hold exactly one group and never take another.
	SingleFormItem bool `json:"singleFormItem"`
}

// RowCount is the number of rows in the section.
func (s *Section) RowCount() int { return len(s.Items) }

// SectionBuilder lays out the item groups of a step. The adapter positions
// each returned group at the section and row holding its first item.
type SectionBuilder interface {
	BuildSections(step domain.FormStep) ([]*Section, []ItemGroup)
}

// DefaultSectionBuilder groups fields into shared sections, giving list
// choice fields that start a form a section of their own.
type DefaultSectionBuilder struct{}

var _ SectionBuilder = DefaultSectionBuilder{}

type sectionDraft struct {
	section *Section
	groups  []ItemGroup
}

func (d *sectionDraft) rowCount() int {
	n := 0
	for _, g := range d.groups {
		n += len(g.Items())
	}
	return n
}

func (b DefaultSectionBuilder) BuildSections(step domain.FormStep) ([]*Section, []ItemGroup) {
	var drafts []*sectionDraft
	for _, field := range step.InputFields() {
		var last *sectionDraft
		if len(drafts) > 0 {
			last = drafts[len(drafts)-1]
		}

		rowIndex := 0
		if last != nil && !last.section.SingleFormItem {
			rowIndex = last.rowCount()
		}

		group := b.NewItemGroup(field, rowIndex)
		exclusive := group.FieldInfo().RequiresExclusiveSection

		if !exclusive && last != nil && !last.section.SingleFormItem {
			group.place(last.section.Index, rowIndex)
			last.groups = append(last.groups, group)
			continue
		}

		idx := len(drafts)
		group.place(idx, 0)
		sec := &Section{Identifier: strconv.Itoa(idx), Index: idx, SingleFormItem: exclusive}
		if cg, ok := group.(*ChoiceItemGroup); ok && len(cg.ChoiceItems()) > 1 {
			sec.Title = field.Prompt
			sec.Subtitle = field.PromptDetail
		}
		drafts = append(drafts, &sectionDraft{section: sec, groups: []ItemGroup{group}})
	}

	sections := make([]*Section, 0, len(drafts))
	var groups []ItemGroup
	for _, d := range drafts {
		for _, g := range d.groups {
			d.section.Items = append(d.section.Items, g.Items()...)
		}
		sections = append(sections, d.section)
		groups = append(groups, d.groups...)
	}
	return sections, groups
}

// NewItemGroup creates the group for one field starting at beginningRowIndex.
func (b DefaultSectionBuilder) NewItemGroup(field domain.InputField, beginningRowIndex int) ItemGroup {
	hint := PreferredUIHint(field)
	if len(field.Choices) > 0 || field.DataType.IsCollection() {
		return NewChoiceItemGroup(beginningRowIndex, field, hint, "")
	}
	info := FieldInfo{UIHint: hint, AnswerType: field.DataType.AnswerResultType()}
	items := []AdapterItem{NewInputFieldItem(field, hint, beginningRowIndex)}
	return NewInputFieldItemGroup(field, info, items, GroupInfo{BeginningRowIndex: beginningRowIndex})
}

// PreferredUIHint returns the field's own hint, else the first standard hint
// of its data type, else a text field.
func PreferredUIHint(field domain.InputField) string {
	if field.UIHint != "" {
		return field.UIHint
	}
	if hints := field.DataType.StandardUIHints(); len(hints) > 0 {
		return hints[0]
	}
	return domain.UIHintTextField
}
