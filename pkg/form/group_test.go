package form_test

import (
	"testing"
	"time"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func choiceField(id, collection string, choices ...domain.Choice) domain.InputField {
	return domain.InputField{
		Identifier: id,
		DataType:   domain.InputDataType{Collection: collection, Base: domain.BaseTypeString},
		Choices:    choices,
	}
}

func selected(g *form.ChoiceItemGroup) []string {
	var ids []string
	for _, c := range g.ChoiceItems() {
		if c.Selected {
			ids = append(ids, c.Identifier())
		}
	}
	return ids
}

func TestChoiceItemGroup_SingleSelection(t *testing.T) {
	field := choiceField("q", domain.CollectionSingleChoice,
		domain.Choice{Text: "A", Value: "A"},
		domain.Choice{Text: "B", Value: "B"},
		domain.Choice{Text: "C", Value: "C"},
	)
	g := form.NewChoiceItemGroup(0, field, domain.UIHintList, "")
	require.True(t, g.SingleSelection)
	items := g.ChoiceItems()

	res, status := g.Select(items[0], form.IndexPath{Row: 0})
	require.Equal(t, form.StatusOK, status)
	assert.True(t, res.Selected)
	assert.False(t, res.ReloadSection, "nothing else was selected")
	assert.Equal(t, "A", g.Answer())

	res, status = g.Select(items[1], form.IndexPath{Row: 1})
	require.Equal(t, form.StatusOK, status)
	assert.True(t, res.Selected)
	assert.True(t, res.ReloadSection)
	assert.Equal(t, []string{"B"}, selected(g))
	assert.Equal(t, "B", g.Answer())

	res, _ = g.Select(items[1], form.IndexPath{Row: 1})
	assert.False(t, res.Selected)
	assert.Nil(t, g.Answer())
}

func TestChoiceItemGroup_ExclusiveClearing(t *testing.T) {
	field := choiceField("symptoms", domain.CollectionMultipleChoice,
		domain.Choice{Text: "Cough", Value: "cough"},
		domain.Choice{Text: "Fever", Value: "fever"},
		domain.Choice{Text: "None", Value: "none", Exclusive: true},
	)
	g := form.NewChoiceItemGroup(0, field, domain.UIHintList, "")
	require.False(t, g.SingleSelection)
	items := g.ChoiceItems()

	_, _ = g.Select(items[2], form.IndexPath{Row: 2})
	assert.Equal(t, []string{"none"}, selected(g))

	res, _ := g.Select(items[0], form.IndexPath{Row: 0})
	assert.True(t, res.ReloadSection)
	assert.Equal(t, []string{"cough"}, selected(g), "exclusive choice must be cleared")

	res, _ = g.Select(items[1], form.IndexPath{Row: 1})
	assert.False(t, res.ReloadSection)
	assert.Equal(t, []string{"cough", "fever"}, selected(g))
	assert.Equal(t, []any{"cough", "fever"}, g.Answer())

	res, _ = g.Select(items[2], form.IndexPath{Row: 2})
	assert.True(t, res.ReloadSection)
	assert.Equal(t, []string{"none"}, selected(g))
	assert.Equal(t, []any{"none"}, g.Answer())
}

func TestChoiceItemGroup_ValuelessChoiceIsCleared(t *testing.T) {
	field := choiceField("diet", domain.CollectionMultipleChoice,
		domain.Choice{Text: "Vegan", Value: "vegan"},
		domain.Choice{Text: "Prefer not to say"},
	)
	g := form.NewChoiceItemGroup(0, field, domain.UIHintCheckbox, "")
	items := g.ChoiceItems()
	assert.Equal(t, "1", items[1].Identifier(), "valueless choices are keyed by row")

	res, _ := g.Select(items[1], form.IndexPath{Row: 1})
	assert.True(t, res.Selected)
	assert.Nil(t, g.Answer(), "valueless choice contributes nothing")

	res, _ = g.Select(items[0], form.IndexPath{Row: 0})
	assert.True(t, res.ReloadSection)
	assert.Equal(t, []string{"vegan"}, selected(g))
}

func TestChoiceItemGroup_StalePathFallsBackToItem(t *testing.T) {
	field := choiceField("q", domain.CollectionSingleChoice,
		domain.Choice{Value: "x"}, domain.Choice{Value: "y"})
	g := form.NewChoiceItemGroup(0, field, domain.UIHintList, "")
	items := g.ChoiceItems()

	res, status := g.Select(items[1], form.IndexPath{Row: 0})
	require.Equal(t, form.StatusOK, status)
	assert.True(t, res.Selected)
	assert.Equal(t, "y", g.Answer())

	_, status = g.Select(nil, form.IndexPath{Row: 9})
	assert.Equal(t, form.StatusNotFound, status)
}

func TestChoiceItemGroup_PickerHintHasSingleRow(t *testing.T) {
	field := choiceField("q", domain.CollectionSingleChoice, domain.Choice{Value: "x"}, domain.Choice{Value: "y"})
	g := form.NewChoiceItemGroup(0, field, domain.UIHintPicker, "")
	assert.Empty(t, g.ChoiceItems())
	assert.Len(t, g.Items(), 1)
	assert.False(t, g.FieldInfo().RequiresExclusiveSection)

	g.SetAnswer("y")
	assert.Equal(t, "y", g.Answer())
}

func TestChoiceItemGroup_RequiresExclusiveSection(t *testing.T) {
	field := choiceField("q", domain.CollectionSingleChoice, domain.Choice{Value: "x"})
	assert.True(t, form.NewChoiceItemGroup(0, field, domain.UIHintList, "").FieldInfo().RequiresExclusiveSection)
	assert.False(t, form.NewChoiceItemGroup(3, field, domain.UIHintList, "").FieldInfo().RequiresExclusiveSection)
}

func TestInputFieldItemGroup_OptionalityCombination(t *testing.T) {
	optional := domain.InputField{Identifier: "a", Optional: true, DataType: domain.InputDataType{Base: "string"}}
	required := domain.InputField{Identifier: "b", Optional: false, DataType: domain.InputDataType{Base: "string"}}

	g := form.NewInputFieldItemGroup(optional, form.FieldInfo{AnswerType: "string"}, []form.AdapterItem{
		form.NewInputFieldItem(optional, domain.UIHintTextField, 0),
		form.NewInputFieldItem(required, domain.UIHintTextField, 1),
	}, form.GroupInfo{})

	assert.False(t, g.IsAnswerValid())
	g.SetAnswer("anything")
	assert.True(t, g.IsAnswerValid())

	allOptional := form.NewInputFieldItemGroup(optional, form.FieldInfo{AnswerType: "string"}, []form.AdapterItem{
		form.NewInputFieldItem(optional, domain.UIHintTextField, 0),
	}, form.GroupInfo{})
	assert.True(t, allOptional.IsAnswerValid())
	assert.NotEmpty(t, allOptional.GroupInfo().UUID)
}

func TestItemGroup_SetAnswerFromResult(t *testing.T) {
	field := domain.InputField{Identifier: "age", DataType: domain.InputDataType{Base: domain.BaseTypeInteger}}
	g := form.NewInputFieldItemGroup(field, form.FieldInfo{AnswerType: "integer"},
		[]form.AdapterItem{form.NewInputFieldItem(field, domain.UIHintTextField, 0)}, form.GroupInfo{})
	g.SetAnswer(30)

	tests := []struct {
		name   string
		res    domain.Result
		status form.Status
		want   any
	}{
		{"not an answer", domain.NewStepResult("age", at, at), form.StatusTypeMismatch, 30},
		{"wrong type", domain.NewAnswerResult("age", "string", "thirty", at, at), form.StatusTypeMismatch, 30},
		{"matching", domain.NewAnswerResult("age", "integer", 41, at, at), form.StatusOK, 41},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, g.SetAnswerFromResult(tt.res))
			assert.Equal(t, tt.want, g.Answer())
		})
	}
}

func TestChoiceItemGroup_SetAnswerSyncsSelection(t *testing.T) {
	field := choiceField("colors", domain.CollectionMultipleChoice,
		domain.Choice{Value: "red"}, domain.Choice{Value: "green"}, domain.Choice{Value: "blue"})
	g := form.NewChoiceItemGroup(0, field, domain.UIHintList, "")

	status := g.SetAnswerFromResult(domain.NewAnswerResult("colors", "list.string", []any{"blue", "red", "purple"}, at, at))
	require.Equal(t, form.StatusOK, status)
	assert.Equal(t, []string{"red", "blue"}, selected(g))
	assert.Equal(t, []any{"red", "blue"}, g.Answer(), "unknown values are dropped")
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ok", form.StatusOK.String())
	assert.Equal(t, "not_found", form.StatusNotFound.String())
	assert.Equal(t, "type_mismatch", form.StatusTypeMismatch.String())
}

func TestChoiceItemGroup_SingleSelectionKeepsFirstMatch(t *testing.T) {
	field := choiceField("q", domain.CollectionSingleChoice,
		domain.Choice{Text: "A", Value: "A"},
		domain.Choice{Text: "B", Value: "B"},
		domain.Choice{Text: "C", Value: "C"},
	)
	g := form.NewChoiceItemGroup(0, field, domain.UIHintList, "")

	g.SetAnswer([]any{"C", "B"})
	assert.Equal(t, []string{"B"}, selected(g))
	assert.Equal(t, "B", g.Answer())

	g.SetAnswer([]string{"A", "C"})
	assert.Equal(t, []string{"A"}, selected(g))
	assert.Equal(t, "A", g.Answer())
}

func TestChoiceItemGroup_SetAnswerAcceptsTypedLists(t *testing.T) {
	field := choiceField("colors", domain.CollectionMultipleChoice,
		domain.Choice{Text: "Red", Value: "red"},
		domain.Choice{Text: "Blue", Value: "blue"},
		domain.Choice{Text: "Green", Value: "green"},
	)
	g := form.NewChoiceItemGroup(0, field, domain.UIHintCheckbox, "")

	g.SetAnswer([]string{"green", "red"})
	assert.Equal(t, []string{"red", "green"}, selected(g))
	assert.Equal(t, []any{"red", "green"}, g.Answer())
}

func TestChoiceItemGroup_ReloadOnlyWhenSiblingsCleared(t *testing.T) {
	field := choiceField("symptoms", domain.CollectionMultipleChoice,
		domain.Choice{Text: "Cough", Value: "cough"},
		domain.Choice{Text: "None", Value: "none", Exclusive: true},
	)
	g := form.NewChoiceItemGroup(0, field, domain.UIHintList, "")
	items := g.ChoiceItems()

	res, _ := g.Select(items[1], form.IndexPath{Row: 1})
	assert.True(t, res.Selected)
	assert.False(t, res.ReloadSection, "exclusive choice with no other selection")

	res, _ = g.Select(items[1], form.IndexPath{Row: 1})
	assert.False(t, res.Selected)
	assert.False(t, res.ReloadSection)
}
