package dsl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/taskdef"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	b := New("survey").Title("Check-in")

	b.Instruction("intro").
		Title("Welcome").
		Text("Hello, DSL!")

	b.Form("q1").
		Title("Pick one").
		Field("choice", "singleChoice.string").
		Choices("A", "B", "C")

	b.Completion("end").Text("Goodbye!")

	loader, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	task, err := loader.LoadTask(context.Background())
	if err != nil {
		t.Fatalf("LoadTask() failed: %v", err)
	}
	if task.ID != "survey" || task.Title != "Check-in" {
		t.Errorf("unexpected task header %q/%q", task.ID, task.Title)
	}

	leaves := task.Flatten()
	if len(leaves) != 3 {
		t.Fatalf("Expected 3 steps, got %d", len(leaves))
	}

	intro := leaves[0].(*domain.UIStep)
	if intro.Type != domain.StepTypeInstruction || intro.Text != "Hello, DSL!" {
		t.Errorf("unexpected intro step %+v", intro)
	}

	q1 := leaves[1].(*domain.UIStep)
	if len(q1.Fields) != 1 {
		t.Fatalf("Expected 1 field, got %d", len(q1.Fields))
	}
	f := q1.Fields[0]
	if f.DataType.Collection != domain.CollectionSingleChoice || len(f.Choices) != 3 {
		t.Errorf("unexpected field %+v", f)
	}
	if f.Choices[1].Text != "B" || f.Choices[1].Value != "B" {
		t.Errorf("unexpected choice %+v", f.Choices[1])
	}

	if leaves[2].(*domain.UIStep).Type != domain.StepTypeCompletion {
		t.Error("Expected completion step")
	}
}

func TestBuilder_SectionsAndRules(t *testing.T) {
	b := New("health").ProgressMarkers("smoking").Skip("legacy")

	b.Form("consent").NoBack().
		Field("agree", "singleChoice.boolean").
		Choice("Yes", true).
		Choice("No", false).
		SkipTo(false, "exit")

	habits := b.Section("habits").Title("Habits")
	habits.Form("smoking").
		Field("cigarettes", "integer").
		Optional().
		When(domain.OperatorGreaterThan, 10, "counselling")
	habits.Instruction("legacy")
	habits.Instruction("counselling")

	b.Form("diet").
		Field("foods", "multipleChoice.string").
		Choices("fruit", "meat").
		ExclusiveChoice("None", "none")

	b.Branch("diet", "cigarettes", domain.OperatorLessThan, 1, "done")
	b.Completion("done")

	def, err := b.Definition()
	if err != nil {
		t.Fatalf("Definition() failed: %v", err)
	}

	var ids []string
	for _, s := range def.Task.Flatten() {
		ids = append(ids, s.Identifier())
	}
	want := []string{"consent", "smoking", "legacy", "counselling", "diet", "done"}
	if len(ids) != len(want) {
		t.Fatalf("leaves = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("leaf %d = %q, want %q", i, ids[i], want[i])
		}
	}

	sec, ok := def.Task.Steps[1].(*domain.Section)
	if !ok || sec.Title != "Habits" {
		t.Fatalf("Expected Habits section, got %#v", def.Task.Steps[1])
	}
	if len(def.Rules) != 2 {
		t.Errorf("Expected skip list and branch rules, got %d", len(def.Rules))
	}
	if !def.Task.Steps[0].(*domain.UIStep).BackDisabled {
		t.Error("Expected consent to veto back navigation")
	}

	// The field rule routes away from the smoking section's structural successor.
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := domain.NewTaskResult("health")
	tr.AddStepHistory(domain.NewCollectionResult("smoking", at, at).
		AppendInputResult(domain.NewAnswerResult("cigarettes", "integer", 20, at, at)))
	smoking := sec.Children[0].(*domain.UIStep)
	if got := smoking.NextStepIdentifier(tr); got != "counselling" {
		t.Errorf("NextStepIdentifier() = %q, want counselling", got)
	}
}

func TestBuilder_ReusesExistingBuilders(t *testing.T) {
	b := New("t")
	b.Form("q").Field("f", "string").Prompt("first")
	b.Form("q").Field("f", "string").Placeholder("type here")
	b.Section("s").Instruction("a")
	b.Section("s").Instruction("b")

	def, err := b.Definition()
	if err != nil {
		t.Fatal(err)
	}
	q := def.Task.Steps[0].(*domain.UIStep)
	if len(q.Fields) != 1 || q.Fields[0].Prompt != "first" || q.Fields[0].Placeholder != "type here" {
		t.Errorf("unexpected fields %+v", q.Fields)
	}
	if n := len(def.Task.Steps[1].(*domain.Section).Children); n != 2 {
		t.Errorf("Expected 2 section children, got %d", n)
	}
}

func TestBuilder_ValidationErrors(t *testing.T) {
	b := New("t")
	b.Form("q").
		Field("n", "singleChoice.integer").
		Choice("one", "one").
		SkipTo(1, "nowhere")

	_, err := b.Build()
	if err == nil {
		t.Fatal("Build() should fail")
	}
	var de *taskdef.DefinitionError
	if !errors.As(err, &de) {
		t.Fatalf("Expected DefinitionError, got %T", err)
	}
}

func TestBuilder_EmptyTask(t *testing.T) {
	if _, err := New("empty").Build(); err == nil {
		t.Error("Build() of a task without steps should fail")
	}
}
