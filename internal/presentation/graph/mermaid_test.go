package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/stepflow/internal/presentation/graph"
	"github.com/aretw0/stepflow/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		task     *domain.Task
		overlay  *graph.Overlay
		contains []string
		excludes []string
	}{
		{
			name: "Step Shapes",
			task: &domain.Task{ID: "t", Steps: []domain.Step{
				&domain.UIStep{ID: "intro", Type: domain.StepTypeInstruction},
				&domain.UIStep{ID: "walk", Type: domain.StepTypeActive},
				&domain.UIStep{ID: "q1", Type: domain.StepTypeForm},
				&domain.UIStep{ID: "done", Type: domain.StepTypeCompletion},
			}},
			contains: []string{
				`intro["intro"]`,
				`walk[["walk"]]`,
				`q1[/"q1"/]`,
				`done(("done"))`,
				"intro --> walk",
				"q1 --> done",
			},
			excludes: []string{"done -->", "exit"},
		},
		{
			name: "Sections Become Subgraphs",
			task: &domain.Task{ID: "t", Steps: []domain.Step{
				&domain.Section{ID: "habits", Title: "Habits", Children: []domain.Step{
					&domain.UIStep{ID: "smoking"},
				}},
				&domain.UIStep{ID: "end"},
			}},
			contains: []string{
				`subgraph habits["Habits"]`,
				`        smoking["smoking"]`,
				"smoking --> end",
			},
		},
		{
			name: "ID Sanitization",
			task: &domain.Task{ID: "t", Steps: []domain.Step{
				&domain.UIStep{ID: "path/to/file.md"},
				&domain.UIStep{ID: "hyphen-ated", Title: `Say "hi"`},
			}},
			contains: []string{
				`path_to_file_md["path/to/file.md"]`,
				`hyphen_ated["hyphen-ated <br/> Say 'hi'"]`,
			},
		},
		{
			name: "Survey Rules",
			task: &domain.Task{ID: "t", Steps: []domain.Step{
				&domain.UIStep{ID: "consent", Type: domain.StepTypeForm, Fields: []domain.InputField{{
					Identifier: "agree",
					SurveyRules: []domain.SurveyRule{
						{MatchingAnswer: false},
						{Operator: domain.OperatorGreaterThan, MatchingAnswer: 3, SkipToIdentifier: "bye"},
						{Operator: domain.OperatorSkip, SkipToIdentifier: "bye"},
					},
				}}},
				&domain.UIStep{ID: "bye", Type: domain.StepTypeCompletion},
			}},
			contains: []string{
				`consent -. "agree == false" .-> exit`,
				`consent -. "agree > 3" .-> bye`,
				`consent -. "agree skipped" .-> bye`,
				`exit((("exit")))`,
			},
		},
		{
			name: "Overlay",
			task: &domain.Task{ID: "t", Steps: []domain.Step{
				&domain.UIStep{ID: "a"}, &domain.UIStep{ID: "b-1"},
			}},
			overlay: &graph.Overlay{VisitedSteps: []string{"a", "a"}, CurrentStep: "b-1"},
			contains: []string{
				"classDef visited",
				"class a visited;",
				"class b_1 current;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.task, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() = \n%v\nUnexpected substring: %v", got, unwanted)
				}
			}
			if strings.Count(got, "class a visited;") > 1 {
				t.Error("visited steps should be deduplicated")
			}
		})
	}
}

func TestOverlayFor(t *testing.T) {
	tr := domain.NewTaskResult("t")
	tr.AddStepHistory(domain.BaseResult{ID: "a"})
	o := graph.OverlayFor(tr, "b")
	if len(o.VisitedSteps) != 1 || o.CurrentStep != "b" {
		t.Errorf("OverlayFor() = %+v", o)
	}
	if graph.OverlayFor(nil, "x").CurrentStep != "x" {
		t.Error("nil result should still mark the current step")
	}
}
