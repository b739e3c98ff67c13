package runtime_test

import (
	"testing"

	"github.com/aretw0/stepflow/internal/runtime"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress_LinearPath(t *testing.T) {
	nav := mustNavigator(t, linearTask("intro", "q1", "q2"))
	tr := domain.NewTaskResult("t")

	p, err := nav.GetProgress(&domain.UIStep{ID: "q2"}, tr)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, domain.Progress{Current: 2, Total: 3, IsEstimated: false}, *p)

	p, err = nav.GetProgress(&domain.UIStep{ID: "intro"}, tr)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Current)
}

func TestProgress_PrunedBranchIsExcluded(t *testing.T) {
	task := &domain.Task{ID: "t", Steps: []domain.Step{
		&domain.UIStep{ID: "smoker", Fields: []domain.InputField{{
			Identifier:  "smokes",
			DataType:    domain.InputDataType{Base: domain.BaseTypeBoolean},
			SurveyRules: []domain.SurveyRule{{MatchingAnswer: false, SkipToIdentifier: "diet"}},
		}}},
		&domain.UIStep{ID: "packs"},
		&domain.UIStep{ID: "years"},
		&domain.UIStep{ID: "diet"},
		&domain.UIStep{ID: "done"},
	}}
	nav := mustNavigator(t, task)

	tr := domain.NewTaskResult("t")
	tr.AddStepHistory(domain.NewCollectionResult("smoker", at, at).
		AppendInputResult(domain.NewAnswerResult("smokes", "boolean", false, at, at)))

	p, err := nav.GetProgress(&domain.UIStep{ID: "diet"}, tr)
	require.NoError(t, err)
	assert.Equal(t, domain.Progress{Current: 1, Total: 3, IsEstimated: true}, *p)
}

func TestProgress_RuleSkipMarksEstimated(t *testing.T) {
	nav := mustNavigator(t, linearTask("a", "b", "c"), runtime.WithRules(rules.SkipSteps("b")))
	p, err := nav.GetProgress(&domain.UIStep{ID: "c"}, domain.NewTaskResult("t"))
	require.NoError(t, err)
	assert.Equal(t, domain.Progress{Current: 1, Total: 2, IsEstimated: true}, *p)
}

func TestProgress_OffPathFallsBackToHistory(t *testing.T) {
	nav := mustNavigator(t, linearTask("a", "b", "c"), runtime.WithRules(rules.SkipSteps("b")))
	tr := domain.NewTaskResult("t")
	tr.AddStepHistory(domain.NewStepResult("a", at, at))

	p, err := nav.GetProgress(&domain.UIStep{ID: "b"}, tr)
	require.NoError(t, err)
	assert.Equal(t, domain.Progress{Current: 1, Total: 3, IsEstimated: true}, *p)
}

func TestProgress_Markers(t *testing.T) {
	task := linearTask("intro", "m1", "x", "m2", "m3", "outro")
	task.ProgressMarkers = []string{"m1", "m2", "m3"}
	nav := mustNavigator(t, task)

	history := func(ids ...string) *domain.TaskResult {
		tr := domain.NewTaskResult("t")
		for _, id := range ids {
			tr.AddStepHistory(domain.NewStepResult(id, at, at))
		}
		return tr
	}

	tests := []struct {
		name string
		step string
		tr   *domain.TaskResult
		want *domain.Progress
	}{
		{"before any marker", "intro", history(), nil},
		{"on first marker", "m1", history("intro"), &domain.Progress{Current: 0, Total: 3}},
		{"between markers", "x", history("intro", "m1"), &domain.Progress{Current: 1, Total: 3}},
		{"on last marker", "m3", history("intro", "m1", "x", "m2"), &domain.Progress{Current: 2, Total: 3}},
		{"past last marker", "outro", history("intro", "m1", "x", "m2", "m3"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := nav.GetProgress(&domain.UIStep{ID: tt.step}, tt.tr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestProgress_NilStep(t *testing.T) {
	nav := mustNavigator(t, linearTask("a"))
	p, err := nav.GetProgress(nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, p)
}
