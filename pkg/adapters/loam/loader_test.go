package loam

import (
	"context"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/stepflow/internal/testutils"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports/tests"
	"github.com/aretw0/stepflow/pkg/taskdef"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, files map[string]string, opts ...Option) *Loader {
	t.Helper()
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, files)
	return New(loam.NewTypedRepository[map[string]any](repo), opts...)
}

var surveyFiles = map[string]string{
	"intro.md": `---
order: 1
title: Welcome
---
This survey takes **five** minutes.`,
	"habits.md": `---
order: 2
type: section
title: Habits
---`,
	"smoking.md": `---
section: habits
order: 1
fields:
  - id: smokes
    data_type: boolean
    rules:
      - {matching: false, skip_to: done}
---`,
	"packs.md": `---
section: habits
order: 2
fields:
  - id: per_day
    data_type: integer
---
How many packs per day?`,
	"done.md": `---
order: 3
type: completion
---
Thank you.`,
}

func TestLoader_Contract(t *testing.T) {
	loader := seed(t, surveyFiles)
	tests.TaskLoaderContractTest(t, loader, []string{"intro", "smoking", "packs", "done"})
}

func TestLoader_BuildsSteps(t *testing.T) {
	loader := seed(t, surveyFiles, WithTaskID("survey"), WithTitle("Survey"), WithProgressMarkers("smoking"))

	task, err := loader.LoadTask(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "survey", task.ID)
	assert.Equal(t, "Survey", task.Title)
	assert.Equal(t, []string{"smoking"}, task.ProgressMarkers)

	intro := task.Steps[0].(*domain.UIStep)
	assert.Equal(t, "Welcome", intro.Title)
	assert.Equal(t, "This survey takes **five** minutes.", intro.Text)

	habits, ok := task.Steps[1].(*domain.Section)
	require.True(t, ok)
	require.Len(t, habits.Children, 2)

	smoking := habits.Children[0].(*domain.UIStep)
	require.Len(t, smoking.Fields, 1)
	assert.Equal(t, "done", smoking.Fields[0].SurveyRules[0].SkipToIdentifier)

	packs := habits.Children[1].(*domain.UIStep)
	assert.Equal(t, "How many packs per day?", packs.Text)
	assert.Equal(t, domain.StepTypeForm, packs.Type)
}

func TestLoader_OrdersByIdentifierWithoutOrder(t *testing.T) {
	loader := seed(t, map[string]string{
		"b.md": "---\ntitle: B\n---",
		"a.md": "---\ntitle: A\n---",
		"c.md": "---\norder: -1\n---",
	})
	task, err := loader.LoadTask(context.Background())
	require.NoError(t, err)

	var ids []string
	for _, s := range task.Flatten() {
		ids = append(ids, s.Identifier())
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name: "collision",
			files: map[string]string{
				"foo.md":   "---\nid: foo\n---\nExplicit ID",
				"other.md": "---\nid: foo.md\n---\nSame ID",
			},
			want: "collision detected",
		},
		{
			name:  "undefined section",
			files: map[string]string{"a.md": "---\nsection: ghost\n---"},
			want:  `section "ghost" is not defined`,
		},
		{
			name: "leaf used as section",
			files: map[string]string{
				"a.md": "---\ntype: form\nfields: [{id: f, data_type: string}]\n---",
				"b.md": "---\nsection: a\n---",
			},
			want: "used as a section",
		},
		{
			name: "section cycle",
			files: map[string]string{
				"root.md": "---\ntitle: Root\n---",
				"x.md":    "---\nsection: y\n---",
				"y.md":    "---\nsection: x\n---",
			},
			want: "section cycle detected",
		},
		{
			name:  "invalid field",
			files: map[string]string{"a.md": "---\nfields: [{id: f, data_type: colour}]\n---"},
			want:  "data_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seed(t, tt.files).LoadTask(context.Background())
			require.Error(t, err)
			var de *taskdef.DefinitionError
			assert.ErrorAs(t, err, &de)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTrimExtension(t *testing.T) {
	assert.Equal(t, "start", trimExtension("start.md"))
	assert.Equal(t, "nested/choice", trimExtension("nested/choice.json"))
	assert.Equal(t, "plain", trimExtension("plain"))
}
