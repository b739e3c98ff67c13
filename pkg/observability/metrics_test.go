package observability_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue sums every series of the named family.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		var total float64
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	return 0
}

func navigation(typ domain.EventType, from, to, source string) *domain.NavigationEvent {
	return &domain.NavigationEvent{EventBase: domain.EventBase{Type: typ}, From: from, To: to, Source: source}
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	hooks := m.Hooks()
	hooks.EmitNavigate(navigation(domain.EventStepNext, "", "intro", domain.SourceStructure))
	hooks.EmitNavigate(navigation(domain.EventStepNext, "intro", "q1", domain.SourceRule))
	hooks.EmitNavigate(navigation(domain.EventStepPrevious, "q1", "intro", domain.SourceStructure))
	hooks.EmitSkip(navigation(domain.EventStepSkipped, "intro", "legacy", ""))
	hooks.EmitNavigate(navigation(domain.EventTaskEnd, "q1", "", domain.SourceSkipTo))
	hooks.EmitAnswer(&domain.AnswerEvent{StepID: "q1", FieldID: "choice", Valid: true})

	assert.Equal(t, 3.0, counterValue(t, reg, "stepflow_step_navigations_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "stepflow_steps_skipped_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "stepflow_task_ends_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "stepflow_answer_changes_total"))
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)

	_, err = observability.NewMetrics(nil)
	assert.NoError(t, err)
}

func TestCombine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var seen []string
	counting := domain.LifecycleHooks{
		OnNavigate: func(ev *domain.NavigationEvent) { seen = append(seen, ev.To) },
	}

	hooks := observability.Combine(counting, observability.LogHooks(logger))
	hooks.EmitNavigate(navigation(domain.EventStepNext, "intro", "q1", domain.SourceStructure))
	hooks.EmitSkip(navigation(domain.EventStepSkipped, "q1", "q2", ""))
	hooks.EmitAnswer(&domain.AnswerEvent{StepID: "q1", FieldID: "secret", Answer: "hunter2"})

	assert.Equal(t, []string{"q1"}, seen)
	assert.Contains(t, buf.String(), "step_next")
	assert.Contains(t, buf.String(), "step_skipped")
	assert.Contains(t, buf.String(), "field=secret")
	assert.NotContains(t, buf.String(), "hunter2")
}
