package observability

import (
	"strconv"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stepflow"

// Metrics holds the navigation and answer counters of one task.
type Metrics struct {
	Navigations *prometheus.CounterVec
	Skips       *prometheus.CounterVec
	Completions *prometheus.CounterVec
	Answers     *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg. A nil reg
// leaves them unregistered, which suits tests.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Navigations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "step_navigations_total",
				Help:      "Navigator decisions, labeled by direction, target step and deciding source.",
			},
			[]string{"direction", "step", "source"},
		),
		Skips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "steps_skipped_total",
				Help:      "Steps passed over by skip strategies or rules.",
			},
			[]string{"step"},
		),
		Completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "task_ends_total",
				Help:      "Task runs that reached their end, labeled by the last step.",
			},
			[]string{"step", "source"},
		),
		Answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "answer_changes_total",
				Help:      "Answer changes recorded by form adapters, labeled by validity.",
			},
			[]string{"step", "field", "valid"},
		),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.Navigations, m.Skips, m.Completions, m.Answers} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that update the counters.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNavigate: func(ev *domain.NavigationEvent) {
			switch ev.Type {
			case domain.EventTaskEnd:
				m.Completions.WithLabelValues(ev.From, ev.Source).Inc()
			case domain.EventStepPrevious:
				m.Navigations.WithLabelValues("previous", ev.To, ev.Source).Inc()
			default:
				m.Navigations.WithLabelValues("next", ev.To, ev.Source).Inc()
			}
		},
		OnSkip: func(ev *domain.NavigationEvent) {
			m.Skips.WithLabelValues(ev.To).Inc()
		},
		OnAnswer: func(ev *domain.AnswerEvent) {
			m.Answers.WithLabelValues(ev.StepID, ev.FieldID, strconv.FormatBool(ev.Valid)).Inc()
		},
	}
}
