package observability

import (
	"log/slog"

	"github.com/aretw0/stepflow/pkg/domain"
)

// Combine returns hooks that call every given set in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNavigate: func(ev *domain.NavigationEvent) {
			for _, h := range sets {
				h.EmitNavigate(ev)
			}
		},
		OnSkip: func(ev *domain.NavigationEvent) {
			for _, h := range sets {
				h.EmitSkip(ev)
			}
		},
		OnAnswer: func(ev *domain.AnswerEvent) {
			for _, h := range sets {
				h.EmitAnswer(ev)
			}
		},
	}
}

// LogHooks logs every event at debug level. Answers are not logged, only
// which field changed and whether it is valid.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNavigate: func(ev *domain.NavigationEvent) {
			logger.Debug(string(ev.Type), "run_id", ev.RunID, "from", ev.From, "to", ev.To, "source", ev.Source)
		},
		OnSkip: func(ev *domain.NavigationEvent) {
			logger.Debug(string(ev.Type), "run_id", ev.RunID, "step", ev.To, "source", ev.Source)
		},
		OnAnswer: func(ev *domain.AnswerEvent) {
			logger.Debug(string(ev.Type), "run_id", ev.RunID, "step", ev.StepID, "field", ev.FieldID, "valid", ev.Valid)
		},
	}
}
