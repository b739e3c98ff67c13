package runtime

import (
	"log/slog"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
)

// Option configures the Navigator.
type Option func(*Navigator)

// WithRules appends conditional rules. Rules are consulted in registration order.
func WithRules(rules ...ports.ConditionalRule) Option {
	return func(n *Navigator) {
		n.rules = append(n.rules, rules...)
	}
}

// WithProgressMarkers switches progress reporting to marker counting,
// overriding the markers declared on the task.
func WithProgressMarkers(ids ...string) Option {
	return func(n *Navigator) {
		n.markers = ids
	}
}

// WithLogger sets the logger used for navigation decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Navigator) {
		n.logger = logger
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(n *Navigator) {
		n.hooks = hooks
	}
}
