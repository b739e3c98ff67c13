package stepflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/aretw0/stepflow/internal/logging"
	"github.com/aretw0/stepflow/internal/runtime"
	loamAdapter "github.com/aretw0/stepflow/pkg/adapters/loam"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/form"
	"github.com/aretw0/stepflow/pkg/ports"
	"github.com/aretw0/stepflow/pkg/registry"
	"github.com/aretw0/stepflow/pkg/taskdef"
)

// definitionLoader is implemented by loaders whose tasks declare rules inline.
type definitionLoader interface {
	LoadDefinition(ctx context.Context) (*taskdef.Definition, error)
}

// Flow is the high-level entry point of the library. It loads a task, resolves
// its rules and answers navigation questions about it. A Flow holds no run
// state: every call takes the run's TaskResult.
type Flow struct {
	loader   ports.TaskLoader
	registry *registry.Registry
	extra    []ports.ConditionalRule
	markers  []string
	hooks    domain.LifecycleHooks
	logger   *slog.Logger

	mu  sync.RWMutex
	nav *runtime.Navigator
}

var _ ports.StepNavigator = (*Flow)(nil)

// Option defines a functional option for configuring a Flow.
type Option func(*Flow)

// WithRegistry resolves the rule names a task lists.
func WithRegistry(r *registry.Registry) Option {
	return func(f *Flow) {
		f.registry = r
	}
}

// WithRules appends rules consulted after the task's own rules.
func WithRules(rules ...ports.ConditionalRule) Option {
	return func(f *Flow) {
		f.extra = append(f.extra, rules...)
	}
}

// WithProgressMarkers overrides the progress markers declared by the task.
func WithProgressMarkers(ids ...string) Option {
	return func(f *Flow) {
		f.markers = ids
	}
}

// WithLifecycleHooks registers observability hooks for navigation and answers.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(f *Flow) {
		f.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Flow) {
		f.logger = logger
	}
}

// New loads the task from loader and prepares its navigator.
func New(ctx context.Context, loader ports.TaskLoader, opts ...Option) (*Flow, error) {
	if loader == nil {
		return nil, errors.New("loader is required")
	}
	f := &Flow{
		loader:   loader,
		registry: registry.NewRegistry(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.Reload(ctx); err != nil {
		return nil, err
	}
	return f, nil
}

// Open loads a task from path: a directory is read as a Loam repository of
// step documents, anything else as a YAML or JSON task file.
func Open(ctx context.Context, path string, opts ...Option) (*Flow, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open task: %w", err)
	}

	f := &Flow{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(f)
	}

	var loader ports.TaskLoader
	if info.IsDir() {
		loader, err = loamAdapter.Open(path, loamAdapter.WithLogger(f.logger))
		if err != nil {
			return nil, err
		}
	} else {
		loader = taskdef.NewLoader(path, taskdef.WithLogger(f.logger))
	}
	return New(ctx, loader, opts...)
}

// Reload reads the task again and swaps the navigator. On failure the
// previous task stays active.
func (f *Flow) Reload(ctx context.Context) error {
	var (
		task   *domain.Task
		inline []ports.ConditionalRule
	)
	if dl, ok := f.loader.(definitionLoader); ok {
		def, err := dl.LoadDefinition(ctx)
		if err != nil {
			return err
		}
		task, inline = def.Task, def.Rules
	} else {
		var err error
		if task, err = f.loader.LoadTask(ctx); err != nil {
			return err
		}
	}

	named, err := f.registry.Resolve(task.Rules)
	if err != nil {
		return fmt.Errorf("task %s: %w", task.ID, err)
	}
	rules := make([]ports.ConditionalRule, 0, len(named)+len(inline)+len(f.extra))
	rules = append(rules, named...)
	rules = append(rules, inline...)
	rules = append(rules, f.extra...)

	navOpts := []runtime.Option{
		runtime.WithRules(rules...),
		runtime.WithLogger(f.logger.With("task", task.ID)),
		runtime.WithHooks(f.hooks),
	}
	if f.markers != nil {
		navOpts = append(navOpts, runtime.WithProgressMarkers(f.markers...))
	}
	nav, err := runtime.NewNavigator(task, navOpts...)
	if err != nil {
		return fmt.Errorf("task %s: %w", task.ID, err)
	}

	f.mu.Lock()
	f.nav = nav
	f.mu.Unlock()
	f.logger.Debug("task ready", "task", task.ID, "steps", len(nav.Steps()), "rules", len(rules))
	return nil
}

func (f *Flow) navigator() *runtime.Navigator {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.nav
}

// Task returns the loaded task.
func (f *Flow) Task() *domain.Task {
	return f.navigator().Task()
}

// Steps returns the leaf steps of the task.
func (f *Flow) Steps() []domain.Step {
	return f.navigator().Steps()
}

// GetStep resolves an identifier to a step.
func (f *Flow) GetStep(identifier string) (domain.Step, bool) {
	return f.navigator().GetStep(identifier)
}

// GetNextStep returns the step after current, or the first step when current
// is nil. A nil step with a nil error means the task is finished.
func (f *Flow) GetNextStep(current domain.Step, tr *domain.TaskResult) (domain.Step, error) {
	return f.navigator().GetNextStep(current, tr)
}

// GetPreviousStep returns the structural predecessor of current.
func (f *Flow) GetPreviousStep(current domain.Step, tr *domain.TaskResult) (domain.Step, error) {
	return f.navigator().GetPreviousStep(current, tr)
}

// GetProgress reports how far along step is. A nil Progress means unknown.
func (f *Flow) GetProgress(step domain.Step, tr *domain.TaskResult) (*domain.Progress, error) {
	return f.navigator().GetProgress(step, tr)
}

// Start begins a new run of the task.
func (f *Flow) Start() *domain.TaskResult {
	return domain.NewTaskResult(f.Task().ID)
}

// Form builds the answer model for step, seeded with the step's previous
// result in tr so returning to a step shows its earlier answers.
func (f *Flow) Form(step domain.Step, tr *domain.TaskResult, opts ...form.Option) *form.DataAdapter {
	base := []form.Option{form.WithLogger(f.logger), form.WithHooks(f.hooks)}
	if tr != nil {
		if prior, ok := tr.Result(step.Identifier()); ok {
			base = append(base, form.WithInitialResult(prior))
		}
	}
	return form.NewDataAdapter(step, append(base, opts...)...)
}

// Watch signals when the task source changes. Callers typically Reload on
// each signal.
func (f *Flow) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w, ok := f.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, errors.New("current loader does not support watching")
}

// Loader returns the underlying task loader.
func (f *Flow) Loader() ports.TaskLoader {
	return f.loader
}
