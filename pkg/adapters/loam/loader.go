package loam

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/stepflow/internal/logging"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
	"github.com/aretw0/stepflow/pkg/schema"
	"github.com/aretw0/stepflow/pkg/taskdef"
)

// Repository is the typed Loam repository the loader reads. Frontmatter is kept
// as a generic map and decoded with the task definition rules.
type Repository = loam.TypedRepository[map[string]any]

// Loader adapts a Loam repository of step documents to ports.TaskLoader.
//
// Each document is one step: its frontmatter holds the step definition and
// its body becomes the step text. Steps are ordered by their "order" key, then
// by identifier. A step naming a "section" is nested in that section document.
type Loader struct {
	Repo *Repository

	taskID  string
	title   string
	markers []string
	logger  *slog.Logger
}

var (
	_ ports.TaskLoader = (*Loader)(nil)
	_ ports.Watchable  = (*Loader)(nil)
)

// Option configures a Loader.
type Option func(*Loader)

// WithTaskID sets the identifier of the loaded task. Defaults to "task".
func WithTaskID(id string) Option {
	return func(l *Loader) { l.taskID = id }
}

// WithTitle sets the title of the loaded task.
func WithTitle(title string) Option {
	return func(l *Loader) { l.title = title }
}

// WithProgressMarkers sets the progress markers of the loaded task.
func WithProgressMarkers(ids ...string) Option {
	return func(l *Loader) { l.markers = ids }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// New creates a new Loam adapter.
func New(repo *Repository, opts ...Option) *Loader {
	l := &Loader{
		Repo:   repo,
		taskID: "task",
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open initializes a read-only Loam repository at dir and wraps it.
func Open(dir string, opts ...Option) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// The loader never writes, so Loam's sandboxing is disabled.
	repo, err := loam.Init(absPath, loam.WithReadOnly(true))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	opts = append([]Option{WithTaskID(filepath.Base(absPath))}, opts...)
	return New(loam.NewTypedRepository[map[string]any](repo), opts...), nil
}

// LoadTask implements ports.TaskLoader.
func (l *Loader) LoadTask(ctx context.Context) (*domain.Task, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	var errs []error
	seen := make(map[string]string)
	steps := make([]taskdef.StepDef, 0, len(docs))

	for _, doc := range docs {
		// Use the ID from metadata if available, otherwise filename ID
		data := maps.Clone(doc.Data)
		if data == nil {
			data = make(map[string]any)
		}
		if _, ok := data["id"]; !ok {
			data["id"] = doc.ID
		}

		sd, err := taskdef.DecodeStep(data)
		if err != nil {
			errs = append(errs, schema.Prefix(doc.ID, err))
			continue
		}
		sd.ID = trimExtension(sd.ID)
		if sd.Text == "" {
			sd.Text = strings.TrimSpace(doc.Content)
		}

		if existing, ok := seen[sd.ID]; ok {
			errs = append(errs, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", sd.ID, existing, doc.ID))
			continue
		}
		seen[sd.ID] = doc.ID
		steps = append(steps, sd)
	}
	if err := schema.Join(errs...); err != nil {
		return nil, &taskdef.DefinitionError{Source: l.taskID, Err: err}
	}

	tree, err := assemble(steps)
	if err != nil {
		return nil, &taskdef.DefinitionError{Source: l.taskID, Err: err}
	}

	def, err := taskdef.Build(taskdef.TaskDef{
		ID:              l.taskID,
		Title:           l.title,
		ProgressMarkers: l.markers,
		Steps:           tree,
	})
	if err != nil {
		var de *taskdef.DefinitionError
		if errors.As(err, &de) {
			de.Source = l.taskID
		}
		return nil, err
	}
	l.logger.Debug("task loaded from loam", "task", l.taskID, "documents", len(docs), "steps", len(def.Task.Flatten()))
	return def.Task, nil
}

// assemble nests documents under their sections and orders every level.
func assemble(steps []taskdef.StepDef) ([]taskdef.StepDef, error) {
	byID := make(map[string]taskdef.StepDef, len(steps))
	children := make(map[string][]taskdef.StepDef)
	for _, sd := range steps {
		byID[sd.ID] = sd
		children[sd.Section] = append(children[sd.Section], sd)
	}
	for parent := range children {
		if parent == "" {
			continue
		}
		sec, ok := byID[parent]
		if !ok {
			return nil, fmt.Errorf("section %q is not defined", parent)
		}
		if sec.Type != "" && sec.Type != domain.StepTypeSection {
			return nil, fmt.Errorf("step %q is used as a section but has type %q", parent, sec.Type)
		}
	}

	reached := make(map[string]bool, len(steps))
	var build func(parent string, visiting map[string]bool) ([]taskdef.StepDef, error)
	build = func(parent string, visiting map[string]bool) ([]taskdef.StepDef, error) {
		level := slices.Clone(children[parent])
		slices.SortFunc(level, func(a, b taskdef.StepDef) int {
			return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
		})
		for i, sd := range level {
			reached[sd.ID] = true
			if len(children[sd.ID]) == 0 {
				continue
			}
			if visiting[sd.ID] {
				return nil, fmt.Errorf("section cycle detected at %q", sd.ID)
			}
			visiting[sd.ID] = true
			nested, err := build(sd.ID, visiting)
			delete(visiting, sd.ID)
			if err != nil {
				return nil, err
			}
			level[i].Type = domain.StepTypeSection
			level[i].Steps = append(level[i].Steps, nested...)
		}
		return level, nil
	}
	tree, err := build("", make(map[string]bool))
	if err != nil {
		return nil, err
	}
	// Sections nested in each other without a root are never reached.
	if len(reached) != len(steps) {
		return nil, fmt.Errorf("section cycle detected: %d of %d steps unreachable", len(steps)-len(reached), len(steps))
	}
	return tree, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				l.logger.Debug("task document changed", "id", evt.ID)
				// Coalesce bursts: one pending signal is enough to trigger a reload.
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch, nil
}
