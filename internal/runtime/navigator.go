package runtime

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/stepflow/internal/logging"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
)

// Navigator is the rule-driven step navigator. It holds no per-run state:
// every decision is a function of the task, the registered rules and the
// TaskResult passed in.
type Navigator struct {
	task    *domain.Task
	leaves  []domain.Step
	leafPos map[string]int
	index   map[string]domain.Step
	rules   []ports.ConditionalRule
	markers []string
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
}

var _ ports.StepNavigator = (*Navigator)(nil)

// decision is the outcome of one next-step evaluation.
type decision struct {
	step       domain.Step
	source     string
	influenced bool
	skipped    []string
}

// NewNavigator indexes the task and validates identifiers.
func NewNavigator(task *domain.Task, opts ...Option) (*Navigator, error) {
	if task == nil {
		return nil, fmt.Errorf("nil task")
	}
	n := &Navigator{
		task:    task,
		leafPos: make(map[string]int),
		index:   make(map[string]domain.Step),
		markers: task.ProgressMarkers,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}

	var dupErr error
	domain.Walk(task.Steps, func(s domain.Step) {
		id := s.Identifier()
		if _, exists := n.index[id]; exists && dupErr == nil {
			dupErr = fmt.Errorf("duplicate step identifier %q", id)
		}
		n.index[id] = s
	})
	if dupErr != nil {
		return nil, dupErr
	}

	n.leaves = task.Flatten()
	for i, s := range n.leaves {
		n.leafPos[s.Identifier()] = i
	}

	for _, m := range n.markers {
		if _, ok := n.index[m]; !ok {
			return nil, &domain.NotFoundError{Identifier: m, Source: "progress-marker"}
		}
	}
	return n, nil
}

// Task returns the task being navigated.
func (n *Navigator) Task() *domain.Task { return n.task }

// Steps returns the leaf steps of the task in structural order.
func (n *Navigator) Steps() []domain.Step {
	out := make([]domain.Step, len(n.leaves))
	copy(out, n.leaves)
	return out
}

// GetStep resolves an identifier, sections included.
func (n *Navigator) GetStep(identifier string) (domain.Step, bool) {
	s, ok := n.index[identifier]
	return s, ok
}

// GetNextStep returns the step following current, or the first step when current is nil.
// (nil, nil) signals the end of the task.
func (n *Navigator) GetNextStep(current domain.Step, tr *domain.TaskResult) (domain.Step, error) {
	view := snapshot(tr)
	d, err := n.next(current, view)
	if err != nil {
		n.logger.Error("navigation failed", "from", identifierOf(current), "err", err)
		return nil, err
	}

	for _, id := range d.skipped {
		n.hooks.EmitSkip(n.event(domain.EventStepSkipped, view, identifierOf(current), id, ""))
	}
	if d.step == nil {
		n.logger.Debug("task finished", "from", identifierOf(current), "source", d.source)
		n.hooks.EmitNavigate(n.event(domain.EventTaskEnd, view, identifierOf(current), "", d.source))
		return nil, nil
	}
	n.logger.Debug("next step", "from", identifierOf(current), "to", d.step.Identifier(), "source", d.source)
	n.hooks.EmitNavigate(n.event(domain.EventStepNext, view, identifierOf(current), d.step.Identifier(), d.source))
	return d.step, nil
}

// GetPreviousStep returns the structural predecessor of current. Forward skip
// logic is not consulted. A step that vetoes back navigation yields nil.
func (n *Navigator) GetPreviousStep(current domain.Step, tr *domain.TaskResult) (domain.Step, error) {
	if current == nil {
		return nil, nil
	}
	view := snapshot(tr)
	if back, ok := current.(domain.BackStepStrategy); ok && !back.IsBackAllowed(view) {
		n.logger.Debug("back navigation vetoed", "step", current.Identifier())
		return nil, nil
	}
	pos, ok := n.position(current, view)
	if !ok {
		return nil, &domain.NotFoundError{Identifier: current.Identifier(), Source: domain.SourceStructure}
	}
	if pos == 0 {
		return nil, nil
	}
	prev := n.leaves[pos-1]
	n.hooks.EmitNavigate(n.event(domain.EventStepPrevious, tr, current.Identifier(), prev.Identifier(), domain.SourceStructure))
	return prev, nil
}

// next picks a candidate from, in order: the skip-to override on the current
// step's result, the step's own strategy, the conditional rules and finally
// the structural successor. Skip checks and replacements apply to whichever
// candidate wins.
func (n *Navigator) next(current domain.Step, tr *domain.TaskResult) (decision, error) {
	id, source := n.nextIdentifier(current, tr)
	step, err := n.target(current, id, source, tr)
	if err != nil {
		return decision{}, err
	}
	d := decision{step: step, source: source, influenced: source != domain.SourceStructure}

	if err := n.applySkips(&d, tr); err != nil {
		return decision{}, err
	}
	if d.step != nil {
		if repl, ok := n.replacement(d.step, tr); ok {
			d.step = repl
			d.source = domain.SourceReplacement
			d.influenced = true
		}
	}
	return d, nil
}

func (n *Navigator) nextIdentifier(current domain.Step, tr *domain.TaskResult) (string, string) {
	if current == nil {
		return "", domain.SourceStructure
	}
	if res, ok := tr.Result(current.Identifier()); ok {
		if nav, ok := res.(domain.NavigationResult); ok && nav.SkipTo() != "" {
			return nav.SkipTo(), domain.SourceSkipTo
		}
	}
	if strategy, ok := current.(domain.NextStepStrategy); ok {
		if id := strategy.NextStepIdentifier(tr); id != "" {
			return id, domain.SourceStrategy
		}
	}
	for _, rule := range n.rules {
		if id := rule.NextStepIdentifier(current, tr); id != "" {
			return id, domain.SourceRule
		}
	}
	return "", domain.SourceStructure
}

// target resolves an identifier produced by source into a leaf step.
func (n *Navigator) target(current domain.Step, id, source string, tr *domain.TaskResult) (domain.Step, error) {
	switch id {
	case "", domain.NextStepIdentifier:
		return n.structuralNext(current, tr)
	case domain.ExitIdentifier:
		return nil, nil
	}
	step, ok := n.resolve(id)
	if !ok {
		return nil, &domain.NotFoundError{Identifier: id, Source: source, From: identifierOf(current)}
	}
	return step, nil
}

// applySkips passes over candidates that ask to be skipped, either through
// their own strategy or through a rule's SkipToStep.
func (n *Navigator) applySkips(d *decision, tr *domain.TaskResult) error {
	for i := 0; d.step != nil; i++ {
		if i > len(n.leaves) {
			return fmt.Errorf("%w: skipping from %q", domain.ErrNavigationLoop, d.step.Identifier())
		}
		skipTo, source := n.skipDecision(d.step, tr)
		if skipTo == "" {
			return nil
		}
		d.skipped = append(d.skipped, d.step.Identifier())
		d.influenced = true
		d.source = source

		next, err := n.target(d.step, skipTo, source, tr)
		if err != nil {
			return err
		}
		d.step = next
	}
	return nil
}

func (n *Navigator) skipDecision(step domain.Step, tr *domain.TaskResult) (string, string) {
	if s, ok := step.(domain.SkipStepStrategy); ok && s.ShouldSkip(tr) {
		return domain.NextStepIdentifier, domain.SourceStrategy
	}
	for _, rule := range n.rules {
		if id := rule.SkipToStep(step, tr); id != "" {
			return id, domain.SourceRule
		}
	}
	return "", ""
}

func (n *Navigator) replacement(step domain.Step, tr *domain.TaskResult) (domain.Step, bool) {
	for _, rule := range n.rules {
		r, ok := rule.(ports.ReplacementRule)
		if !ok {
			continue
		}
		repl, ok := r.ReplacementStep(step, tr)
		if !ok || repl == nil {
			continue
		}
		if id := repl.Identifier(); id != step.Identifier() {
			if _, taken := n.index[id]; taken {
				n.logger.Warn("replacement reuses another step's identifier", "step", step.Identifier(), "replacement", id)
				continue
			}
		}
		return repl, true
	}
	return nil, false
}

// structuralNext returns the pre-order leaf after current.
func (n *Navigator) structuralNext(current domain.Step, tr *domain.TaskResult) (domain.Step, error) {
	if current == nil {
		if len(n.leaves) == 0 {
			return nil, nil
		}
		return n.leaves[0], nil
	}
	pos, ok := n.position(current, tr)
	if !ok {
		// A section: continue after its last leaf.
		sec, isSection := n.index[current.Identifier()].(domain.SectionStep)
		if !isSection {
			return nil, &domain.NotFoundError{Identifier: current.Identifier(), Source: domain.SourceStructure}
		}
		inner := domain.FlattenSteps(sec.Steps())
		if len(inner) == 0 {
			return nil, &domain.NotFoundError{Identifier: current.Identifier(), Source: domain.SourceStructure}
		}
		pos = n.leafPos[inner[len(inner)-1].Identifier()]
	}
	if pos+1 >= len(n.leaves) {
		return nil, nil
	}
	return n.leaves[pos+1], nil
}

// position finds the leaf index of step. A replacement step with an
// identifier of its own takes the position of the leaf it stands in for.
func (n *Navigator) position(step domain.Step, tr *domain.TaskResult) (int, bool) {
	if pos, ok := n.leafPos[step.Identifier()]; ok {
		return pos, true
	}
	if _, known := n.index[step.Identifier()]; known {
		return 0, false
	}
	for i, leaf := range n.leaves {
		if repl, ok := n.replacement(leaf, tr); ok && repl.Identifier() == step.Identifier() {
			return i, true
		}
	}
	return 0, false
}

// resolve looks up an identifier and descends into sections to their first leaf.
func (n *Navigator) resolve(id string) (domain.Step, bool) {
	s, ok := n.index[id]
	if !ok {
		return nil, false
	}
	if sec, ok := s.(domain.SectionStep); ok {
		inner := domain.FlattenSteps(sec.Steps())
		if len(inner) == 0 {
			return nil, false
		}
		return inner[0], true
	}
	return s, true
}

func (n *Navigator) event(typ domain.EventType, tr *domain.TaskResult, from, to, source string) *domain.NavigationEvent {
	ev := &domain.NavigationEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ},
		From:      from,
		To:        to,
		Source:    source,
	}
	if tr != nil {
		ev.RunID = tr.RunID
	}
	return ev
}

// snapshot hands rules a private copy so they cannot alter the caller's history.
func snapshot(tr *domain.TaskResult) *domain.TaskResult {
	if tr == nil {
		return &domain.TaskResult{}
	}
	return tr.Clone()
}

func identifierOf(s domain.Step) string {
	if s == nil {
		return ""
	}
	return s.Identifier()
}
