package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/internal/logging"
	"github.com/aretw0/stepflow/internal/presentation/tui"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/form"
	"github.com/aretw0/stepflow/pkg/ports"
	"github.com/aretw0/stepflow/pkg/session"
)

// Words recognized at any prompt.
const (
	CommandBack = "back"
	CommandQuit = "quit"
)

// ErrQuit is returned when the participant leaves before the task ends.
// The run stays saved and can be resumed.
var ErrQuit = errors.New("run interrupted")

// errBack unwinds a step when the participant asks to go back.
var errBack = errors.New("back")

// Interactive runs a task in a terminal, one step at a time. Every completed
// step is saved through the session manager, so a run with the same ID
// resumes where it stopped.
type Interactive struct {
	flow     *stepflow.Flow
	sessions *session.Manager
	view     *tui.Renderer
	in       *bufio.Scanner
	now      func() time.Time
	logger   *slog.Logger
}

// InteractiveOption configures an Interactive run.
type InteractiveOption func(*Interactive)

// WithClock sets the time source for result timestamps.
func WithClock(now func() time.Time) InteractiveOption {
	return func(it *Interactive) { it.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) InteractiveOption {
	return func(it *Interactive) { it.logger = logger }
}

// NewInteractive creates a terminal run reading answers from in.
func NewInteractive(flow *stepflow.Flow, sessions *session.Manager, view *tui.Renderer, in io.Reader, opts ...InteractiveOption) *Interactive {
	it := &Interactive{
		flow:     flow,
		sessions: sessions,
		view:     view,
		in:       bufio.NewScanner(in),
		now:      time.Now,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// Run drives runID until the task ends, the input is exhausted or ctx is
// cancelled. It returns the final TaskResult.
func (it *Interactive) Run(ctx context.Context, runID string) (*domain.TaskResult, error) {
	taskID := it.flow.Task().ID
	tr, err := it.sessions.LoadOrStart(ctx, runID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	step, err := ResumePoint(it.flow, tr)
	if err != nil {
		return tr, err
	}
	if visited := tr.VisitedIdentifiers(); len(visited) > 0 && step != nil {
		it.view.Message("Resuming run %s at '%s'", runID, step.Identifier())
	}

	for step != nil {
		if err := ctx.Err(); err != nil {
			return tr, err
		}

		p, err := it.flow.GetProgress(step, tr)
		if err != nil {
			return tr, err
		}
		it.view.Step(step, p)

		res, err := it.ask(step, tr)
		switch {
		case errors.Is(err, errBack):
			prev, perr := it.flow.GetPreviousStep(step, tr)
			if perr != nil {
				return tr, perr
			}
			if prev == nil {
				it.view.Message("Cannot go back from here")
				continue
			}
			step = prev
			continue
		case err != nil:
			return tr, err
		}

		tr, err = it.sessions.Update(ctx, runID, taskID, func(stored *domain.TaskResult) error {
			stored.AddStepHistory(res)
			return nil
		})
		if err != nil {
			return tr, fmt.Errorf("failed to save step %s: %w", step.Identifier(), err)
		}
		it.logger.Debug("step recorded", "run", runID, "step", step.Identifier())

		if step, err = it.flow.GetNextStep(step, tr); err != nil {
			return tr, err
		}
	}

	it.view.Message("Task complete")
	return tr, nil
}

// ResumePoint returns the step after the last one recorded in tr, or the
// first step of a fresh run. A recorded step that no longer exists restarts
// the task.
func ResumePoint(nav ports.StepNavigator, tr *domain.TaskResult) (domain.Step, error) {
	visited := tr.VisitedIdentifiers()
	if len(visited) == 0 {
		return nav.GetNextStep(nil, tr)
	}
	last, ok := nav.GetStep(visited[len(visited)-1])
	if !ok {
		return nav.GetNextStep(nil, tr)
	}
	return nav.GetNextStep(last, tr)
}

// ask collects the result of one step.
func (it *Interactive) ask(step domain.Step, tr *domain.TaskResult) (domain.Result, error) {
	start := it.now()
	fs, ok := step.(domain.FormStep)
	if !ok || len(fs.InputFields()) == 0 {
		it.view.Message("Press Enter to continue")
		if _, err := it.readLine(); err != nil {
			return nil, err
		}
		return domain.NewStepResult(step.Identifier(), start, it.now()), nil
	}

	adapter := it.flow.Form(step, tr, form.WithClock(it.now))
	for _, g := range adapter.ItemGroups() {
		for {
			it.view.Field(g.Field(), g.Answer())
			line, err := it.readLine()
			if err != nil {
				return nil, err
			}
			if err := it.answer(adapter, g, line); err != nil {
				it.view.Error(err)
				continue
			}
			break
		}
	}
	return adapter.Result(), nil
}

// readLine reads one sanitized line. Lines that fail sanitizing are reported
// and read again.
func (it *Interactive) readLine() (string, error) {
	for {
		it.view.Prompt()
		if !it.in.Scan() {
			if err := it.in.Err(); err != nil {
				return "", err
			}
			return "", ErrQuit
		}
		line, err := SanitizeInput(it.in.Text())
		if err != nil {
			it.view.Error(err)
			continue
		}
		line = strings.TrimSpace(line)
		switch strings.ToLower(line) {
		case CommandBack:
			return "", errBack
		case CommandQuit:
			return "", ErrQuit
		}
		return line, nil
	}
}

// answer applies one line of input to g. An empty line keeps the current
// answer, or leaves an optional field unanswered.
func (it *Interactive) answer(adapter *form.DataAdapter, g form.ItemGroup, line string) error {
	info := g.GroupInfo()
	path := form.IndexPath{Section: info.SectionIndex, Row: info.BeginningRowIndex}
	field := g.Field()

	if line == "" {
		if g.Answer() != nil || field.Optional {
			return nil
		}
		return errors.New("an answer is required")
	}

	if cg, ok := g.(*form.ChoiceItemGroup); ok && len(cg.ChoiceItems()) > 0 {
		picks, err := parsePicks(line, len(cg.ChoiceItems()))
		if err != nil {
			return err
		}
		if cg.SingleSelection && len(picks) > 1 {
			return errors.New("pick a single choice")
		}
		adapter.SaveAnswer(nil, path)
		for _, idx := range picks {
			row := form.IndexPath{Section: info.SectionIndex, Row: info.BeginningRowIndex + idx}
			item := cg.ChoiceItems()[idx]
			if !item.Selected {
				if _, status := adapter.SelectAnswer(item, row); status != form.StatusOK {
					return fmt.Errorf("could not select %q: %s", item.Choice.Text, status)
				}
			}
		}
		return nil
	}

	value, err := ParseAnswer(field, line)
	if err != nil {
		return err
	}
	if status := adapter.SaveAnswer(value, path); status != form.StatusOK {
		return fmt.Errorf("could not save answer: %s", status)
	}
	return nil
}

// parsePicks reads comma or space separated 1-based choice numbers.
func parsePicks(line string, n int) ([]int, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' })
	picks := make([]int, 0, len(fields))
	for _, f := range fields {
		i, err := strconv.Atoi(f)
		if err != nil || i < 1 || i > n {
			return nil, fmt.Errorf("choose a number between 1 and %d", n)
		}
		picks = append(picks, i-1)
	}
	return picks, nil
}
