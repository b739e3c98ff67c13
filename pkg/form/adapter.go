package form

import (
	"log/slog"
	"time"

	"github.com/aretw0/stepflow/internal/logging"
	"github.com/aretw0/stepflow/pkg/domain"
)

// Listener is notified whenever a group's computed answer changes.
type Listener interface {
	AnswerChanged(group ItemGroup)
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(group ItemGroup)

func (f ListenerFunc) AnswerChanged(group ItemGroup) { f(group) }

// Option configures a DataAdapter.
type Option func(*DataAdapter)

// WithSectionBuilder replaces the default section layout.
func WithSectionBuilder(b SectionBuilder) Option {
	return func(a *DataAdapter) { a.builder = b }
}

// WithInitialResult seeds the form from a prior result of the step. A bare
// AnswerResult is treated as a collection holding that one answer.
func WithInitialResult(res domain.Result) Option {
	return func(a *DataAdapter) { a.initial = res }
}

// WithListener registers the answer change listener.
func WithListener(l Listener) Option {
	return func(a *DataAdapter) { a.listener = l }
}

// WithLogger sets the logger used for rejected operations.
func WithLogger(logger *slog.Logger) Option {
	return func(a *DataAdapter) { a.logger = logger }
}

// WithHooks registers observability callbacks for answer changes.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(a *DataAdapter) { a.hooks = hooks }
}

// WithClock overrides time.Now for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *DataAdapter) { a.now = now }
}

// DataAdapter is the answer model of one displayed form step.
type DataAdapter struct {
	step     domain.Step
	sections []*Section
	groups   []ItemGroup
	result   domain.CollectionResult

	builder  SectionBuilder
	initial  domain.Result
	listener Listener
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	now      func() time.Time
}

// NewDataAdapter lays out the step's fields and rehydrates answers from the
// initial result, if any. Steps without input fields produce an empty adapter.
func NewDataAdapter(step domain.Step, opts ...Option) *DataAdapter {
	a := &DataAdapter{
		step:    step,
		builder: DefaultSectionBuilder{},
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	started := a.now()
	a.result = domain.NewCollectionResult(step.Identifier(), started, started)
	switch r := a.initial.(type) {
	case domain.CollectionResult:
		a.result = r
	case domain.AnswerResult:
		a.result = a.result.AppendInputResult(r)
	}

	if fs, ok := step.(domain.FormStep); ok {
		a.sections, a.groups = a.builder.BuildSections(fs)
		a.placeGroups()
	} else {
		a.logger.Debug("step has no input fields", "step", step.Identifier())
	}
	a.populateInitialResults()
	return a
}

func (a *DataAdapter) placeGroups() {
	for _, g := range a.groups {
		items := g.Items()
		if len(items) == 0 {
			continue
		}
		if path, ok := a.pathOf(items[0]); ok {
			g.place(path.Section, path.Row)
		} else {
			a.logger.Warn("item group has no row in any section", "field", g.Identifier())
		}
	}
}

func (a *DataAdapter) pathOf(item AdapterItem) (IndexPath, bool) {
	for si, sec := range a.sections {
		for ri, it := range sec.Items {
			if it == item {
				return IndexPath{Section: si, Row: ri}, true
			}
		}
	}
	return IndexPath{}, false
}

// Step returns the step the adapter was built for.
func (a *DataAdapter) Step() domain.Step { return a.step }

// Sections returns the laid out sections.
func (a *DataAdapter) Sections() []*Section { return a.sections }

// ItemGroups returns the groups in row order.
func (a *DataAdapter) ItemGroups() []ItemGroup { return a.groups }

// ItemCount is the total number of rows over all sections.
func (a *DataAdapter) ItemCount() int {
	n := 0
	for _, s := range a.sections {
		n += s.RowCount()
	}
	return n
}

// IndexPath converts a flat row index into a (section, row) pair.
// Indexes beyond the last row do not resolve.
func (a *DataAdapter) IndexPath(flat int) (IndexPath, bool) {
	if flat < 0 {
		a.logger.Debug("negative flat index", "index", flat)
		return IndexPath{}, false
	}
	sum := 0
	for i, s := range a.sections {
		next := sum + s.RowCount()
		if next > flat {
			return IndexPath{Section: i, Row: flat - sum}, true
		}
		sum = next
	}
	a.logger.Debug("flat index out of range", "index", flat, "rows", sum)
	return IndexPath{}, false
}

// FlatIndex converts an index path into a flat row index.
func (a *DataAdapter) FlatIndex(path IndexPath) (int, bool) {
	if !a.inBounds(path) {
		a.logger.Debug("index path out of range", "section", path.Section, "row", path.Row)
		return 0, false
	}
	flat := 0
	for i := 0; i < path.Section; i++ {
		flat += a.sections[i].RowCount()
	}
	return flat + path.Row, true
}

// Item returns the row at path.
func (a *DataAdapter) Item(path IndexPath) (AdapterItem, bool) {
	if !a.inBounds(path) {
		a.logger.Debug("index path out of range", "section", path.Section, "row", path.Row)
		return nil, false
	}
	return a.sections[path.Section].Items[path.Row], true
}

// ItemAt returns the row at a flat index.
func (a *DataAdapter) ItemAt(flat int) (AdapterItem, bool) {
	path, ok := a.IndexPath(flat)
	if !ok {
		return nil, false
	}
	return a.Item(path)
}

// ItemGroupAt returns the group owning the row at path.
func (a *DataAdapter) ItemGroupAt(path IndexPath) (ItemGroup, bool) {
	for _, g := range a.groups {
		info := g.GroupInfo()
		if info.SectionIndex == path.Section &&
			path.Row >= info.BeginningRowIndex &&
			path.Row < info.BeginningRowIndex+len(g.Items()) {
			return g, true
		}
	}
	return nil, false
}

// ItemGroup returns the group of the input field with the given identifier.
func (a *DataAdapter) ItemGroup(identifier string) (ItemGroup, bool) {
	for _, g := range a.groups {
		if g.Identifier() == identifier {
			return g, true
		}
	}
	return nil, false
}

// AllAnswersValid reports whether every group may be submitted.
func (a *DataAdapter) AllAnswersValid() bool {
	for _, g := range a.groups {
		if !g.IsAnswerValid() {
			return false
		}
	}
	return true
}

// SaveAnswer stores a raw answer on the group at path. A nil answer clears it.
func (a *DataAdapter) SaveAnswer(answer any, path IndexPath) Status {
	g, ok := a.ItemGroupAt(path)
	if !ok {
		a.logger.Warn("no item group to save answer", "section", path.Section, "row", path.Row)
		return StatusNotFound
	}
	g.SetAnswer(answer)
	a.answerDidChange(g)
	return StatusOK
}

// SelectAnswer toggles a choice row.
func (a *DataAdapter) SelectAnswer(item AdapterItem, path IndexPath) (SelectResult, Status) {
	g, ok := a.ItemGroupAt(path)
	if !ok {
		a.logger.Warn("no item group to select answer", "section", path.Section, "row", path.Row)
		return SelectResult{}, StatusNotFound
	}
	cg, ok := g.(*ChoiceItemGroup)
	if !ok {
		a.logger.Warn("select on a non-choice group", "field", g.Identifier())
		return SelectResult{}, StatusTypeMismatch
	}
	if _, ok := item.(*ChoiceItem); !ok && item != nil {
		return SelectResult{}, StatusTypeMismatch
	}
	res, status := cg.Select(item, path)
	if status != StatusOK {
		return res, status
	}
	a.answerDidChange(cg)
	return res, StatusOK
}

// Result returns the step's collection result with one AnswerResult per
// answered field.
func (a *DataAdapter) Result() domain.CollectionResult {
	r := a.result
	if end := a.now(); end.After(r.End) {
		r.End = end
	}
	return r
}

func (a *DataAdapter) answerResult(g ItemGroup) (domain.AnswerResult, bool) {
	if g.Answer() == nil {
		return domain.AnswerResult{}, false
	}
	now := a.now()
	return domain.NewAnswerResult(g.Identifier(), g.FieldInfo().AnswerType, g.Answer(), now, now), true
}

func (a *DataAdapter) answerDidChange(g ItemGroup) {
	if ar, ok := a.answerResult(g); ok {
		a.result = a.result.AppendInputResult(ar)
	} else {
		a.result = a.result.RemoveInputResult(g.Identifier())
	}
	a.hooks.EmitAnswer(&domain.AnswerEvent{
		EventBase: domain.EventBase{Timestamp: a.now(), Type: domain.EventAnswerChange},
		StepID:    a.step.Identifier(),
		FieldID:   g.Identifier(),
		Answer:    g.Answer(),
		Valid:     g.IsAnswerValid(),
	})
	if a.listener != nil {
		a.listener.AnswerChanged(g)
	}
}

// populateInitialResults rehydrates groups from the initial result and
// notifies the listener once.
func (a *DataAdapter) populateInitialResults() {
	var changed ItemGroup
	for _, res := range a.result.InputResults {
		g, ok := a.ItemGroup(res.Identifier())
		if !ok {
			continue
		}
		if status := g.SetAnswerFromResult(res); status != StatusOK {
			a.logger.Warn("rejected initial result", "field", res.Identifier(), "status", status.String())
			continue
		}
		if ar, ok := a.answerResult(g); ok {
			a.result = a.result.AppendInputResult(ar)
			changed = g
		} else {
			a.result = a.result.RemoveInputResult(g.Identifier())
		}
	}
	if changed != nil && a.listener != nil {
		a.listener.AnswerChanged(changed)
	}
}

func (a *DataAdapter) inBounds(path IndexPath) bool {
	return path.Section >= 0 && path.Section < len(a.sections) &&
		path.Row >= 0 && path.Row < a.sections[path.Section].RowCount()
}
