package domain

import (
	"reflect"
	"slices"
	"time"

	"github.com/google/uuid"
)

// TaskResult is the accumulated result of one task run. Step history keeps
// first-visit order: re-recording a step replaces its entry in place.
type TaskResult struct {
	ID           string
	RunID        string
	Start        time.Time
	End          time.Time
	StepHistory  []Result
	AsyncResults []Result
}

// NewTaskResult starts a new run of the task.
func NewTaskResult(taskID string) *TaskResult {
	now := time.Now()
	return &TaskResult{
		ID:          taskID,
		RunID:       uuid.NewString(),
		Start:       now,
		End:         now,
		StepHistory: []Result{},
	}
}

func (t *TaskResult) Identifier() string   { return t.ID }
func (t *TaskResult) Type() ResultType     { return ResultTypeTask }
func (t *TaskResult) StartTime() time.Time { return t.Start }
func (t *TaskResult) EndTime() time.Time   { return t.End }

// AddStepHistory records the result of a step.
func (t *TaskResult) AddStepHistory(res Result) {
	t.StepHistory = replaceOrAppend(t.StepHistory, res)
	t.touch(res.EndTime())
}

// AddAsyncResult records a result produced outside of the step flow.
func (t *TaskResult) AddAsyncResult(res Result) {
	t.AsyncResults = replaceOrAppend(t.AsyncResults, res)
}

// Result returns the step history entry for id.
func (t *TaskResult) Result(id string) (Result, bool) {
	for _, r := range t.StepHistory {
		if r.Identifier() == id {
			return r, true
		}
	}
	return nil, false
}

// AsyncResult returns the async entry for id.
func (t *TaskResult) AsyncResult(id string) (Result, bool) {
	for _, r := range t.AsyncResults {
		if r.Identifier() == id {
			return r, true
		}
	}
	return nil, false
}

// FindAnswer searches the step history, then async results, for an
// AnswerResult with the given identifier, looking inside collections.
func (t *TaskResult) FindAnswer(id string) (AnswerResult, bool) {
	for _, list := range [][]Result{t.StepHistory, t.AsyncResults} {
		for _, r := range list {
			switch v := r.(type) {
			case AnswerResult:
				if v.ID == id {
					return v, true
				}
			case CollectionResult:
				if in, ok := v.InputResult(id); ok {
					if ar, ok := in.(AnswerResult); ok {
						return ar, true
					}
				}
			}
		}
	}
	return AnswerResult{}, false
}

// RemoveStepHistoryFrom truncates the history at the first entry for id and
// returns the removed entries. Nothing is removed if id was never recorded.
func (t *TaskResult) RemoveStepHistoryFrom(id string) []Result {
	idx := slices.IndexFunc(t.StepHistory, func(r Result) bool { return r.Identifier() == id })
	if idx < 0 {
		return nil
	}
	removed := slices.Clone(t.StepHistory[idx:])
	t.StepHistory = slices.Clone(t.StepHistory[:idx])
	return removed
}

// VisitedIdentifiers returns the identifiers of the step history in order.
func (t *TaskResult) VisitedIdentifiers() []string {
	ids := make([]string, 0, len(t.StepHistory))
	for _, r := range t.StepHistory {
		ids = append(ids, r.Identifier())
	}
	return ids
}

// Clone returns a deep copy. Collection input results and list or map
// answers are copied so neither side observes the other's changes.
func (t *TaskResult) Clone() *TaskResult {
	if t == nil {
		return nil
	}
	c := *t
	c.StepHistory = cloneResults(t.StepHistory)
	c.AsyncResults = cloneResults(t.AsyncResults)
	return &c
}

func cloneResults(rs []Result) []Result {
	if rs == nil {
		return nil
	}
	out := make([]Result, len(rs))
	for i, r := range rs {
		out[i] = cloneResult(r)
	}
	return out
}

func cloneResult(r Result) Result {
	switch v := r.(type) {
	case CollectionResult:
		v.InputResults = cloneResults(v.InputResults)
		return v
	case AnswerResult:
		v.Answer = cloneAnswer(v.Answer)
		return v
	}
	return r
}

func cloneAnswer(a any) any {
	switch v := a.(type) {
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneAnswer(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = cloneAnswer(e)
		}
		return out
	}
	rv := reflect.ValueOf(a)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return a
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(out, rv)
		return out.Interface()
	case reflect.Map:
		if rv.IsNil() {
			return a
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out.Interface()
	}
	return a
}

func (t *TaskResult) touch(end time.Time) {
	if end.After(t.End) {
		t.End = end
	}
}
