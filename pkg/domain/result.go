package domain

import (
	"slices"
	"time"
)

// ResultType tags the variants of the Result union.
type ResultType string

const (
	ResultTypeBase       ResultType = "base"
	ResultTypeStep       ResultType = "step"
	ResultTypeAnswer     ResultType = "answer"
	ResultTypeCollection ResultType = "collection"
	ResultTypeError      ResultType = "error"
	ResultTypeTask       ResultType = "task"
)

// Result records what happened at a step.
type Result interface {
	Identifier() string
	Type() ResultType
	StartTime() time.Time
	EndTime() time.Time
}

// NavigationResult is implemented by results that can carry a skip-to override.
type NavigationResult interface {
	Result
	SkipTo() string
}

// Navigation holds an explicit next-step override. It is embedded into result
// variants that support it.
type Navigation struct {
	SkipToIdentifier string `json:"skipToIdentifier,omitempty"`
}

// SkipTo returns the override identifier, empty when unset.
func (n Navigation) SkipTo() string { return n.SkipToIdentifier }

// BaseResult is a presence marker: the step was shown between Start and End.
type BaseResult struct {
	ID    string    `json:"identifier"`
	Start time.Time `json:"startTime"`
	End   time.Time `json:"endTime"`
}

// NewBaseResult builds a BaseResult. End is clamped so it never precedes start.
func NewBaseResult(id string, start, end time.Time) BaseResult {
	if end.Before(start) {
		end = start
	}
	return BaseResult{ID: id, Start: start, End: end}
}

func (r BaseResult) Identifier() string   { return r.ID }
func (r BaseResult) Type() ResultType     { return ResultTypeBase }
func (r BaseResult) StartTime() time.Time { return r.Start }
func (r BaseResult) EndTime() time.Time   { return r.End }

// StepResult is the result of a step that collected no answer but may redirect navigation.
type StepResult struct {
	BaseResult
	Navigation
}

// NewStepResult builds a StepResult.
func NewStepResult(id string, start, end time.Time) StepResult {
	return StepResult{BaseResult: NewBaseResult(id, start, end)}
}

func (r StepResult) Type() ResultType { return ResultTypeStep }

// AnswerResult holds one answer and the type tag used to interpret it.
type AnswerResult struct {
	BaseResult
	Navigation
	Answer     any    `json:"answer,omitempty"`
	AnswerType string `json:"answerType"`
}

// NewAnswerResult builds an AnswerResult.
func NewAnswerResult(id, answerType string, answer any, start, end time.Time) AnswerResult {
	return AnswerResult{
		BaseResult: NewBaseResult(id, start, end),
		Answer:     answer,
		AnswerType: answerType,
	}
}

func (r AnswerResult) Type() ResultType { return ResultTypeAnswer }

// ErrorResult records a step that failed to produce data.
type ErrorResult struct {
	BaseResult
	Description string `json:"description"`
	Code        int    `json:"code,omitempty"`
}

func (r ErrorResult) Type() ResultType { return ResultTypeError }

// CollectionResult holds the results of a step's input fields. Identifiers of
// input results are unique.
type CollectionResult struct {
	BaseResult
	Navigation
	InputResults []Result `json:"inputResults"`
}

// NewCollectionResult builds an empty CollectionResult.
func NewCollectionResult(id string, start, end time.Time) CollectionResult {
	return CollectionResult{BaseResult: NewBaseResult(id, start, end)}
}

func (r CollectionResult) Type() ResultType { return ResultTypeCollection }

// InputResult returns the input result with the given identifier.
func (r CollectionResult) InputResult(id string) (Result, bool) {
	for _, in := range r.InputResults {
		if in.Identifier() == id {
			return in, true
		}
	}
	return nil, false
}

// AppendInputResult returns a copy with res added. An existing entry with the
// same identifier is replaced at its original position.
func (r CollectionResult) AppendInputResult(res Result) CollectionResult {
	r.InputResults = replaceOrAppend(slices.Clone(r.InputResults), res)
	return r
}

// RemoveInputResult returns a copy without the entry for id. Missing ids are a no-op.
func (r CollectionResult) RemoveInputResult(id string) CollectionResult {
	r.InputResults = slices.DeleteFunc(slices.Clone(r.InputResults), func(in Result) bool {
		return in.Identifier() == id
	})
	return r
}

func replaceOrAppend(list []Result, res Result) []Result {
	for i, in := range list {
		if in.Identifier() == res.Identifier() {
			list[i] = res
			return list
		}
	}
	return append(list, res)
}

// Progress describes how far along a participant is.
type Progress struct {
	Current     int  `json:"current"`
	Total       int  `json:"total"`
	IsEstimated bool `json:"isEstimated"`
}
