package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// resultEnvelope is the tagged wire form shared by all result variants.
type resultEnvelope struct {
	Type             ResultType        `json:"type"`
	Identifier       string            `json:"identifier"`
	StartTime        time.Time         `json:"startTime"`
	EndTime          time.Time         `json:"endTime"`
	SkipToIdentifier string            `json:"skipToIdentifier,omitempty"`
	Answer           any               `json:"answer,omitempty"`
	AnswerType       string            `json:"answerType,omitempty"`
	InputResults     []json.RawMessage `json:"inputResults,omitempty"`
	Description      string            `json:"description,omitempty"`
	Code             int               `json:"code,omitempty"`
}

func envelopeOf(b BaseResult, t ResultType) resultEnvelope {
	return resultEnvelope{Type: t, Identifier: b.ID, StartTime: b.Start, EndTime: b.End}
}

func (r BaseResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelopeOf(r, ResultTypeBase))
}

func (r StepResult) MarshalJSON() ([]byte, error) {
	env := envelopeOf(r.BaseResult, ResultTypeStep)
	env.SkipToIdentifier = r.SkipToIdentifier
	return json.Marshal(env)
}

func (r AnswerResult) MarshalJSON() ([]byte, error) {
	env := envelopeOf(r.BaseResult, ResultTypeAnswer)
	env.SkipToIdentifier = r.SkipToIdentifier
	env.Answer = r.Answer
	env.AnswerType = r.AnswerType
	return json.Marshal(env)
}

func (r ErrorResult) MarshalJSON() ([]byte, error) {
	env := envelopeOf(r.BaseResult, ResultTypeError)
	env.Description = r.Description
	env.Code = r.Code
	return json.Marshal(env)
}

func (r CollectionResult) MarshalJSON() ([]byte, error) {
	env := envelopeOf(r.BaseResult, ResultTypeCollection)
	env.SkipToIdentifier = r.SkipToIdentifier
	children, err := marshalResults(r.InputResults)
	if err != nil {
		return nil, err
	}
	env.InputResults = children
	return json.Marshal(env)
}

// UnmarshalResult decodes any tagged result variant.
func UnmarshalResult(data []byte) (Result, error) {
	var env resultEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	base := BaseResult{ID: env.Identifier, Start: env.StartTime, End: env.EndTime}
	nav := Navigation{SkipToIdentifier: env.SkipToIdentifier}

	switch env.Type {
	case ResultTypeBase:
		return base, nil
	case ResultTypeStep:
		return StepResult{BaseResult: base, Navigation: nav}, nil
	case ResultTypeAnswer:
		return AnswerResult{BaseResult: base, Navigation: nav, Answer: env.Answer, AnswerType: env.AnswerType}, nil
	case ResultTypeError:
		return ErrorResult{BaseResult: base, Description: env.Description, Code: env.Code}, nil
	case ResultTypeCollection:
		children, err := unmarshalResults(env.InputResults)
		if err != nil {
			return nil, fmt.Errorf("collection %q: %w", env.Identifier, err)
		}
		return CollectionResult{BaseResult: base, Navigation: nav, InputResults: children}, nil
	default:
		return nil, fmt.Errorf("unknown result type %q", env.Type)
	}
}

func marshalResults(list []Result) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(list))
	for _, r := range list {
		b, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func unmarshalResults(raw []json.RawMessage) ([]Result, error) {
	out := make([]Result, 0, len(raw))
	for _, b := range raw {
		r, err := UnmarshalResult(b)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

type taskResultJSON struct {
	Identifier   string            `json:"identifier"`
	RunID        string            `json:"taskRunUUID"`
	StartTime    time.Time         `json:"startTime"`
	EndTime      time.Time         `json:"endTime"`
	StepHistory  []json.RawMessage `json:"stepHistory"`
	AsyncResults []json.RawMessage `json:"asyncResults,omitempty"`
}

func (t *TaskResult) MarshalJSON() ([]byte, error) {
	history, err := marshalResults(t.StepHistory)
	if err != nil {
		return nil, err
	}
	async, err := marshalResults(t.AsyncResults)
	if err != nil {
		return nil, err
	}
	return json.Marshal(taskResultJSON{
		Identifier:   t.ID,
		RunID:        t.RunID,
		StartTime:    t.Start,
		EndTime:      t.End,
		StepHistory:  history,
		AsyncResults: async,
	})
}

func (t *TaskResult) UnmarshalJSON(data []byte) error {
	var raw taskResultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	history, err := unmarshalResults(raw.StepHistory)
	if err != nil {
		return fmt.Errorf("step history: %w", err)
	}
	async, err := unmarshalResults(raw.AsyncResults)
	if err != nil {
		return fmt.Errorf("async results: %w", err)
	}
	*t = TaskResult{
		ID:           raw.Identifier,
		RunID:        raw.RunID,
		Start:        raw.StartTime,
		End:          raw.EndTime,
		StepHistory:  history,
		AsyncResults: async,
	}
	return nil
}
