package domain

import "time"

// EventType defines the category of the event.
type EventType string

const (
	EventStepNext     EventType = "step_next"
	EventStepPrevious EventType = "step_previous"
	EventStepSkipped  EventType = "step_skipped"
	EventTaskEnd      EventType = "task_end"
	EventAnswerChange EventType = "answer_change"
)

// Navigation sources, recorded on events to explain a decision.
const (
	SourceSkipTo      = "skip-to"
	SourceStrategy    = "strategy"
	SourceRule        = "rule"
	SourceStructure   = "structure"
	SourceReplacement = "replacement"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
}

// NavigationEvent describes one navigator decision.
type NavigationEvent struct {
	EventBase
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Source string `json:"source,omitempty"`
}

// AnswerEvent describes a change to an input field's answer.
type AnswerEvent struct {
	EventBase
	StepID  string `json:"step_id"`
	FieldID string `json:"field_id"`
	Answer  any    `json:"answer,omitempty"`
	Valid   bool   `json:"valid"`
}

// LifecycleHooks defines callbacks for observability. Nil hooks are skipped.
type LifecycleHooks struct {
	OnNavigate func(*NavigationEvent)
	OnSkip     func(*NavigationEvent)
	OnAnswer   func(*AnswerEvent)
}

// EmitNavigate invokes OnNavigate if set.
func (h LifecycleHooks) EmitNavigate(ev *NavigationEvent) {
	if h.OnNavigate != nil {
		h.OnNavigate(ev)
	}
}

// EmitSkip invokes OnSkip if set.
func (h LifecycleHooks) EmitSkip(ev *NavigationEvent) {
	if h.OnSkip != nil {
		h.OnSkip(ev)
	}
}

// EmitAnswer invokes OnAnswer if set.
func (h LifecycleHooks) EmitAnswer(ev *AnswerEvent) {
	if h.OnAnswer != nil {
		h.OnAnswer(ev)
	}
}
