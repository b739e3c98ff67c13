package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
)

// Redacted replaces the answer of a redacted field. The answer type is set
// to RedactedAnswerType so form rehydration rejects it.
const (
	Redacted           = "***"
	RedactedAnswerType = "redacted"
)

type redactionMiddleware struct {
	next     ports.TaskResultStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware masks answers whose field identifier matches any of
// the patterns before they reach the store. Answers nested in collections
// are masked too. The caller's task result is never modified.
func NewRedactionMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return func(next ports.TaskResultStore) ports.TaskResultStore {
		return &redactionMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *redactionMiddleware) Save(ctx context.Context, runID string, result *domain.TaskResult) error {
	cloned := result.Clone()
	cloned.StepHistory = m.maskAll(cloned.StepHistory)
	cloned.AsyncResults = m.maskAll(cloned.AsyncResults)
	return m.next.Save(ctx, runID, cloned)
}

func (m *redactionMiddleware) Load(ctx context.Context, runID string) (*domain.TaskResult, error) {
	return m.next.Load(ctx, runID)
}

func (m *redactionMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// maskAll rewrites list in place; callers pass a cloned slice.
func (m *redactionMiddleware) maskAll(list []domain.Result) []domain.Result {
	for i, r := range list {
		list[i] = m.mask(r)
	}
	return list
}

func (m *redactionMiddleware) mask(r domain.Result) domain.Result {
	switch v := r.(type) {
	case domain.AnswerResult:
		if m.matches(v.ID) {
			v.Answer = Redacted
			v.AnswerType = RedactedAnswerType
		}
		return v
	case domain.CollectionResult:
		children := make([]domain.Result, len(v.InputResults))
		copy(children, v.InputResults)
		v.InputResults = m.maskAll(children)
		return v
	}
	return r
}

func (m *redactionMiddleware) matches(id string) bool {
	for _, p := range m.patterns {
		if p.MatchString(id) {
			return true
		}
	}
	return false
}
