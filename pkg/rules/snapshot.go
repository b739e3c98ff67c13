package rules

import (
	"sync"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
)

// Decisions are navigation overrides keyed by step identifier.
type Decisions struct {
	Next map[string]string
	Skip map[string]string
}

// Snapshot is a rule backed by decisions computed outside the navigator,
// e.g. by a remote eligibility service. The caller starts an evaluation with
// Begin and publishes its outcome with Publish; outcomes of evaluations that
// were superseded by a later Begin are dropped.
type Snapshot struct {
	mu        sync.RWMutex
	latest    uint64
	published uint64
	decisions Decisions
}

var _ ports.ConditionalRule = (*Snapshot)(nil)

// NewSnapshot returns a snapshot with no decisions.
func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// Begin starts a new evaluation and returns its generation.
func (s *Snapshot) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	return s.latest
}

// Publish installs decisions for generation gen. It reports false, leaving the
// current decisions untouched, if a newer evaluation has begun since.
func (s *Snapshot) Publish(gen uint64, d Decisions) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.latest {
		return false
	}
	s.published = gen
	s.decisions = d
	return true
}

// Generation returns the generation of the decisions currently served.
func (s *Snapshot) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.published
}

func (s *Snapshot) SkipToStep(step domain.Step, _ *domain.TaskResult) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.decisions.Skip[step.Identifier()]
}

func (s *Snapshot) NextStepIdentifier(step domain.Step, _ *domain.TaskResult) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.decisions.Next[step.Identifier()]
}
