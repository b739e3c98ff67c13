package runtime

import (
	"slices"

	"github.com/aretw0/stepflow/pkg/domain"
)

// GetProgress reports how far along step is.
//
// With progress markers configured, current counts the markers passed before
// step and the result is exact. Otherwise the path is replayed from the first
// step under the current answers: current is the position of step on that
// path and total its length. Pruned branches are excluded, so the result is
// flagged as estimated whenever a rule or override shaped the path.
func (n *Navigator) GetProgress(step domain.Step, tr *domain.TaskResult) (*domain.Progress, error) {
	if step == nil {
		return nil, nil
	}
	view := snapshot(tr)
	if len(n.markers) > 0 {
		return n.markerProgress(step, view), nil
	}

	path, influenced, err := n.simulate(view)
	if err != nil {
		return nil, err
	}
	if idx := slices.IndexFunc(path, func(s domain.Step) bool {
		return s.Identifier() == step.Identifier()
	}); idx >= 0 {
		return &domain.Progress{Current: idx, Total: len(path), IsEstimated: influenced}, nil
	}

	n.logger.Debug("step not on replayed path, estimating from history", "step", step.Identifier())
	return n.historyProgress(step, view), nil
}

// simulate walks GetNextStep from the start until the task ends or a step repeats.
func (n *Navigator) simulate(tr *domain.TaskResult) ([]domain.Step, bool, error) {
	var (
		path       []domain.Step
		influenced bool
		current    domain.Step
		seen       = make(map[string]bool)
	)
	for {
		d, err := n.next(current, tr)
		if err != nil {
			return nil, false, err
		}
		influenced = influenced || d.influenced
		if d.step == nil || seen[d.step.Identifier()] {
			return path, influenced, nil
		}
		seen[d.step.Identifier()] = true
		path = append(path, d.step)
		current = d.step
	}
}

func (n *Navigator) markerProgress(step domain.Step, tr *domain.TaskResult) *domain.Progress {
	id := step.Identifier()
	if idx := slices.Index(n.markers, id); idx >= 0 {
		return &domain.Progress{Current: idx, Total: len(n.markers)}
	}

	last := -1
	for _, visited := range tr.VisitedIdentifiers() {
		if idx := slices.Index(n.markers, visited); idx > last {
			last = idx
		}
	}
	if last < 0 || last+1 >= len(n.markers) {
		// Before the first marker or past the last one.
		return nil
	}
	return &domain.Progress{Current: last + 1, Total: len(n.markers)}
}

// historyProgress counts distinct visited steps against every known leaf.
func (n *Navigator) historyProgress(step domain.Step, tr *domain.TaskResult) *domain.Progress {
	all := make(map[string]bool, len(n.leaves))
	for _, s := range n.leaves {
		all[s.Identifier()] = true
	}
	finished := make(map[string]bool)
	for _, id := range tr.VisitedIdentifiers() {
		all[id] = true
		if id != step.Identifier() {
			finished[id] = true
		}
	}
	return &domain.Progress{Current: len(finished), Total: len(all), IsEstimated: true}
}
