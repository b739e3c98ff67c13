package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/stepflow/internal/logging"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
)

const defaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates access to task runs. Unused locks are garbage
// collected through reference counting.
type Manager struct {
	store ports.TaskResultStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks. Defaults to 30s.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over store.
func NewManager(store ports.TaskResultStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: defaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release after unlocking.
func (m *Manager) acquire(runID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[runID]
	if !exists {
		entry = &lockEntry{}
		m.locks[runID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[runID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, runID)
	}
}

// Load retrieves an existing run.
func (m *Manager) Load(ctx context.Context, runID string) (*domain.TaskResult, error) {
	var tr *domain.TaskResult
	err := m.WithLock(ctx, runID, func(ctx context.Context) error {
		var err error
		tr, err = m.store.Load(ctx, runID)
		return err
	})
	return tr, err
}

// LoadOrStart loads runID, starting and persisting an empty run of taskID
// when it does not exist yet.
func (m *Manager) LoadOrStart(ctx context.Context, runID, taskID string) (*domain.TaskResult, error) {
	var tr *domain.TaskResult
	err := m.WithLock(ctx, runID, func(ctx context.Context) error {
		var err error
		tr, err = m.loadOrNew(ctx, runID, taskID)
		if err != nil || len(tr.StepHistory) > 0 {
			return err
		}
		if err := m.store.Save(ctx, runID, tr); err != nil {
			return fmt.Errorf("failed to initialize run: %w", err)
		}
		return nil
	})
	return tr, err
}

// Update runs fn on the current result of runID and saves it, all under the
// run lock. A missing run is started for taskID. The result is not saved
// when fn fails.
func (m *Manager) Update(ctx context.Context, runID, taskID string, fn func(*domain.TaskResult) error) (*domain.TaskResult, error) {
	var tr *domain.TaskResult
	err := m.WithLock(ctx, runID, func(ctx context.Context) error {
		var err error
		tr, err = m.loadOrNew(ctx, runID, taskID)
		if err != nil {
			return err
		}
		if err := fn(tr); err != nil {
			return err
		}
		return m.store.Save(ctx, runID, tr)
	})
	if err != nil {
		return nil, err
	}
	m.logger.Debug("run updated", "run_id", runID, "steps", len(tr.StepHistory))
	return tr, nil
}

func (m *Manager) loadOrNew(ctx context.Context, runID, taskID string) (*domain.TaskResult, error) {
	tr, err := m.store.Load(ctx, runID)
	if err == nil {
		return tr, nil
	}
	if !errors.Is(err, domain.ErrTaskResultNotFound) {
		return nil, fmt.Errorf("failed to check run existence: %w", err)
	}
	tr = domain.NewTaskResult(taskID)
	tr.RunID = runID
	return tr, nil
}

// Save persists the result of a run.
func (m *Manager) Save(ctx context.Context, runID string, tr *domain.TaskResult) error {
	return m.WithLock(ctx, runID, func(ctx context.Context) error {
		return m.store.Save(ctx, runID, tr)
	})
}

// Delete removes the run from the store.
func (m *Manager) Delete(ctx context.Context, runID string) error {
	return m.WithLock(ctx, runID, func(ctx context.Context) error {
		return m.store.Delete(ctx, runID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying store.
func (m *Manager) Store() ports.TaskResultStore {
	return m.store
}

// WithLock executes fn while holding the lock for the run.
func (m *Manager) WithLock(ctx context.Context, runID string, fn func(context.Context) error) error {
	entry := m.acquire(runID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(runID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, runID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The request context may already be cancelled; release regardless.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"run_id", runID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
