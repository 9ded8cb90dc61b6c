package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sangamhq/vivah/internal/logging"
	"github.com/sangamhq/vivah/pkg/domain"
	"github.com/sangamhq/vivah/pkg/ports"
	"github.com/sangamhq/vivah/pkg/registry"
	"github.com/sangamhq/vivah/pkg/wizard"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates wizard access, ensuring safe concurrent
// operations across requests (and replicas, when a locker is set).
type Manager struct {
	reg   *registry.Registry
	store ports.ProgressStore
	wopts []wizard.Option

	mu          sync.Mutex
	locks       map[string]*lockEntry
	controllers map[string]*wizard.Controller

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) { m.locker = locker }
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithControllerOptions forwards options to every controller the
// manager creates (backend, hooks, effect timeout).
func WithControllerOptions(opts ...wizard.Option) Option {
	return func(m *Manager) { m.wopts = opts }
}

// NewManager creates a Manager over the given registry and store.
func NewManager(reg *registry.Registry, store ports.ProgressStore, opts ...Option) *Manager {
	m := &Manager{
		reg:         reg,
		store:       store,
		locks:       make(map[string]*lockEntry),
		controllers: make(map[string]*wizard.Controller),
		lockTTL:     30 * time.Second,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference
// count. The caller MUST Lock entry.mu and call release(wizardID) after
// unlocking.
func (m *Manager) acquire(wizardID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[wizardID]
	if !exists {
		entry = &lockEntry{}
		m.locks[wizardID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(wizardID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[wizardID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, wizardID)
	}
}

// WithLock executes fn while holding the per-wizard lock (and the
// distributed lock when configured).
func (m *Manager) WithLock(ctx context.Context, wizardID string, fn func(context.Context) error) error {
	entry := m.acquire(wizardID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(wizardID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, wizardID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"wizard_id", wizardID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// controller returns the memoized controller for a wizard, creating and
// restoring it on first access.
func (m *Manager) controller(ctx context.Context, wizardID string) *wizard.Controller {
	m.mu.Lock()
	if c, ok := m.controllers[wizardID]; ok {
		m.mu.Unlock()
		return c
	}
	m.mu.Unlock()

	// Construct outside the map lock: restoring hits the store.
	opts := append([]wizard.Option{wizard.WithLogger(m.logger)}, m.wopts...)
	c := wizard.New(ctx, wizardID, m.reg, m.store, opts...)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.controllers[wizardID]; ok {
		return existing
	}
	m.controllers[wizardID] = c
	return c
}

// State returns the current snapshot of a wizard, restoring it from the
// store if needed.
func (m *Manager) State(ctx context.Context, wizardID string) *domain.State {
	return m.controller(ctx, wizardID).State()
}

// CurrentStep returns the active step descriptor, or nil when complete.
func (m *Manager) CurrentStep(ctx context.Context, wizardID string) *registry.Step {
	return m.controller(ctx, wizardID).CurrentStep()
}

// Submit validates and commits one step submission under the wizard lock.
func (m *Manager) Submit(ctx context.Context, wizardID string, stepIndex int, values map[string]any) error {
	return m.WithLock(ctx, wizardID, func(ctx context.Context) error {
		return m.controller(ctx, wizardID).SubmitStep(ctx, stepIndex, values)
	})
}

// Back moves a wizard one step back.
func (m *Manager) Back(ctx context.Context, wizardID string) error {
	return m.WithLock(ctx, wizardID, func(ctx context.Context) error {
		m.controller(ctx, wizardID).GoBack(ctx)
		return nil
	})
}

// Reset restores a wizard to its initial state and drops the memoized
// controller.
func (m *Manager) Reset(ctx context.Context, wizardID string) error {
	return m.WithLock(ctx, wizardID, func(ctx context.Context) error {
		m.controller(ctx, wizardID).Reset(ctx)

		m.mu.Lock()
		delete(m.controllers, wizardID)
		m.mu.Unlock()
		return nil
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store.List(ctx)
}

// Registry exposes the step registry for rendering surfaces.
func (m *Manager) Registry() *registry.Registry { return m.reg }
