package vivah

import (
	"context"
	"log/slog"
	"time"

	"github.com/sangamhq/vivah/internal/logging"
	"github.com/sangamhq/vivah/pkg/adapters/memory"
	"github.com/sangamhq/vivah/pkg/domain"
	"github.com/sangamhq/vivah/pkg/ports"
	"github.com/sangamhq/vivah/pkg/registry"
	"github.com/sangamhq/vivah/pkg/session"
	"github.com/sangamhq/vivah/pkg/wizard"
)

// Engine is the high-level entry point for the vivah library.
// It wires the step registry, the progress store and the hosted backend
// and hands out wizard controllers.
type Engine struct {
	registry      *registry.Registry
	store         ports.ProgressStore
	backend       *ports.Backend
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	effectTimeout time.Duration
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRegistry replaces the default matrimonial step registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) { e.registry = reg }
}

// WithStore injects a progress store (default: in-memory).
func WithStore(store ports.ProgressStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithBackend injects the hosted backend services (default: in-memory).
func WithBackend(b *ports.Backend) Option {
	return func(e *Engine) { e.backend = b }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithEffectTimeout overrides the per-side-effect deadline.
func WithEffectTimeout(d time.Duration) Option {
	return func(e *Engine) { e.effectTimeout = d }
}

// New initializes a new Engine. Without options it runs fully in
// memory: the matrimonial registry, an in-memory progress store and an
// in-memory backend.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		logger:        logging.NewNop(),
		effectTimeout: wizard.DefaultEffectTimeout,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.registry == nil {
		eng.registry = registry.Matrimonial()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.backend == nil {
		eng.backend = memory.NewBackend().Services()
	}
	return eng, nil
}

// Registry returns the engine's step registry.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Wizard returns a controller for the given wizard ID, restoring any
// stored snapshot.
func (e *Engine) Wizard(ctx context.Context, wizardID string) *wizard.Controller {
	return wizard.New(ctx, wizardID, e.registry, e.store, e.controllerOptions()...)
}

// Sessions returns a session manager over the engine's wiring, for
// multi-wizard surfaces like the HTTP API.
func (e *Engine) Sessions(opts ...session.Option) *session.Manager {
	base := []session.Option{
		session.WithLogger(e.logger),
		session.WithControllerOptions(e.controllerOptions()...),
	}
	return session.NewManager(e.registry, e.store, append(base, opts...)...)
}

func (e *Engine) controllerOptions() []wizard.Option {
	return []wizard.Option{
		wizard.WithBackend(e.backend),
		wizard.WithLogger(e.logger),
		wizard.WithHooks(e.hooks),
		wizard.WithEffectTimeout(e.effectTimeout),
	}
}
