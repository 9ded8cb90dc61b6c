package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sangamhq/vivah/internal/logging"
	"github.com/sangamhq/vivah/pkg/domain"
	"github.com/sangamhq/vivah/pkg/ports"
	"github.com/sangamhq/vivah/pkg/registry"
)

// ErrWizardReset is returned when a submission finished after the wizard
// was reset underneath it. The stale result is discarded and no state is
// mutated.
var ErrWizardReset = errors.New("wizard was reset during submission")

// DefaultEffectTimeout bounds every remote side effect. The hosted
// backend specifies no client timeout of its own; hanging a submission
// indefinitely is worse than surfacing a retryable failure.
const DefaultEffectTimeout = 15 * time.Second

// Controller orchestrates step submission, validation-gated advancement,
// one-shot side effects and back-navigation for a single wizard.
//
// All methods are safe for concurrent use, but only one submission may
// be in flight at a time: concurrent SubmitStep calls are rejected with
// domain.ErrSubmitInFlight rather than interleaved.
type Controller struct {
	reg           *registry.Registry
	store         ports.ProgressStore
	backend       *ports.Backend
	logger        *slog.Logger
	hooks         domain.LifecycleHooks
	effectTimeout time.Duration

	mu         sync.Mutex
	state      *domain.State
	inFlight   bool
	generation int
}

// Option configures the Controller.
type Option func(*Controller)

// WithBackend wires the hosted backend services used by step effects.
func WithBackend(b *ports.Backend) Option {
	return func(c *Controller) { c.backend = b }
}

// WithLogger sets a structured logger for persistence warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) { c.hooks = hooks }
}

// WithEffectTimeout overrides the per-effect deadline.
func WithEffectTimeout(d time.Duration) Option {
	return func(c *Controller) { c.effectTimeout = d }
}

// New creates a controller for the given wizard ID, restoring any
// snapshot the store holds. A missing or corrupt snapshot starts a fresh
// wizard; store failures are logged, never fatal.
func New(ctx context.Context, wizardID string, reg *registry.Registry, store ports.ProgressStore, opts ...Option) *Controller {
	c := &Controller{
		reg:           reg,
		store:         store,
		logger:        logging.NewNop(),
		effectTimeout: DefaultEffectTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.state = c.restore(ctx, wizardID)
	return c
}

// restore loads the snapshot, treating every failure as "no snapshot".
func (c *Controller) restore(ctx context.Context, wizardID string) *domain.State {
	if c.store == nil {
		return domain.NewState(wizardID)
	}
	state, err := c.store.Load(ctx, wizardID)
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			c.logger.Warn("failed to restore wizard snapshot, starting fresh",
				"wizard_id", wizardID, "err", err)
		}
		return domain.NewState(wizardID)
	}
	if state.Fields == nil {
		state.Fields = make(map[string]any)
	}
	state.StepIndex = c.reg.ClampIndex(state.StepIndex)
	state.WizardID = wizardID
	return state
}

func (c *Controller) lock()   { c.mu.Lock() }
func (c *Controller) unlock() { c.mu.Unlock() }

// State returns a copy of the current wizard state.
func (c *Controller) State() *domain.State {
	c.lock()
	defer c.unlock()
	return c.state.Clone()
}

// TotalSteps returns the number of steps in the underlying registry.
func (c *Controller) TotalSteps() int { return c.reg.TotalSteps() }

// Completed reports whether every step has been submitted.
func (c *Controller) Completed() bool {
	c.lock()
	defer c.unlock()
	return c.state.CompletedAll(c.reg.TotalSteps())
}

// CurrentStep returns the descriptor of the active step, or nil when the
// wizard has completed.
func (c *Controller) CurrentStep() *registry.Step {
	c.lock()
	index := c.state.StepIndex
	c.unlock()

	step, err := c.reg.Step(index)
	if err != nil {
		return nil
	}
	return step
}

// SubmitStep validates and commits one step submission.
//
// On validation failure it returns a schema.Errors aggregate and mutates
// nothing. On side-effect failure it returns a *domain.SideEffectError,
// retains the merged field values for re-display, and does not advance.
// On success it merges the normalized values, runs the step's side
// effect, advances the index (clamped to totalSteps+1) and persists the
// snapshot best-effort.
func (c *Controller) SubmitStep(ctx context.Context, stepIndex int, raw map[string]any) error {
	c.lock()
	if c.inFlight {
		c.unlock()
		return domain.ErrSubmitInFlight
	}
	if stepIndex != c.state.StepIndex {
		c.unlock()
		return fmt.Errorf("step %d is not the active step (%d): %w",
			stepIndex, c.state.StepIndex, domain.ErrStepOutOfRange)
	}
	c.inFlight = true
	gen := c.generation
	prior := c.state.Clone().Fields
	wizardID := c.state.WizardID
	c.unlock()

	defer func() {
		c.lock()
		c.inFlight = false
		c.unlock()
	}()

	step, err := c.reg.Step(stepIndex)
	if err != nil {
		return err
	}
	c.emitStep(ctx, domain.EventStepSubmit, wizardID, stepIndex, step.Name)

	normalized, err := c.reg.ValidateStep(stepIndex, raw, prior)
	if err != nil {
		return err
	}

	// Merge before the effect so a transient failure does not force the
	// user to retype. Credentials and raw payloads stay out of state.
	merged := c.mergeFields(gen, step, normalized)
	if !merged {
		return ErrWizardReset
	}

	if step.Effect != nil {
		extra, effErr := c.runEffect(ctx, step, normalized, prior)
		if effErr != nil {
			// A reset may have cleared the snapshot while the effect was
			// running; re-persisting would resurrect it.
			c.lock()
			stale := c.generation != gen
			c.unlock()
			if stale {
				return ErrWizardReset
			}
			c.persist(ctx)
			return effErr
		}
		if !c.mergeExtra(gen, extra) {
			return ErrWizardReset
		}
	}

	c.lock()
	if c.generation != gen {
		c.unlock()
		return ErrWizardReset
	}
	c.state.StepIndex = c.reg.ClampIndex(c.state.StepIndex + 1)
	nextIndex := c.state.StepIndex
	c.unlock()

	c.persist(ctx)

	if next, err := c.reg.Step(nextIndex); err == nil {
		c.emitStep(ctx, domain.EventStepEnter, wizardID, nextIndex, next.Name)
	}
	return nil
}

// runEffect executes the step's remote side effect under the configured
// timeout and wraps failures in the SideEffectError taxonomy.
func (c *Controller) runEffect(ctx context.Context, step *registry.Step, values, prior map[string]any) (map[string]any, error) {
	effectCtx, cancel := context.WithTimeout(ctx, c.effectTimeout)
	defer cancel()

	start := time.Now()
	extra, err := step.Effect(effectCtx, c.backend, values, prior)
	c.emitEffect(ctx, step, time.Since(start), err)

	if err != nil {
		return nil, &domain.SideEffectError{Step: step.Name, Op: step.EffectOp, Err: err}
	}
	return extra, nil
}

// mergeFields merges normalized values into the collected set, skipping
// the step's sensitive fields. Returns false when the wizard was reset
// while the submission was running.
func (c *Controller) mergeFields(gen int, step *registry.Step, normalized map[string]any) bool {
	sensitive := make(map[string]bool, len(step.Sensitive))
	for _, name := range step.Sensitive {
		sensitive[name] = true
	}

	c.lock()
	defer c.unlock()
	if c.generation != gen {
		return false
	}
	for k, v := range normalized {
		if sensitive[k] {
			continue
		}
		c.state.Fields[k] = v
	}
	return true
}

func (c *Controller) mergeExtra(gen int, extra map[string]any) bool {
	if len(extra) == 0 {
		return true
	}
	c.lock()
	defer c.unlock()
	if c.generation != gen {
		return false
	}
	for k, v := range extra {
		c.state.Fields[k] = v
	}
	return true
}

// GoBack moves the index one step back (floor 1). Collected fields are
// kept so earlier steps re-render with the user's previous answers.
func (c *Controller) GoBack(ctx context.Context) {
	c.lock()
	if c.state.StepIndex > 1 {
		c.state.StepIndex--
	}
	c.unlock()
	c.persist(ctx)
}

// Reset restores the wizard to its initial empty state and clears the
// stored snapshot. Any in-flight submission is invalidated: its result
// will be discarded when it completes.
func (c *Controller) Reset(ctx context.Context) {
	c.lock()
	wizardID := c.state.WizardID
	c.generation++
	c.state = domain.NewState(wizardID)
	c.unlock()

	if c.store == nil {
		return
	}
	if err := c.store.Clear(ctx, wizardID); err != nil {
		c.logger.Warn("failed to clear wizard snapshot", "wizard_id", wizardID, "err", err)
	}
}

// persist saves the snapshot best-effort: failures are logged and
// swallowed, never surfaced to the user flow.
func (c *Controller) persist(ctx context.Context) {
	if c.store == nil {
		return
	}
	snapshot := c.State()
	if err := c.store.Save(ctx, snapshot.WizardID, snapshot); err != nil {
		c.logger.Warn("failed to persist wizard snapshot",
			"wizard_id", snapshot.WizardID, "err", err)
	}
}

func (c *Controller) emitStep(ctx context.Context, typ domain.EventType, wizardID string, index int, name string) {
	var fn func(context.Context, *domain.StepEvent)
	switch typ {
	case domain.EventStepEnter:
		fn = c.hooks.OnStepEnter
	case domain.EventStepSubmit:
		fn = c.hooks.OnStepSubmit
	}
	if fn == nil {
		return
	}
	fn(ctx, &domain.StepEvent{
		Timestamp: time.Now(),
		Type:      typ,
		WizardID:  wizardID,
		StepIndex: index,
		StepName:  name,
	})
}

func (c *Controller) emitEffect(ctx context.Context, step *registry.Step, d time.Duration, err error) {
	if c.hooks.OnEffect == nil {
		return
	}
	c.hooks.OnEffect(ctx, &domain.EffectEvent{
		StepEvent: domain.StepEvent{
			Timestamp: time.Now(),
			Type:      domain.EventEffect,
			StepName:  step.Name,
		},
		Op:       step.EffectOp,
		Duration: d,
		IsError:  err != nil,
	})
}
