package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangamhq/vivah/pkg/adapters/memory"
	"github.com/sangamhq/vivah/pkg/domain"
	"github.com/sangamhq/vivah/pkg/ports"
	"github.com/sangamhq/vivah/pkg/registry"
	"github.com/sangamhq/vivah/pkg/schema"
)

func accountSubmission() map[string]any {
	return map[string]any{
		"name":             "Asha Kulkarni",
		"phone":            "9876543210",
		"email":            "asha@example.com",
		"gender":           "Female",
		"password":         "s3cret-password",
		"confirm_password": "s3cret-password",
	}
}

func personalSubmission() map[string]any {
	return map[string]any{
		"dob":            "1995-02-10",
		"religion":       "Hindu",
		"caste":          "Maratha",
		"mother_tongue":  "Marathi",
		"marital_status": "Never Married",
	}
}

func locationSubmission() map[string]any {
	return map[string]any{
		"state":      "Maharashtra",
		"district":   "Pune",
		"city":       "Pune City",
		"education":  "Masters",
		"occupation": "Software Engineer",
		"income":     "10-20 LPA",
	}
}

func aboutSubmission() map[string]any {
	return map[string]any{
		"bio":          "I enjoy reading, trekking and quiet weekends at home.",
		"expectations": "",
	}
}

func TestController_FullFlow(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewBackend()
	store := memory.NewStore()
	c := New(ctx, "w1", registry.Matrimonial(), store, WithBackend(backend.Services()))

	require.NoError(t, c.SubmitStep(ctx, 1, accountSubmission()))
	require.NoError(t, c.SubmitStep(ctx, 2, personalSubmission()))
	require.NoError(t, c.SubmitStep(ctx, 3, locationSubmission()))
	require.NoError(t, c.SubmitStep(ctx, 4, aboutSubmission()))

	assert.True(t, c.Completed())
	state := c.State()
	assert.Equal(t, 5, state.StepIndex)

	// Credentials never land in the collected fields.
	assert.NotContains(t, state.Fields, "password")
	assert.NotContains(t, state.Fields, "confirm_password")
	assert.Equal(t, "Asha Kulkarni", state.Fields["name"])
	assert.NotEmpty(t, state.Fields["account_id"])

	accountID := state.Fields["account_id"].(string)
	doc, err := backend.GetDocument(ctx, registry.ProfileCollection, accountID)
	require.NoError(t, err)
	assert.Equal(t, "1995-02-10", doc.Fields["dob"])
	assert.Equal(t, "Pune City", doc.Fields["city"])
	assert.Equal(t, "asha@example.com", doc.Fields["email"])
}

func TestController_ValidationFailureDoesNotAdvance(t *testing.T) {
	ctx := context.Background()
	c := New(ctx, "w1", registry.Matrimonial(), memory.NewStore())

	err := c.SubmitStep(ctx, 1, map[string]any{"name": "Jo"})
	require.Error(t, err)
	require.NotEmpty(t, schema.FieldErrors(err))

	state := c.State()
	assert.Equal(t, 1, state.StepIndex)
	assert.Empty(t, state.Fields)
}

func TestController_WrongStepIndex(t *testing.T) {
	ctx := context.Background()
	c := New(ctx, "w1", registry.Matrimonial(), memory.NewStore())

	err := c.SubmitStep(ctx, 3, locationSubmission())
	assert.ErrorIs(t, err, domain.ErrStepOutOfRange)
}

// A side-effect failure keeps the user on the same step with their
// answers retained, minus credentials, and the retained answers survive
// a process restart.
func TestController_SideEffectFailureRetainsFields(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewBackend()
	store := memory.NewStore()

	// The email is already taken by someone else.
	_, err := backend.CreateAccount(ctx, registry.AccountID("asha@example.com"), "asha@example.com", "other-password", "Someone Else")
	require.NoError(t, err)

	c := New(ctx, "w1", registry.Matrimonial(), store, WithBackend(backend.Services()))
	err = c.SubmitStep(ctx, 1, accountSubmission())
	require.Error(t, err)

	var see *domain.SideEffectError
	require.ErrorAs(t, err, &see)
	assert.Equal(t, "create_account", see.Op)
	assert.True(t, domain.IsConflict(err))

	state := c.State()
	assert.Equal(t, 1, state.StepIndex)
	assert.Equal(t, "Asha Kulkarni", state.Fields["name"])
	assert.NotContains(t, state.Fields, "password")

	loaded, err := store.Load(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.StepIndex)
	assert.Equal(t, "Asha Kulkarni", loaded.Fields["name"])
}

func TestController_GoBackAndResubmit(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewBackend()
	c := New(ctx, "w1", registry.Matrimonial(), memory.NewStore(), WithBackend(backend.Services()))

	require.NoError(t, c.SubmitStep(ctx, 1, accountSubmission()))
	firstID := c.State().Fields["account_id"]

	c.GoBack(ctx)
	state := c.State()
	assert.Equal(t, 1, state.StepIndex)
	// Collected answers are kept for re-display.
	assert.Equal(t, "asha@example.com", state.Fields["email"])

	// Resubmitting re-runs the side effect; the active session is reused
	// instead of creating a duplicate account.
	require.NoError(t, c.SubmitStep(ctx, 1, accountSubmission()))
	assert.Equal(t, firstID, c.State().Fields["account_id"])
	assert.Equal(t, 2, c.State().StepIndex)
}

func TestController_GoBackFloor(t *testing.T) {
	ctx := context.Background()
	c := New(ctx, "w1", registry.Matrimonial(), memory.NewStore())

	c.GoBack(ctx)
	c.GoBack(ctx)
	assert.Equal(t, 1, c.State().StepIndex)
}

func TestController_Reset(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewBackend()
	store := memory.NewStore()
	c := New(ctx, "w1", registry.Matrimonial(), store, WithBackend(backend.Services()))

	require.NoError(t, c.SubmitStep(ctx, 1, accountSubmission()))
	c.Reset(ctx)

	state := c.State()
	assert.Equal(t, 1, state.StepIndex)
	assert.Empty(t, state.Fields)

	_, err := store.Load(ctx, "w1")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestController_RestoreFromSnapshot(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewBackend()
	store := memory.NewStore()

	first := New(ctx, "w1", registry.Matrimonial(), store, WithBackend(backend.Services()))
	require.NoError(t, first.SubmitStep(ctx, 1, accountSubmission()))

	// A new controller for the same wizard ID resumes where the first
	// left off.
	second := New(ctx, "w1", registry.Matrimonial(), store, WithBackend(backend.Services()))
	state := second.State()
	assert.Equal(t, 2, state.StepIndex)
	assert.Equal(t, "Asha Kulkarni", state.Fields["name"])
}

func TestController_RestoreClampsIndex(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	corrupt := domain.NewState("w1")
	corrupt.StepIndex = 99
	require.NoError(t, store.Save(ctx, "w1", corrupt))

	c := New(ctx, "w1", registry.Matrimonial(), store)
	assert.Equal(t, 5, c.State().StepIndex)
	assert.True(t, c.Completed())
}

// failStore errors on every operation; Load reports no snapshot so the
// controller starts fresh.
type failStore struct{}

func (failStore) Save(context.Context, string, *domain.State) error { return errors.New("disk full") }
func (failStore) Load(context.Context, string) (*domain.State, error) {
	return nil, domain.ErrSnapshotNotFound
}
func (failStore) Clear(context.Context, string) error   { return errors.New("disk full") }
func (failStore) List(context.Context) ([]string, error) { return nil, errors.New("disk full") }

func TestController_StoreFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewBackend()
	c := New(ctx, "w1", registry.Matrimonial(), failStore{}, WithBackend(backend.Services()))

	// Persistence is best-effort: a broken store never blocks the flow.
	require.NoError(t, c.SubmitStep(ctx, 1, accountSubmission()))
	assert.Equal(t, 2, c.State().StepIndex)

	c.Reset(ctx)
	assert.Equal(t, 1, c.State().StepIndex)
}

// blockingRegistry is a two-step registry whose first effect blocks
// until released, for exercising the in-flight and reset races.
func blockingRegistry(started chan<- struct{}, release <-chan struct{}) *registry.Registry {
	return registry.New(
		registry.Step{
			Name: "slow",
			Schema: func(map[string]any) schema.Schema {
				return schema.Schema{{Name: "value", Rules: []schema.Rule{schema.MinLen(1)}}}
			},
			Effect: func(ctx context.Context, _ *ports.Backend, _, _ map[string]any) (map[string]any, error) {
				started <- struct{}{}
				select {
				case <-release:
					return nil, nil
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			},
			EffectOp: "slow_op",
		},
		registry.Step{
			Name: "done",
			Schema: func(map[string]any) schema.Schema {
				return schema.Schema{{Name: "other", Optional: true}}
			},
		},
	)
}

func TestController_RejectsConcurrentSubmit(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	c := New(ctx, "w1", blockingRegistry(started, release), memory.NewStore())

	done := make(chan error, 1)
	go func() {
		done <- c.SubmitStep(ctx, 1, map[string]any{"value": "x"})
	}()
	<-started

	err := c.SubmitStep(ctx, 1, map[string]any{"value": "y"})
	assert.ErrorIs(t, err, domain.ErrSubmitInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 2, c.State().StepIndex)
}

func TestController_ResetInvalidatesInFlightSubmit(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	c := New(ctx, "w1", blockingRegistry(started, release), memory.NewStore())

	done := make(chan error, 1)
	go func() {
		done <- c.SubmitStep(ctx, 1, map[string]any{"value": "x"})
	}()
	<-started

	// The user resets while the remote call is still running. When the
	// call finally returns, its result must be discarded.
	c.Reset(ctx)
	close(release)

	assert.ErrorIs(t, <-done, ErrWizardReset)
	state := c.State()
	assert.Equal(t, 1, state.StepIndex)
	assert.Empty(t, state.Fields)
}

func TestController_ResetDuringFailingEffectKeepsStoreClear(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	reg := registry.New(
		registry.Step{
			Name: "slow",
			Schema: func(map[string]any) schema.Schema {
				return schema.Schema{{Name: "value", Rules: []schema.Rule{schema.MinLen(1)}}}
			},
			Effect: func(context.Context, *ports.Backend, map[string]any, map[string]any) (map[string]any, error) {
				started <- struct{}{}
				<-release
				return nil, errors.New("backend unavailable")
			},
			EffectOp: "slow_op",
		},
	)
	store := memory.NewStore()
	c := New(ctx, "w1", reg, store)

	done := make(chan error, 1)
	go func() {
		done <- c.SubmitStep(ctx, 1, map[string]any{"value": "x"})
	}()
	<-started

	// Reset clears the snapshot while the effect is still running. The
	// failing submission must not write the merged fields back.
	c.Reset(ctx)
	close(release)

	assert.ErrorIs(t, <-done, ErrWizardReset)
	_, err := store.Load(ctx, "w1")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestController_EffectTimeout(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{}, 1)
	c := New(ctx, "w1", blockingRegistry(started, nil), memory.NewStore(),
		WithEffectTimeout(20*time.Millisecond))

	err := c.SubmitStep(ctx, 1, map[string]any{"value": "x"})
	require.Error(t, err)

	var see *domain.SideEffectError
	require.ErrorAs(t, err, &see)
	assert.Equal(t, "slow_op", see.Op)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, c.State().StepIndex)
}

func TestController_Hooks(t *testing.T) {
	ctx := context.Background()
	var submits, enters, effects []string

	hooks := domain.LifecycleHooks{
		OnStepSubmit: func(_ context.Context, e *domain.StepEvent) { submits = append(submits, e.StepName) },
		OnStepEnter:  func(_ context.Context, e *domain.StepEvent) { enters = append(enters, e.StepName) },
		OnEffect:     func(_ context.Context, e *domain.EffectEvent) { effects = append(effects, e.Op) },
	}

	backend := memory.NewBackend()
	c := New(ctx, "w1", registry.Matrimonial(), memory.NewStore(),
		WithBackend(backend.Services()), WithHooks(hooks))

	require.NoError(t, c.SubmitStep(ctx, 1, accountSubmission()))

	assert.Equal(t, []string{"account"}, submits)
	assert.Equal(t, []string{"personal"}, enters)
	assert.Equal(t, []string{"create_account"}, effects)
}

func TestController_CurrentStep(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewBackend()
	c := New(ctx, "w1", registry.Matrimonial(), memory.NewStore(), WithBackend(backend.Services()))

	require.Equal(t, "account", c.CurrentStep().Name)
	require.NoError(t, c.SubmitStep(ctx, 1, accountSubmission()))
	require.Equal(t, "personal", c.CurrentStep().Name)

	require.NoError(t, c.SubmitStep(ctx, 2, personalSubmission()))
	require.NoError(t, c.SubmitStep(ctx, 3, locationSubmission()))
	require.NoError(t, c.SubmitStep(ctx, 4, aboutSubmission()))
	assert.Nil(t, c.CurrentStep())
}
