package vivah_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangamhq/vivah"
	"github.com/sangamhq/vivah/pkg/adapters/memory"
	"github.com/sangamhq/vivah/pkg/domain"
	"github.com/sangamhq/vivah/pkg/ports"
	"github.com/sangamhq/vivah/pkg/registry"
	"github.com/sangamhq/vivah/pkg/schema"
)

func TestEngine_Defaults(t *testing.T) {
	eng, err := vivah.New()
	require.NoError(t, err)
	assert.Equal(t, 4, eng.Registry().TotalSteps())

	ctrl := eng.Wizard(context.Background(), "w1")
	assert.Equal(t, "account", ctrl.CurrentStep().Name)
}

func TestEngine_SharedStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	backend := memory.NewBackend()

	eng, err := vivah.New(
		vivah.WithStore(store),
		vivah.WithBackend(backend.Services()),
	)
	require.NoError(t, err)

	ctrl := eng.Wizard(ctx, "w1")
	require.NoError(t, ctrl.SubmitStep(ctx, 1, map[string]any{
		"name":             "Asha Kulkarni",
		"phone":            "9876543210",
		"email":            "asha@example.com",
		"gender":           "Female",
		"password":         "s3cret-password",
		"confirm_password": "s3cret-password",
	}))

	// Controllers, the session manager and direct store reads all see
	// the same snapshot.
	assert.Equal(t, 2, eng.Wizard(ctx, "w1").State().StepIndex)
	assert.Equal(t, 2, eng.Sessions().State(ctx, "w1").StepIndex)

	loaded, err := store.Load(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.StepIndex)
}

func TestEngine_CustomRegistry(t *testing.T) {
	ctx := context.Background()
	reg := registry.New(registry.Step{
		Name: "only",
		Schema: func(map[string]any) schema.Schema {
			return schema.Schema{{Name: "value", Rules: []schema.Rule{schema.MinLen(1)}}}
		},
	})

	eng, err := vivah.New(vivah.WithRegistry(reg))
	require.NoError(t, err)

	ctrl := eng.Wizard(ctx, "w1")
	require.NoError(t, ctrl.SubmitStep(ctx, 1, map[string]any{"value": "x"}))
	assert.True(t, ctrl.Completed())
}

func TestEngine_HooksAndTimeout(t *testing.T) {
	ctx := context.Background()
	var effects int
	hooks := domain.LifecycleHooks{
		OnEffect: func(context.Context, *domain.EffectEvent) { effects++ },
	}

	reg := registry.New(registry.Step{
		Name: "slow",
		Schema: func(map[string]any) schema.Schema {
			return schema.Schema{{Name: "value", Optional: true}}
		},
		Effect: func(ctx context.Context, _ *ports.Backend, _, _ map[string]any) (map[string]any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
		EffectOp: "slow_op",
	})

	eng, err := vivah.New(
		vivah.WithRegistry(reg),
		vivah.WithLifecycleHooks(hooks),
		vivah.WithEffectTimeout(20*time.Millisecond),
	)
	require.NoError(t, err)

	err = eng.Wizard(ctx, "w1").SubmitStep(ctx, 1, map[string]any{})
	var see *domain.SideEffectError
	require.ErrorAs(t, err, &see)
	assert.Equal(t, 1, effects)
}
