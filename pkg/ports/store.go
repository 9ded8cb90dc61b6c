package ports

import (
	"context"

	"github.com/sangamhq/vivah/pkg/domain"
)

// ProgressStore defines the interface for persisting wizard snapshots.
// Persistence is best-effort from the engine's point of view: the
// controller logs and swallows store failures rather than blocking the
// user flow. A store holds at most one snapshot per wizard ID.
type ProgressStore interface {
	// Save persists the snapshot for a given wizard ID.
	Save(ctx context.Context, wizardID string, state *domain.State) error

	// Load retrieves the snapshot for a given wizard ID.
	// Returns domain.ErrSnapshotNotFound if no snapshot exists.
	// A corrupt snapshot is reported as an error; callers treat it as
	// absent.
	Load(ctx context.Context, wizardID string) (*domain.State, error)

	// Clear removes the snapshot for a given wizard ID.
	Clear(ctx context.Context, wizardID string) error

	// List returns the wizard IDs with a stored snapshot.
	List(ctx context.Context) ([]string, error)
}
