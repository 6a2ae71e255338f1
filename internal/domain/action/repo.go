package action

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrConflict is returned by Upsert when another writer holds the non-closed
// slot for the same (entity, provider, schedule) key.
var ErrConflict = errors.New("action store conflict")

type Repository interface {
	// FindCurrent returns the single non-closed Action for the key, or
	// (nil, nil) when none exists.
	FindCurrent(ctx context.Context, entityID, providerID, scheduleName string) (*Action, error)
	// Upsert inserts a new Action, assigning its id, server timestamp and
	// revision. Returns ErrConflict if a non-closed Action already occupies
	// the key.
	Upsert(ctx context.Context, a *Action) (*Action, error)
	// FindAll returns every Action for the key, newest first.
	FindAll(ctx context.Context, providerID, entityID, scheduleName string) ([]*Action, error)
	// Close transitions the record to closed. Closing an already-closed
	// record is a no-op.
	Close(ctx context.Context, id uuid.UUID) error
	// CloseAllForEntity closes every open Action held by the provider for
	// the entity.
	CloseAllForEntity(ctx context.Context, entityID, providerID string) error
	// ListOpenByProvider returns the provider's open alerts, oldest due first.
	ListOpenByProvider(ctx context.Context, providerID string, limit, offset int) ([]*Action, int, error)
}
