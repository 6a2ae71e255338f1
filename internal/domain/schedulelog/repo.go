package schedulelog

import "context"

type Repository interface {
	// Append writes one entry. Implementations must not swallow failures.
	Append(ctx context.Context, e *Entry) error
	// ListByEntity returns the entries for an entity and schedule in
	// recording order, for audit export.
	ListByEntity(ctx context.Context, entityID, scheduleName string) ([]*Entry, error)
}
