package report

import "context"

type Repository interface {
	// Append records one indicator row. Rows are never updated or deleted.
	Append(ctx context.Context, ind *Indicator) error
	// ListByEntity returns the indicators recorded for an entity, newest first.
	ListByEntity(ctx context.Context, entityID string) ([]*Indicator, error)
}
