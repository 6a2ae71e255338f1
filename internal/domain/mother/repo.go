package mother

import "context"

type Repository interface {
	// Create persists a new mother record, assigning its id.
	Create(ctx context.Context, m *Mother) error
	// GetByCaseID returns the record for the case, or (nil, nil) when the
	// case is not registered.
	GetByCaseID(ctx context.Context, caseID string) (*Mother, error)
	// Update rewrites the mutable fields of an existing record.
	Update(ctx context.Context, m *Mother) error
	// MarkClosed flags the case closed. Closing an already-closed case is a
	// no-op.
	MarkClosed(ctx context.Context, caseID string) error
	// ListByProvider returns a provider's open cases.
	ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]*Mother, int, error)
}
