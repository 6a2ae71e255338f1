package child

import "context"

type Repository interface {
	// Create persists a new child record, assigning its id.
	Create(ctx context.Context, c *Child) error
	// GetByCaseID returns the record for the case, or (nil, nil) when the
	// case is not registered.
	GetByCaseID(ctx context.Context, caseID string) (*Child, error)
	// Update rewrites the mutable fields of an existing record.
	Update(ctx context.Context, c *Child) error
	// MarkClosed flags the case closed.
	MarkClosed(ctx context.Context, caseID string) error
	// ListByMother returns the children registered under a mother's case.
	ListByMother(ctx context.Context, motherCaseID string) ([]*Child, error)
}
