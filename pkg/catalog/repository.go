package catalog

import "context"

// Repository persists catalog entries. Implementations must enforce name
// uniqueness atomically with the insert and report a duplicate as
// *errs.AlreadyExistsError. Infrastructure failures are reported as
// *errs.StorageUnavailableError.
type Repository interface {
	// Create inserts p. p.ID must already be assigned.
	Create(ctx context.Context, p *Permission) error

	// FindByID returns (nil, nil) when no entry has the given id
	FindByID(ctx context.Context, id string) (*Permission, error)

	// FindByName returns (nil, nil) when no entry has the given name
	FindByName(ctx context.Context, name string) (*Permission, error)

	// Update persists the mutable fields of p
	Update(ctx context.Context, p *Permission) error

	// Delete removes the entry with the given id
	Delete(ctx context.Context, id string) error

	// List returns the page selected by q (already normalized) and the
	// total number of entries matching q.Filter.
	List(ctx context.Context, q ListQuery) ([]Permission, int, error)

	// Stats summarizes the catalog
	Stats(ctx context.Context) (Stats, error)
}

// Reader is the read-only subset used by the decision engine
type Reader interface {
	FindByName(ctx context.Context, name string) (*Permission, error)
}
