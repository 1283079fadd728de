package ppn

import "context"

// Repository defines the interface for PPN persistence.
type Repository interface {
	// Get retrieves a PPN by ID. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*PPN, error)

	// List retrieves all PPNs ordered by name.
	List(ctx context.Context) ([]*PPN, error)
}
