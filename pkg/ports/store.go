package ports

import (
	"context"

	"github.com/aretw0/trawler/pkg/domain"
)

// ResultStore persists the final state tree of workflow runs.
type ResultStore interface {
	// Save persists the tree under the given result ID, replacing any previous value.
	Save(ctx context.Context, id string, tree domain.Tree) error

	// Load retrieves the tree for a result ID.
	// Returns domain.ErrResultNotFound if the ID does not exist.
	Load(ctx context.Context, id string) (domain.Tree, error)

	// Delete removes the result. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored results.
	List(ctx context.Context) ([]string, error)
}
