package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BatchRepository defines the interface for batch persistence: the store
// collaborator every catalog and sale operation goes through. Implementations
// assign the insertion sequence on create and are responsible for the
// serialization of concurrent mutations (a database transaction, or a lock
// around the file document).
type BatchRepository interface {
	// FindAll returns every batch in insertion order.
	FindAll(ctx context.Context) ([]*Batch, error)

	// FindByNameKey returns the batches whose folded name equals key, in
	// insertion order. Sale, delete and per-medicine reads match this way.
	FindByNameKey(ctx context.Context, key string) ([]*Batch, error)

	// FindByName returns the batches whose raw name matches exactly
	// (case-sensitive). Identity checks under the name-only model use this.
	FindByName(ctx context.Context, name string) ([]*Batch, error)

	// FindByIdentity returns the batch with the exact case-sensitive
	// (name, strength, expiry date) tuple, or shared.ErrNotFound.
	FindByIdentity(ctx context.Context, name, strength string, expiryDate time.Time) (*Batch, error)

	// Create inserts a new batch and assigns its insertion sequence.
	Create(ctx context.Context, batch *Batch) error

	// Update persists a mutated batch; shared.ErrNotFound if it is gone.
	Update(ctx context.Context, batch *Batch) error

	// DeleteByIDs removes the given batches (depleted-row cleanup).
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error

	// DeleteByNameKey removes every batch whose folded name equals key and
	// returns how many rows went away.
	DeleteByNameKey(ctx context.Context, key string) (int64, error)

	// Count returns the total number of batches.
	Count(ctx context.Context) (int64, error)
}
