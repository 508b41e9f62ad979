package inventory

import (
	"context"

	"github.com/pharmstock/backend/internal/domain/inventory"
)

// TransactionScope executes a mutation as one atomic read-modify-write cycle
// against the store. The repository handed to the function is bound to the
// scope: a database implementation runs it inside a transaction, the file
// implementation locks the document and works on a private copy. If the
// function returns an error nothing is persisted.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repo inventory.BatchRepository) error) error
}

// PassthroughTransactionScope runs the function directly against a fixed
// repository, without transactional guarantees. Useful for tests and for
// callers that already hold a scoped repository.
type PassthroughTransactionScope struct {
	repo inventory.BatchRepository
}

// NewPassthroughTransactionScope creates a PassthroughTransactionScope over
// the given repository.
func NewPassthroughTransactionScope(repo inventory.BatchRepository) *PassthroughTransactionScope {
	return &PassthroughTransactionScope{repo: repo}
}

// Execute runs the function against the wrapped repository as-is.
func (s *PassthroughTransactionScope) Execute(_ context.Context, fn func(repo inventory.BatchRepository) error) error {
	return fn(s.repo)
}

// Ensure PassthroughTransactionScope implements the interface
var _ TransactionScope = (*PassthroughTransactionScope)(nil)
