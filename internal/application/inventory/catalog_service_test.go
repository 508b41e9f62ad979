package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/inventory"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryBatchRepository is an in-memory BatchRepository for exercising the
// services without a database. Reads hand out copies and Update replaces the
// stored row, mirroring how the real stores behave.
type memoryBatchRepository struct {
	mu      sync.Mutex
	batches []*inventory.Batch
	nextSeq int64
}

func newMemoryBatchRepository() *memoryBatchRepository {
	return &memoryBatchRepository{}
}

func (r *memoryBatchRepository) findCopies(match func(*inventory.Batch) bool) []*inventory.Batch {
	out := make([]*inventory.Batch, 0, len(r.batches))
	for _, b := range r.batches {
		if match(b) {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out
}

func (r *memoryBatchRepository) FindAll(_ context.Context) ([]*inventory.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findCopies(func(*inventory.Batch) bool { return true }), nil
}

func (r *memoryBatchRepository) FindByNameKey(_ context.Context, key string) ([]*inventory.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findCopies(func(b *inventory.Batch) bool { return b.NameKey == key }), nil
}

func (r *memoryBatchRepository) FindByName(_ context.Context, name string) ([]*inventory.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findCopies(func(b *inventory.Batch) bool { return b.Name == name }), nil
}

func (r *memoryBatchRepository) FindByIdentity(_ context.Context, name, strength string, expiryDate time.Time) (*inventory.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		if b.Name == name && b.Strength == strength && b.ExpiryDate.Equal(expiryDate) {
			clone := *b
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryBatchRepository) Create(_ context.Context, batch *inventory.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSeq++
	batch.Seq = r.nextSeq
	clone := *batch
	r.batches = append(r.batches, &clone)
	return nil
}

func (r *memoryBatchRepository) Update(_ context.Context, batch *inventory.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, b := range r.batches {
		if b.ID == batch.ID {
			clone := *batch
			r.batches[i] = &clone
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r *memoryBatchRepository) DeleteByIDs(_ context.Context, ids []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	drop := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := r.batches[:0]
	for _, b := range r.batches {
		if !drop[b.ID] {
			kept = append(kept, b)
		}
	}
	r.batches = kept
	return nil
}

func (r *memoryBatchRepository) DeleteByNameKey(_ context.Context, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	kept := r.batches[:0]
	for _, b := range r.batches {
		if b.NameKey == key {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	r.batches = kept
	return removed, nil
}

func (r *memoryBatchRepository) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.batches)), nil
}

var _ inventory.BatchRepository = (*memoryBatchRepository)(nil)

// day returns a fixed reference date shifted by n days.
func day(n int) time.Time {
	base := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, n)
}

func newTestCatalogService(repo inventory.BatchRepository, model inventory.IdentityModel, policy inventory.ConflictPolicy) *CatalogService {
	return NewCatalogService(repo, NewPassthroughTransactionScope(repo), model, policy)
}

func seedBatch(t *testing.T, repo inventory.BatchRepository, name, strength string, quantity int64, expiryDate time.Time) *inventory.Batch {
	t.Helper()
	batch, err := inventory.NewBatch(name, strength, quantity, expiryDate)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), batch))
	return batch
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected a domain error, got %v", err)
	assert.Equal(t, code, domainErr.Code)
}

func TestCatalogServiceList(t *testing.T) {
	ctx := context.Background()

	t.Run("returns an empty list for an empty catalog", func(t *testing.T) {
		svc := newTestCatalogService(newMemoryBatchRepository(), inventory.IdentityNameStrengthExpiry, inventory.ConflictReject)
		batches, err := svc.List(ctx, ListBatchesQuery{})
		require.NoError(t, err)
		assert.Empty(t, batches)
	})

	t.Run("preserves insertion order", func(t *testing.T) {
		repo := newMemoryBatchRepository()
		seedBatch(t, repo, "Zyrtec", "10mg", 5, day(400))
		seedBatch(t, repo, "Aspirin", "500mg", 10, day(10))
		seedBatch(t, repo, "Ibuprofen", "200mg", 7, day(50))

		svc := newTestCatalogService(repo, inventory.IdentityNameStrengthExpiry, inventory.ConflictReject)
		batches, err := svc.List(ctx, ListBatchesQuery{})
		require.NoError(t, err)
		require.Len(t, batches, 3)
		assert.Equal(t, "Zyrtec", batches[0].Name)
		assert.Equal(t, "Aspirin", batches[1].Name)
		assert.Equal(t, "Ibuprofen", batches[2].Name)
	})

	t.Run("search matches name and strength case-insensitively", func(t *testing.T) {
		repo := newMemoryBatchRepository()
		seedBatch(t, repo, "Paracetamol", "500mg", 10, day(200))
		seedBatch(t, repo, "Ibuprofen", "200mg", 7, day(200))

		svc := newTestCatalogService(repo, inventory.IdentityNameStrengthExpiry, inventory.ConflictReject)

		batches, err := svc.List(ctx, ListBatchesQuery{Search: "PARA"})
		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Equal(t, "Paracetamol", batches[0].Name)

		batches, err = svc.List(ctx, ListBatchesQuery{Search: "200mg"})
		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Equal(t, "Ibuprofen", batches[0].Name)

		batches, err = svc.List(ctx, ListBatchesQuery{Search: "no-such-thing"})
		require.NoError(t, err)
		assert.Empty(t, batches)
	})

	t.Run("filters by derived status", func(t *testing.T) {
		repo := newMemoryBatchRepository()
		expired, err := inventory.NewBatch("Old Stock", "10mg", 3, time.Now().AddDate(0, 0, -10))
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, expired))
		fresh, err := inventory.NewBatch("Fresh Stock", "10mg", 3, time.Now().AddDate(1, 0, 0))
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, fresh))

		svc := newTestCatalogService(repo, inventory.IdentityNameStrengthExpiry, inventory.ConflictReject)

		batches, err := svc.List(ctx, ListBatchesQuery{Status: "expired"})
		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Equal(t, "Old Stock", batches[0].Name)
		assert.Equal(t, "expired", batches[0].Status.Key)

		batches, err = svc.List(ctx, ListBatchesQuery{Status: "ok"})
		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Equal(t, "Fresh Stock", batches[0].Name)
	})

	t.Run("rejects an unknown status filter", func(t *testing.T) {
		svc := newTestCatalogService(newMemoryBatchRepository(), inventory.IdentityNameStrengthExpiry, inventory.ConflictReject)
		_, err := svc.List(ctx, ListBatchesQuery{Status: "stale"})
		require.Error(t, err)
		assertDomainCode(t, err, shared.CodeValidation)
	})
}

func TestCatalogServiceAddStock(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a new batch", func(t *testing.T) {
		repo := newMemoryBatchRepository()
		svc := newTestCatalogService(repo, inventory.IdentityNameStrengthExpiry, inventory.ConflictReject)

		result, err := svc.AddStock(ctx, AddStockRequest{Name: "Aspirin", Strength: "500mg", Quantity: 100, ExpiryDate: "2099-03-15"})
		require.NoError(t, err)
		assert.True(t, result.Created)
		assert.Equal(t, int64(100), result.Batch.Quantity)
		assert.Equal(t, "2099-03-15", result.Batch.ExpiryDate)

		count, _ := repo.Count(ctx)
		assert.Equal(t, int64(1), count)
	})

	t.Run("merges into an existing identity tuple", func(t *testing.T) {
		repo := newMemoryBatchRepository()
		svc := newTestCatalogService(repo, inventory.IdentityNameStrengthExpiry, inventory.ConflictReject)

		_, err := svc.AddStock(ctx, AddStockRequest{Name: "Aspirin", Strength: "500mg", Quantity: 100, ExpiryDate: "2099-03-15"})
		require.NoError(t, err)

		result, err := svc.AddStock(ctx, AddStockRequest{Name: "Aspirin", Strength: "500mg", Quantity: 4, ExpiryDate: "2099-03-15"})
		require.NoError(t, err)
		assert.False(t, result.Created)
		assert.Equal(t, int64(104), result.Batch.Quantity)

		count, _ := repo.Count(ctx)
		assert.Equal(t, int64(1), count)
	})

	t.Run("a differing tuple component creates a separate row", func(t *testing.T) {
		repo := newMemoryBatchRepository()
		svc := newTestCatalogService(repo, inventory.IdentityNameStrengthExpiry, inventory.ConflictReject)

		_, err := svc.AddStock(ctx, AddStockRequest{Name: "Aspirin", Strength: "500mg", Quantity: 10, ExpiryDate: "2099-03-15"})
		require.NoError(t, err)

		// Different expiry
		result, err := svc.AddStock(ctx, AddStockRequest{Name: "Aspirin", Strength: "500mg", Quantity: 10, ExpiryDate: "2099-06-15"})
		require.NoError(t, err)
		assert.True(t, result.Created)

		// Different strength
		result, err = svc.AddStock(ctx, AddStockRequest{Name: "Aspirin", Strength: "100mg", Quantity: 10, ExpiryDate: "2099-03-15"})
		require.NoError(t, err)
		assert.True(t, result.Created)

		// Identity matching is case-sensitive
		result, err = svc.AddStock(ctx, AddStockRequest{Name: "ASPIRIN", Strength: "500mg", Quantity: 10, ExpiryDate: "2099-03-15"})
		require.NoError(t, err)
		assert.True(t, result.Created)

		count, _ := repo.Count(ctx)
		assert.Equal(t, int64(4), count)
	})

	t.Run("name-only model rejects a duplicate name", func(t *testing.T) {
		repo := newMemoryBatchRepository()
		svc := newTestCatalogService(repo, inventory.IdentityNameOnly, inventory.ConflictReject)

		_, err := svc.AddStock(ctx, AddStockRequest{Name: "Aspirin", Strength: "500mg", Quantity: 10, ExpiryDate: "2099-03-15"})
		require.NoError(t, err)

		_, err = svc.AddStock(ctx, AddStockRequest{Name: "Aspirin", Strength: "100mg", Quantity: 5, ExpiryDate: "2099-06-15"})
		require.Error(t, err)
		assertDomainCode(t, err, shared.CodeConflict)

		count, _ := repo.Count(ctx)
		assert.Equal(t, int64(1), count)
	})

	t.Run("name-only merge policy sums quantity and keeps the earlier expiry", func(t *testing.T) {
		repo := newMemoryBatchRepository()
		svc := newTestCatalogService(repo, inventory.IdentityNameOnly, inventory.ConflictMerge)

		_, err := svc.AddStock(ctx, AddStockRequest{Name: "Aspirin", Strength: "500mg", Quantity: 10, ExpiryDate: "2099-06-15"})
		require.NoError(t, err)

		result, err := svc.AddStock(ctx, AddStockRequest{Name: "Aspirin", Strength: "100mg", Quantity: 5, ExpiryDate: "2099-03-15"})
		require.NoError(t, err)
		assert.False(t, result.Created)
		assert.Equal(t, int64(15), result.Batch.Quantity)
		assert.Equal(t, "2099-03-15", result.Batch.ExpiryDate)
		assert.Equal(t, "500mg", result.Batch.Strength)

		// A later expiry does not displace the earlier one.
		result, err = svc.AddStock(ctx, AddStockRequest{Name: "Aspirin", Strength: "500mg", Quantity: 1, ExpiryDate: "2099-12-31"})
		require.NoError(t, err)
		assert.Equal(t, "2099-03-15", result.Batch.ExpiryDate)

		count, _ := repo.Count(ctx)
		assert.Equal(t, int64(1), count)
	})

	t.Run("rejects invalid input before touching the store", func(t *testing.T) {
		repo := newMemoryBatchRepository()
		svc := newTestCatalogService(repo, inventory.IdentityNameStrengthExpiry, inventory.ConflictReject)

		_, err := svc.AddStock(ctx, AddStockRequest{Name: "", Strength: "500mg", Quantity: 10, ExpiryDate: "2099-03-15"})
		assertDomainCode(t, err, shared.CodeValidation)

		_, err = svc.AddStock(ctx, AddStockRequest{Name: "Aspirin", Strength: "500mg", Quantity: 0, ExpiryDate: "2099-03-15"})
		assertDomainCode(t, err, shared.CodeValidation)

		_, err = svc.AddStock(ctx, AddStockRequest{Name: "Aspirin", Strength: "500mg", Quantity: 10, ExpiryDate: "15/03/2099"})
		assertDomainCode(t, err, shared.CodeValidation)

		count, _ := repo.Count(ctx)
		assert.Equal(t, int64(0), count)
	})
}

func TestCatalogServiceDeleteByName(t *testing.T) {
	ctx := context.Background()

	t.Run("removes every batch of the name regardless of strength and expiry", func(t *testing.T) {
		repo := newMemoryBatchRepository()
		seedBatch(t, repo, "Aspirin", "500mg", 10, day(10))
		seedBatch(t, repo, "Aspirin", "100mg", 5, day(50))
		seedBatch(t, repo, "ASPIRIN", "200mg", 3, day(90))
		seedBatch(t, repo, "Ibuprofen", "200mg", 7, day(30))

		svc := newTestCatalogService(repo, inventory.IdentityNameStrengthExpiry, inventory.ConflictReject)

		result, err := svc.DeleteByName(ctx, "aspirin")
		require.NoError(t, err)
		assert.Equal(t, int64(3), result.Removed)

		remaining, err := svc.List(ctx, ListBatchesQuery{})
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, "Ibuprofen", remaining[0].Name)
	})

	t.Run("unknown name fails with not found", func(t *testing.T) {
		svc := newTestCatalogService(newMemoryBatchRepository(), inventory.IdentityNameStrengthExpiry, inventory.ConflictReject)
		_, err := svc.DeleteByName(ctx, "Placebo")
		assertDomainCode(t, err, shared.CodeNotFound)
	})

	t.Run("empty name fails validation", func(t *testing.T) {
		svc := newTestCatalogService(newMemoryBatchRepository(), inventory.IdentityNameStrengthExpiry, inventory.ConflictReject)
		_, err := svc.DeleteByName(ctx, "   ")
		assertDomainCode(t, err, shared.CodeValidation)
	})
}

func TestCatalogServiceGetMedicine(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the batches of one medicine case-insensitively", func(t *testing.T) {
		repo := newMemoryBatchRepository()
		seedBatch(t, repo, "Aspirin", "500mg", 10, day(10))
		seedBatch(t, repo, "Aspirin", "100mg", 5, day(50))
		seedBatch(t, repo, "Ibuprofen", "200mg", 7, day(30))

		svc := newTestCatalogService(repo, inventory.IdentityNameStrengthExpiry, inventory.ConflictReject)
		batches, err := svc.GetMedicine(ctx, "ASPIRIN")
		require.NoError(t, err)
		assert.Len(t, batches, 2)
	})

	t.Run("unknown medicine fails with not found", func(t *testing.T) {
		svc := newTestCatalogService(newMemoryBatchRepository(), inventory.IdentityNameStrengthExpiry, inventory.ConflictReject)
		_, err := svc.GetMedicine(ctx, "Placebo")
		assertDomainCode(t, err, shared.CodeNotFound)
	})
}

func TestCatalogServiceSummary(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryBatchRepository()

	mustCreate := func(name string, quantity int64, expiry time.Time) {
		batch, err := inventory.NewBatch(name, "10mg", quantity, expiry)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, batch))
	}

	now := time.Now()
	mustCreate("Expired", 2, now.AddDate(0, 0, -5))
	mustCreate("Soon", 3, now.AddDate(0, 0, 10))
	mustCreate("Near", 4, now.AddDate(0, 0, 60))
	mustCreate("Fine", 5, now.AddDate(1, 0, 0))

	svc := newTestCatalogService(repo, inventory.IdentityNameStrengthExpiry, inventory.ConflictReject)
	summary, err := svc.Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(4), summary.TotalBatches)
	assert.Equal(t, int64(14), summary.TotalUnits)
	assert.Equal(t, int64(1), summary.StatusCounts["expired"])
	assert.Equal(t, int64(1), summary.StatusCounts["soon"])
	assert.Equal(t, int64(1), summary.StatusCounts["near"])
	assert.Equal(t, int64(1), summary.StatusCounts["ok"])
}
