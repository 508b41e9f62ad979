package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pharmstock/backend/internal/domain/inventory"
	"github.com/pharmstock/backend/internal/domain/shared"
)

// CatalogService implements the inventory catalog operations: listing with
// search and status filtering, stock intake under the configured identity
// model, and removal by medicine name. Every mutation runs inside the
// store's transaction scope.
type CatalogService struct {
	repo   inventory.BatchRepository
	scope  TransactionScope
	model  inventory.IdentityModel
	policy inventory.ConflictPolicy
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(
	repo inventory.BatchRepository,
	scope TransactionScope,
	model inventory.IdentityModel,
	policy inventory.ConflictPolicy,
) *CatalogService {
	return &CatalogService{
		repo:   repo,
		scope:  scope,
		model:  model,
		policy: policy,
	}
}

// List returns every batch in insertion order, annotated with its derived
// expiry status, optionally narrowed by a case-insensitive search term
// (matched against name and strength) and a status filter.
func (s *CatalogService) List(ctx context.Context, query ListBatchesQuery) ([]BatchResponse, error) {
	filter, err := inventory.ParseStatusFilter(query.Status)
	if err != nil {
		return nil, err
	}

	batches, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	term := inventory.FoldName(query.Search)
	today := time.Now()

	responses := make([]BatchResponse, 0, len(batches))
	for _, batch := range batches {
		if !batch.MatchesSearch(term) {
			continue
		}
		if !filter.Includes(batch.Status(today)) {
			continue
		}
		responses = append(responses, ToBatchResponse(batch, today))
	}
	return responses, nil
}

// GetMedicine returns every batch of one medicine, matched case-insensitively.
func (s *CatalogService) GetMedicine(ctx context.Context, name string) ([]BatchResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Medicine name cannot be empty")
	}

	batches, err := s.repo.FindByNameKey(ctx, inventory.FoldName(name))
	if err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Medicine %q not found", name))
	}

	today := time.Now()
	responses := make([]BatchResponse, 0, len(batches))
	for _, batch := range batches {
		responses = append(responses, ToBatchResponse(batch, today))
	}
	return responses, nil
}

// AddStock records a delivery. Depending on the configured identity model the
// delivery becomes a new batch or merges into an existing one; the name-only
// model can instead reject a duplicate name outright.
func (s *CatalogService) AddStock(ctx context.Context, req AddStockRequest) (*AddStockResult, error) {
	expiryDate, err := inventory.ParseDate(req.ExpiryDate)
	if err != nil {
		return nil, err
	}

	delivery, err := inventory.NewBatch(req.Name, req.Strength, req.Quantity, expiryDate)
	if err != nil {
		return nil, err
	}

	var result *AddStockResult
	err = s.scope.Execute(ctx, func(repo inventory.BatchRepository) error {
		target, err := s.findMergeTarget(ctx, repo, delivery)
		if err != nil {
			return err
		}

		if target != nil {
			target.Add(delivery.Quantity)
			if s.model == inventory.IdentityNameOnly {
				target.LowerExpiry(delivery.ExpiryDate)
			}
			if err := repo.Update(ctx, target); err != nil {
				return err
			}
			result = &AddStockResult{
				Batch:   ToBatchResponse(target, time.Now()),
				Created: false,
				Message: fmt.Sprintf("Merged %d units into existing batch of %s %s", delivery.Quantity, target.Name, target.Strength),
			}
			return nil
		}

		if err := repo.Create(ctx, delivery); err != nil {
			return err
		}
		result = &AddStockResult{
			Batch:   ToBatchResponse(delivery, time.Now()),
			Created: true,
			Message: fmt.Sprintf("Added new batch of %s %s", delivery.Name, delivery.Strength),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// findMergeTarget resolves the delivery against the configured identity
// model: the batch to merge into, nil to create a new row, or a conflict.
func (s *CatalogService) findMergeTarget(ctx context.Context, repo inventory.BatchRepository, delivery *inventory.Batch) (*inventory.Batch, error) {
	switch s.model {
	case inventory.IdentityNameOnly:
		// Uniqueness is on the exact name; strength and expiry do not
		// distinguish batches under this model.
		existing, err := repo.FindByName(ctx, delivery.Name)
		if err != nil {
			return nil, err
		}
		if len(existing) == 0 {
			return nil, nil
		}
		if s.policy == inventory.ConflictReject {
			return nil, shared.NewDomainError(shared.CodeConflict,
				fmt.Sprintf("Medicine %q already exists", delivery.Name))
		}
		return existing[0], nil

	default: // IdentityNameStrengthExpiry
		existing, err := repo.FindByIdentity(ctx, delivery.Name, delivery.Strength, delivery.ExpiryDate)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return existing, nil
	}
}

// DeleteByName removes every batch of the named medicine, matched
// case-insensitively, and returns how many rows went away.
func (s *CatalogService) DeleteByName(ctx context.Context, name string) (*DeleteResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Medicine name cannot be empty")
	}

	var result *DeleteResult
	err := s.scope.Execute(ctx, func(repo inventory.BatchRepository) error {
		removed, err := repo.DeleteByNameKey(ctx, inventory.FoldName(name))
		if err != nil {
			return err
		}
		if removed == 0 {
			return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Medicine %q not found", name))
		}
		result = &DeleteResult{
			Name:    name,
			Removed: removed,
			Message: fmt.Sprintf("Removed %d batch(es) of %s", removed, name),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Summary aggregates the whole catalog: batch and unit totals plus a count
// per expiry status.
func (s *CatalogService) Summary(ctx context.Context) (*InventorySummary, error) {
	batches, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	today := time.Now()
	summary := &InventorySummary{
		StatusCounts: map[string]int64{
			string(inventory.StatusExpired): 0,
			string(inventory.StatusSoon):    0,
			string(inventory.StatusNear):    0,
			string(inventory.StatusOK):      0,
		},
	}
	for _, batch := range batches {
		summary.TotalBatches++
		summary.TotalUnits += batch.Quantity
		summary.StatusCounts[string(batch.Status(today))]++
	}
	return summary, nil
}
