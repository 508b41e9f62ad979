package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/inventory"
	"github.com/pharmstock/backend/internal/domain/shared"
)

// SaleService records sales against the catalog. Batches are drawn down
// soonest-expiry-first; a sale either commits in full or leaves the store
// untouched. Batches a sale empties are removed in the same mutation.
type SaleService struct {
	scope TransactionScope
}

// NewSaleService creates a new SaleService
func NewSaleService(scope TransactionScope) *SaleService {
	return &SaleService{scope: scope}
}

// RecordSale deducts the requested quantity of a medicine from its batches.
// Selection is by name only (case-insensitive), pooling all strengths. The
// deduction plan is computed without touching the batches, then committed
// inside the transaction scope, so a failure at any point leaves persisted
// state unchanged.
func (s *SaleService) RecordSale(ctx context.Context, req RecordSaleRequest) (*SaleResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Medicine name cannot be empty")
	}
	if req.Quantity <= 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Quantity must be a positive integer")
	}

	var result *SaleResult
	err := s.scope.Execute(ctx, func(repo inventory.BatchRepository) error {
		batches, err := repo.FindByNameKey(ctx, inventory.FoldName(name))
		if err != nil {
			return err
		}
		if len(batches) == 0 {
			return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Medicine %q not found", name))
		}

		plan, err := inventory.PlanFulfillment(batches, req.Quantity)
		if err != nil {
			return err
		}

		if err := applyPlan(ctx, repo, batches, plan); err != nil {
			return err
		}

		result = &SaleResult{
			Name:            name,
			UnitsSold:       plan.Requested,
			UnitsRemaining:  plan.RemainingTotal(),
			BatchesDepleted: plan.DepletedCount(),
			Message:         saleMessage(name, plan),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyPlan commits a fulfillment plan: surviving batches get their reduced
// quantities persisted, depleted batches are removed.
func applyPlan(ctx context.Context, repo inventory.BatchRepository, batches []*inventory.Batch, plan *inventory.FulfillmentPlan) error {
	byID := make(map[uuid.UUID]*inventory.Batch, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}

	depleted := make([]uuid.UUID, 0, len(plan.Deductions))
	for _, d := range plan.Deductions {
		if d.Depleted {
			depleted = append(depleted, d.BatchID)
			continue
		}
		batch := byID[d.BatchID]
		batch.Deduct(d.Taken)
		if err := repo.Update(ctx, batch); err != nil {
			return err
		}
	}

	if len(depleted) > 0 {
		return repo.DeleteByIDs(ctx, depleted)
	}
	return nil
}

func saleMessage(name string, plan *inventory.FulfillmentPlan) string {
	unit := "units"
	if plan.Requested == 1 {
		unit = "unit"
	}
	msg := fmt.Sprintf("Sold %d %s of %s", plan.Requested, unit, name)

	switch depleted := plan.DepletedCount(); {
	case depleted == 1:
		msg += " (1 batch depleted)"
	case depleted > 1:
		msg += fmt.Sprintf(" (%d batches depleted)", depleted)
	}
	return msg
}
