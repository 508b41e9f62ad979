package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/shared"
)

// BatchDeduction records how one batch participates in a sale.
type BatchDeduction struct {
	BatchID    uuid.UUID `json:"batch_id"`
	Strength   string    `json:"strength"`
	ExpiryDate time.Time `json:"expiry_date"`
	Taken      int64     `json:"taken"`     // units drawn from this batch
	Remaining  int64     `json:"remaining"` // units left in the batch afterwards
	Depleted   bool      `json:"depleted"`  // Remaining == 0: the row is removed on commit
}

// FulfillmentPlan is the computed effect of a sale before it is applied.
// Planning never mutates the batches it reads; the caller commits the plan
// against the store (or discards it) as one atomic mutation.
type FulfillmentPlan struct {
	Requested      int64            `json:"requested"`
	TotalAvailable int64            `json:"total_available"` // sellable units across matching batches, pre-sale
	Deductions     []BatchDeduction `json:"deductions"`
}

// DepletedBatchIDs returns the batches the plan empties entirely.
func (p *FulfillmentPlan) DepletedBatchIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Deductions))
	for _, d := range p.Deductions {
		if d.Depleted {
			ids = append(ids, d.BatchID)
		}
	}
	return ids
}

// DepletedCount returns how many batches the plan empties entirely.
func (p *FulfillmentPlan) DepletedCount() int {
	return len(p.DepletedBatchIDs())
}

// RemainingTotal returns the units left across the medicine's batches once
// the plan is applied.
func (p *FulfillmentPlan) RemainingTotal() int64 {
	return p.TotalAvailable - p.Requested
}

// PlanFulfillment computes the FIFO-by-expiry deduction plan for a sale.
//
// Batches are drawn down soonest-expiry-first so the stock closest to
// expiring leaves the shelf first; equal expiry dates fall back to insertion
// order. Each batch yields min(remaining, batch quantity) until the request
// is covered. Feasibility is checked against the sellable total before any
// deduction is planned, so an insufficient request produces an error and no
// plan. The input batches are never touched either way.
//
// Zero-quantity batches are excluded from selection. If nothing sellable
// remains, the sale fails as insufficient stock with an available total of
// zero (the caller distinguishes a completely unknown medicine beforehand).
func PlanFulfillment(batches []*Batch, requested int64) (*FulfillmentPlan, error) {
	if requested <= 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Requested quantity must be a positive integer")
	}

	sellable := make([]*Batch, 0, len(batches))
	var available int64
	for _, b := range batches {
		if b.Quantity > 0 {
			sellable = append(sellable, b)
			available += b.Quantity
		}
	}

	if available < requested {
		return nil, NewInsufficientStockError(available, requested)
	}

	// Soonest expiry first; insertion order breaks ties.
	sort.Slice(sellable, func(i, j int) bool {
		if !sellable[i].ExpiryDate.Equal(sellable[j].ExpiryDate) {
			return sellable[i].ExpiryDate.Before(sellable[j].ExpiryDate)
		}
		return sellable[i].Seq < sellable[j].Seq
	})

	plan := &FulfillmentPlan{
		Requested:      requested,
		TotalAvailable: available,
		Deductions:     make([]BatchDeduction, 0, len(sellable)),
	}

	remaining := requested
	for _, b := range sellable {
		if remaining == 0 {
			break
		}

		take := b.Quantity
		if take > remaining {
			take = remaining
		}
		left := b.Quantity - take

		plan.Deductions = append(plan.Deductions, BatchDeduction{
			BatchID:    b.ID,
			Strength:   b.Strength,
			ExpiryDate: b.ExpiryDate,
			Taken:      take,
			Remaining:  left,
			Depleted:   left == 0,
		})
		remaining -= take
	}

	return plan, nil
}

// NewInsufficientStockError reports a sale that cannot be fully satisfied.
// The sellable total travels in the details so callers can surface it.
func NewInsufficientStockError(available, requested int64) *shared.DomainError {
	return shared.NewDomainErrorWithDetails(
		shared.CodeInsufficientStock,
		fmt.Sprintf("Insufficient stock: available=%d, requested=%d", available, requested),
		map[string]interface{}{
			"available": available,
			"requested": requested,
		},
	)
}
