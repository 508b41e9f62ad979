package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/inventory"
)

// ListBatchesQuery represents the filter options for the batch listing
type ListBatchesQuery struct {
	Search string `form:"search"`
	Status string `form:"status" binding:"omitempty,oneof=all expired soon near ok"`
}

// AddStockRequest represents a stock delivery to record
type AddStockRequest struct {
	Name       string `json:"name" binding:"required"`
	Strength   string `json:"strength" binding:"required"`
	Quantity   int64  `json:"quantity" binding:"required,gt=0"`
	ExpiryDate string `json:"expiry_date" binding:"required,datetime=2006-01-02"`
}

// RecordSaleRequest represents a sale to record against the catalog
type RecordSaleRequest struct {
	Name     string `json:"name" binding:"required"`
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
}

// StatusInfo pairs a status key with its display label
type StatusInfo struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// BatchResponse represents one batch row with its derived expiry status
type BatchResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Strength   string     `json:"strength"`
	Quantity   int64      `json:"quantity"`
	ExpiryDate string     `json:"expiry_date"`
	Status     StatusInfo `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// AddStockResult reports whether a delivery created a new batch or merged
// into an existing one
type AddStockResult struct {
	Batch   BatchResponse `json:"batch"`
	Created bool          `json:"created"`
	Message string        `json:"message"`
}

// DeleteResult reports how many batches a delete removed
type DeleteResult struct {
	Name    string `json:"name"`
	Removed int64  `json:"removed"`
	Message string `json:"message"`
}

// SaleResult describes a committed sale
type SaleResult struct {
	Name            string `json:"name"`
	UnitsSold       int64  `json:"units_sold"`
	UnitsRemaining  int64  `json:"units_remaining"`
	BatchesDepleted int    `json:"batches_depleted"`
	Message         string `json:"message"`
}

// InventorySummary aggregates the catalog by expiry status
type InventorySummary struct {
	TotalBatches int64            `json:"total_batches"`
	TotalUnits   int64            `json:"total_units"`
	StatusCounts map[string]int64 `json:"status_counts"`
}

// ToBatchResponse converts a batch entity to its response form, deriving the
// expiry status against the given day.
func ToBatchResponse(batch *inventory.Batch, today time.Time) BatchResponse {
	status := batch.Status(today)
	return BatchResponse{
		ID:         batch.ID,
		Name:       batch.Name,
		Strength:   batch.Strength,
		Quantity:   batch.Quantity,
		ExpiryDate: batch.ExpiryDate.Format(inventory.DateLayout),
		Status: StatusInfo{
			Key:   string(status),
			Label: status.Label(),
		},
		CreatedAt: batch.CreatedAt,
		UpdatedAt: batch.UpdatedAt,
	}
}
