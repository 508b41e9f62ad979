package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	appinventory "github.com/pharmstock/backend/internal/application/inventory"
)

// MedicineHandler handles medicine catalog HTTP requests
type MedicineHandler struct {
	BaseHandler
	catalogService *appinventory.CatalogService
}

// NewMedicineHandler creates a new medicine handler
func NewMedicineHandler(catalogService *appinventory.CatalogService) *MedicineHandler {
	return &MedicineHandler{catalogService: catalogService}
}

// RegisterRoutes mounts the medicine catalog routes
func (h *MedicineHandler) RegisterRoutes(rg *gin.RouterGroup) {
	medicines := rg.Group("/medicines")
	medicines.GET("", h.List)
	medicines.POST("", h.AddStock)
	medicines.GET("/:name", h.GetByName)
	medicines.DELETE("/:name", h.Delete)

	rg.GET("/inventory/summary", h.Summary)
}

// ListMedicinesResponse wraps the batch listing
type ListMedicinesResponse struct {
	Batches []appinventory.BatchResponse `json:"batches"`
	Count   int                          `json:"count"`
}

// MedicineResponse groups all batches registered under one medicine name
type MedicineResponse struct {
	Name       string                       `json:"name"`
	TotalUnits int64                        `json:"total_units"`
	Batches    []appinventory.BatchResponse `json:"batches"`
}

// List godoc
// @ID           listMedicines
// @Summary      List medicine batches
// @Description  Returns every batch in insertion order with its derived expiry status, optionally narrowed by a search term or a status filter
// @Tags         medicines
// @Produce      json
// @Param        search query string false "Substring matched against name and strength, case-insensitive"
// @Param        status query string false "Expiry status filter" Enums(all, expired, soon, near, ok) default(all)
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /medicines [get]
func (h *MedicineHandler) List(c *gin.Context) {
	var query appinventory.ListBatchesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	batches, err := h.catalogService.List(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ListMedicinesResponse{
		Batches: batches,
		Count:   len(batches),
	})
}

// AddStock godoc
// @ID           addStockMedicines
// @Summary      Add stock
// @Description  Records a delivery. Depending on the configured identity model the delivery either creates a new batch or merges into an existing one
// @Tags         medicines
// @Accept       json
// @Produce      json
// @Param        request body appinventory.AddStockRequest true "Delivery to record"
// @Success      200 {object} dto.Response "merged into an existing batch"
// @Success      201 {object} dto.Response "new batch created"
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /medicines [post]
func (h *MedicineHandler) AddStock(c *gin.Context) {
	var req appinventory.AddStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	result, err := h.catalogService.AddStock(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Created {
		h.Created(c, result)
		return
	}
	h.Success(c, result)
}

// GetByName godoc
// @ID           getByNameMedicines
// @Summary      Get a medicine
// @Description  Returns every batch registered under a medicine name. The lookup ignores case
// @Tags         medicines
// @Produce      json
// @Param        name path string true "Medicine name"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /medicines/{name} [get]
func (h *MedicineHandler) GetByName(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))

	batches, err := h.catalogService.GetMedicine(c.Request.Context(), name)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var total int64
	for _, b := range batches {
		total += b.Quantity
	}

	h.Success(c, MedicineResponse{
		Name:       batches[0].Name,
		TotalUnits: total,
		Batches:    batches,
	})
}

// Delete godoc
// @ID           deleteMedicines
// @Summary      Delete a medicine
// @Description  Removes every batch registered under a medicine name, regardless of strength or expiry
// @Tags         medicines
// @Produce      json
// @Param        name path string true "Medicine name"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /medicines/{name} [delete]
func (h *MedicineHandler) Delete(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))

	result, err := h.catalogService.DeleteByName(c.Request.Context(), name)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Summary godoc
// @ID           getInventorySummary
// @Summary      Inventory summary
// @Description  Returns batch and unit totals plus per-status batch counts
// @Tags         inventory
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /inventory/summary [get]
func (h *MedicineHandler) Summary(c *gin.Context) {
	summary, err := h.catalogService.Summary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}
