package handler

import (
	"github.com/gin-gonic/gin"
	appinventory "github.com/pharmstock/backend/internal/application/inventory"
)

// SaleHandler handles sale HTTP requests
type SaleHandler struct {
	BaseHandler
	saleService *appinventory.SaleService
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(saleService *appinventory.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// RegisterRoutes mounts the sale routes
func (h *SaleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sales", h.Create)
}

// Create godoc
// @ID           createSales
// @Summary      Record a sale
// @Description  Draws the requested quantity from the soonest-expiring batches of the named medicine; batches emptied by the sale are removed
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body appinventory.RecordSaleRequest true "Sale to record"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response "insufficient stock, details carry available and requested"
// @Router       /sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	var req appinventory.RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	result, err := h.saleService.RecordSale(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}
