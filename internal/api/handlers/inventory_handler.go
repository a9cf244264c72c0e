// internal/api/handlers/inventory_handler.go
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/pirs/internal/domain"
	"github.com/andresuchdata/pirs/internal/service"
	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	service *service.InventoryService
}

func NewInventoryHandler(service *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

type stockUpdateRequest struct {
	NewStock *int `json:"new_stock" binding:"required"`
}

// GetTopPriority returns the single most urgent SKU
func (h *InventoryHandler) GetTopPriority(c *gin.Context) {
	top, err := h.service.TopPriority(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to compute top priority")
		return
	}
	if top == nil {
		c.JSON(http.StatusOK, gin.H{"message": "no critical items"})
		return
	}

	c.JSON(http.StatusOK, top)
}

// GetReorder returns the reorder ranking, optionally truncated with ?limit=
func (h *InventoryHandler) GetReorder(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}

	alerts, err := h.service.ReorderRanking(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "failed to build reorder ranking")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": alerts,
		"count": len(alerts),
	})
}

// GetStability returns every SKU in ascending days-remaining order
func (h *InventoryHandler) GetStability(c *gin.Context) {
	view, err := h.service.Stability(c.Request.Context(), service.FilterAll)
	if err != nil {
		respondError(c, err, "failed to build stability report")
		return
	}

	c.JSON(http.StatusOK, view.Items)
}

// GetBSTFilter returns one subtree of the stability classification
func (h *InventoryHandler) GetBSTFilter(c *gin.Context) {
	subtree := strings.ToLower(strings.TrimSpace(c.DefaultQuery("subtree", service.FilterAll)))

	view, err := h.service.Stability(c.Request.Context(), subtree)
	if err != nil {
		respondError(c, err, "failed to filter stability report")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *InventoryHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var p domain.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	p.SKU = strings.TrimSpace(p.SKU)

	if err := h.service.CreateProduct(c.Request.Context(), p); err != nil {
		respondError(c, err, "failed to create product")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Product " + p.SKU + " created successfully."})
}

func (h *InventoryHandler) UpdateStock(c *gin.Context) {
	sku := c.Param("sku")

	var req stockUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.service.UpdateStock(c.Request.Context(), sku, *req.NewStock); err != nil {
		respondError(c, err, "failed to update stock")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Stock for " + sku + " updated to " + strconv.Itoa(*req.NewStock)})
}

func (h *InventoryHandler) DeleteProduct(c *gin.Context) {
	sku := c.Param("sku")
	if err := h.service.DeleteProduct(c.Request.Context(), sku); err != nil {
		respondError(c, err, "failed to delete product")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product " + sku + " deleted."})
}

// GetHeapState exposes the reorder ranker's backing array
func (h *InventoryHandler) GetHeapState(c *gin.Context) {
	state, err := h.service.HeapState(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to build heap state")
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *InventoryHandler) GetBSTStructure(c *gin.Context) {
	state, err := h.service.BSTStructure(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to build tree structure")
		return
	}

	c.JSON(http.StatusOK, state)
}
