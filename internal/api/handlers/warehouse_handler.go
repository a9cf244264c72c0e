package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/pirs/internal/domain"
	"github.com/andresuchdata/pirs/internal/service"
	"github.com/gin-gonic/gin"
)

// AuditHandler serves the cycle-count rotation
type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(service *service.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

func (h *AuditHandler) GetNext(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", strconv.Itoa(h.service.BatchSize())))
	if err != nil || count <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must be a positive integer"})
		return
	}

	sequence, err := h.service.Next(c.Request.Context(), count)
	if err != nil {
		respondError(c, err, "failed to fetch audit sequence")
		return
	}

	c.JSON(http.StatusOK, gin.H{"audit_sequence": sequence})
}

func (h *AuditHandler) GetState(c *gin.Context) {
	state, err := h.service.State(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to build audit state")
		return
	}

	c.JSON(http.StatusOK, state)
}

// SafetyHandler serves the blocked-lot gate
type SafetyHandler struct {
	service *service.SafetyService
}

func NewSafetyHandler(service *service.SafetyService) *SafetyHandler {
	return &SafetyHandler{service: service}
}

type blockLotRequest struct {
	LotID  string `json:"lot_id" binding:"required"`
	SKU    string `json:"sku"`
	Reason string `json:"reason"`
}

func (h *SafetyHandler) ListLots(c *gin.Context) {
	lots := h.service.List()
	c.JSON(http.StatusOK, gin.H{
		"lots":  lots,
		"count": len(lots),
	})
}

// BlockLot answers 201 for a newly blocked lot and 200 when it was already blocked
func (h *SafetyHandler) BlockLot(c *gin.Context) {
	var req blockLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	added, err := h.service.Block(c.Request.Context(), domain.BlockedLot{
		LotID:  req.LotID,
		SKU:    strings.TrimSpace(req.SKU),
		Reason: strings.TrimSpace(req.Reason),
	})
	if err != nil {
		respondError(c, err, "failed to block lot")
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"lot_id": strings.TrimSpace(req.LotID), "blocked": true, "added": added})
}

func (h *SafetyHandler) CheckLot(c *gin.Context) {
	id := c.Param("lot")
	c.JSON(http.StatusOK, gin.H{"lot_id": id, "safe": h.service.IsSafe(id)})
}

func (h *SafetyHandler) GetHashSetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.HashSetState())
}
