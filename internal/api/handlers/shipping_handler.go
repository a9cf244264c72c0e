package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/andresuchdata/pirs/internal/service"
	"github.com/gin-gonic/gin"
)

type ShippingHandler struct {
	service *service.DispatchService
}

func NewShippingHandler(service *service.DispatchService) *ShippingHandler {
	return &ShippingHandler{service: service}
}

type dispatchRequest struct {
	LotID string `json:"lot_id"`
	Qty   int    `json:"qty"`
}

type blockRequest struct {
	Reason string `json:"reason"`
}

// bindOptional decodes a JSON body when one was sent. An empty body is valid.
func bindOptional(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// lotID prefers the body over the ?lot_id= query parameter
func lotID(c *gin.Context, req dispatchRequest) string {
	if id := strings.TrimSpace(req.LotID); id != "" {
		return id
	}
	return strings.TrimSpace(c.Query("lot_id"))
}

func (h *ShippingHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	entry, err := h.service.CreateOrder(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to create order")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":        "Order " + entry.ID + " queued.",
		"order_id":       entry.ID,
		"priority_score": entry.PriorityScore,
		"reason":         entry.PriorityReason,
		"order":          entry,
	})
}

func (h *ShippingHandler) GetHistory(c *gin.Context) {
	orders, err := h.service.History(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch order history")
		return
	}

	c.JSON(http.StatusOK, orders)
}

func (h *ShippingHandler) Dispatch(c *gin.Context) {
	var req dispatchRequest
	if err := bindOptional(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.Dispatch(c.Request.Context(), c.Param("id"), lotID(c, req))
	if err != nil {
		respondError(c, err, "failed to dispatch order")
		return
	}

	c.JSON(http.StatusOK, result)
}

// PartialDispatch ships part of an order. Omitting qty ships what is on hand.
func (h *ShippingHandler) PartialDispatch(c *gin.Context) {
	var req dispatchRequest
	if err := bindOptional(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.PartialDispatch(c.Request.Context(), c.Param("id"), req.Qty, lotID(c, req))
	if err != nil {
		respondError(c, err, "failed to partially dispatch order")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ShippingHandler) Block(c *gin.Context) {
	var req blockRequest
	if err := bindOptional(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	id := c.Param("id")
	if err := h.service.Block(c.Request.Context(), id, req.Reason); err != nil {
		respondError(c, err, "failed to block order")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order " + id + " blocked."})
}

// Cancel answers 204 when there was no pending order to withdraw.
func (h *ShippingHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	cancelled, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to cancel order")
		return
	}
	if !cancelled {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order " + id + " cancelled."})
}

func (h *ShippingHandler) GetQueue(c *gin.Context) {
	entries, err := h.service.Queue(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch shipping queue")
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *ShippingHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch shipping dashboard")
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

func (h *ShippingHandler) Reconcile(c *gin.Context) {
	removed := h.service.Reconcile(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *ShippingHandler) GetHeapState(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.HeapState())
}
