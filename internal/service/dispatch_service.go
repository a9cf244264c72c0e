package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/pirs/internal/domain"
	"github.com/andresuchdata/pirs/internal/engine/dispatch"
	"github.com/andresuchdata/pirs/internal/engine/safety"
	"github.com/andresuchdata/pirs/internal/repository"
)

// CancelReason is recorded on orders cancelled from the queue.
const CancelReason = "cancelled"

// Inventory is the catalog view the dispatch workflow depends on.
type Inventory interface {
	Snapshot(ctx context.Context) (domain.ProductSnapshot, error)
	Scores(ctx context.Context) (domain.ProductSnapshot, map[string]float64, error)
	InvalidateRanking(ctx context.Context)
}

// CreateOrderRequest is a new customer order.
type CreateOrderRequest struct {
	Customer string `json:"customer"`
	Tier     int    `json:"customer_tier"`
	SKU      string `json:"sku" binding:"required"`
	Quantity int    `json:"qty" binding:"required"`
}

// DispatchService owns the long-lived dispatch queue and keeps it in step
// with the order store.
type DispatchService struct {
	orders    repository.OrderRepository
	inventory Inventory
	queue     *dispatch.Queue
	gate      *safety.Gate
	newID     func() string
	now       func() time.Time
}

func NewDispatchService(
	orders repository.OrderRepository,
	inventory Inventory,
	queue *dispatch.Queue,
	gate *safety.Gate,
) *DispatchService {
	return &DispatchService{
		orders:    orders,
		inventory: inventory,
		queue:     queue,
		gate:      gate,
		newID:     newOrderID,
		now:       time.Now,
	}
}

func newOrderID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(id[:8])
}

// Restore loads every PENDING order into the queue. Orders for SKUs that
// have left the catalog are skipped.
func (s *DispatchService) Restore(ctx context.Context) (int, error) {
	pending, err := s.orders.ByStatus(ctx, domain.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("load pending orders: %w", err)
	}

	snapshot, scores, err := s.inventory.Scores(ctx)
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, o := range pending {
		o.DaysRemainingAtEnqueue = scores[o.SKU]
		if _, err := s.queue.Enqueue(o, snapshot); err != nil {
			log.Warn().Err(err).Str("order_id", o.ID).Msg("dispatch: skipping order on restore")
			continue
		}
		restored++
	}

	log.Info().Int("restored", restored).Int("pending", len(pending)).Msg("dispatch: queue restored")
	return restored, nil
}

// CreateOrder persists a PENDING order and enqueues it.
func (s *DispatchService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.QueueEntry, error) {
	if req.Tier == 0 {
		req.Tier = domain.TierStandard
	}

	snapshot, scores, err := s.inventory.Scores(ctx)
	if err != nil {
		return nil, err
	}

	p, ok := snapshot.Product(req.SKU)
	if !ok {
		return nil, fmt.Errorf("sku %s: %w", req.SKU, domain.ErrProductNotFound)
	}

	o := domain.Order{
		ID:                     s.newID(),
		Customer:               strings.TrimSpace(req.Customer),
		Tier:                   req.Tier,
		OrderDate:              s.now().UTC(),
		SKU:                    p.SKU,
		ProductName:            p.Name,
		Quantity:               req.Quantity,
		TotalAmount:            p.Price.Mul(decimal.NewFromInt(int64(req.Quantity))),
		Status:                 domain.StatusPending,
		DaysRemainingAtEnqueue: scores[p.SKU],
	}
	if o.Customer == "" {
		o.Customer = "Customer " + o.ID[len("ORD-"):]
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, err
	}

	entry, err := s.queue.Enqueue(o, snapshot)
	if err != nil {
		return nil, err
	}

	log.Info().Str("order_id", o.ID).Int("score", entry.PriorityScore).Msg("dispatch: order queued")
	return &entry, nil
}

// Dispatch ships an order in full. A blocked lot or missing stock rejects
// the dispatch and leaves both the order and its queue entry untouched.
func (s *DispatchService) Dispatch(ctx context.Context, orderID, lotID string) (*domain.DispatchResult, error) {
	if lotID != "" && !s.gate.IsSafe(lotID) {
		return nil, fmt.Errorf("lot %s: %w", lotID, domain.ErrLotBlocked)
	}

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch o.Status {
	case domain.StatusShipped:
		// The store already finished this order; drop any stale entry.
		s.queue.Cancel(orderID)
		return &domain.DispatchResult{
			OrderID:        orderID,
			Message:        fmt.Sprintf("Order %s is already shipped.", orderID),
			AlreadyShipped: true,
		}, nil
	case domain.StatusBlocked:
		return nil, fmt.Errorf("order %s is blocked: %w", orderID, domain.ErrOrderNotPending)
	}

	if err := s.orders.Dispatch(ctx, orderID); err != nil {
		return nil, err
	}

	s.queue.Cancel(orderID)
	s.inventory.InvalidateRanking(ctx)

	log.Info().Str("order_id", orderID).Int("qty", o.Quantity).Msg("dispatch: order shipped")
	return &domain.DispatchResult{
		OrderID:    orderID,
		Message:    fmt.Sprintf("Order %s dispatched.", orderID),
		ShippedQty: o.Quantity,
	}, nil
}

// PartialDispatch ships qty units now and keeps the rest queued in its
// original position. A qty of zero ships whatever stock is on hand. Shipping
// the full quantity falls through to Dispatch.
func (s *DispatchService) PartialDispatch(ctx context.Context, orderID string, qty int, lotID string) (*domain.DispatchResult, error) {
	if qty < 0 {
		return nil, domain.Invalidf("quantity must not be negative")
	}
	if lotID != "" && !s.gate.IsSafe(lotID) {
		return nil, fmt.Errorf("lot %s: %w", lotID, domain.ErrLotBlocked)
	}

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.StatusPending {
		return nil, fmt.Errorf("order %s is %s: %w", orderID, o.Status, domain.ErrOrderNotPending)
	}

	if qty == 0 {
		snapshot, err := s.inventory.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		p, ok := snapshot.Product(o.SKU)
		if !ok {
			return nil, fmt.Errorf("sku %s: %w", o.SKU, domain.ErrProductNotFound)
		}
		if p.Stock == 0 {
			return nil, fmt.Errorf("sku %s has no stock: %w", o.SKU, domain.ErrInsufficientStock)
		}
		qty = p.Stock
	}

	if qty >= o.Quantity {
		return s.Dispatch(ctx, orderID, lotID)
	}

	updated, err := s.orders.PartialDispatch(ctx, orderID, qty)
	if err != nil {
		return nil, err
	}

	s.queue.UpdateQuantity(orderID, updated.Quantity, updated.TotalAmount)
	s.inventory.InvalidateRanking(ctx)

	return &domain.DispatchResult{
		OrderID:      orderID,
		Message:      fmt.Sprintf("Order %s partially dispatched, %d units remain.", orderID, updated.Quantity),
		ShippedQty:   qty,
		RemainingQty: updated.Quantity,
	}, nil
}

// Block moves a PENDING order to BLOCKED and removes it from the queue.
func (s *DispatchService) Block(ctx context.Context, orderID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		reason = "blocked"
	}
	if err := s.orders.UpdateStatus(ctx, orderID, domain.StatusBlocked, reason); err != nil {
		return err
	}

	s.queue.Cancel(orderID)
	log.Info().Str("order_id", orderID).Str("reason", reason).Msg("dispatch: order blocked")
	return nil
}

// Cancel withdraws a pending order and reports whether anything changed.
// Unknown ids and orders that are no longer pending are a no-op; any stale
// queue entry is still dropped.
func (s *DispatchService) Cancel(ctx context.Context, orderID string) (bool, error) {
	err := s.Block(ctx, orderID, CancelReason)
	if errors.Is(err, domain.ErrOrderNotPending) || errors.Is(err, domain.ErrOrderNotFound) {
		s.queue.Cancel(orderID)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Reconcile drops queue entries that the store reports as SHIPPED. Store
// failures are logged and the queue keeps serving what it has.
func (s *DispatchService) Reconcile(ctx context.Context) int {
	ids := s.queue.IDs()
	if len(ids) == 0 {
		return 0
	}

	shipped, err := s.orders.ShippedAmong(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Msg("dispatch: reconcile skipped")
		return 0
	}

	removed := s.queue.Reconcile(shipped)
	if removed > 0 {
		log.Info().Int("removed", removed).Strs("order_ids", shipped).Msg("dispatch: reconciled shipped orders")
	}
	return removed
}

// Queue returns the queue in pop order with stock availability.
func (s *DispatchService) Queue(ctx context.Context) ([]domain.QueueEntry, error) {
	snapshot, err := s.inventory.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.queue.PeekAll(snapshot), nil
}

// Dashboard reconciles the queue and assembles the shipping view.
func (s *DispatchService) Dashboard(ctx context.Context) (*domain.ShippingDashboard, error) {
	reconciled := s.Reconcile(ctx)

	entries, err := s.Queue(ctx)
	if err != nil {
		return nil, err
	}

	blocked, err := s.orders.ByStatus(ctx, domain.StatusBlocked)
	if err != nil {
		log.Warn().Err(err).Msg("dispatch: could not load blocked orders")
		blocked = []domain.Order{}
	}

	pending := decimal.Zero
	for _, e := range entries {
		pending = pending.Add(e.TotalAmount)
	}

	return &domain.ShippingDashboard{
		PriorityQueue: entries,
		PickList:      pickList(entries),
		BlockedOrders: blocked,
		QueueCount:    len(entries),
		PendingValue:  pending,
		Reconciled:    reconciled,
	}, nil
}

// pickList aggregates queued quantity per SKU, largest first.
func pickList(entries []domain.QueueEntry) []domain.PickListItem {
	bySKU := make(map[string]*domain.PickListItem)
	for _, e := range entries {
		item, ok := bySKU[e.SKU]
		if !ok {
			item = &domain.PickListItem{SKU: e.SKU, Name: e.ProductName, CurrentStock: e.CurrentStock}
			bySKU[e.SKU] = item
		}
		item.TotalQty += e.Quantity
		item.OrderCount++
	}

	out := make([]domain.PickListItem, 0, len(bySKU))
	for _, item := range bySKU {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalQty != out[j].TotalQty {
			return out[i].TotalQty > out[j].TotalQty
		}
		return out[i].SKU < out[j].SKU
	})
	return out
}

func (s *DispatchService) History(ctx context.Context) ([]domain.Order, error) {
	return s.orders.All(ctx)
}

// HeapState exposes the dispatch queue's backing array.
func (s *DispatchService) HeapState() *domain.HeapState {
	entries := s.queue.Snapshot()
	raw := make([]domain.HeapSlot, len(entries))
	for i, e := range entries {
		raw[i] = domain.HeapSlot{
			Index:         i,
			Key:           e.ID,
			Name:          e.ProductName,
			Value:         float64(e.PriorityScore),
			DaysRemaining: e.DaysRemainingAtEnqueue,
			Reason:        e.PriorityReason,
		}
	}

	return &domain.HeapState{
		Type:        "max-heap",
		Description: "Dispatch queue: highest composite score first, ties in arrival order",
		Complexity: map[string]string{
			"enqueue": "O(log n)",
			"peek":    "O(1)",
			"pop":     "O(log n)",
			"cancel":  "O(log n)",
		},
		RawArray: raw,
		Tree:     heapGraph("ship", raw),
		Size:     len(raw),
	}
}
