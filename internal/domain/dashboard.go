package domain

import "github.com/shopspring/decimal"

// ReorderAlert is one row of the reorder ranking, most urgent first
type ReorderAlert struct {
	SKU           string         `json:"sku"`
	Name          string         `json:"name"`
	CurrentStock  int            `json:"current_stock"`
	LeadTimeDays  int            `json:"lead_time_days"`
	DaysRemaining float64        `json:"days_remaining"`
	Condition     StockCondition `json:"condition"`
	SuggestedQty  int            `json:"suggested_qty"`
	ReorderNow    bool           `json:"reorder_now"` // stock runs out before a new delivery could land
}

// StabilityItem is a SKU positioned in the stability classification
type StabilityItem struct {
	SKU           string         `json:"sku"`
	Name          string         `json:"name"`
	CurrentStock  int            `json:"current_stock"`
	DaysRemaining float64        `json:"days_remaining"`
	Condition     StockCondition `json:"status"`
}

// StabilityView is the response for a stability subtree query
type StabilityView struct {
	Items       []StabilityItem `json:"items"`
	Count       int             `json:"count"`
	Filter      string          `json:"filter"`
	Description string          `json:"description"`
	Root        *StabilityItem  `json:"root"`
}

// OverstockItem flags capital tied up in slow-moving stock
type OverstockItem struct {
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	DaysRemaining float64         `json:"days"`
	Value         decimal.Decimal `json:"value"`
}

// InventorySummary backs the dashboard summary cards
type InventorySummary struct {
	TotalSKUCount       int             `json:"total_sku_count"`
	CriticalStockAlert  int             `json:"critical_stock_alert"`
	HealthScore         int             `json:"health_score"`
	StableSharePct      int             `json:"stable_share_pct"`
	TotalInventoryValue decimal.Decimal `json:"total_inventory_value"`
	Overstocked         []OverstockItem `json:"overstocked"`
	SystemStatus        string          `json:"system_status"`
}

// QueueEntry is a queued order enriched with live stock availability
type QueueEntry struct {
	Order
	PriorityScore  int    `json:"priority_score"`
	PriorityReason string `json:"priority_reason"`
	Sequence       uint64 `json:"sequence"`
	CurrentStock   int    `json:"current_stock"`
	StockAvailable bool   `json:"stock_available"`
}

// PickListItem aggregates queued quantity per SKU for floor picking
type PickListItem struct {
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	TotalQty     int    `json:"total_qty"`
	OrderCount   int    `json:"order_count"`
	CurrentStock int    `json:"current_stock"`
}

// ShippingDashboard is the command-center view of outbound work
type ShippingDashboard struct {
	PriorityQueue []QueueEntry    `json:"priority_queue"`
	PickList      []PickListItem  `json:"pick_list"`
	BlockedOrders []Order         `json:"blocked_orders"`
	QueueCount    int             `json:"queue_count"`
	PendingValue  decimal.Decimal `json:"pending_value"`
	Reconciled    int             `json:"reconciled"`
}

// DispatchResult reports the outcome of a dispatch attempt
type DispatchResult struct {
	OrderID        string `json:"order_id"`
	Message        string `json:"message"`
	AlreadyShipped bool   `json:"already_shipped"`
	ShippedQty     int    `json:"shipped_qty"`
	RemainingQty   int    `json:"remaining_qty"`
}
