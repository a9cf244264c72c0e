package domain

import "strings"

// OrderStatus is the lifecycle state of a customer order.
type OrderStatus string

const (
	StatusPending OrderStatus = "PENDING"
	StatusBlocked OrderStatus = "BLOCKED"
	StatusShipped OrderStatus = "SHIPPED"
)

var orderStatusLabels = map[OrderStatus]string{
	StatusPending: "Pending",
	StatusBlocked: "Blocked",
	StatusShipped: "Shipped",
}

// OrderStatusLabel returns a human-readable label for an order status.
func OrderStatusLabel(status OrderStatus) string {
	if label, ok := orderStatusLabels[status]; ok {
		return label
	}

	return "Unknown"
}

// ParseOrderStatus returns the status for a given label (case-insensitive).
func ParseOrderStatus(label string) (OrderStatus, bool) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(label)))
	_, ok := orderStatusLabels[status]

	return status, ok
}

// CanTransition reports whether an order may move from one status to another.
// Only PENDING orders move, and never backwards.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	return s == StatusPending && (to == StatusShipped || to == StatusBlocked)
}

// StockCondition is the display classification of a days-remaining value.
type StockCondition string

const (
	ConditionCritical StockCondition = "critical"
	ConditionWarning  StockCondition = "warning"
	ConditionStable   StockCondition = "stable"
)

// Display thresholds in days of stock remaining.
const (
	CriticalBelowDays = 7
	WarningBelowDays  = 15
)

// ClassifyDays labels a days-remaining value.
func ClassifyDays(days float64) StockCondition {
	switch {
	case days < CriticalBelowDays:
		return ConditionCritical
	case days < WarningBelowDays:
		return ConditionWarning
	default:
		return ConditionStable
	}
}
