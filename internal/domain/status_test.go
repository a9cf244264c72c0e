package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, StatusPending.CanTransition(StatusShipped))
	assert.True(t, StatusPending.CanTransition(StatusBlocked))
	assert.False(t, StatusPending.CanTransition(StatusPending))
	assert.False(t, StatusShipped.CanTransition(StatusPending))
	assert.False(t, StatusShipped.CanTransition(StatusBlocked))
	assert.False(t, StatusBlocked.CanTransition(StatusShipped))
}

func TestParseOrderStatus(t *testing.T) {
	status, ok := ParseOrderStatus(" shipped ")
	assert.True(t, ok)
	assert.Equal(t, StatusShipped, status)

	_, ok = ParseOrderStatus("lost")
	assert.False(t, ok)
	assert.Equal(t, "Unknown", OrderStatusLabel("lost"))
	assert.Equal(t, "Blocked", OrderStatusLabel(StatusBlocked))
}

func TestClassifyDays(t *testing.T) {
	assert.Equal(t, ConditionCritical, ClassifyDays(0))
	assert.Equal(t, ConditionCritical, ClassifyDays(6.99))
	assert.Equal(t, ConditionWarning, ClassifyDays(7))
	assert.Equal(t, ConditionWarning, ClassifyDays(14.99))
	assert.Equal(t, ConditionStable, ClassifyDays(15))
	assert.Equal(t, ConditionStable, ClassifyDays(999))
}

func TestOrderValidate(t *testing.T) {
	valid := Order{ID: "ORD-1", SKU: "SKU001", Tier: TierVIP, Quantity: 1}
	assert.NoError(t, valid.Validate())

	cases := map[string]func(o *Order){
		"missing id":   func(o *Order) { o.ID = "" },
		"missing sku":  func(o *Order) { o.SKU = "" },
		"tier too low": func(o *Order) { o.Tier = 0 },
		"tier too big": func(o *Order) { o.Tier = 4 },
		"zero qty":     func(o *Order) { o.Quantity = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			o := valid
			mutate(&o)
			assert.True(t, errors.Is(o.Validate(), ErrInvalidInput))
		})
	}
}

func TestProductValidate(t *testing.T) {
	p := Product{SKU: "SKU001", Stock: 3, Price: decimal.NewFromInt(5)}
	assert.NoError(t, p.Validate())

	p.Stock = -1
	assert.True(t, errors.Is(p.Validate(), ErrInvalidInput))

	p.Stock = 1
	p.Price = decimal.NewFromInt(-2)
	assert.True(t, errors.Is(p.Validate(), ErrInvalidInput))
}

func TestTierLabel(t *testing.T) {
	assert.Equal(t, "STD", TierLabel(TierStandard))
	assert.Equal(t, "VIP", TierLabel(TierVIP))
	assert.Equal(t, "PRIORITY", TierLabel(TierPriority))
}
