package models_test

import (
	"testing"

	"ordersvc/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseOrderStatus(t *testing.T) {
	cases := []struct {
		input    string
		expected models.OrderStatus
		wantErr  bool
	}{
		{"PENDING", models.StatusPending, false},
		{"pending", models.StatusPending, false},
		{"  Confirmed  ", models.StatusConfirmed, false},
		{"shipping", models.StatusShipping, false},
		{"DELIVERED", models.StatusDelivered, false},
		{"cancelled", models.StatusCancelled, false},
		{"", "", true},
		{"SHIPPED", "", true},
		{"unknown", "", true},
	}

	for _, tc := range cases {
		status, err := models.ParseOrderStatus(tc.input)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.input)
		} else {
			assert.NoError(t, err, "input %q", tc.input)
			assert.Equal(t, tc.expected, status)
		}
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	allowed := map[models.OrderStatus][]models.OrderStatus{
		models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled},
		models.StatusConfirmed: {models.StatusShipping, models.StatusCancelled},
		models.StatusShipping:  {models.StatusDelivered, models.StatusCancelled},
		models.StatusDelivered: {},
		models.StatusCancelled: {},
	}
	all := []models.OrderStatus{
		models.StatusPending,
		models.StatusConfirmed,
		models.StatusShipping,
		models.StatusDelivered,
		models.StatusCancelled,
	}

	for from, targets := range allowed {
		allowedSet := map[models.OrderStatus]bool{from: true} // same-state is always allowed
		for _, target := range targets {
			allowedSet[target] = true
		}
		for _, target := range all {
			assert.Equal(t, allowedSet[target], from.CanTransitionTo(target),
				"transition %s -> %s", from, target)
		}
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	assert.False(t, models.StatusPending.IsTerminal())
	assert.False(t, models.StatusConfirmed.IsTerminal())
	assert.False(t, models.StatusShipping.IsTerminal())
	assert.True(t, models.StatusDelivered.IsTerminal())
	assert.True(t, models.StatusCancelled.IsTerminal())
}

func TestOrderItemSubtotal(t *testing.T) {
	item := models.OrderItem{
		Price:    decimal.RequireFromString("49.99"),
		Quantity: 3,
	}
	assert.True(t, item.Subtotal().Equal(decimal.RequireFromString("149.97")))
}
