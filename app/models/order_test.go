package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestOrderTransitions(t *testing.T) {
	tests := []struct {
		from  string
		to    string
		legal bool
	}{
		{ORDER_STATUS_PENDING, ORDER_STATUS_PREPARING, true},
		{ORDER_STATUS_PENDING, ORDER_STATUS_CANCELLED, true},
		{ORDER_STATUS_PENDING, ORDER_STATUS_READY, false},
		{ORDER_STATUS_PENDING, ORDER_STATUS_DELIVERED, false},
		{ORDER_STATUS_PREPARING, ORDER_STATUS_READY, true},
		{ORDER_STATUS_PREPARING, ORDER_STATUS_PENDING, false},
		{ORDER_STATUS_READY, ORDER_STATUS_DELIVERED, true},
		{ORDER_STATUS_READY, ORDER_STATUS_CANCELLED, true},
		{ORDER_STATUS_DELIVERED, ORDER_STATUS_CANCELLED, false},
		{ORDER_STATUS_CANCELLED, ORDER_STATUS_PENDING, false},
	}

	for _, tc := range tests {
		o := &Order{Status: tc.from}
		assert.Equal(t, tc.legal, o.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderRecalculateTotal(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Order{}, &OrderItem{}))
	require.NoError(t, db.Exec("DELETE FROM order_items").Error)
	require.NoError(t, db.Exec("DELETE FROM orders").Error)

	order := &Order{StoreID: 1, Status: ORDER_STATUS_PENDING}
	require.NoError(t, db.Create(order).Error)
	require.NoError(t, db.Create(&OrderItem{OrderID: order.ID, ProductID: 1, Quantity: 2, PriceCents: 450}).Error)
	require.NoError(t, db.Create(&OrderItem{OrderID: order.ID, ProductID: 2, Quantity: 1, PriceCents: 1200}).Error)

	require.NoError(t, order.RecalculateTotal(db))
	assert.EqualValues(t, 2*450+1200, order.TotalCents)

	var stored Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.EqualValues(t, 2100, stored.TotalCents)
}

func TestOrderTransitionPersists(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Order{}))

	order := &Order{StoreID: 1, Status: ORDER_STATUS_PENDING}
	require.NoError(t, db.Create(order).Error)

	require.NoError(t, order.Transition(db, ORDER_STATUS_PREPARING))
	assert.Equal(t, ORDER_STATUS_PREPARING, order.Status)

	err = order.Transition(db, ORDER_STATUS_DELIVERED)
	require.Error(t, err)
	assert.Equal(t, ORDER_STATUS_PREPARING, order.Status, "illegal move must not change the order")
}
