package models

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	ORDER_STATUS_PENDING   = "pending"
	ORDER_STATUS_PREPARING = "preparing"
	ORDER_STATUS_READY     = "ready"
	ORDER_STATUS_DELIVERED = "delivered"
	ORDER_STATUS_CANCELLED = "cancelled"
)

// Order is one kanban card: it moves pending → preparing → ready → delivered,
// or gets cancelled from any non-terminal column.
type Order struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	StoreID    uint           `gorm:"index;not null" json:"store_id"`
	CustomerID uint           `gorm:"index" json:"customer_id"`
	Customer   Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Status     string         `gorm:"type:varchar(20);default:'pending';index" json:"status" validate:"oneof=pending preparing ready delivered cancelled"`
	TotalCents int64          `gorm:"not null;default:0" json:"total_cents"`
	Notes      string         `gorm:"type:text" json:"notes"`
	Items      []OrderItem    `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (o *Order) Validate() error {
	v := validator.New()

	return v.Struct(o)
}

// legal forward moves per status; cancelled is reachable from any
// non-terminal state.
var orderTransitions = map[string][]string{
	ORDER_STATUS_PENDING:   {ORDER_STATUS_PREPARING, ORDER_STATUS_CANCELLED},
	ORDER_STATUS_PREPARING: {ORDER_STATUS_READY, ORDER_STATUS_CANCELLED},
	ORDER_STATUS_READY:     {ORDER_STATUS_DELIVERED, ORDER_STATUS_CANCELLED},
	ORDER_STATUS_DELIVERED: {},
	ORDER_STATUS_CANCELLED: {},
}

// CanTransitionTo reports whether the order may move to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	for _, s := range orderTransitions[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// Transition moves the order to the target status or returns an error when
// the move is not a legal kanban transition.
func (o *Order) Transition(db *gorm.DB, target string) error {
	if !o.CanTransitionTo(target) {
		return fmt.Errorf("illegal order transition %s -> %s", o.Status, target)
	}
	o.Status = target
	return db.Model(o).Update("status", target).Error
}

// RecalculateTotal sums item price*quantity and persists the total.
func (o *Order) RecalculateTotal(db *gorm.DB) error {
	var items []OrderItem
	if err := db.Where("order_id = ?", o.ID).Find(&items).Error; err != nil {
		return err
	}
	var total int64
	for _, it := range items {
		total += it.PriceCents * int64(it.Quantity)
	}
	o.TotalCents = total
	return db.Model(o).Update("total_cents", total).Error
}
