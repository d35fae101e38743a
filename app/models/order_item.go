package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// OrderItem is a line on an order. PriceCents is copied from the product at
// order time so later menu price changes don't rewrite past orders.
type OrderItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"index;not null" json:"order_id"`
	ProductID  uint      `gorm:"index;not null" json:"product_id"`
	Product    Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity   int       `gorm:"not null;default:1" json:"quantity" validate:"gte=1"`
	PriceCents int64     `gorm:"not null;default:0" json:"price_cents" validate:"gte=0"`
	Notes      string    `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *OrderItem) Validate() error {
	v := validator.New()

	return v.Struct(i)
}
