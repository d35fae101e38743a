package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Customer is a guest record used for order attribution and WhatsApp contact.
// Phone is unique per store, not globally, since the same person may order
// from several restaurants.
type Customer struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	StoreID   uint           `gorm:"index:ux_customers_store_phone,unique,priority:1;not null" json:"store_id"`
	Name      string         `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Phone     string         `gorm:"type:varchar(32);index:ux_customers_store_phone,unique,priority:2" json:"phone" validate:"required,max=32"`
	Email     string         `gorm:"type:varchar(200)" json:"email" validate:"omitempty,email"`
	Address   string         `gorm:"type:text" json:"address"`
	Notes     string         `gorm:"type:text" json:"notes"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Customer) Validate() error {
	v := validator.New()

	return v.Struct(c)
}
