package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Product is a sellable menu item. Prices are stored in cents to avoid
// floating point rounding in order totals.
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	StoreID     uint           `gorm:"index;not null" json:"store_id"`
	CategoryID  uint           `gorm:"index" json:"category_id"`
	Category    Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Name        string         `gorm:"type:varchar(200);not null" json:"name" validate:"required,min=2,max=200"`
	Description string         `gorm:"type:text" json:"description" validate:"max=1000"`
	PriceCents  int64          `gorm:"not null;default:0" json:"price_cents" validate:"gte=0"`
	Available   bool           `gorm:"default:true" json:"available"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Product) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// ToggleAvailable flips menu availability without touching other columns.
func (p *Product) ToggleAvailable(db *gorm.DB) error {
	p.Available = !p.Available
	return db.Model(p).Update("available", p.Available).Error
}
