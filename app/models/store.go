package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Store represents a single restaurant tenant. Every device, product,
// customer and order row is scoped to exactly one store.
type Store struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Slug      string         `gorm:"type:varchar(150);uniqueIndex" json:"slug" validate:"required,min=2,max=150"`
	Phone     string         `gorm:"type:varchar(32)" json:"phone" validate:"max=32"`
	Address   string         `gorm:"type:text" json:"address"`
	Active    bool           `gorm:"default:true" json:"active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Store) Validate() error {
	v := validator.New()

	return v.Struct(s)
}
