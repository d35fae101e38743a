package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Setting is a per-store key/value configuration entry (opening hours,
// receipt footer, bridge base URL override and similar).
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StoreID   uint      `gorm:"index:ux_settings_store_key,unique,priority:1;not null" json:"store_id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;index:ux_settings_store_key,unique,priority:2" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Setting) Validate() error {
	v := validator.New()

	return v.Struct(s)
}
