package models

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DEVICE_STATUS_ACTIVE     = "active"
	DEVICE_STATUS_REGISTERED = "registered"
	DEVICE_STATUS_ERROR      = "error"
	DEVICE_STATUS_STOPPED    = "stopped"
)

// Device is a WhatsApp-bridge endpoint paired to one store. Status is only
// mutated by the webhook ingest (server-authoritative); the pairing dialog
// marks a device connected optimistically and re-reads the registry afterwards.
type Device struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	StoreID     uint   `gorm:"index;not null" json:"store_id"`
	Store       Store  `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	DeviceHash  string `gorm:"type:varchar(100);uniqueIndex" json:"device_hash"`
	Name        string `gorm:"type:varchar(150)" json:"name" validate:"required,min=2,max=150"`
	PhoneNumber string `gorm:"type:varchar(32);index" json:"phone_number" validate:"max=32"`
	Status      string `gorm:"type:varchar(20);default:'registered'" json:"status" validate:"oneof=active registered error stopped"`
	IsMain      bool   `gorm:"default:false" json:"is_main"`
	AutoStart   bool   `gorm:"default:false" json:"auto_start"`
	// QRCode holds the last issued pairing payload; cleared once the bridge
	// reports a successful login.
	QRCode *string `gorm:"type:text" json:"qr_code,omitempty"`
	// MessageCount is maintained by the metrics counter flush, not by the
	// webhook ingest itself.
	MessageCount        uint           `gorm:"default:0" json:"message_count"`
	WebhookSecret       string         `gorm:"type:varchar(100)" json:"-"`
	StatusWebhookSecret string         `gorm:"type:varchar(100)" json:"-"`
	LastSeen            *time.Time     `gorm:"type:timestamp;default:null" json:"last_seen"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

func (d *Device) Validate() error {
	v := validator.New()

	return v.Struct(d)
}

// NewDeviceHash returns a fresh correlation key for a device that has not yet
// been issued one by the bridge.
func NewDeviceHash() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GenerateWebhookSecret creates a random shared secret for signing inbound
// webhook calls. The caller decides which of the two secret fields it fills.
func GenerateWebhookSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
