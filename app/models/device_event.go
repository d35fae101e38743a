package models

import (
	"time"
)

const (
	EVENT_CONNECTED        = "connected"
	EVENT_DISCONNECTED     = "disconnected"
	EVENT_ERROR            = "error"
	EVENT_QR_GENERATED     = "qr_generated"
	EVENT_AUTHENTICATED    = "authenticated"
	EVENT_READY            = "ready"
	EVENT_MESSAGE_RECEIVED = "message_received"
	EVENT_MESSAGE_SENT     = "message_sent"
)

// DeviceEvent is an immutable audit record of a device lifecycle occurrence.
// Rows are only ever appended by the webhook ingest, never updated or deleted.
// Status captures the device status immediately after the triggering update,
// so each event doubles as a point-in-time snapshot.
type DeviceEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DeviceID  uint      `gorm:"index;not null" json:"device_id"`
	Device    Device    `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
	EventType string    `gorm:"type:varchar(30);not null;index" json:"event_type"`
	Status    string    `gorm:"type:varchar(20)" json:"status"`
	Message   string    `gorm:"type:text" json:"message"`
	Metadata  string    `gorm:"type:longtext" json:"metadata"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// KnownEventType reports whether the given type belongs to the internal event
// vocabulary. Unknown types indicate a mapping gap and are logged upstream.
func KnownEventType(t string) bool {
	switch t {
	case EVENT_CONNECTED, EVENT_DISCONNECTED, EVENT_ERROR, EVENT_QR_GENERATED,
		EVENT_AUTHENTICATED, EVENT_READY, EVENT_MESSAGE_RECEIVED, EVENT_MESSAGE_SENT:
		return true
	default:
		return false
	}
}
