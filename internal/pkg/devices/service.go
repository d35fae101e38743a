package devices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/comanda-app/comanda/app/models"
	"github.com/comanda-app/comanda/internal/pkg/eventbus"
	"github.com/comanda-app/comanda/internal/pkg/webhook"
	"gorm.io/gorm"
)

// ErrDeviceNotFound is returned when a webhook references an unknown device.
var ErrDeviceNotFound = errors.New("device not found")

const (
	messageSummaryLimit = 100
	messagePreviewLimit = 200
)

// Service applies bridge webhook events to the device registry and the
// append-only event log. The registry update and the event append run in one
// transaction, so every recorded event's status equals the device status
// immediately after the same call's update.
type Service struct {
	db *gorm.DB
}

// NewServiceFromDB creates a device service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ProcessStatusEvent handles one status-change webhook call for the device
// identified by payload.Device.PhoneNumber.
func (s *Service) ProcessStatusEvent(ctx context.Context, payload *webhook.StatusPayload) (*models.Device, error) {
	_ = ctx
	phone := strings.TrimSpace(payload.Device.PhoneNumber)
	if phone == "" {
		return nil, ErrDeviceNotFound
	}

	var device models.Device
	if err := s.db.Where("phone_number = ?", phone).First(&device).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}

	eventType := webhook.MapEventType(payload.Event.Type, payload.Event.Code)
	status := webhook.MapDeviceStatus(payload.Device.Status)
	lastSeen := parseWebhookTimestamp(payload.Timestamp)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":    status,
			"last_seen": lastSeen,
		}
		// A fresh login consumes any previously issued QR code.
		if payload.Event.Type == webhook.BridgeEventLoginSuccess {
			updates["qr_code"] = nil
		}
		if err := tx.Model(&models.Device{}).Where("id = ?", device.ID).Updates(updates).Error; err != nil {
			return err
		}

		metadata := map[string]interface{}{
			"event":     payload.Event,
			"code":      payload.Event.Code,
			"timestamp": payload.Timestamp,
		}
		if payload.Event.Data != nil {
			metadata["data"] = payload.Event.Data
		}
		event := &models.DeviceEvent{
			DeviceID:  device.ID,
			EventType: eventType,
			Status:    status,
			Message:   payload.Event.Message,
			Metadata:  marshalMetadata(metadata),
			Timestamp: lastSeen,
		}
		return tx.Create(event).Error
	})
	if err != nil {
		return nil, err
	}

	device.Status = status
	device.LastSeen = &lastSeen
	eventbus.PublishDeviceStatusChanged(device.DeviceHash, status)

	return &device, nil
}

// ProcessMessageEvent handles one message-activity webhook call for the
// device identified by payload.Device.DeviceHash. Message traffic only
// refreshes lastSeen; it never touches the connection status.
func (s *Service) ProcessMessageEvent(ctx context.Context, payload *webhook.MessagePayload) (*models.Device, error) {
	_ = ctx
	hash := strings.TrimSpace(payload.Device.DeviceHash)
	if hash == "" {
		return nil, ErrDeviceNotFound
	}

	var device models.Device
	if err := s.db.Where("device_hash = ?", hash).First(&device).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}

	eventType := models.EVENT_MESSAGE_RECEIVED
	direction := "from"
	peer := payload.Message.From
	if payload.Message.FromMe {
		eventType = models.EVENT_MESSAGE_SENT
		direction = "to"
		peer = payload.Message.To
	}
	summary := fmt.Sprintf("Message %s %s: %s", direction, peer, truncate(payload.Message.Body, messageSummaryLimit))
	lastSeen := parseWebhookTimestamp(payload.Timestamp)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Device{}).Where("id = ?", device.ID).
			Update("last_seen", lastSeen).Error; err != nil {
			return err
		}

		metadata := map[string]interface{}{
			"message_id":   payload.Message.ID,
			"from":         payload.Message.From,
			"to":           payload.Message.To,
			"message_type": payload.Message.Type,
			"from_me":      payload.Message.FromMe,
			"preview":      truncate(payload.Message.Body, messagePreviewLimit),
			"timestamp":    payload.Timestamp,
		}
		event := &models.DeviceEvent{
			DeviceID:  device.ID,
			EventType: eventType,
			Status:    device.Status,
			Message:   summary,
			Metadata:  marshalMetadata(metadata),
			Timestamp: lastSeen,
		}
		return tx.Create(event).Error
	})
	if err != nil {
		return nil, err
	}

	device.LastSeen = &lastSeen
	return &device, nil
}

// StatusSecret returns the secret guarding the status webhook for a device.
func StatusSecret(d *models.Device) string {
	return d.StatusWebhookSecret
}

// MessageSecret returns the secret guarding the message webhook for a device.
func MessageSecret(d *models.Device) string {
	return d.WebhookSecret
}

// truncate cuts s to at most max bytes without splitting a UTF-8 rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func marshalMetadata(m map[string]interface{}) string {
	b, err := json.Marshal(m)
	if err != nil {
		// metadata is best-effort; the event row itself must still land
		return "{}"
	}
	return string(b)
}

// parseWebhookTimestamp accepts the bridge's RFC3339 timestamps and falls
// back to now for anything unparsable, so a bad clock on the bridge never
// rejects an otherwise valid call.
func parseWebhookTimestamp(ts string) time.Time {
	if ts == "" {
		return time.Now().UTC()
	}
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t.UTC()
	}
	return time.Now().UTC()
}
