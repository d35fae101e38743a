package devices

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/comanda-app/comanda/app/models"
	"github.com/comanda-app/comanda/internal/pkg/webhook"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Store{}, &models.Device{}, &models.DeviceEvent{}))

	// isolate runs sharing the in-memory database
	require.NoError(t, db.Exec("DELETE FROM device_events").Error)
	require.NoError(t, db.Exec("DELETE FROM devices").Error)
	return db
}

func seedDevice(t *testing.T, db *gorm.DB) *models.Device {
	t.Helper()
	qr := "raw-pairing-code"
	device := &models.Device{
		StoreID:     1,
		DeviceHash:  models.NewDeviceHash(),
		Name:        "Counter phone",
		PhoneNumber: "+4915112345678",
		Status:      models.DEVICE_STATUS_REGISTERED,
		QRCode:      &qr,
	}
	require.NoError(t, db.Create(device).Error)
	return device
}

func TestProcessStatusEvent_AppendsEventWithAppliedStatus(t *testing.T) {
	db := newTestDB(t)
	device := seedDevice(t, db)
	svc := NewServiceFromDB(db)

	payload := &webhook.StatusPayload{
		Timestamp: "2026-08-30T12:00:00Z",
	}
	payload.Device.PhoneNumber = device.PhoneNumber
	payload.Device.Status = "connected"
	payload.Event.Type = webhook.BridgeEventLoginSuccess
	payload.Event.Message = "device logged in"

	updated, err := svc.ProcessStatusEvent(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, models.DEVICE_STATUS_ACTIVE, updated.Status)

	var stored models.Device
	require.NoError(t, db.First(&stored, device.ID).Error)
	assert.Equal(t, models.DEVICE_STATUS_ACTIVE, stored.Status)
	require.NotNil(t, stored.LastSeen)
	assert.Nil(t, stored.QRCode, "login_success must consume the pending QR code")

	var events []models.DeviceEvent
	require.NoError(t, db.Where("device_id = ?", device.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, models.EVENT_AUTHENTICATED, events[0].EventType)
	// The recorded status snapshot must equal the device status applied in
	// the same call, never the pre-update value.
	assert.Equal(t, stored.Status, events[0].Status)
	assert.Equal(t, "device logged in", events[0].Message)
	assert.Contains(t, events[0].Metadata, "2026-08-30T12:00:00Z")
}

func TestProcessStatusEvent_DisconnectKeepsQRCode(t *testing.T) {
	db := newTestDB(t)
	device := seedDevice(t, db)
	svc := NewServiceFromDB(db)

	payload := &webhook.StatusPayload{Timestamp: "2026-08-30T12:00:00Z"}
	payload.Device.PhoneNumber = device.PhoneNumber
	payload.Device.Status = "disconnected"
	payload.Event.Type = webhook.BridgeEventDisconnected

	updated, err := svc.ProcessStatusEvent(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, models.DEVICE_STATUS_REGISTERED, updated.Status)

	var stored models.Device
	require.NoError(t, db.First(&stored, device.ID).Error)
	require.NotNil(t, stored.QRCode)
}

func TestProcessStatusEvent_ContainerCodes(t *testing.T) {
	db := newTestDB(t)
	device := seedDevice(t, db)
	svc := NewServiceFromDB(db)

	for _, tc := range []struct {
		code      string
		status    string
		wantType  string
		wantState string
	}{
		{webhook.BridgeCodeContainerStart, "running", models.EVENT_CONNECTED, models.DEVICE_STATUS_ACTIVE},
		{webhook.BridgeCodeContainerStop, "stopped", models.EVENT_DISCONNECTED, models.DEVICE_STATUS_STOPPED},
	} {
		payload := &webhook.StatusPayload{Timestamp: "2026-08-30T12:00:00Z"}
		payload.Device.PhoneNumber = device.PhoneNumber
		payload.Device.Status = tc.status
		payload.Event.Type = webhook.BridgeEventContainerEvent
		payload.Event.Code = tc.code

		updated, err := svc.ProcessStatusEvent(context.Background(), payload)
		require.NoError(t, err)
		assert.Equal(t, tc.wantState, updated.Status, "code %s", tc.code)

		var event models.DeviceEvent
		require.NoError(t, db.Where("device_id = ?", device.ID).Order("id DESC").First(&event).Error)
		assert.Equal(t, tc.wantType, event.EventType, "code %s", tc.code)
		assert.Equal(t, tc.wantState, event.Status, "code %s", tc.code)
	}
}

func TestProcessStatusEvent_UnknownDevice(t *testing.T) {
	db := newTestDB(t)
	svc := NewServiceFromDB(db)

	payload := &webhook.StatusPayload{}
	payload.Device.PhoneNumber = "+490000000000"

	_, err := svc.ProcessStatusEvent(context.Background(), payload)
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	var count int64
	require.NoError(t, db.Model(&models.DeviceEvent{}).Count(&count).Error)
	assert.Zero(t, count, "no event may be recorded for an unknown device")
}

func TestProcessMessageEvent_ReceivedUpdatesLastSeenOnly(t *testing.T) {
	db := newTestDB(t)
	device := seedDevice(t, db)
	svc := NewServiceFromDB(db)

	payload := &webhook.MessagePayload{Timestamp: "2026-08-30T13:00:00Z"}
	payload.Device.DeviceHash = device.DeviceHash
	payload.Message.ID = "msg-1"
	payload.Message.From = "+4915100000001"
	payload.Message.To = device.PhoneNumber
	payload.Message.Body = strings.Repeat("x", 300)
	payload.Message.Type = "text"
	payload.Message.FromMe = false

	updated, err := svc.ProcessMessageEvent(context.Background(), payload)
	require.NoError(t, err)
	require.NotNil(t, updated.LastSeen)

	var stored models.Device
	require.NoError(t, db.First(&stored, device.ID).Error)
	assert.Equal(t, models.DEVICE_STATUS_REGISTERED, stored.Status, "message traffic must not move the status")
	require.NotNil(t, stored.LastSeen)

	var event models.DeviceEvent
	require.NoError(t, db.Where("device_id = ?", device.ID).First(&event).Error)
	assert.Equal(t, models.EVENT_MESSAGE_RECEIVED, event.EventType)
	assert.Equal(t, stored.Status, event.Status)
	assert.LessOrEqual(t, len(event.Message), len("Message from +4915100000001: ")+100)
	assert.Contains(t, event.Metadata, `"message_id":"msg-1"`)
	assert.NotContains(t, event.Metadata, strings.Repeat("x", 201), "metadata preview is capped at 200 chars")
}

func TestProcessMessageEvent_TruncatesOnRuneBoundary(t *testing.T) {
	db := newTestDB(t)
	device := seedDevice(t, db)
	svc := NewServiceFromDB(db)

	payload := &webhook.MessagePayload{Timestamp: "2026-08-30T13:00:00Z"}
	payload.Device.DeviceHash = device.DeviceHash
	payload.Message.ID = "msg-3"
	payload.Message.From = "+4915100000001"
	payload.Message.To = device.PhoneNumber
	// 3-byte runes guarantee the 100- and 200-byte cuts land mid-rune
	payload.Message.Body = strings.Repeat("€", 150)
	payload.Message.FromMe = false

	_, err := svc.ProcessMessageEvent(context.Background(), payload)
	require.NoError(t, err)

	var event models.DeviceEvent
	require.NoError(t, db.Where("device_id = ?", device.ID).First(&event).Error)
	assert.True(t, utf8.ValidString(event.Message), "summary must stay valid UTF-8")
	assert.NotContains(t, event.Metadata, "�", "a mid-rune cut would marshal as a replacement char")
}

func TestProcessMessageEvent_SentDirection(t *testing.T) {
	db := newTestDB(t)
	device := seedDevice(t, db)
	svc := NewServiceFromDB(db)

	payload := &webhook.MessagePayload{Timestamp: "2026-08-30T13:00:00Z"}
	payload.Device.DeviceHash = device.DeviceHash
	payload.Message.ID = "msg-2"
	payload.Message.From = device.PhoneNumber
	payload.Message.To = "+4915100000002"
	payload.Message.Body = "on its way"
	payload.Message.FromMe = true

	_, err := svc.ProcessMessageEvent(context.Background(), payload)
	require.NoError(t, err)

	var event models.DeviceEvent
	require.NoError(t, db.Where("device_id = ?", device.ID).First(&event).Error)
	assert.Equal(t, models.EVENT_MESSAGE_SENT, event.EventType)
	assert.Contains(t, event.Message, "to +4915100000002")
}

func TestProcessMessageEvent_UnknownDevice(t *testing.T) {
	db := newTestDB(t)
	svc := NewServiceFromDB(db)

	payload := &webhook.MessagePayload{}
	payload.Device.DeviceHash = "missing"

	_, err := svc.ProcessMessageEvent(context.Background(), payload)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}
