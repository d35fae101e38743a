package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comanda-app/comanda/app/models"
)

func setupDeviceEventsApp(t *testing.T) *fiber.App {
	t.Helper()
	setupControllerDB(t)

	app := fiber.New()
	app.Get("/api/v1/stores/:storeID/devices/:id/events", HandleListDeviceEvents)
	return app
}

func seedDeviceWithEvents(t *testing.T) *models.Device {
	t.Helper()
	lastSeen := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	device := &models.Device{
		StoreID:     1,
		DeviceHash:  models.NewDeviceHash(),
		Name:        "Counter phone",
		PhoneNumber: "+4915112345678",
		Status:      models.DEVICE_STATUS_ACTIVE,
		LastSeen:    &lastSeen,
	}
	require.NoError(t, webhookTestDB.Create(device).Error)

	for i, eventType := range []string{models.EVENT_CONNECTED, models.EVENT_DISCONNECTED, models.EVENT_CONNECTED} {
		event := &models.DeviceEvent{
			DeviceID:  device.ID,
			EventType: eventType,
			Status:    device.Status,
			Message:   fmt.Sprintf("event %d", i),
			Timestamp: lastSeen.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, webhookTestDB.Create(event).Error)
	}
	return device
}

func TestListDeviceEvents_PaginationReportsHasMore(t *testing.T) {
	app := setupDeviceEventsApp(t)
	device := seedDeviceWithEvents(t)

	url := fmt.Sprintf("/api/v1/stores/1/devices/%d/events?limit=2", device.ID)
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, url, nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var parsed struct {
		Events   []models.DeviceEvent `json:"events"`
		Total    int64                `json:"total"`
		Limit    int                  `json:"limit"`
		Offset   int                  `json:"offset"`
		HasMore  bool                 `json:"has_more"`
		LastSeen *string              `json:"last_seen"`
	}
	respBody, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(respBody, &parsed))

	assert.Len(t, parsed.Events, 2)
	assert.EqualValues(t, 3, parsed.Total)
	assert.True(t, parsed.HasMore, "a third event remains beyond this page")
	require.NotNil(t, parsed.LastSeen)
	assert.Equal(t, "2026-08-30T12:00:00Z", *parsed.LastSeen)

	// the last page reports no further events
	url = fmt.Sprintf("/api/v1/stores/1/devices/%d/events?limit=2&offset=2", device.ID)
	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, url, nil), -1)
	require.NoError(t, err)
	respBody, _ = io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(respBody, &parsed))
	assert.Len(t, parsed.Events, 1)
	assert.False(t, parsed.HasMore)
}

func TestListDeviceEvents_FiltersByType(t *testing.T) {
	app := setupDeviceEventsApp(t)
	device := seedDeviceWithEvents(t)

	url := fmt.Sprintf("/api/v1/stores/1/devices/%d/events?event_type=%s", device.ID, models.EVENT_DISCONNECTED)
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, url, nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var parsed struct {
		Events  []models.DeviceEvent `json:"events"`
		Total   int64                `json:"total"`
		HasMore bool                 `json:"has_more"`
	}
	respBody, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(respBody, &parsed))
	require.Len(t, parsed.Events, 1)
	assert.Equal(t, models.EVENT_DISCONNECTED, parsed.Events[0].EventType)
	assert.False(t, parsed.HasMore)
}

func TestListDeviceEvents_RejectsUnknownType(t *testing.T) {
	app := setupDeviceEventsApp(t)
	device := seedDeviceWithEvents(t)

	url := fmt.Sprintf("/api/v1/stores/1/devices/%d/events?event_type=container_event", device.ID)
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, url, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
