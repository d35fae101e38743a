package controllers

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/comanda-app/comanda/app/models"
	"github.com/comanda-app/comanda/app/repository"
	"github.com/comanda-app/comanda/internal/pkg/bridge"
	"github.com/comanda-app/comanda/internal/pkg/cache"
)

type deviceCreateRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	AutoStart   bool   `json:"auto_start"`
}

type deviceUpdateRequest struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone_number"`
	AutoStart   *bool   `json:"auto_start"`
}

// HandleCreateDevice registers a new device for a store. Hash and webhook
// secrets are issued here; the bridge learns them out of band.
func HandleCreateDevice(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)

	var req deviceCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	webhookSecret, err := models.GenerateWebhookSecret()
	if err != nil {
		log.Printf("device create: secret generation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create device"})
	}
	statusSecret, err := models.GenerateWebhookSecret()
	if err != nil {
		log.Printf("device create: secret generation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create device"})
	}

	device := &models.Device{
		StoreID:             storeID,
		DeviceHash:          models.NewDeviceHash(),
		Name:                req.Name,
		PhoneNumber:         req.PhoneNumber,
		Status:              models.DEVICE_STATUS_REGISTERED,
		AutoStart:           req.AutoStart,
		WebhookSecret:       webhookSecret,
		StatusWebhookSecret: statusSecret,
	}
	if err := device.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	repo := repository.GetGlobalFactory().GetDeviceRepository()
	if err := repo.Create(device); err != nil {
		log.Printf("device create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create device"})
	}

	// First device of a store becomes the main one automatically.
	if count, err := repo.CountByStore(storeID); err == nil && count == 1 {
		if err := repo.SetMain(storeID, device.ID); err != nil {
			log.Printf("device create: initial set-main failed: %v", err)
		} else {
			device.IsMain = true
		}
	}

	cache.InvalidateDevice(storeID, device.DeviceHash)

	// The secrets appear exactly once, in this response.
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"device":                device,
		"webhook_secret":        webhookSecret,
		"status_webhook_secret": statusSecret,
	})
}

// HandleListDevices returns all devices of a store, served from cache when
// fresh.
func HandleListDevices(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)

	if cached, err := cache.GetDeviceList(storeID); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	devices, err := repository.GetGlobalFactory().GetDeviceRepository().ListByStore(storeID)
	if err != nil {
		log.Printf("device list failed for store %d: %v", storeID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list devices"})
	}

	body, err := json.Marshal(fiber.Map{"devices": devices})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list devices"})
	}
	if err := cache.SetDeviceList(storeID, string(body)); err != nil {
		log.Printf("device list cache write failed for store %d: %v", storeID, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// HandleGetDevice returns one device of a store.
func HandleGetDevice(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	deviceID := idFromParams(c, "id")

	device, err := repository.GetGlobalFactory().GetDeviceRepository().GetByIDForStore(deviceID, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Device not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load device"})
	}

	return c.JSON(fiber.Map{"device": device})
}

// HandleUpdateDevice changes the editable device fields. Status is not among
// them: only the webhook ingest moves it.
func HandleUpdateDevice(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	deviceID := idFromParams(c, "id")

	repo := repository.GetGlobalFactory().GetDeviceRepository()
	device, err := repo.GetByIDForStore(deviceID, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Device not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load device"})
	}

	var req deviceUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if req.Name != nil {
		device.Name = *req.Name
	}
	if req.PhoneNumber != nil {
		device.PhoneNumber = *req.PhoneNumber
	}
	if req.AutoStart != nil {
		device.AutoStart = *req.AutoStart
	}
	if err := device.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	if err := repo.Update(device); err != nil {
		log.Printf("device update failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update device"})
	}

	cache.InvalidateDevice(storeID, device.DeviceHash)
	return c.JSON(fiber.Map{"device": device})
}

// HandleDeleteDevice removes a device from its store.
func HandleDeleteDevice(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	deviceID := idFromParams(c, "id")

	repo := repository.GetGlobalFactory().GetDeviceRepository()
	device, err := repo.GetByIDForStore(deviceID, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Device not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load device"})
	}

	if err := repo.Delete(device.ID); err != nil {
		log.Printf("device delete failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete device"})
	}

	cache.InvalidateDevice(storeID, device.DeviceHash)
	return c.JSON(fiber.Map{"success": true})
}

// HandleSetMainDevice marks one device as the store's main device. The swap
// is transactional, so two devices never hold the flag at once.
func HandleSetMainDevice(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	deviceID := idFromParams(c, "id")

	repo := repository.GetGlobalFactory().GetDeviceRepository()
	if err := repo.SetMain(storeID, deviceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Device not found"})
		}
		log.Printf("set main device failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to set main device"})
	}

	cache.InvalidateDevice(storeID, "")
	return c.JSON(fiber.Map{"success": true})
}

// HandleRequestDeviceQR asks the bridge for a pairing code and returns it as
// a PNG data URL together with the validity window. The raw code is also
// stored on the device so a reopened dialog can resume the countdown.
func HandleRequestDeviceQR(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	deviceID := idFromParams(c, "id")

	repo := repository.GetGlobalFactory().GetDeviceRepository()
	device, err := repo.GetByIDForStore(deviceID, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Device not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load device"})
	}

	client := bridge.NewClientFromEnv()
	resp, err := client.RequestQR(c.Context(), device.DeviceHash, storeID)
	if err != nil {
		log.Printf("qr request failed for device %s: %v", device.DeviceHash, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "bridge_unavailable", "message": "Failed to obtain pairing code"})
	}

	if resp.IsAlreadyLoggedIn {
		return c.JSON(fiber.Map{
			"is_already_logged_in": true,
		})
	}

	dataURL, err := bridge.QRCodeDataURL(resp.QRCode)
	if err != nil {
		log.Printf("qr render failed for device %s: %v", device.DeviceHash, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to render pairing code"})
	}

	device.QRCode = &resp.QRCode
	if err := repo.Update(device); err != nil {
		log.Printf("qr persist failed for device %s: %v", device.DeviceHash, err)
	}

	duration := resp.QRDuration
	if duration <= 0 {
		duration = 30
	}

	return c.JSON(fiber.Map{
		"qr_code":              dataURL,
		"qr_duration":          duration,
		"is_already_logged_in": false,
	})
}

// HandleListDeviceEvents returns the device's event history, newest first.
// Optional event_type query filters by internal event type.
func HandleListDeviceEvents(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	deviceID := idFromParams(c, "id")

	device, err := repository.GetGlobalFactory().GetDeviceRepository().GetByIDForStore(deviceID, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Device not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load device"})
	}

	limit, offset := paginationFromQuery(c)
	eventType := c.Query("event_type")
	if eventType != "" && !models.KnownEventType(eventType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unknown event type"})
	}

	events, total, err := repository.GetGlobalFactory().GetDeviceEventRepository().ListByDevice(device.ID, eventType, limit, offset)
	if err != nil {
		log.Printf("event history failed for device %s: %v", device.DeviceHash, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load events"})
	}

	return c.JSON(fiber.Map{
		"events":    events,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
		"has_more":  int64(offset+len(events)) < total,
		"last_seen": formatTimePtr(device.LastSeen),
	})
}
