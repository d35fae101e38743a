package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/comanda-app/comanda/app/repository"
	"github.com/comanda-app/comanda/internal/pkg/database"
	"github.com/comanda-app/comanda/internal/pkg/devices"
	"github.com/comanda-app/comanda/internal/pkg/metrics/counter"
	"github.com/comanda-app/comanda/internal/pkg/webhook"
)

// Inbound bridge webhooks. The response bodies are part of the bridge's
// contract: it retries on anything but {"success":true}, so the shapes below
// must not change.

// HandleDeviceStatusWebhook ingests one status-change call from the bridge.
func HandleDeviceStatusWebhook(c *fiber.Ctx) error {
	raw := c.Body()

	var payload webhook.StatusPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Printf("status webhook: malformed payload: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	device, err := repository.GetGlobalFactory().GetDeviceRepository().GetByPhoneNumber(payload.Device.PhoneNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Device not found"})
		}
		log.Printf("status webhook: device lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	if msg := webhookAuthFailure(c, raw, device.StatusWebhookSecret); msg != "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
	}

	svc := devices.NewServiceFromDB(database.GetDB())
	if _, err := svc.ProcessStatusEvent(c.Context(), &payload); err != nil {
		log.Printf("status webhook: processing failed for device %s: %v", device.DeviceHash, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	if err := counter.AddWebhookStatusCall(device.ID); err != nil {
		log.Printf("status webhook: counter increment failed: %v", err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// HandleDeviceMessageWebhook ingests one message-activity call from the bridge.
func HandleDeviceMessageWebhook(c *fiber.Ctx) error {
	raw := c.Body()

	var payload webhook.MessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Printf("message webhook: malformed payload: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	device, err := repository.GetGlobalFactory().GetDeviceRepository().GetByHash(payload.Device.DeviceHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Device not found"})
		}
		log.Printf("message webhook: device lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	if msg := webhookAuthFailure(c, raw, device.WebhookSecret); msg != "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
	}

	svc := devices.NewServiceFromDB(database.GetDB())
	if _, err := svc.ProcessMessageEvent(c.Context(), &payload); err != nil {
		log.Printf("message webhook: processing failed for device %s: %v", device.DeviceHash, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	if err := counter.AddWebhookMessageCall(device.ID); err != nil {
		log.Printf("message webhook: counter increment failed: %v", err)
	}
	if err := counter.AddDeviceMessage(device.ID); err != nil {
		log.Printf("message webhook: counter increment failed: %v", err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// webhookAuthFailure enforces the HMAC check when the device carries a
// secret. It returns the rejection message for the 401 body, or "" when the
// request may proceed. Neither the secret nor the presented signature is ever
// logged.
func webhookAuthFailure(c *fiber.Ctx, raw []byte, secret string) string {
	if secret == "" {
		return ""
	}
	sig := c.Get(webhook.SignatureHeader)
	if sig == "" {
		return "Missing signature"
	}
	if !webhook.VerifySignature(raw, sig, secret) {
		return "Invalid signature"
	}
	return ""
}

// HandleStatusWebhookHealth reports the status endpoint as reachable. GET has
// no side effects; the bridge probes it before enabling webhooks.
func HandleStatusWebhookHealth(c *fiber.Ctx) error {
	return webhookHealth(c, "device-status")
}

// HandleMessageWebhookHealth reports the message endpoint as reachable.
func HandleMessageWebhookHealth(c *fiber.Ctx) error {
	return webhookHealth(c, "device-message")
}

func webhookHealth(c *fiber.Ctx, endpoint string) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"endpoint":  endpoint,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
