package controllers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/comanda-app/comanda/app/repository"
)

type settingUpdateRequest struct {
	Value string `json:"value"`
}

// HandleListSettings returns every setting of a store.
func HandleListSettings(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	settings, err := repository.GetGlobalFactory().GetSettingRepository().GetAll(storeID)
	if err != nil {
		log.Printf("settings list failed for store %d: %v", storeID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list settings"})
	}
	return c.JSON(fiber.Map{"settings": settings})
}

// HandleGetSetting returns one setting value; unknown keys read as empty.
func HandleGetSetting(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	key := strings.TrimSpace(c.Params("key"))
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Setting key is required"})
	}

	value, err := repository.GetGlobalFactory().GetSettingRepository().GetValue(storeID, key)
	if err != nil {
		log.Printf("setting read failed for store %d key %s: %v", storeID, key, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load setting"})
	}
	return c.JSON(fiber.Map{"key": key, "value": value})
}

// HandleSetSetting creates or overwrites one setting.
func HandleSetSetting(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	key := strings.TrimSpace(c.Params("key"))
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Setting key is required"})
	}

	var req settingUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	if err := repository.GetGlobalFactory().GetSettingRepository().SetValue(storeID, key, req.Value); err != nil {
		log.Printf("setting write failed for store %d key %s: %v", storeID, key, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to save setting"})
	}
	return c.JSON(fiber.Map{"key": key, "value": req.Value})
}
