package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/comanda-app/comanda/app/models"
	"github.com/comanda-app/comanda/app/repository"
)

// Store administration, admin-only.

// HandleCreateStore registers a new tenant.
func HandleCreateStore(c *fiber.Ctx) error {
	var store models.Store
	if err := c.BodyParser(&store); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	store.ID = 0
	store.Active = true
	if err := store.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	repo := repository.GetGlobalFactory().GetStoreRepository()
	if _, err := repo.GetBySlug(store.Slug); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Slug already in use"})
	}

	if err := repo.Create(&store); err != nil {
		log.Printf("store create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create store"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"store": store})
}

// HandleListStores returns all tenants.
func HandleListStores(c *fiber.Ctx) error {
	stores, err := repository.GetGlobalFactory().GetStoreRepository().GetAll()
	if err != nil {
		log.Printf("store list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list stores"})
	}
	return c.JSON(fiber.Map{"stores": stores})
}

// HandleGetStore returns one tenant.
func HandleGetStore(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	store, err := repository.GetGlobalFactory().GetStoreRepository().GetByID(storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Store not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load store"})
	}
	return c.JSON(fiber.Map{"store": store})
}

// HandleUpdateStore changes tenant master data.
func HandleUpdateStore(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	repo := repository.GetGlobalFactory().GetStoreRepository()

	store, err := repo.GetByID(storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Store not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load store"})
	}

	var req models.Store
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	store.Name = req.Name
	store.Phone = req.Phone
	store.Address = req.Address
	store.Active = req.Active
	if err := store.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	if err := repo.Update(store); err != nil {
		log.Printf("store update failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update store"})
	}
	return c.JSON(fiber.Map{"store": store})
}

// HandleDeleteStore removes a tenant (soft delete).
func HandleDeleteStore(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	if err := repository.GetGlobalFactory().GetStoreRepository().Delete(storeID); err != nil {
		log.Printf("store delete failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete store"})
	}
	return c.JSON(fiber.Map{"success": true})
}
