package controllers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/comanda-app/comanda/app/models"
	"github.com/comanda-app/comanda/app/repository"
)

// HandleCreateCustomer registers a guest for a store. Phone numbers collide
// per store, not globally.
func HandleCreateCustomer(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)

	var customer models.Customer
	if err := c.BodyParser(&customer); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	customer.ID = 0
	customer.StoreID = storeID
	customer.Phone = strings.TrimSpace(customer.Phone)
	if err := customer.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	repo := repository.GetGlobalFactory().GetCustomerRepository()
	if _, err := repo.GetByPhone(storeID, customer.Phone); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Phone number already registered"})
	}

	if err := repo.Create(&customer); err != nil {
		log.Printf("customer create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create customer"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"customer": customer})
}

// HandleListCustomers returns the store's customers; an optional q query
// switches to name/phone search.
func HandleListCustomers(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	repo := repository.GetGlobalFactory().GetCustomerRepository()

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		customers, err := repo.Search(storeID, q)
		if err != nil {
			log.Printf("customer search failed for store %d: %v", storeID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to search customers"})
		}
		return c.JSON(fiber.Map{"customers": customers})
	}

	limit, offset := paginationFromQuery(c)
	customers, err := repo.ListByStore(storeID, offset, limit)
	if err != nil {
		log.Printf("customer list failed for store %d: %v", storeID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list customers"})
	}
	total, err := repo.CountByStore(storeID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list customers"})
	}

	return c.JSON(fiber.Map{
		"customers": customers,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

// HandleGetCustomer returns one customer of a store.
func HandleGetCustomer(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	customerID := idFromParams(c, "id")

	customer, err := repository.GetGlobalFactory().GetCustomerRepository().GetByID(customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Customer not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load customer"})
	}
	if customer.StoreID != storeID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Customer not found"})
	}
	return c.JSON(fiber.Map{"customer": customer})
}

// HandleUpdateCustomer changes customer master data.
func HandleUpdateCustomer(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	customerID := idFromParams(c, "id")

	repo := repository.GetGlobalFactory().GetCustomerRepository()
	customer, err := repo.GetByID(customerID)
	if err != nil || customer.StoreID != storeID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Customer not found"})
	}

	var req models.Customer
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	customer.Name = req.Name
	customer.Phone = strings.TrimSpace(req.Phone)
	customer.Email = req.Email
	customer.Address = req.Address
	customer.Notes = req.Notes
	if err := customer.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	if err := repo.Update(customer); err != nil {
		log.Printf("customer update failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update customer"})
	}
	return c.JSON(fiber.Map{"customer": customer})
}

// HandleDeleteCustomer removes a customer.
func HandleDeleteCustomer(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	customerID := idFromParams(c, "id")

	repo := repository.GetGlobalFactory().GetCustomerRepository()
	customer, err := repo.GetByID(customerID)
	if err != nil || customer.StoreID != storeID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Customer not found"})
	}

	if err := repo.Delete(customer.ID); err != nil {
		log.Printf("customer delete failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete customer"})
	}
	return c.JSON(fiber.Map{"success": true})
}
