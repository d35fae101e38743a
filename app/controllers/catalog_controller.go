package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/comanda-app/comanda/app/models"
	"github.com/comanda-app/comanda/app/repository"
	"github.com/comanda-app/comanda/internal/pkg/database"
)

// Menu catalog: categories and products, scoped to one store.

// HandleCreateCategory adds a menu category.
func HandleCreateCategory(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)

	var category models.Category
	if err := c.BodyParser(&category); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	category.ID = 0
	category.StoreID = storeID
	if err := category.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	if err := repository.GetGlobalFactory().GetCategoryRepository().Create(&category); err != nil {
		log.Printf("category create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create category"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"category": category})
}

// HandleListCategories returns the store's categories in display order.
func HandleListCategories(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	categories, err := repository.GetGlobalFactory().GetCategoryRepository().ListByStore(storeID)
	if err != nil {
		log.Printf("category list failed for store %d: %v", storeID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list categories"})
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// HandleUpdateCategory renames or reorders a category.
func HandleUpdateCategory(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	categoryID := idFromParams(c, "id")

	repo := repository.GetGlobalFactory().GetCategoryRepository()
	category, err := repo.GetByID(categoryID)
	if err != nil || category.StoreID != storeID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Category not found"})
	}

	var req models.Category
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	category.Name = req.Name
	category.SortOrder = req.SortOrder
	if err := category.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	if err := repo.Update(category); err != nil {
		log.Printf("category update failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update category"})
	}
	return c.JSON(fiber.Map{"category": category})
}

// HandleDeleteCategory removes a category.
func HandleDeleteCategory(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	categoryID := idFromParams(c, "id")

	repo := repository.GetGlobalFactory().GetCategoryRepository()
	category, err := repo.GetByID(categoryID)
	if err != nil || category.StoreID != storeID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Category not found"})
	}

	if err := repo.Delete(category.ID); err != nil {
		log.Printf("category delete failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete category"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleCreateProduct adds a menu item.
func HandleCreateProduct(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)

	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	product.ID = 0
	product.StoreID = storeID
	if err := product.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	if err := repository.GetGlobalFactory().GetProductRepository().Create(&product); err != nil {
		log.Printf("product create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create product"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"product": product})
}

// HandleListProducts returns the store's products with pagination.
func HandleListProducts(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	limit, offset := paginationFromQuery(c)

	repo := repository.GetGlobalFactory().GetProductRepository()
	products, err := repo.ListByStore(storeID, offset, limit)
	if err != nil {
		log.Printf("product list failed for store %d: %v", storeID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list products"})
	}
	total, err := repo.CountByStore(storeID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list products"})
	}

	return c.JSON(fiber.Map{
		"products": products,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// HandleUpdateProduct changes product master data.
func HandleUpdateProduct(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	productID := idFromParams(c, "id")

	repo := repository.GetGlobalFactory().GetProductRepository()
	product, err := repo.GetByID(productID)
	if err != nil || product.StoreID != storeID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Product not found"})
	}

	var req models.Product
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	product.Name = req.Name
	product.Description = req.Description
	product.PriceCents = req.PriceCents
	product.CategoryID = req.CategoryID
	product.Available = req.Available
	if err := product.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	if err := repo.Update(product); err != nil {
		log.Printf("product update failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update product"})
	}
	return c.JSON(fiber.Map{"product": product})
}

// HandleToggleProductAvailability flips a product on or off the menu.
func HandleToggleProductAvailability(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	productID := idFromParams(c, "id")

	repo := repository.GetGlobalFactory().GetProductRepository()
	product, err := repo.GetByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Product not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load product"})
	}
	if product.StoreID != storeID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Product not found"})
	}

	if err := product.ToggleAvailable(database.GetDB()); err != nil {
		log.Printf("product toggle failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update product"})
	}
	return c.JSON(fiber.Map{"product": product})
}

// HandleDeleteProduct removes a product.
func HandleDeleteProduct(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	productID := idFromParams(c, "id")

	repo := repository.GetGlobalFactory().GetProductRepository()
	product, err := repo.GetByID(productID)
	if err != nil || product.StoreID != storeID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Product not found"})
	}

	if err := repo.Delete(product.ID); err != nil {
		log.Printf("product delete failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete product"})
	}
	return c.JSON(fiber.Map{"success": true})
}
