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

type orderCreateRequest struct {
	CustomerID uint                     `json:"customer_id"`
	Notes      string                   `json:"notes"`
	Items      []orderItemCreateRequest `json:"items"`
}

type orderItemCreateRequest struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}

type orderTransitionRequest struct {
	Status string `json:"status"`
}

// HandleCreateOrder opens an order with its initial items. Item prices are
// copied from the products at this moment; later menu edits leave the order
// untouched.
func HandleCreateOrder(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)

	var req orderCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if len(req.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Order needs at least one item"})
	}

	productRepo := repository.GetGlobalFactory().GetProductRepository()
	orderRepo := repository.GetGlobalFactory().GetOrderRepository()

	order := &models.Order{
		StoreID:    storeID,
		CustomerID: req.CustomerID,
		Status:     models.ORDER_STATUS_PENDING,
		Notes:      req.Notes,
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Item quantity must be at least 1"})
		}
		product, err := productRepo.GetByID(it.ProductID)
		if err != nil || product.StoreID != storeID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unknown product in order"})
		}
		if !product.Available {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Product not available: " + product.Name})
		}
		items = append(items, models.OrderItem{
			ProductID:  product.ID,
			Quantity:   it.Quantity,
			PriceCents: product.PriceCents,
			Notes:      it.Notes,
		})
	}

	if err := orderRepo.Create(order); err != nil {
		log.Printf("order create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create order"})
	}
	for i := range items {
		items[i].OrderID = order.ID
		if err := orderRepo.AddItem(&items[i]); err != nil {
			log.Printf("order item create failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create order"})
		}
	}
	if err := order.RecalculateTotal(database.GetDB()); err != nil {
		log.Printf("order total failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create order"})
	}
	order.Items = items

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"order": order})
}

// HandleListOrders returns the store's orders, optionally filtered to one
// kanban column via the status query.
func HandleListOrders(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	limit, offset := paginationFromQuery(c)
	status := c.Query("status")

	repo := repository.GetGlobalFactory().GetOrderRepository()
	orders, err := repo.ListByStore(storeID, status, offset, limit)
	if err != nil {
		log.Printf("order list failed for store %d: %v", storeID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list orders"})
	}
	total, err := repo.CountByStore(storeID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list orders"})
	}

	return c.JSON(fiber.Map{
		"orders": orders,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// HandleGetOrder returns one order with its items.
func HandleGetOrder(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	orderID := idFromParams(c, "id")

	order, err := repository.GetGlobalFactory().GetOrderRepository().GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Order not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load order"})
	}
	if order.StoreID != storeID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Order not found"})
	}
	return c.JSON(fiber.Map{"order": order})
}

// HandleTransitionOrder moves an order to another kanban column. Illegal
// moves are rejected with the current and requested status in the message.
func HandleTransitionOrder(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	orderID := idFromParams(c, "id")

	order, err := repository.GetGlobalFactory().GetOrderRepository().GetByID(orderID)
	if err != nil || order.StoreID != storeID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Order not found"})
	}

	var req orderTransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	if err := order.Transition(database.GetDB(), req.Status); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": err.Error()})
	}

	return c.JSON(fiber.Map{"order": order})
}
