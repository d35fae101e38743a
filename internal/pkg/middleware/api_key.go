package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/comanda-app/comanda/app/models"
	"github.com/comanda-app/comanda/app/repository"
)

// Locals keys set by the auth middleware.
const (
	LocalUserID  = "USER_ID"
	LocalStoreID = "STORE_ID"
	LocalIsAdmin = "IS_ADMIN"
)

// APIKeyAuthMiddleware authenticates requests carrying a user API key header.
// The key arrives via X-API-Key or an Authorization bearer token; only its
// SHA-256 hash is ever compared or stored.
func APIKeyAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := extractAPIKeyFromHeader(c)
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing API key"})
		}

		hash := models.HashAPIKey(apiKey)
		repo := repository.GetGlobalFactory().GetUserRepository()
		user, err := repo.GetByAPIKeyHash(hash)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid API key"})
			}
			log.Printf("api key lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "API key verification failed"})
		}

		if user.Status != models.STATUS_ACTIVE {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "User inactive"})
		}

		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalStoreID, user.StoreID)
		c.Locals(LocalIsAdmin, user.Role == models.ROLE_ADMIN)

		return c.Next()
	}
}

// RequireStoreAccess guards routes carrying a :storeID param: admins may
// address any store, everyone else only their own.
func RequireStoreAccess() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := c.ParamsInt("storeID")
		if err != nil || storeID <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid store ID"})
		}

		isAdmin, _ := c.Locals(LocalIsAdmin).(bool)
		if !isAdmin {
			ownStore, _ := c.Locals(LocalStoreID).(uint)
			if ownStore != uint(storeID) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Store access denied"})
			}
		}

		return c.Next()
	}
}

// RequireAdmin guards admin-only routes.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isAdmin, _ := c.Locals(LocalIsAdmin).(bool)
		if !isAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Admin access required"})
		}
		return c.Next()
	}
}

func extractAPIKeyFromHeader(c *fiber.Ctx) string {
	apiKey := strings.TrimSpace(c.Get("X-API-Key"))
	if apiKey != "" {
		return apiKey
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
