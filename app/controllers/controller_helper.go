package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// storeIDFromParams reads the :storeID route param. The store access
// middleware has already validated it against the caller's key.
func storeIDFromParams(c *fiber.Ctx) uint {
	id, err := c.ParamsInt("storeID")
	if err != nil || id < 0 {
		return 0
	}
	return uint(id)
}

// idFromParams reads a positive integer route param, 0 on anything else.
func idFromParams(c *fiber.Ctx, name string) uint {
	id, err := c.ParamsInt(name)
	if err != nil || id < 0 {
		return 0
	}
	return uint(id)
}

// paginationFromQuery reads limit/offset with sane bounds.
func paginationFromQuery(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
