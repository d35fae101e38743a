package controllers

import (
	"context"
	"errors"
	"sync"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/comanda-app/comanda/app/repository"
	"github.com/comanda-app/comanda/internal/pkg/bridge"
	"github.com/comanda-app/comanda/internal/pkg/pairing"
)

var (
	pairingManager     *pairing.Manager
	pairingManagerOnce sync.Once
)

// getPairingManager lazily builds the shared manager so the bridge URL is
// read after the env file is loaded.
func getPairingManager() *pairing.Manager {
	pairingManagerOnce.Do(func() {
		pairingManager = pairing.NewManager(bridge.NewClientFromEnv())
	})
	return pairingManager
}

// HandleOpenPairing opens (or resumes) the QR pairing session for a device
// and returns the current state.
func HandleOpenPairing(c *fiber.Ctx) error {
	storeID := storeIDFromParams(c)
	deviceID := idFromParams(c, "id")

	device, err := repository.GetGlobalFactory().GetDeviceRepository().GetByIDForStore(deviceID, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Device not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load device"})
	}

	m := getPairingManager()
	// The session outlives this request (refresh timers fire later), so it
	// must not hold the request context.
	m.Open(context.Background(), device.ID, device.DeviceHash, storeID)

	return pairingSnapshot(c, m, device.ID)
}

// HandleGetPairing returns the current pairing state of a device.
func HandleGetPairing(c *fiber.Ctx) error {
	deviceID := idFromParams(c, "id")
	return pairingSnapshot(c, getPairingManager(), deviceID)
}

// HandleClosePairing tears down the pairing session of a device.
func HandleClosePairing(c *fiber.Ctx) error {
	deviceID := idFromParams(c, "id")
	getPairingManager().Close(deviceID)
	return c.JSON(fiber.Map{"success": true})
}

func pairingSnapshot(c *fiber.Ctx, m *pairing.Manager, deviceID uint) error {
	snap, ok := m.Snapshot(deviceID)
	if !ok {
		return c.JSON(fiber.Map{"state": string(pairing.StateIdle), "countdown": 0, "connected": false})
	}

	resp := fiber.Map{
		"state":     string(snap.State),
		"qr_code":   snap.QRCode,
		"countdown": snap.Countdown,
		"connected": snap.Connected,
	}
	if snap.Err != nil {
		resp["error"] = snap.Err.Error()
	}
	return c.JSON(resp)
}
