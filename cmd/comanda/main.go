package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/comanda-app/comanda/app/repository"
	"github.com/comanda-app/comanda/internal/pkg/bridge"
	"github.com/comanda-app/comanda/internal/pkg/cache"
	"github.com/comanda-app/comanda/internal/pkg/database"
	"github.com/comanda-app/comanda/internal/pkg/env"
	"github.com/comanda-app/comanda/internal/pkg/livechannel"
	"github.com/comanda-app/comanda/internal/pkg/router"
	"github.com/comanda-app/comanda/internal/pkg/scheduler"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitializeFactory(database.GetDB())

	// Event-driven cache invalidation: a device notification drops the
	// affected store's cached list.
	cache.SubscribeInvalidation(resolveStoreForDevice)

	startLiveChannel()

	sched := scheduler.New(database.GetDB())
	if err := sched.Start(); err != nil {
		log.Printf("scheduler start failed: %v", err)
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}

// resolveStoreForDevice maps a bridge device hash to its owning store for
// cache invalidation. Unknown hashes resolve to store 0 (no store list to drop).
func resolveStoreForDevice(deviceHash string) uint {
	device, err := repository.GetGlobalFactory().GetDeviceRepository().GetByHash(deviceHash)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("store resolution failed for device %s: %v", deviceHash, err)
		}
		return 0
	}
	return device.StoreID
}

// startLiveChannel connects the process-wide listener to the bridge's
// websocket. Login frames land on the event bus from inside the listener.
func startLiveChannel() {
	wsURL, err := bridge.WebSocketURL(env.GetEnv("WHATSAPP_BRIDGE_URL", "http://localhost:8081"))
	if err != nil {
		log.Printf("live channel disabled, bad bridge URL: %v", err)
		return
	}

	listener := livechannel.NewListener(livechannel.Config{
		URL: wsURL,
		OnMessage: func(f livechannel.Frame) {
			log.Printf("live channel: %s %s for device %s", f.Type, f.Message.Code, f.DeviceHash)
		},
	})
	if err := listener.Start(); err != nil {
		log.Printf("live channel connection failed: %v", err)
	}
}
