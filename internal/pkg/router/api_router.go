package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/comanda-app/comanda/app/controllers"
	"github.com/comanda-app/comanda/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// Bridge webhooks authenticate by HMAC signature, never by API key.
	// The GETs are the bridge's reachability probes.
	v1.Post("/webhooks/device-status", controllers.HandleDeviceStatusWebhook)
	v1.Get("/webhooks/device-status", controllers.HandleStatusWebhookHealth)
	v1.Post("/webhooks/device-message", controllers.HandleDeviceMessageWebhook)
	v1.Get("/webhooks/device-message", controllers.HandleMessageWebhookHealth)

	secured := v1.Group("", middleware.APIKeyAuthMiddleware())

	stores := secured.Group("/stores")
	stores.Post("/", middleware.RequireAdmin(), controllers.HandleCreateStore)
	stores.Get("/", middleware.RequireAdmin(), controllers.HandleListStores)

	store := stores.Group("/:storeID", middleware.RequireStoreAccess())
	store.Get("/", controllers.HandleGetStore)
	store.Put("/", middleware.RequireAdmin(), controllers.HandleUpdateStore)
	store.Delete("/", middleware.RequireAdmin(), controllers.HandleDeleteStore)

	// Devices
	store.Post("/devices", controllers.HandleCreateDevice)
	store.Get("/devices", controllers.HandleListDevices)
	store.Get("/devices/:id", controllers.HandleGetDevice)
	store.Put("/devices/:id", controllers.HandleUpdateDevice)
	store.Delete("/devices/:id", controllers.HandleDeleteDevice)
	store.Post("/devices/:id/main", controllers.HandleSetMainDevice)
	store.Post("/devices/:id/qr", controllers.HandleRequestDeviceQR)
	store.Get("/devices/:id/events", controllers.HandleListDeviceEvents)
	store.Post("/devices/:id/pairing", controllers.HandleOpenPairing)
	store.Get("/devices/:id/pairing", controllers.HandleGetPairing)
	store.Delete("/devices/:id/pairing", controllers.HandleClosePairing)

	// Catalog
	store.Post("/categories", controllers.HandleCreateCategory)
	store.Get("/categories", controllers.HandleListCategories)
	store.Put("/categories/:id", controllers.HandleUpdateCategory)
	store.Delete("/categories/:id", controllers.HandleDeleteCategory)
	store.Post("/products", controllers.HandleCreateProduct)
	store.Get("/products", controllers.HandleListProducts)
	store.Put("/products/:id", controllers.HandleUpdateProduct)
	store.Post("/products/:id/toggle", controllers.HandleToggleProductAvailability)
	store.Delete("/products/:id", controllers.HandleDeleteProduct)

	// Customers
	store.Post("/customers", controllers.HandleCreateCustomer)
	store.Get("/customers", controllers.HandleListCustomers)
	store.Get("/customers/:id", controllers.HandleGetCustomer)
	store.Put("/customers/:id", controllers.HandleUpdateCustomer)
	store.Delete("/customers/:id", controllers.HandleDeleteCustomer)

	// Orders
	store.Post("/orders", controllers.HandleCreateOrder)
	store.Get("/orders", controllers.HandleListOrders)
	store.Get("/orders/:id", controllers.HandleGetOrder)
	store.Post("/orders/:id/transition", controllers.HandleTransitionOrder)

	// Settings
	store.Get("/settings", controllers.HandleListSettings)
	store.Get("/settings/:key", controllers.HandleGetSetting)
	store.Put("/settings/:key", controllers.HandleSetSetting)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
