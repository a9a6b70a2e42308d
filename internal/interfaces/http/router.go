package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/analytics"
	"github.com/jhoicas/stockledger-api/internal/application/fulfillment"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/application/transfer"
	"github.com/jhoicas/stockledger-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger      *ledger.Ledger
	Transfer    *transfer.Engine
	Fulfillment *fulfillment.Engine
	Analytics   analytics.Reader
	ProductUC   *usecase.ProductUseCase
	LocationUC  *usecase.LocationUseCase
	CountSheets *usecase.CountSheetUseCase // nil = sin hoja de conteo
	StockStream func(*websocket.Conn)      // nil = sin websocket
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	// Eventos de stock en tiempo real (público, solo lectura).
	if deps.StockStream != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return c.SendStatus(fiber.StatusUpgradeRequired)
		})
		app.Get("/ws/stock", websocket.New(deps.StockStream))
	}

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Transfer)
	invGroup := api.Group("/inventory")
	invGroup.Post("/movements", inventoryHandler.RegisterMovement)
	invGroup.Post("/transfers", inventoryHandler.Transfer)

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Get("/:id/movements", inventoryHandler.ListMovements)
	products.Get("/:id/verify", inventoryHandler.Verify)

	// Locations
	locations := api.Group("/locations")
	locationHandler := NewLocationHandler(deps.LocationUC, deps.CountSheets)
	locations.Post("/", locationHandler.Create)
	locations.Get("/", locationHandler.List)
	locations.Get("/:id", locationHandler.GetByID)
	locations.Put("/:id", locationHandler.Update)
	locations.Post("/:id/deactivate", locationHandler.Deactivate)
	locations.Post("/:id/activate", locationHandler.Activate)
	locations.Get("/:id/stock", inventoryHandler.LocationStock)
	if deps.CountSheets != nil {
		locations.Get("/:id/count-sheet", locationHandler.CountSheet)
	}

	// Orders
	orders := api.Group("/orders")
	orderHandler := NewOrderHandler(deps.Fulfillment)
	orders.Post("/", orderHandler.Create)
	orders.Get("/:id", orderHandler.GetByID)
	orders.Post("/:id/cancel", orderHandler.Cancel)
	orders.Post("/:id/complete", orderHandler.Complete)
	orders.Post("/:id/returns", orderHandler.Return)

	// Analytics (solo lectura; puede venir de caché)
	analyticsGroup := api.Group("/analytics")
	analyticsHandler := NewAnalyticsHandler(deps.Analytics)
	analyticsGroup.Get("/inventory", analyticsHandler.GetInventory)
	analyticsGroup.Get("/alerts", analyticsHandler.GetAlerts)
	analyticsGroup.Get("/forecast", analyticsHandler.GetForecast)
}
