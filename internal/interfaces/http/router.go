package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jmoreno/kardex-api/internal/application/auth"
	"github.com/jmoreno/kardex-api/internal/application/ledger"
	"github.com/jmoreno/kardex-api/internal/application/usecase"
	"github.com/jmoreno/kardex-api/pkg/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	MovementUC *ledger.LedgerUseCase
	LocationUC *usecase.LocationUseCase
	ProductUC  *usecase.ProductUseCase
	ReportUC   *usecase.ReportUseCase
	AuthUC     *auth.AuthUseCase
	Metrics    *metrics.Metrics
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Reporte (público: la vista de solo lectura del sistema)
	reportHandler := NewReportHandler(deps.ReportUC)
	api.Get("/report", reportHandler.Get)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Products (protegido)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)

	// Movements (protegido): el libro con aplicar, corregir y revertir
	movements := protected.Group("/movements")
	movementHandler := NewMovementHandler(deps.MovementUC, deps.Metrics)
	movements.Post("/", movementHandler.Create)
	movements.Get("/", movementHandler.List)
	movements.Get("/:id", movementHandler.GetByID)
	movements.Put("/:id", movementHandler.Update)
	movements.Delete("/:id", movementHandler.Delete)

	// Locations (protegido)
	locations := protected.Group("/locations")
	locationHandler := NewLocationHandler(deps.LocationUC)
	locations.Post("/", locationHandler.Create)
	locations.Get("/", locationHandler.List)
	locations.Get("/:name", locationHandler.GetByName)
	locations.Get("/:name/reconcile", movementHandler.Reconcile)
	locations.Put("/:name", locationHandler.Update)
	locations.Delete("/:name", locationHandler.Delete)
}
