package http

import (
	"github.com/gofiber/fiber/v2"
	appanalytics "github.com/jhoicas/stockflow-api/internal/application/analytics"
	"github.com/jhoicas/stockflow-api/internal/application/audit"
	"github.com/jhoicas/stockflow-api/internal/application/auth"
	"github.com/jhoicas/stockflow-api/internal/application/billing"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/application/loan"
	"github.com/jhoicas/stockflow-api/internal/application/usecase"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC        *auth.AuthUseCase
	UserUC        *usecase.UserUseCase
	ProductUC     *usecase.ProductUseCase
	CategoryUC    *usecase.CategoryUseCase
	LocationUC    *usecase.LocationUseCase
	MovementUC    *inventory.MovementUseCase
	Replenishment *inventory.ReplenishmentUseCase
	LoanUC        *loan.UseCase
	CreateSale    *billing.CreateSaleUseCase
	SaleQuery     *billing.SaleQueryUseCase
	SalePDF       *billing.PDFUseCase
	DashboardUC   *appanalytics.DashboardUseCase
	AuditUC       *audit.UseCase
	JWTSecret     string
	CronSecret    string
	// MetricsHandler expone /metrics; nil = deshabilitado.
	MetricsHandler fiber.Handler
	AppName        string
}

// Router registra las rutas de la API. Lecturas: cualquier usuario autenticado.
// Mutaciones: solo ADMIN.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})
	if deps.MetricsHandler != nil {
		app.Get("/metrics", deps.MetricsHandler)
	}

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Cron (protegido por clave compartida, no por JWT)
	cronHandler := NewCronHandler(deps.LoanUC, deps.CronSecret)
	api.Get("/cron/check-overdue", cronHandler.CheckOverdue)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	admin := RequireRole(entity.RoleAdmin)

	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	protected.Get("/dashboard", dashboardHandler.GetSummary)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.MovementUC, deps.Replenishment)
	products.Get("/next-sku", productHandler.NextSKU)
	products.Get("/replenishment", productHandler.Replenishment)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Get("/:id/history", productHandler.History)
	products.Get("/:id/qr", productHandler.Label)
	products.Post("/", admin, productHandler.Create)
	products.Put("/:id", admin, productHandler.Update)
	products.Delete("/:id", admin, productHandler.Delete)
	products.Post("/:id/consume", admin, productHandler.Consume)

	// Categories
	categories := protected.Group("/categories")
	categoryHandler := NewCategoryHandler(deps.CategoryUC)
	categories.Get("/", categoryHandler.List)
	categories.Post("/", admin, categoryHandler.Create)
	categories.Put("/:id", admin, categoryHandler.Update)
	categories.Delete("/:id", admin, categoryHandler.Delete)

	// Locations
	locations := protected.Group("/locations")
	locationHandler := NewLocationHandler(deps.LocationUC)
	locations.Get("/", locationHandler.List)
	locations.Post("/", admin, locationHandler.Create)
	locations.Put("/:id", admin, locationHandler.Update)
	locations.Delete("/:id", admin, locationHandler.Delete)

	// Movements
	movements := protected.Group("/movements")
	movementHandler := NewMovementHandler(deps.MovementUC)
	movements.Get("/", movementHandler.List)
	movements.Post("/", admin, movementHandler.Create)

	// Loans
	loans := protected.Group("/loans")
	loanHandler := NewLoanHandler(deps.LoanUC)
	loans.Get("/stats", loanHandler.Stats)
	loans.Get("/", loanHandler.List)
	loans.Post("/", admin, loanHandler.Create)
	loans.Post("/:id/return", admin, loanHandler.Return)
	loans.Post("/:id/remind", admin, loanHandler.Remind)

	// Sales
	sales := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.CreateSale, deps.SaleQuery, deps.SalePDF)
	sales.Get("/stats", saleHandler.Stats)
	sales.Get("/", saleHandler.List)
	sales.Get("/:id", saleHandler.GetByID)
	sales.Get("/:id/receipt", saleHandler.Receipt)
	sales.Post("/", admin, saleHandler.Create)

	// Users y auditoría (solo ADMIN)
	users := protected.Group("/users", admin)
	userHandler := NewUserHandler(deps.UserUC, deps.AuthUC)
	users.Get("/", userHandler.List)
	users.Post("/", userHandler.Create)
	users.Put("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)
	users.Put("/:id/categories", userHandler.AssignCategories)

	auditHandler := NewAuditHandler(deps.AuditUC)
	protected.Get("/audit", admin, auditHandler.List)
}
