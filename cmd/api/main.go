package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	_ "github.com/jhoicas/stockflow-api/docs"
	appanalytics "github.com/jhoicas/stockflow-api/internal/application/analytics"
	"github.com/jhoicas/stockflow-api/internal/application/audit"
	"github.com/jhoicas/stockflow-api/internal/application/auth"
	"github.com/jhoicas/stockflow-api/internal/application/billing"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/application/loan"
	"github.com/jhoicas/stockflow-api/internal/application/ports"
	"github.com/jhoicas/stockflow-api/internal/application/usecase"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/cache"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/stockflow-api/internal/infrastructure/pdf"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/scheduler"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/whatsapp"
	httpRouter "github.com/jhoicas/stockflow-api/internal/interfaces/http"
	"github.com/jhoicas/stockflow-api/pkg/config"
	"github.com/jhoicas/stockflow-api/pkg/logger"
)

// @title        StockFlow API
// @version      1.0
// @description  Ledger de inventario: movimientos, préstamos y ventas.
// @BasePath     /
// @securityDefinitions.apikey Bearer
// @in           header
// @name         Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		log.Info().Msg("migraciones aplicadas")
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Métricas: deshabilitadas = contadores no-op y sin /metrics.
	var ledgerMetrics ports.LedgerMetrics = ports.NopMetrics{}
	var auditFailures audit.FailureCounter
	var promMetrics *metrics.Ledger
	if cfg.Metrics.Enabled {
		promMetrics = metrics.NewLedger(nil)
		ledgerMetrics = promMetrics
		auditFailures = promMetrics
	}

	rdb, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis no disponible, caché deshabilitada")
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}
	statsCache := cache.NewRedisCache(rdb, "", log)

	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	stockRepo := postgres.NewProductLocationRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	loanRepo := postgres.NewLoanRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	dashboardRepo := postgres.NewDashboardRepository(pool)
	txRunner := postgres.NewTxRunner(pool, cfg.Store, ledgerMetrics, log)

	recorder := audit.NewRecorder(auditRepo, log, auditFailures)
	pdfGenerator := infrapdf.NewMarotoPDFGenerator(cfg.App.Name)
	notifier := whatsapp.NewSender(cfg.WhatsApp, log)

	engine := inventory.NewMovementUseCase(txRunner, productRepo, locationRepo, movementRepo, recorder, statsCache, ledgerMetrics)
	loanUC := loan.NewUseCase(txRunner, engine, productRepo, loanRepo, notifier, recorder, ledgerMetrics, log).
		WithReminderInterval(time.Duration(cfg.Cron.ReminderIntervalHours) * time.Hour)
	createSaleUC := billing.NewCreateSaleUseCase(txRunner, engine, productRepo, recorder, ledgerMetrics, log)
	authUC := auth.NewAuthUseCase(userRepo, recorder, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	deps := httpRouter.RouterDeps{
		AuthUC:        authUC,
		UserUC:        usecase.NewUserUseCase(userRepo, categoryRepo, recorder),
		ProductUC:     usecase.NewProductUseCase(txRunner, engine, productRepo, categoryRepo, stockRepo, userRepo, recorder, pdfGenerator),
		CategoryUC:    usecase.NewCategoryUseCase(categoryRepo, recorder),
		LocationUC:    usecase.NewLocationUseCase(locationRepo, recorder),
		MovementUC:    engine,
		Replenishment: inventory.NewReplenishmentUseCase(productRepo),
		LoanUC:        loanUC,
		CreateSale:    createSaleUC,
		SaleQuery:     billing.NewSaleQueryUseCase(saleRepo),
		SalePDF:       billing.NewPDFUseCase(saleRepo, pdfGenerator),
		DashboardUC: appanalytics.NewDashboardUseCase(dashboardRepo, saleRepo, loanRepo, statsCache,
			time.Duration(cfg.Redis.StatsTTLSeconds)*time.Second),
		AuditUC:    audit.NewUseCase(auditRepo),
		JWTSecret:  cfg.JWT.Secret,
		CronSecret: cfg.Cron.Secret,
		AppName:    cfg.App.Name,
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	if promMetrics != nil {
		app.Use(promMetrics.Middleware())
		deps.MetricsHandler = promMetrics.Handler()
	}

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "StockFlow API",
	}))

	httpRouter.Router(app, deps)

	// Barrido de vencidos en proceso; 0 = solo vía /api/cron/check-overdue.
	var sweeper *scheduler.Interval
	if cfg.Cron.SweepIntervalMinutes > 0 {
		sweeper = scheduler.NewInterval("overdue-sweep",
			time.Duration(cfg.Cron.SweepIntervalMinutes)*time.Minute,
			func(ctx context.Context) error {
				_, err := loanUC.SweepOverdueLoans(ctx, time.Now())
				return err
			}, log)
		sweeper.Start(ctx)
	}

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if sweeper != nil {
		sweeper.Stop()
	}
	recorder.Wait()

	log.Info().Msg("aplicación detenida")
}
