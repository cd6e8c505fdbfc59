package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	domaininv "github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/events"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/Inventario-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/Inventario-ledger/pkg/config"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// stores agrupa los puertos de persistencia según STORE_DRIVER.
type stores struct {
	ledger  repository.LedgerStore
	orders  repository.OrderRepository
	checks  repository.StockCheckRepository
	catalog interface {
		repository.MaterialCatalog
		repository.CatalogWriter
	}
	ping interface {
		Ping(ctx context.Context) error
	}
	close func()
}

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
		Str("store", cfg.Store.Driver).
		Str("events", cfg.Events.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacén")
	}
	defer st.close()

	if cfg.CatalogFile != "" {
		seed, err := config.LoadCatalog(cfg.CatalogFile)
		if err != nil {
			log.Fatal().Err(err).Msg("leer catálogo")
		}
		if err := seedCatalog(ctx, st.catalog, seed); err != nil {
			log.Fatal().Err(err).Msg("sembrar catálogo")
		}
		log.Info().Int("materials", len(seed.Materials)).Int("warehouses", len(seed.Warehouses)).Msg("catálogo cargado")
	}

	var publisher inventory.EventPublisher = events.NewLogPublisher(log)
	if cfg.Events.Driver == "kafka" {
		kafka := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Events.KafkaBrokers, cfg.Events.Topic))
		defer func() {
			if err := kafka.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar productor kafka")
			}
		}()
		publisher = events.Fanout{publisher, kafka}
	}

	deps := inventory.Dependencies{
		Store:       st.ledger,
		Orders:      st.orders,
		Checks:      st.checks,
		Catalog:     st.catalog,
		Events:      publisher,
		Policy:      domaininv.NewInspectionPolicy(cfg.InspectionCategories),
		Logger:      log,
		LockTimeout: cfg.Store.LockTimeout,
	}
	alerts := inventory.NewAlerting(deps)
	inbound := inventory.NewInboundOrderEngine(deps, alerts)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler(log),
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs (requiere generar docs/swagger.json)
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Inventario Ledger API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger deshabilitado: archivo no encontrado")
	}

	app.Get("/health", httpRouter.HealthHandler(cfg.App.Name, st.ping))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Inbound:    inbound,
		Outbound:   inventory.NewOutboundOrderEngine(deps, alerts),
		Inspection: inventory.NewInspectionGate(inbound),
		StockCheck: inventory.NewStockCheckEngine(deps, alerts),
		Alerts:     alerts,
		Queries:    inventory.NewInventoryQueries(st.ledger),
		Auditor:    inventory.NewAuditor(st.ledger),
		Catalog:    st.catalog,
		Reporter:   infrapdf.NewStockCheckReport(),
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Store.Driver == "postgres" {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &stores{
			ledger:  postgres.NewLedgerStore(pool, cfg.Store.LockTimeout),
			orders:  postgres.NewOrderRepository(pool),
			checks:  postgres.NewStockCheckRepository(pool),
			catalog: postgres.NewMaterialCatalog(pool),
			ping:    pool,
			close:   pool.Close,
		}, nil
	}
	return &stores{
		ledger:  memory.NewLedgerStore(cfg.Store.LockTimeout),
		orders:  memory.NewOrderRepository(),
		checks:  memory.NewStockCheckRepository(),
		catalog: memory.NewCatalog(),
		close:   func() {},
	}, nil
}
