package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"

	_ "github.com/jhoicas/stockledger-api/docs"
	"github.com/jhoicas/stockledger-api/internal/application/analytics"
	"github.com/jhoicas/stockledger-api/internal/application/fulfillment"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/application/transfer"
	"github.com/jhoicas/stockledger-api/internal/application/usecase"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/cache"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/notify"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/pdf"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/scheduler"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/tracing"
	httpRouter "github.com/jhoicas/stockledger-api/internal/interfaces/http"
	"github.com/jhoicas/stockledger-api/pkg/config"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// store puertos de persistencia elegidos por STORE_DRIVER.
type store struct {
	txRunner  ledger.TxRunner
	repos     repository.TxRepos
	analytics repository.AnalyticsRepository
	close     func()
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
		Str("location_mode", cfg.Ledger.LocationMode).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.App.Name, cfg.Tracing)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar trazas")
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	clock := clockwork.NewRealClock()
	if cfg.Ledger.SingleLocation() {
		if err := ensureDefaultLocation(ctx, st.repos.Locations, cfg.Ledger.DefaultLocationID, clock); err != nil {
			log.Fatal().Err(err).Msg("ubicación por defecto")
		}
	}

	// Notificaciones post-commit
	dispatcher := notify.NewDispatcher(cfg.Notify.Buffer, log.Component("notify"))
	var hub *notify.Hub
	if cfg.Notify.Websocket {
		hub = notify.NewHub(log.Component("ws"))
		dispatcher.AddSink(hub)
	}
	if cfg.Notify.RabbitMQURL != "" {
		rabbit, err := notify.NewRabbitMQSink(cfg.Notify.RabbitMQURL, cfg.Notify.RabbitMQExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a RabbitMQ")
		}
		defer rabbit.Close()
		dispatcher.AddSink(rabbit)
	}
	if len(cfg.Notify.KafkaBrokers) > 0 {
		kafkaSink := notify.NewKafkaSink(notify.NewKafkaWriter(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic))
		defer kafkaSink.Close()
		dispatcher.AddSink(kafkaSink)
	}

	// Núcleo
	ledgerCore := ledger.New(st.txRunner, st.repos, dispatcher, clock, log.Component("ledger"), ledger.Options{
		TxTimeout:         cfg.Ledger.TxTimeout,
		SingleLocation:    cfg.Ledger.SingleLocation(),
		DefaultLocationID: cfg.Ledger.DefaultLocationID,
	})
	transferEngine := transfer.NewEngine(ledgerCore, log.Component("transfer"))
	fulfillmentEngine := fulfillment.NewEngine(ledgerCore, st.repos.Orders, clock, log.Component("fulfillment"))
	productUC := usecase.NewProductUseCase(st.repos.Products, clock)
	locationUC := usecase.NewLocationUseCase(st.repos.Locations, st.txRunner, clock, cfg.Ledger.DefaultLocationID)
	countSheetUC := usecase.NewCountSheetUseCase(st.repos.Locations, ledgerCore, pdf.NewMarotoPDFGenerator(), clock)

	// Analítica con caché
	analyticsEngine := analytics.NewEngine(st.analytics, st.repos.Products, st.repos.Locations, clock, log.Component("analytics"), analytics.Options{
		TurnoverWindowDays:    cfg.Analytics.TurnoverWindowDays,
		StockoutWindowDays:    cfg.Analytics.StockoutWindowDays,
		ForecastHistoryMonths: cfg.Analytics.ForecastHistoryMonths,
		ForecastBand:          cfg.Analytics.ForecastBand,
		SingleLocation:        cfg.Ledger.SingleLocation(),
	})
	analyticsCache, err := openCache(ctx, cfg.Analytics, clock)
	if err != nil {
		log.Fatal().Err(err).Msg("caché de analítica")
	}
	cachedAnalytics := analytics.NewCachedEngine(analyticsEngine, analyticsCache, cfg.Analytics.CacheTTL, log.Component("analytics-cache"))
	dispatcher.AddSink(notify.FuncSink{SinkName: "analytics-cache", Fn: cachedAnalytics.InvalidateOnEvent})
	// Sin la cancelación de la señal: el worker sigue entregando mientras el servidor
	// termina las peticiones en curso; dispatcher.Stop() lo cierra después.
	dispatcher.Start(context.WithoutCancel(ctx))

	runner := scheduler.NewRunner(clock, log.Component("scheduler"))
	runner.Start(ctx, scheduler.Task{
		Name:     "analytics-refresh",
		Interval: cfg.Analytics.RefreshInterval,
		Run:      cachedAnalytics.Refresh,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	deps := httpRouter.RouterDeps{
		Ledger:      ledgerCore,
		Transfer:    transferEngine,
		Fulfillment: fulfillmentEngine,
		Analytics:   cachedAnalytics,
		ProductUC:   productUC,
		LocationUC:  locationUC,
		CountSheets: countSheetUC,
		JWTSecret:   cfg.JWT.Secret,
	}
	if hub != nil {
		deps.StockStream = hub.Handler
	}
	httpRouter.Router(app, deps)

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
	runner.Wait()
	dispatcher.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de trazas")
	}

	log.Info().Msg("aplicación detenida")
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		log.Warn().Msg("STORE_DRIVER=memory: los datos no sobreviven al reinicio")
		mem := memory.NewStore()
		return &store{txRunner: mem, repos: mem.Repos(), analytics: mem.Analytics(), close: func() {}}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &store{
		txRunner:  postgres.NewTxRunner(pool),
		repos:     postgres.Repos(pool),
		analytics: postgres.NewAnalyticsRepository(pool),
		close:     pool.Close,
	}, nil
}

func openCache(ctx context.Context, cfg config.AnalyticsConfig, clock clockwork.Clock) (analytics.Cache, error) {
	if cfg.CacheDriver == config.CacheDriverRedis {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return cache.NewRedis(rdb), nil
	}
	return cache.NewMemory(clock), nil
}

// ensureDefaultLocation crea la ubicación implícita del modo single si aún no existe.
func ensureDefaultLocation(ctx context.Context, repo repository.LocationRepository, id string, clock clockwork.Clock) error {
	loc, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if loc != nil {
		if !loc.IsActive {
			loc.IsActive = true
			loc.UpdatedAt = clock.Now().UTC()
			return repo.Update(ctx, loc)
		}
		return nil
	}
	now := clock.Now().UTC()
	return repo.Create(ctx, &entity.Location{
		ID:        id,
		Name:      "Principal",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
}
