package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	returnsapp "github.com/citadelbuy/returns/internal/application/returns"
	"github.com/citadelbuy/returns/internal/domain/finance"
	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/citadelbuy/returns/internal/infrastructure/cache"
	"github.com/citadelbuy/returns/internal/infrastructure/config"
	"github.com/citadelbuy/returns/internal/infrastructure/event"
	"github.com/citadelbuy/returns/internal/infrastructure/logger"
	"github.com/citadelbuy/returns/internal/infrastructure/migration"
	"github.com/citadelbuy/returns/internal/infrastructure/notification"
	"github.com/citadelbuy/returns/internal/infrastructure/payment"
	"github.com/citadelbuy/returns/internal/infrastructure/persistence"
	"github.com/citadelbuy/returns/internal/infrastructure/shipping"
	"github.com/citadelbuy/returns/internal/infrastructure/storage"
	"github.com/citadelbuy/returns/internal/infrastructure/telemetry"
	"github.com/citadelbuy/returns/internal/interfaces/http/handler"
	"github.com/citadelbuy/returns/internal/interfaces/http/middleware"
	"github.com/citadelbuy/returns/internal/interfaces/http/router"
	"github.com/citadelbuy/returns/migrations"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var _ returnsapp.SettlementMetrics = (*telemetry.SettlementMetrics)(nil)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	// Once the log pipeline exists every record is also exported over OTLP
	log := bootLog
	if providers.Logs.IsEnabled() {
		log, err = logger.New(logCfg, providers.Logs.ZapCore(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			bootLog.Fatal("Failed to initialize logger", zap.Error(err))
		}
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting returns service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	profiler, err := telemetry.NewProfiler(cfg.Profiling, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && cfg.Profiling.SpanProfiles {
		providers.Tracer.EnableSpanProfiles()
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	dbMetrics, err := providers.InstrumentDB(db.DB, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := migrateDatabase(db, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Repositories
	returnRepo := persistence.NewGormReturnRequestRepository(db.DB)
	refundRepo := persistence.NewGormRefundRepository(db.DB)
	creditRepo := persistence.NewGormStoreCreditRepository(db.DB)
	warehouseRepo := persistence.NewGormWarehouseRepository(db.DB)
	orderReader := persistence.NewGormOrderReader(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	gateways, err := newGatewayRegistry(cfg, log)
	if err != nil {
		log.Fatal("Failed to configure refund gateways", zap.Error(err))
	}

	photos, err := newPhotoStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to configure photo storage", zap.Error(err))
	}

	notifier, err := newNotifier(cfg, log)
	if err != nil {
		log.Fatal("Failed to configure notifications", zap.Error(err))
	}

	// Event bus: notifications run at most once per event, metrics on every delivery
	eventBus := event.NewInMemoryEventBus(log)
	idempotencyStore := cache.NewIdempotencyStore(ctx, cfg.Redis, log)
	eventBus.Subscribe(event.NewIdempotentHandler(
		returnsapp.NewNotificationHandler(notifier, log),
		idempotencyStore,
		log,
		event.WithIdempotencyConfig(shared.IdempotencyConfig{TTL: cfg.Event.IdempotencyTTL, Enabled: true}),
	))
	if providers.Meter.IsEnabled() {
		settlementMetrics, err := telemetry.NewSettlementMetrics(providers.Meter.Meter("returns"))
		if err != nil {
			log.Fatal("Failed to create settlement metrics", zap.Error(err))
		}
		eventBus.Subscribe(returnsapp.NewMetricsHandler(settlementMetrics))
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Application services
	returnService := returnsapp.NewReturnService(
		returnRepo,
		orderReader,
		warehouseRepo,
		shipping.NewStubProvider("", log),
		photos,
		returnsapp.ReturnSettings{
			DefaultCarrier:      cfg.Returns.DefaultCarrier,
			DefaultServiceLevel: cfg.Returns.DefaultServiceLevel,
			RMAMaxAttempts:      cfg.Returns.RMAMaxAttempts,
			PhotoUploadExpiry:   cfg.Storage.UploadExpiry,
		},
		log,
	)
	refundService := returnsapp.NewRefundService(
		refundRepo,
		returnRepo,
		orderReader,
		gateways,
		txScope,
		returnsapp.RefundSettings{
			GatewayTimeout:       cfg.Returns.RefundTimeout,
			StaleProcessingAfter: cfg.Returns.RefundStaleAfter,
		},
		log,
	)
	storeCreditService := returnsapp.NewStoreCreditService(returnRepo, creditRepo, txScope, cfg.Returns.DefaultCurrency, log)
	restockService := returnsapp.NewRestockService(returnRepo, warehouseRepo, txScope, log)

	returnService.SetEventPublisher(eventBus)
	refundService.SetEventPublisher(eventBus)
	storeCreditService.SetEventPublisher(eventBus)
	restockService.SetEventPublisher(eventBus)

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSOrigins

	engine, err := router.New(router.Handlers{
		Returns:     handler.NewReturnHandler(returnService, restockService),
		Refunds:     handler.NewRefundHandler(refundService),
		StoreCredit: handler.NewStoreCreditHandler(storeCreditService),
		Health:      handler.NewHealthHandler(db),
	}, router.Options{
		Logger:         log,
		Tracing:        middleware.TracingConfig{ServiceName: cfg.Telemetry.ServiceName, Enabled: providers.Tracer.IsEnabled()},
		Meter:          providers.Meter,
		CORS:           cors,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Profiling:      profiler.IsEnabled(),
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := idempotencyStore.Close(); err != nil {
		log.Error("Error closing idempotency store", zap.Error(err))
	}
	if dbMetrics != nil {
		if err := dbMetrics.Stop(); err != nil {
			log.Error("Error stopping database metrics", zap.Error(err))
		}
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func migrateDatabase(db *persistence.Database, log *zap.Logger) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.NewFromFS(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	// closing the migrator would close the shared pool
	if err := m.Up(); err != nil {
		return err
	}
	status, err := m.Status()
	if err != nil {
		return err
	}
	log.Info("Database schema up to date", zap.Uint("version", status.Version))
	return nil
}

// newGatewayRegistry always registers the manual gateway. Stripe is added
// when a secret key is configured.
func newGatewayRegistry(cfg *config.Config, log *zap.Logger) (*finance.GatewayRegistry, error) {
	registry := finance.NewGatewayRegistry(payment.NewManualGateway(log))
	if !cfg.Stripe.Enabled() {
		log.Info("Stripe not configured, card refunds fall back to manual processing")
		return registry, nil
	}

	stripeGateway, err := payment.NewStripeRefundGateway(&payment.StripeConfig{
		SecretKey:         cfg.Stripe.SecretKey,
		IsTestMode:        !cfg.Stripe.LiveMode,
		MaxNetworkRetries: cfg.Stripe.MaxNetworkRetries,
		BackendURL:        cfg.Stripe.BackendURL,
		StoreName:         cfg.App.Name,
	}, log)
	if err != nil {
		return nil, err
	}
	registry.Register(stripeGateway)
	return registry, nil
}

func newPhotoStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (returnsapp.PhotoStorage, error) {
	if cfg.Storage.Type != "s3" {
		return storage.NewStubPhotoStorage(""), nil
	}
	s3Storage, err := storage.NewS3PhotoStorage(ctx, &cfg.Storage, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := s3Storage.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("Photo storage ready", zap.String("bucket", s3Storage.Bucket()))
	return s3Storage, nil
}

func newNotifier(cfg *config.Config, log *zap.Logger) (returns.Notifier, error) {
	if !cfg.Mail.Enabled() {
		return notification.NewLogNotifier(log), nil
	}
	client, err := notification.NewSMTPClient(cfg.Mail)
	if err != nil {
		return nil, err
	}
	return notification.NewEmailNotifier(client, cfg.Mail.From, cfg.App.Name, log), nil
}
