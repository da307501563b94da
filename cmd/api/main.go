// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/medtrack/pharmacy-be/internal/adapters/db"
	redis_a "github.com/medtrack/pharmacy-be/internal/adapters/redis_adapter"
	"github.com/medtrack/pharmacy-be/internal/adapters/storage"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
	"github.com/medtrack/pharmacy-be/internal/core/services"
	"github.com/medtrack/pharmacy-be/internal/handlers"
	"github.com/medtrack/pharmacy-be/internal/handlers/middleware"
	"github.com/medtrack/pharmacy-be/internal/pkg/config"
	"github.com/medtrack/pharmacy-be/internal/pkg/logger"
	"github.com/medtrack/pharmacy-be/internal/workers"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting pharmacy management system",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	slogger.Info("loading configuration")
	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx := context.Background()

	if cfg.IsProduction() {
		sm, err := config.NewAWSSecretsManager(cfg.AWS.Region, cfg.App.Name, slogger)
		if err != nil {
			slogger.Error("failed to initialize secrets manager", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := cfg.ApplySecrets(ctx, sm); err != nil {
			slogger.Error("failed to apply secrets", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	// Run database migrations if enabled
	if cfg.App.Environment != "production" {
		if err := runMigrations(ctx, cfg, slogger); err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
			// Don't exit in development, just warn
		}
	}

	server := setupHTTPServer(cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
			slog.Bool("tls", cfg.Server.TLSEnabled),
		)

		if cfg.Server.TLSEnabled {
			serverErrors <- server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received",
			slog.String("signal", sig.String()),
		)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		if deps.asynqClient != nil {
			if err := deps.asynqClient.Close(); err != nil {
				slogger.Error("failed to close Asynq client", slog.String("error", err.Error()))
			}
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database       *db.Database
	redisClient    *redis.Client
	redisCache     ports.CacheRepository
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector

	medicineHandler     *handlers.MedicineHandler
	saleHandler         *handlers.SaleHandler
	prescriptionHandler *handlers.PrescriptionHandler
	referenceHandler    *handlers.ReferenceHandler
	dashboardHandler    *handlers.DashboardHandler
	reportHandler       *handlers.ReportHandler
	intakeHandler       *handlers.IntakeHandler
	healthHandler       *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.database != nil {
		d.database.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	logger.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		ConnMaxLifetime: cfg.Redis.MaxConnAge,
		PoolTimeout:     cfg.Redis.PoolTimeout,
		ConnMaxIdleTime: cfg.Redis.IdleTimeout,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redisClient = redisClient
	deps.redisCache = redis_a.NewCache(redisClient, cfg.Redis.TTL, logger)

	logger.Info("initializing Asynq client")

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)

	// Invoice PDFs land in object storage; development runs against MinIO
	// through the endpoint override, or the local filesystem fallback.
	fileStore, err := newFileStorage(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	// Repositories
	medicineRepo := db.NewMedicineRepository(database, logger)
	saleRepo := db.NewSaleRepository(database, logger)
	prescriptionRepo := db.NewPrescriptionRepository(database, logger)
	categoryRepo := db.NewCategoryRepository(database, logger)
	supplierRepo := db.NewSupplierRepository(database, logger)
	notificationRepo := db.NewNotificationRepository(database, logger)
	txManager := db.NewTxManager(database, logger)

	// Services
	medicineService := services.NewMedicineService(medicineRepo, logger)
	saleService := services.NewSaleService(txManager, saleRepo, logger)
	prescriptionService := services.NewPrescriptionService(txManager, prescriptionRepo, logger)

	// Handlers
	deps.medicineHandler = handlers.NewMedicineHandler(medicineService, deps.redisCache, logger)
	deps.saleHandler = handlers.NewSaleHandler(saleService, deps.redisCache, logger)
	deps.prescriptionHandler = handlers.NewPrescriptionHandler(prescriptionService, deps.redisCache, logger)
	deps.referenceHandler = handlers.NewReferenceHandler(categoryRepo, supplierRepo, logger)
	deps.dashboardHandler = handlers.NewDashboardHandler(database, notificationRepo, deps.redisCache, logger)
	deps.reportHandler = handlers.NewReportHandler(database, deps.redisCache, logger)
	deps.healthHandler = handlers.NewHealthHandler(database, redisClient, deps.asynqInspector, cfg, logger)

	jobTracker := workers.NewJobTracker(deps.redisCache, logger)
	maxFileSize := int64(cfg.FileProcessing.PDFMaxSizeMB) * 1024 * 1024
	deps.intakeHandler = handlers.NewIntakeHandler(
		deps.asynqClient,
		fileStore,
		jobTracker,
		logger,
		maxFileSize,
		cfg.FileProcessing.TempDir,
	)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func newFileStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.StorageClient, error) {
	if cfg.AWS.S3Bucket == "" {
		logger.Warn("no S3 bucket configured, using local file storage",
			slog.String("path", cfg.FileProcessing.TempDir))
		return storage.NewLocalStorage(cfg.FileProcessing.TempDir, logger), nil
	}

	return storage.NewS3Storage(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}, logger)
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()

	// Apply middleware in reverse order (innermost first)
	var handler http.Handler = mux

	if cfg.App.Environment != "test" {
		handler = middleware.RequestID(handler)
		handler = middleware.Logger(logger)(handler)
		handler = middleware.Recovery(logger)(handler)
	}

	handler = middleware.Compression(handler)

	if cfg.Security.RateLimitRequests > 0 {
		handler = middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)(handler)
	}

	if len(cfg.Security.AllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.Security.AllowedOrigins)(handler)
	}

	if cfg.Security.SecureHeaders {
		handler = middleware.SecureHeaders(handler)
	}

	registerRoutes(mux, deps, cfg)

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies, cfg *config.Config) {
	apiV1 := "/api/v1"

	// Health and readiness endpoints
	if cfg.Server.EnableHealthCheck {
		mux.HandleFunc("GET /health", deps.healthHandler.Health)
		mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)
		mux.HandleFunc("GET "+apiV1+"/health", deps.healthHandler.Health)
	}

	// Medicine endpoints. The status and expiring routes come before the
	// plain {id} route only for readability; the mux picks the most
	// specific pattern regardless of registration order.
	mux.HandleFunc("GET "+apiV1+"/medicines", deps.medicineHandler.ListMedicines)
	mux.HandleFunc("POST "+apiV1+"/medicines", deps.medicineHandler.CreateMedicine)
	mux.HandleFunc("POST "+apiV1+"/medicines/batch", deps.medicineHandler.CreateMedicineBatch)
	mux.HandleFunc("GET "+apiV1+"/medicines/status/{status}", deps.medicineHandler.MedicinesByStatus)
	mux.HandleFunc("GET "+apiV1+"/medicines/expiring/{days}", deps.medicineHandler.ExpiringMedicines)
	mux.HandleFunc("GET "+apiV1+"/medicines/{id}", deps.medicineHandler.GetMedicine)
	mux.HandleFunc("PUT "+apiV1+"/medicines/{id}", deps.medicineHandler.UpdateMedicine)
	mux.HandleFunc("DELETE "+apiV1+"/medicines/{id}", deps.medicineHandler.DeleteMedicine)

	// Sale endpoints
	mux.HandleFunc("GET "+apiV1+"/sales", deps.saleHandler.ListSales)
	mux.HandleFunc("POST "+apiV1+"/sales", deps.saleHandler.CreateSale)
	mux.HandleFunc("GET "+apiV1+"/sales/{id}", deps.saleHandler.GetSale)
	mux.HandleFunc("PUT "+apiV1+"/sales/{id}", deps.saleHandler.UpdateSale)
	mux.HandleFunc("DELETE "+apiV1+"/sales/{id}", deps.saleHandler.DeleteSale)

	// Prescription endpoints
	mux.HandleFunc("GET "+apiV1+"/prescriptions", deps.prescriptionHandler.ListPrescriptions)
	mux.HandleFunc("POST "+apiV1+"/prescriptions", deps.prescriptionHandler.CreatePrescription)
	mux.HandleFunc("GET "+apiV1+"/prescriptions/{id}", deps.prescriptionHandler.GetPrescription)
	mux.HandleFunc("PUT "+apiV1+"/prescriptions/{id}", deps.prescriptionHandler.UpdatePrescription)
	mux.HandleFunc("DELETE "+apiV1+"/prescriptions/{id}", deps.prescriptionHandler.DeletePrescription)
	mux.HandleFunc("POST "+apiV1+"/prescriptions/{id}/dispense", deps.prescriptionHandler.Dispense)
	mux.HandleFunc("POST "+apiV1+"/prescriptions/{id}/cancel", deps.prescriptionHandler.CancelPrescription)

	// Reference data endpoints
	mux.HandleFunc("GET "+apiV1+"/categories", deps.referenceHandler.ListCategories)
	mux.HandleFunc("POST "+apiV1+"/categories", deps.referenceHandler.CreateCategory)
	mux.HandleFunc("GET "+apiV1+"/categories/{id}", deps.referenceHandler.GetCategory)
	mux.HandleFunc("PUT "+apiV1+"/categories/{id}", deps.referenceHandler.UpdateCategory)
	mux.HandleFunc("DELETE "+apiV1+"/categories/{id}", deps.referenceHandler.DeleteCategory)
	mux.HandleFunc("GET "+apiV1+"/suppliers", deps.referenceHandler.ListSuppliers)
	mux.HandleFunc("POST "+apiV1+"/suppliers", deps.referenceHandler.CreateSupplier)
	mux.HandleFunc("GET "+apiV1+"/suppliers/{id}", deps.referenceHandler.GetSupplier)
	mux.HandleFunc("PUT "+apiV1+"/suppliers/{id}", deps.referenceHandler.UpdateSupplier)
	mux.HandleFunc("DELETE "+apiV1+"/suppliers/{id}", deps.referenceHandler.DeleteSupplier)

	// Dashboard and alerts
	mux.HandleFunc("GET "+apiV1+"/dashboard/stats", deps.dashboardHandler.GetStats)
	mux.HandleFunc("GET "+apiV1+"/dashboard/alerts", deps.dashboardHandler.GetAlerts)
	mux.HandleFunc("PUT "+apiV1+"/notifications/{id}/read", deps.dashboardHandler.MarkNotificationRead)

	// Reports
	mux.HandleFunc("GET "+apiV1+"/reports/sales", deps.reportHandler.SalesReport)
	mux.HandleFunc("GET "+apiV1+"/reports/inventory", deps.reportHandler.InventoryReport)

	// File intake
	mux.HandleFunc("POST "+apiV1+"/intake/invoice", deps.intakeHandler.IntakeInvoice)
	mux.HandleFunc("POST "+apiV1+"/intake/excel", deps.intakeHandler.IntakeExcel)
	mux.HandleFunc("GET "+apiV1+"/intake/status/{jobId}", deps.intakeHandler.IntakeStatus)

	// pprof endpoints (development only)
	if cfg.Server.EnablePprof && cfg.IsDevelopment() {
		mux.HandleFunc("GET /debug/pprof/", http.HandlerFunc(http.DefaultServeMux.ServeHTTP))
	}
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations")

	migrationConfig := &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		SourcePath:  cfg.Database.MigrationPath,
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}

	return db.RunMigrationsWithRetry(ctx, migrationConfig, logger, 3)
}
