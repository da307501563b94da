// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/medtrack/pharmacy-be/internal/adapters/db"
	redis_a "github.com/medtrack/pharmacy-be/internal/adapters/redis_adapter"
	"github.com/medtrack/pharmacy-be/internal/adapters/storage"
	"github.com/medtrack/pharmacy-be/internal/core/services"
	"github.com/medtrack/pharmacy-be/internal/pkg/config"
	"github.com/medtrack/pharmacy-be/internal/pkg/logger"
	"github.com/medtrack/pharmacy-be/internal/workers"
)

func main() {
	slogger := logger.SetupLogger("info", "json")

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Asynq.RedisAddr))

	ctx := context.Background()
	database, err := initDatabase(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slogger.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger)
	tracker := workers.NewJobTracker(cache, slogger)

	fileStore, err := initStorage(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize file storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	medicineRepo := db.NewMedicineRepository(database, slogger)
	notificationRepo := db.NewNotificationRepository(database, slogger)
	medicineService := services.NewMedicineService(medicineRepo, slogger)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Asynq.RedisAddr,
			Password: cfg.Asynq.RedisPassword,
			DB:       cfg.Asynq.RedisDB,
		},
		asynq.Config{
			Concurrency:     cfg.Asynq.Concurrency,
			Queues:          cfg.Asynq.Queues,
			StrictPriority:  cfg.Asynq.StrictPriority,
			ErrorHandler:    asynq.ErrorHandlerFunc(handleError),
			RetryDelayFunc:  exponentialBackoff,
			ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
			HealthCheckFunc: healthCheck,
			Logger:          newAsynqLogger(slogger),
		},
	)

	mux := asynq.NewServeMux()

	invoiceProcessor := workers.NewInvoiceProcessor(medicineService, fileStore, tracker, slogger)
	mux.HandleFunc(workers.TypeInvoicePDF, invoiceProcessor.ProcessInvoice)

	excelProcessor := workers.NewExcelProcessor(medicineService, tracker, slogger)
	mux.HandleFunc(workers.TypeExcelIntake, excelProcessor.ProcessExcel)

	sweepProcessor := workers.NewSweepProcessor(medicineRepo, cache, slogger)
	mux.HandleFunc(workers.TypeStatusSweep, sweepProcessor.RefreshStatuses)

	alertsProcessor := workers.NewAlertsProcessor(medicineRepo, notificationRepo, cache, slogger)
	mux.HandleFunc(workers.TypeAlertsScan, alertsProcessor.ScanStock)

	cleanupProcessor := workers.NewCleanupProcessor(database, notificationRepo, cfg, slogger)
	mux.HandleFunc(workers.TypeCleanupOldData, cleanupProcessor.CleanupOldData)
	mux.HandleFunc(workers.TypeCleanupTempFiles, cleanupProcessor.CleanupTempFiles)

	scheduler := newScheduler(cfg, slogger)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(mux); err != nil {
			slogger.Error("failed to run worker server", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	go func() {
		if err := scheduler.Run(); err != nil {
			slogger.Error("failed to run scheduler", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues))

	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	scheduler.Shutdown()
	srv.Shutdown()
	slogger.Info("worker shutdown complete")
}

// newScheduler registers the periodic tasks: the overnight status sweep,
// the stock alert scan, and the retention cleanups.
func newScheduler(cfg *config.Config, slogger *slog.Logger) *asynq.Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     cfg.Asynq.RedisAddr,
			Password: cfg.Asynq.RedisPassword,
			DB:       cfg.Asynq.RedisDB,
		},
		&asynq.SchedulerOpts{
			Logger: newAsynqLogger(slogger),
		},
	)

	entries := []struct {
		spec string
		task *asynq.Task
	}{
		// Statuses drift as time passes; recompute shortly after midnight
		// and again mid-day.
		{"5 0,12 * * *", asynq.NewTask(workers.TypeStatusSweep, nil)},
		{"0 8 * * *", asynq.NewTask(workers.TypeAlertsScan, nil)},
		{"0 3 * * *", asynq.NewTask(workers.TypeCleanupOldData, nil)},
		{"0 * * * *", asynq.NewTask(workers.TypeCleanupTempFiles, nil)},
	}

	for _, e := range entries {
		if _, err := scheduler.Register(e.spec, e.task, asynq.Queue("low")); err != nil {
			slogger.Error("failed to register scheduled task",
				slog.String("type", e.task.Type()),
				slog.String("spec", e.spec),
				slog.String("error", err.Error()))
		}
	}

	return scheduler
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.Database, error) {
	dbConfig := &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     10, // Fewer connections for worker
		MinConnections:     2,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}

	return db.NewDatabase(ctx, dbConfig, logger)
}

func initStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.StorageClient, error) {
	if cfg.AWS.S3Bucket == "" {
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

func handleError(ctx context.Context, task *asynq.Task, err error) {
	slog.ErrorContext(ctx, "task processing failed",
		slog.String("type", task.Type()),
		slog.String("payload", string(task.Payload())),
		slog.String("error", err.Error()))
}

func exponentialBackoff(n int, e error, t *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func healthCheck(err error) {
	if err != nil {
		slog.Error("worker health check failed", slog.String("error", err.Error()))
	}
}

// asynqLogger adapts slog for Asynq
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *asynqLogger {
	return &asynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
