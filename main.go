package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Legalistas/brixar-sub002/internal/api"
	"github.com/Legalistas/brixar-sub002/internal/cache"
	"github.com/Legalistas/brixar-sub002/internal/config"
	"github.com/Legalistas/brixar-sub002/internal/db"
	"github.com/Legalistas/brixar-sub002/internal/email"
	"github.com/Legalistas/brixar-sub002/internal/fx"
	"github.com/Legalistas/brixar-sub002/internal/models"
	"github.com/Legalistas/brixar-sub002/internal/services"
	"github.com/Legalistas/brixar-sub002/internal/storage"
	"github.com/Legalistas/brixar-sub002/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'all' (default)")

func main() {
	flag.Parse()
	logger := config.GetLogger()

	cfg, err := config.Load(*runMode)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	config.SetLogLevel(cfg.LogLevel)

	gormDB, err := db.ConnectDB(cfg)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.DisconnectDB(gormDB); err != nil {
			logger.Errorf("Error disconnecting from database: %v", err)
		}
	}()
	if cfg.DbAutoMigrate {
		if err := db.Migrate(gormDB); err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_, err := services.NewUserService(gormDB).EnsureUser(ctx, "Administrador", cfg.AdminEmail, cfg.AdminPassword, models.RoleAdmin)
		cancel()
		if err != nil {
			logger.Fatalf("Failed to bootstrap administrator: %v", err)
		}
	}

	redisClient, err := cache.ConnectRedis(cfg)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			logger.Errorf("Error disconnecting from Redis: %v", err)
		}
	}()

	currencyService := services.NewCurrencyService(gormDB, cfg, fx.NewQuoteClient(cfg),
		cache.NewRateCache(redisClient), cache.NewLocker(redisClient))

	taskClient := tasks.NewClient(cfg)
	defer taskClient.Close()

	var wg sync.WaitGroup
	shutdownChan := make(chan struct{}, 1)

	var serviceSrv *http.Server
	if cfg.ServiceApiPort != "" {
		serviceSrv = &http.Server{
			Addr:              ":" + cfg.ServiceApiPort,
			Handler:           api.SetupServiceRouter(currencyService, shutdownChan),
			ReadHeaderTimeout: 10 * time.Second,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Infof("Service API listening on :%s", cfg.ServiceApiPort)
			if err := serviceSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatalf("Service API ListenAndServe error: %v", err)
			}
			logger.Info("Service API server stopped.")
		}()
	}

	var (
		mainApiSrv        *http.Server
		backgroundTaskSrv *asynq.Server
		scheduler         *asynq.Scheduler
	)

	logger.Infof("Starting application in '%s' mode...", cfg.RunMode)

	apiMode := func() {
		documentStorage, err := storage.NewS3Storage(cfg)
		if errors.Is(err, storage.ErrNotConfigured) {
			logger.Warn("AWS_S3_BUCKET not set: sale document uploads are disabled")
			documentStorage = nil
		} else if err != nil {
			logger.Fatalf("Failed to initialize S3 storage: %v", err)
		}

		mainApiSrv = &http.Server{
			Addr:              ":" + cfg.ApiPort,
			Handler:           api.SetupRouter(cfg, gormDB, taskClient, currencyService, documentStorage),
			ReadHeaderTimeout: 10 * time.Second,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Infof("Main API listening on :%s", cfg.ApiPort)
			if err := mainApiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatalf("Main API ListenAndServe error: %v", err)
			}
			logger.Info("Main API server stopped.")
		}()
	}

	bgMode := func() {
		emailSender, err := email.NewSender(cfg)
		if err != nil {
			logger.Fatalf("Failed to initialize email sender: %v", err)
		}
		processor := tasks.NewTaskProcessor(cfg, emailSender, currencyService)

		var mux *asynq.ServeMux
		backgroundTaskSrv, mux = tasks.SetupServer(cfg, processor)
		// Start instead of Run: shutdown is driven by the select below.
		if err := backgroundTaskSrv.Start(mux); err != nil {
			logger.Fatalf("Background task server error: %v", err)
		}
		logger.Info("Background task server started")

		scheduler, err = tasks.SetupScheduler(cfg)
		if err != nil {
			logger.Fatalf("Failed to set up scheduler: %v", err)
		}
		if err := scheduler.Start(); err != nil {
			logger.Fatalf("Failed to start scheduler: %v", err)
		}

		// Rates should not wait a full interval after a restart.
		if _, err := taskClient.Enqueue(tasks.NewCurrencyRefreshTask(cfg.FxRefreshInterval)); err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
			config.LogError(logger, "main", "bgMode", "startup currency refresh", nil, err)
		}
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		logger.Fatalf("Invalid run mode specified in config: %s.", cfg.RunMode)
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Infof("Received signal: %s. Shutting down gracefully...", sig)
	case <-shutdownChan:
		logger.Info("Shutdown requested via Service API. Shutting down gracefully...")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if serviceSrv != nil {
		if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
			logger.Errorf("Service API server shutdown error: %v", err)
		}
	}
	if mainApiSrv != nil {
		logger.Info("Shutting down Main API server...")
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			logger.Errorf("Main API server shutdown error: %v", err)
		}
	}
	if scheduler != nil {
		scheduler.Shutdown()
	}
	if backgroundTaskSrv != nil {
		logger.Info("Shutting down Background Task server...")
		backgroundTaskSrv.Shutdown()
	}

	wg.Wait()
	logger.Info("Server gracefully stopped")
}
