package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sikap/internal/cache"
	"sikap/internal/config"
	"sikap/internal/database"
	"sikap/internal/database/migration"
	handlers "sikap/internal/http/handler"
	"sikap/internal/http/middleware"
	"sikap/internal/logger"
	"sikap/internal/otel"
	"sikap/internal/repository/postgres"
	"sikap/internal/service"
	"sikap/internal/storage"
	"sikap/internal/upload"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	zl, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, cfg.Tracing, zl.Named("otel"))
	if err != nil {
		zl.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			zl.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(ctx, cfg.Database, zl.Named("database"))
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, zl, cfg.Database.Host); err != nil {
		zl.Fatal("failed to migrate database", zap.Error(err))
	}

	store, err := newStorage(ctx, cfg, zl.Named("storage"))
	if err != nil {
		zl.Fatal("failed to initialize storage", zap.Error(err), zap.String("backend", cfg.Upload.StorageBackend))
	}

	scanner := newScanner(cfg, zl)

	uploadMetrics, err := service.NewUploadMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		zl.Fatal("failed to register upload metrics", zap.Error(err))
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		zl.Fatal("failed to register http metrics", zap.Error(err))
	}

	// Initialize repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	uploadSvc := service.NewUploadService(service.UploadDeps{
		Applications: postgres.NewApplicationPostgres(db),
		Documents:    docRepo,
		Users:        postgres.NewUserPostgres(db),
		Activity:     postgres.NewActivityPostgres(db),
		Storage:      store,
		Scanner:      scanner,
		Validator:    upload.NewValidator(cfg.Upload.MaxFileSize),
		Metrics:      uploadMetrics,
		Logger:       zl.Named("upload"),
	}, service.UploadOptions{
		SystemUserEmail: cfg.SystemUserEmail,
		ScanTimeout:     cfg.Upload.ScanTimeout,
		Location:        cfg.Location(),
	})
	docSvc := service.NewDocumentService(store, docRepo, zl.Named("documents"))

	app := fiber.New(fiber.Config{
		// Multipart framing overhead on top of the largest accepted file.
		BodyLimit:    int(cfg.Upload.MaxFileSize) + 1<<20,
		ErrorHandler: handlers.ErrorHandler(zl, cfg.Upload.MaxFileSize),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger(zl.Named("http")))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, uploadSvc, docSvc, cfg.Upload.MaxFileSize)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		zl.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			zl.Warn("server shutdown failed", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Port
	zl.Info("server starting",
		zap.String("addr", addr),
		zap.String("env", cfg.Env),
		zap.String("storage_backend", cfg.Upload.StorageBackend),
	)

	if err := app.Listen(addr); err != nil {
		zl.Fatal("failed to start server", zap.Error(err))
	}
}

func newStorage(ctx context.Context, cfg *config.AppConfig, zl *zap.Logger) (storage.Storage, error) {
	switch cfg.Upload.StorageBackend {
	case config.StorageBackendLocal:
		return storage.NewLocal(cfg.Upload.Root)
	case config.StorageBackendMinIO:
		return storage.NewMinIO(ctx, cfg.MinIO, zl)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Upload.StorageBackend)
	}
}

// newScanner returns the pattern scanner, fronted by the Redis verdict cache when configured.
func newScanner(cfg *config.AppConfig, zl *zap.Logger) upload.Scanner {
	zl.Warn("content scanning uses the pattern heuristic placeholder; it is not an antivirus engine and must be replaced before production use",
		zap.String("engine", upload.PatternScannerEngine),
	)
	var scanner upload.Scanner = &upload.PatternScanner{Delay: cfg.Upload.ScanDelay}

	if cfg.Redis.Addr == "" {
		return scanner
	}
	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		zl.Warn("scan verdict cache disabled", zap.Error(err), zap.String("redis_addr", cfg.Redis.Addr))
		return scanner
	}
	zl.Info("scan verdict cache enabled", zap.String("redis_addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.ScanCacheTTL))
	return upload.NewCachingScanner(scanner, cache.NewVerdictStore(rdb), cfg.Redis.ScanCacheTTL, zl.Named("scan-cache"))
}
