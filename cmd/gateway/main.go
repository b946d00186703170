package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vantri-labs/ragchat/cmd/gateway/internal/handlers"
	"github.com/vantri-labs/ragchat/cmd/gateway/internal/middleware"
	authpkg "github.com/vantri-labs/ragchat/internal/auth"
	"github.com/vantri-labs/ragchat/internal/cache"
	"github.com/vantri-labs/ragchat/internal/catalog"
	"github.com/vantri-labs/ragchat/internal/config"
	"github.com/vantri-labs/ragchat/internal/drive"
	"github.com/vantri-labs/ragchat/internal/llm"
	"github.com/vantri-labs/ragchat/internal/retrieval"
	"github.com/vantri-labs/ragchat/internal/uploads"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := config.Path()
	watcher, err := config.NewWatcher(cfgPath, zap.NewNop())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := watcher.Current()

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := watcher.Start(ctx); err != nil {
		logger.Warn("Config hot-reload unavailable", zap.Error(err))
	}
	defer watcher.Stop()
	watcher.OnChange(func(c *config.Config) {
		logger.Info("Configuration reloaded; restart to apply connection settings")
	})

	// Shared infrastructure.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	var db *sqlx.DB
	if cfg.Database.DSN != "" {
		db, err = uploads.Open(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
	}

	store := cache.NewRedisStore(redisClient, logger)

	// Domain services.
	retrievalClient := retrieval.NewClient(cfg.Retrieval, logger)
	llmClient := llm.NewClient(cfg.LLM, logger)

	var (
		uploadService *uploads.Service
		uploadSource  catalog.UploadLister = noUploads{}
	)
	if db != nil {
		uploadStore := uploads.NewStore(db)
		uploadService = uploads.NewService(uploadStore, retrievalClient, cfg.Gateway.PublicBaseURL, logger)
		uploadSource = uploadStore
	} else {
		logger.Warn("No database configured; uploads disabled")
	}

	tokenStore := drive.NewTokenStore(store)
	var driveLister *drive.Lister
	if cfg.Drive.Enabled() {
		driveLister = drive.NewLister(cfg.Drive, tokenStore, logger)
	}

	catalogCache := catalog.NewCache(store, cfg.Catalog.CacheTTL, logger)
	var driveSource catalog.DriveLister
	if driveLister != nil {
		driveSource = driveLister
	}
	catalogService := catalog.NewService(
		catalogBackend{retrievalClient, logger},
		uploadSource,
		driveSource,
		catalogCache,
		logger,
	)

	// Handlers and middleware.
	jwtManager := authpkg.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.AccessExpiry)
	authMw := middleware.NewAuthMiddleware(jwtManager, cfg.Auth.SkipAuth, logger)
	rateMw := middleware.NewRateLimiter(redisClient, cfg.Gateway.RateLimitRPS*60, logger)
	validateMw := middleware.NewValidationMiddleware(logger)

	chatHandler := handlers.NewChatHandler(retrievalClient, llmClient, logger)
	docsHandler := handlers.NewDocumentsHandler(catalogService, logger)
	healthHandler := handlers.NewHealthHandler(redisClient, db, logger)

	mux := http.NewServeMux()
	protected := func(h http.HandlerFunc) http.Handler {
		return authMw.Middleware(rateMw.Middleware(validateMw.Middleware(h)))
	}

	mux.Handle("POST /api/v1/chat", protected(chatHandler.HandleChat))
	mux.Handle("GET /api/v1/documents", protected(docsHandler.HandleList))
	if uploadService != nil {
		uploadHandler := handlers.NewUploadHandler(uploadService, catalogService, logger)
		mux.Handle("POST /api/v1/documents/upload", protected(uploadHandler.HandleUpload))
	}

	if driveLister != nil {
		driveHandler := handlers.NewDriveHandler(cfg.Drive, driveLister, catalogService, logger)
		mux.Handle("GET /api/v1/drive/auth-url", protected(driveHandler.HandleAuthURL))
		mux.Handle("GET /api/v1/drive/status", protected(driveHandler.HandleStatus))
		mux.Handle("POST /api/v1/drive/oauth", protected(driveHandler.HandleConnect))
		mux.Handle("DELETE /api/v1/drive/oauth", protected(driveHandler.HandleDisconnect))
		// Unauthenticated: Google redirects the popup here.
		mux.HandleFunc("GET /oauth/callback", driveHandler.HandleCallback)
	}

	mux.HandleFunc("GET /health", healthHandler.HandleHealth)
	mux.HandleFunc("GET /readiness", healthHandler.HandleReadiness)
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Gateway.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Gateway.ReadTimeout,
		WriteTimeout: cfg.Gateway.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Gateway listening",
			zap.Int("port", cfg.Gateway.Port),
			zap.Bool("drive_enabled", driveLister != nil),
			zap.Bool("auth_skipped", cfg.Auth.SkipAuth),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// noUploads stands in for the upload registry when no database is
// configured.
type noUploads struct{}

func (noUploads) ListUploads(ctx context.Context, userID string) ([]catalog.Entry, error) {
	return nil, nil
}

// catalogBackend adapts the retrieval client's broad search to the catalog
// service's listing port.
type catalogBackend struct {
	client *retrieval.Client
	logger *zap.Logger
}

func (b catalogBackend) ListDocuments(ctx context.Context) ([]catalog.Entry, error) {
	results, err := b.client.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.FromRawResults(results, b.logger), nil
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zc.Level = level
	}
	return zc.Build()
}
