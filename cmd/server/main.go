package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diet-tracker/internal/config"
	"github.com/diet-tracker/internal/handler"
	"github.com/diet-tracker/internal/middleware"
	"github.com/diet-tracker/internal/models"
	"github.com/diet-tracker/internal/repository"
	"github.com/diet-tracker/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Build info (injected at build time via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := middleware.InitLogger(cfg.Log.Dir); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if cfg.Session.Secret == "" {
		log.Fatalf("session.secret (or SESSION_SECRET) must be set")
	}

	gin.SetMode(cfg.Server.Mode)

	// Initialize storage
	accountStore, metricsStore, err := initStores(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize metrics feed
	var (
		rdb  *redis.Client
		feed service.MetricsFeed
	)
	if cfg.Redis.Enabled {
		rdb = initRedis(cfg)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		feed = service.NewRedisMetricsFeed(rdb)
	} else {
		feed = service.NewLocalMetricsFeed()
	}

	// Initialize services
	authService := service.NewAuthService(accountStore, cfg.Session)
	metricsService := service.NewMetricsService(metricsStore, feed)

	router := handler.NewRouter(handler.RouterConfig{
		AuthService:    authService,
		MetricsService: metricsService,
		Codec:          middleware.NewSessionCodec(cfg.Session),
		Build: handler.BuildInfo{
			Version:   Version,
			Commit:    Commit,
			BuildTime: BuildTime,
		},
		DebugBodies:    cfg.Server.Mode == gin.DebugMode,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		middleware.LogInfo("Starting server on %s (storage=%s)", addr, cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	middleware.LogInfo("Shutting down server...")

	// Graceful shutdown with 10 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			middleware.LogError("Error closing Redis connection: %v", err)
		}
	}

	middleware.LogInfo("Server exited properly")
}

func initStores(cfg *config.Config) (service.AccountStore, service.MetricsStore, error) {
	switch cfg.Database.Driver {
	case "memory":
		store := repository.NewMemoryStore()
		return store, store, nil
	case "postgres":
		db, err := initDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := autoMigrate(db); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return repository.NewUserRepository(db), repository.NewMetricsRepository(db), nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.Server.Mode == gin.ReleaseMode {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Metrics{},
		&models.Meal{},
	)
}
