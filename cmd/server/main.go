package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"missionhub/internal/core"
	httpProtocol "missionhub/internal/protocols/http"
	wsProtocol "missionhub/internal/protocols/websocket"
	"missionhub/internal/repository"
	"missionhub/pkg/cache"
	"missionhub/pkg/config"
	"missionhub/pkg/database"
	"missionhub/pkg/logger"
)

func main() {
	configPath := os.Getenv("MISSIONHUB_CONFIG")
	if configPath == "" {
		configPath = "./configs/development.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	logger.Info("Starting MissionHub server...")

	dbCfg := database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		Timeout:         cfg.Database.Timeout,
	}

	// Schema bootstrap runs over the database/sql path, repositories
	// over the pgx pool.
	sqlDB, err := database.NewDB(dbCfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, sqlDB); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	cancelMigrate()
	sqlDB.Close()

	pool, err := database.NewPGXPool(dbCfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	logger.Info("Connected to PostgreSQL database")

	// The catalog cache is an optimization; the server runs without it.
	var catalogCache core.CatalogCache
	redisClient, err := cache.New(cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.CacheTTL,
	})
	if err != nil {
		logger.Warnf("Redis unavailable, mission catalog cache disabled: %v", err)
	} else {
		catalogCache = redisClient
		defer redisClient.Close()
		logger.Info("Connected to Redis")
	}

	// Repositories
	actionRepo := repository.NewActionRepository(pool)
	missionRepo := repository.NewMissionRepository(pool)
	progressRepo := repository.NewProgressRepository(pool)
	ledgerRepo := repository.NewLedgerRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	// Notification hub, injected into the engine
	hub := wsProtocol.NewHub()
	defer hub.Shutdown()

	// Core services
	catalogSvc := core.NewCatalogService(missionRepo, catalogCache)
	pointsSvc := core.NewPointsService(ledgerRepo)
	sweeperSvc := core.NewSweeperService(progressRepo)
	actionsSvc := core.NewActionFeedService(actionRepo)
	trackerSvc := core.NewTrackerService(actionRepo, progressRepo, ledgerRepo, userRepo, catalogSvc, hub)

	logger.Info("Initialized core services")

	server := httpProtocol.NewServer(cfg, trackerSvc, catalogSvc, pointsSvc, sweeperSvc, actionsSvc)

	wsHandler := wsProtocol.NewHandler(hub, cfg.JWT)
	server.Router().GET("/ws/notifications", wsHandler.HandleNotifications)
	server.Router().GET("/ws/notifications/status", wsHandler.Status)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("HTTP server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server shutdown error: %v", err)
	}

	logger.Info("Server stopped")
}
