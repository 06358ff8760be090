// The sweeper binary runs the maintenance passes on a fixed interval:
// purging expired progress and resetting completed periodic missions at
// their boundaries. Safe to run alongside the server; every pass is
// idempotent.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"missionhub/internal/core"
	"missionhub/internal/repository"
	"missionhub/pkg/config"
	"missionhub/pkg/database"
	"missionhub/pkg/logger"
	"missionhub/pkg/utils"
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

	pool, err := database.NewPGXPool(database.Config{
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
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	sweeper := core.NewSweeperService(repository.NewProgressRepository(pool))

	interval := cfg.Sweeper.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	logger.Infof("Sweeper running every %s", interval)

	runOnce(sweeper)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runOnce(sweeper)
		case <-quit:
			logger.Info("Sweeper stopped")
			return
		}
	}
}

func runOnce(sweeper core.SweeperService) {
	ctx, cancel := utils.WithSweepTimeout(context.Background())
	defer cancel()

	result, err := sweeper.RunAll(ctx, time.Now())
	if err != nil {
		logger.Errorf("sweep failed: %v", err)
		return
	}
	logger.WithFields(map[string]interface{}{
		"component":      "sweeper",
		"expired_purged": result.ExpiredPurged,
		"periodic_reset": result.PeriodicReset,
	}).Info("sweep completed")
}
