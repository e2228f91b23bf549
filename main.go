package main

import (
	"context"
	"fmt"
	"time"

	"api_analytics/api"
	"api_analytics/internal/analytics"
	"api_analytics/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("error loading config: %v", err))
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("error building logger: %v", err))
	}
	defer logger.Sync()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Fatal("failed to open data store", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer closeStore()

	r := gin.New()
	r.Use(gin.Recovery())
	api.InitRoutes(r, store, cfg, logger)

	logger.Info("starting analytics api", zap.String("port", cfg.Port), zap.String("driver", cfg.DBDriver))
	if err := r.Run(":" + cfg.Port); err != nil {
		panic(fmt.Errorf("error trying to start server: %v", err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	zapCfg := zap.NewProductionConfig()
	if err := zapCfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	return zapCfg.Build()
}

func openStore(cfg config.Config) (analytics.Storage, func(), error) {
	if cfg.DBDriver == config.DriverMemory {
		return analytics.NewLocalStorage(), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := analytics.OpenSQLStorage(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}
