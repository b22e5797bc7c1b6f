package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"calsync/core/cache"
	"calsync/core/config"
	"calsync/core/database"
	"calsync/core/logger"
	"calsync/core/utils"
	"calsync/core/vault"
	"calsync/core/worker"
	"calsync/modules/connect"
	"calsync/modules/event"
	"calsync/modules/feed"
	"calsync/modules/overlay"
)

// Run boots configuration, storage, the vault, the background worker and the
// HTTP server, then blocks until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := vault.Init(cfg.Vault.Key); err != nil {
		return fmt.Errorf("init vault: %w", err)
	}

	db, err := database.InitDB(database.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	redisCache, err := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("init redis: %w", err)
	}
	defer redisCache.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: utils.GenerateID,
	}))
	e.Use(echomw.CORS())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	dbFacade := database.GetDB()

	connect.Init(e, dbFacade, redisCache)
	feed.Init(e, dbFacade)
	event.InitService(dbFacade, connect.GetService())
	overlay.Init(e, dbFacade, event.GetService())
	event.Init(e, feed.GetService(), overlay.GetService())

	w := worker.New(cfg.Redis, dbFacade)
	go func() {
		if err := w.Run(); err != nil {
			logger.Error("Server:Worker:Run:Error", "error", err)
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		logger.Info("Server:Run:Listening", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server:Run:Start:Error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server:Run:ShuttingDown")

	w.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("Server:Run:Stopped")
	return nil
}
