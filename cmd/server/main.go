package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pharmastock/internal/config"
	"pharmastock/internal/domain"
	"pharmastock/internal/infrastructure/logger"
	"pharmastock/internal/infrastructure/metrics"
	"pharmastock/internal/infrastructure/mysql"
	"pharmastock/internal/inventory"
	"pharmastock/internal/product"
	productrepo "pharmastock/internal/product/repository"
	"pharmastock/internal/server"
	"pharmastock/internal/stockimport"
)

func main() {
	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	var db *sql.DB
	if cfg.Storage.Driver == config.StorageMySQL {
		db, err = mysql.NewConnection(cfg.Database)
		if err != nil {
			zapLogger.Fatal("connecting to database", zap.Error(err))
		}
		defer db.Close()
		zapLogger.Info("database connected")

		if cfg.Database.AutoMigrate {
			if err := mysql.Migrate(db); err != nil {
				zapLogger.Fatal("migrating database", zap.Error(err))
			}
			zapLogger.Info("database migrated")
		}
	} else {
		zapLogger.Warn("using in-memory storage; stock is lost on restart")
	}

	var appMetrics *metrics.Metrics
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		appMetrics = metrics.New()
		metricsHandler = appMetrics.Handler()
	}

	clock := domain.NewSystemClock(cfg.Inventory.Location)

	products := product.NewModule(db, productrepo.NewMemoryRepository(), zapLogger)
	inv := inventory.NewModule(db, cfg, products.Service, clock, appMetrics, zapLogger)
	imports := stockimport.NewModule(inv.Ledger, products.Service, appMetrics, cfg.Import.MaxRows, zapLogger)

	router := server.NewRouter(server.Routes{
		Inventory: inv.Controller,
		Products:  products.Controller,
		Imports:   imports,
		Metrics:   metricsHandler,
	}, zapLogger)

	srv := server.New(cfg.Server, router, zapLogger)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go inv.Sweeper.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
