package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/openfactory/fabriq/internal/config"
	"github.com/openfactory/fabriq/internal/database"
	"github.com/openfactory/fabriq/internal/handlers"
	"github.com/openfactory/fabriq/internal/logger"
	"github.com/openfactory/fabriq/internal/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logger.Init(cfg.AppEnv, cfg.LogLevel)
	defer logger.Sync()
	log := logger.Get()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	// db.Close() is called in the shutdown handler below

	log.Info("synchronizing database schema")
	err = db.AutoMigrate(
		&models.Company{},
		&models.Customer{},
		&models.Vendor{},
		&models.VendorSkuPrice{},
		&models.Sku{},
		&models.StockZone{},
		&models.StockBalance{},
		&models.StockReservation{},
		&models.Bom{},
		&models.BomLine{},
		&models.Routing{},
		&models.RoutingStep{},
		&models.SalesOrder{},
		&models.SalesOrderLine{},
		&models.PurchaseOrder{},
		&models.PurchaseOrderLine{},
		&models.PurchaseOrderAllocation{},
	)
	if err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	router := handlers.NewRouter(db)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("fabriq api listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("database close error", zap.Error(err))
	}
}
