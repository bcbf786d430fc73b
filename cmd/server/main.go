package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/mahligai-id/backoffice/internal/config"
	"github.com/mahligai-id/backoffice/internal/document"
	"github.com/mahligai-id/backoffice/internal/export"
	httpiface "github.com/mahligai-id/backoffice/internal/interfaces/http"
	"github.com/mahligai-id/backoffice/internal/order"
	"github.com/mahligai-id/backoffice/internal/repository"
	"github.com/mahligai-id/backoffice/internal/storage"
	"github.com/mahligai-id/backoffice/migrations"
	"github.com/mahligai-id/backoffice/pkg/database"
	"github.com/mahligai-id/backoffice/pkg/utils"
)

func main() {
	// Optional .env for local development; real deployments set env vars.
	gotenv.Load()

	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting wedding back office",
		zap.String("vendor", cfg.Vendor.Name),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(migrations.FS); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	clientRepo := repository.NewClientRepository(db.DB, logger)
	orderRepo := repository.NewOrderRepository(db.DB, logger)
	paymentRepo := repository.NewPaymentRepository(db.DB, logger)
	invoiceRepo := repository.NewInvoiceRepository(db.DB, logger)

	// Order aggregate
	orderService := order.NewService(db, orderRepo, paymentRepo, logger)

	// Document store and renderer
	docStore, err := storage.NewDocumentStore(cfg.Document.OutputDir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize document store", zap.Error(err))
	}

	poolCfg := document.DefaultPoolConfig()
	poolCfg.Size = cfg.Document.PoolSize
	poolCfg.IdleTimeout = cfg.Document.IdleTimeout
	poolCfg.ExecPath = cfg.Document.ChromePath
	pool := document.NewPool(poolCfg, logger)
	defer pool.Close()

	renderer, err := document.NewRenderer(pool, cfg.Document.RenderTimeout, logger)
	if err != nil {
		logger.Fatal("Failed to initialize renderer", zap.Error(err))
	}

	docService := document.NewService(document.ServiceConfig{
		Tenant: cfg.Vendor.Tenant,
		Vendor: document.VendorInfo{
			Name:    cfg.Vendor.Name,
			Address: cfg.Vendor.Address,
			Phone:   cfg.Vendor.Phone,
			Email:   cfg.Vendor.Email,
		},
	}, db, orderRepo, paymentRepo, clientRepo, invoiceRepo, renderer, docStore, logger)

	// Ledger export
	exporter := export.NewLedgerExporter(cfg.Vendor.Name, logger)

	// HTTP server
	handlers := httpiface.NewHandlers(clientRepo, orderService, docService, exporter, pool, logger)
	server := httpiface.NewServer(httpiface.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handlers, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
