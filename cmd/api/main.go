package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielcastano/abasto-backend/api/routes"
	"github.com/danielcastano/abasto-backend/internal/audit"
	authsvc "github.com/danielcastano/abasto-backend/internal/auth"
	"github.com/danielcastano/abasto-backend/internal/catalog"
	"github.com/danielcastano/abasto-backend/internal/inventory"
	"github.com/danielcastano/abasto-backend/internal/lowstock"
	"github.com/danielcastano/abasto-backend/internal/products"
	"github.com/danielcastano/abasto-backend/internal/purchases"
	"github.com/danielcastano/abasto-backend/internal/sales"
	"github.com/danielcastano/abasto-backend/internal/suppliers"
	"github.com/danielcastano/abasto-backend/internal/users"
	"github.com/danielcastano/abasto-backend/pkg/config"
	"github.com/danielcastano/abasto-backend/pkg/db"
	"github.com/danielcastano/abasto-backend/pkg/logger"
	"github.com/danielcastano/abasto-backend/pkg/metrics"
	"github.com/danielcastano/abasto-backend/pkg/migrate"
	"github.com/danielcastano/abasto-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	supplierRepo := suppliers.NewRepository(gormDB)
	productRepo := products.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	auditRepo := audit.NewRepository(gormDB)
	purchaseRepo := purchases.NewRepository(gormDB)
	saleRepo := sales.NewRepository(gormDB)

	auditService, err := audit.NewService(auditRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(userRepo, cfg.JWT, auditService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	stockAdjuster := inventory.NewAdjuster(logg)

	purchaseService, err := purchases.NewService(
		purchaseRepo, dbClient, userRepo, supplierRepo, productRepo, stockAdjuster, auditService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase service", err)
		os.Exit(1)
	}

	saleService, err := sales.NewService(
		saleRepo, dbClient, userRepo, productRepo, stockAdjuster, auditService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sale service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.LowStock.Enabled {
		sweeper, err := lowstock.NewSweeper(productRepo, auditService, logg, cfg.LowStock.SweepInterval)
		if err != nil {
			logg.Error(ctx, "failed to create low stock sweeper", err)
			os.Exit(1)
		}
		go sweeper.Run(ctx)
	}

	httpMetrics := metrics.NewHTTPMetrics()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			httpMetrics,
			dbClient,
			redisClient,
			authService,
			productService,
			catalogService,
			auditService,
			purchaseService,
			saleService,
		),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "error shutting down server", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(logCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(logCtx, "api server shut down gracefully")
}
