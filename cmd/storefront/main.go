package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/fjod/storefront/internal/audit"
	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/config"
	h "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/identity"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/orders"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/visit"
	"github.com/fjod/storefront/internal/voucher"
)

const serviceName = "storefront"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres: orders, vouchers, persisted carts, outbox
	repo, err := repository.NewRepository(&cfg.Postgres)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.RunMigrations(&cfg.Postgres); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations completed")

	// Catalog (sqlite, read-only to this service)
	books, err := catalog.NewRepository(cfg.Catalog.DBPath)
	if err != nil {
		logger.Fatal("failed to open catalog", zap.Error(err))
	}
	defer books.Close()

	if err := books.RunMigrations(cfg.Catalog.MigrationsPath); err != nil {
		logger.Fatal("failed to run catalog migrations", zap.Error(err))
	}

	// Redis: per-visit carts
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	visits := visit.NewRedisStore(redisClient, cfg.Redis.VisitTTL)

	// Mongo: order history is optional for the storefront
	var history h.OrderHistory
	mongoCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	mongoDB, err := audit.ConnectMongoDB(mongoCtx, cfg.Mongo.URI, cfg.Mongo.Database)
	cancel()
	if err != nil {
		logger.Warn("order history disabled", zap.Error(err))
	} else {
		defer mongoDB.Client().Disconnect(context.Background())
		history = audit.NewHistoryStore(mongoDB)
	}

	validator := voucher.NewValidator(repo, time.Now)
	cartService := cart.NewService(visits, catalog.NewSharedLookup(books), repo, logger.Named("cart"))
	checkoutService := checkout.NewService(cartService, repo, validator, logger.Named("checkout"))
	ordersService := orders.NewService(repo, time.Now, logger.Named("orders"))
	voucherService := voucher.NewService(repo, time.Now, logger.Named("vouchers"))

	router := h.NewRouter(h.RouterConfig{
		RequestTimeout:     cfg.HTTP.RequestTimeout,
		MaxRequestBodySize: cfg.HTTP.MaxRequestBodySize,
		SecureCookies:      cfg.HTTP.SecureCookies,
		VisitTTL:           cfg.Redis.VisitTTL,
	}, h.Handlers{
		Cart:     h.NewCartHandler(cartService),
		Checkout: h.NewCheckoutHandler(checkoutService),
		Orders:   h.NewOrdersHandler(ordersService, history),
		Vouchers: h.NewVouchersHandler(voucherService),
	}, identity.NewResolver(cfg.Auth.JWTSecret, cfg.Auth.Issuer), logger.Named("http"))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// gRPC: health probe for the orchestrator
	healthServer := health.NewServer()
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPC.Port))
	if err != nil {
		logger.Fatal("failed to listen", zap.String("port", cfg.GRPC.Port), zap.Error(err))
	}

	go func() {
		logger.Info("grpc health listening", zap.String("port", cfg.GRPC.Port))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc server stopped", zap.Error(err))
		}
	}()

	go watchHealth(ctx, healthServer, logger, repo.Ping, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	go func() {
		logger.Info("storefront listening", zap.String("port", cfg.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down storefront")
	healthServer.Shutdown()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()

	logger.Info("storefront stopped")
}

// watchHealth reports SERVING while every dependency answers its ping.
func watchHealth(ctx context.Context, hs *health.Server, logger *zap.Logger, pings ...func(context.Context) error) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	check := func() {
		status := healthpb.HealthCheckResponse_SERVING
		for _, ping := range pings {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warn("dependency health check failed", zap.Error(err))
				status = healthpb.HealthCheckResponse_NOT_SERVING
				break
			}
		}
		hs.SetServingStatus("", status)
		hs.SetServingStatus(serviceName, status)
	}

	check()
	for {
		select {
		case <-ticker.C:
			check()
		case <-ctx.Done():
			return
		}
	}
}
