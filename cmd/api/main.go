package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rdelacruz/freshmarket-backend/api/routes"
	"github.com/rdelacruz/freshmarket-backend/internal/cart"
	"github.com/rdelacruz/freshmarket-backend/internal/checkout"
	"github.com/rdelacruz/freshmarket-backend/internal/docexport"
	"github.com/rdelacruz/freshmarket-backend/internal/notify"
	"github.com/rdelacruz/freshmarket-backend/internal/orders"
	"github.com/rdelacruz/freshmarket-backend/internal/products"
	"github.com/rdelacruz/freshmarket-backend/internal/relay"
	"github.com/rdelacruz/freshmarket-backend/pkg/config"
	"github.com/rdelacruz/freshmarket-backend/pkg/db"
	"github.com/rdelacruz/freshmarket-backend/pkg/logger"
	"github.com/rdelacruz/freshmarket-backend/pkg/metrics"
	"github.com/rdelacruz/freshmarket-backend/pkg/migrate"
	"github.com/rdelacruz/freshmarket-backend/pkg/pricing"
	"github.com/rdelacruz/freshmarket-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
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

	registry := prometheus.NewRegistry()
	orderMetrics := metrics.NewOrderMetrics(registry)

	feed := relay.NewRedisFeed(redisClient, cfg.Relay, logg)
	ordersRepo := orders.NewRepository(orders.NewStore(dbClient.DB()), feed, logg, orderMetrics)
	catalog := products.NewRepository(dbClient.DB())

	channel, err := notify.NewChannel(cfg.Sendgrid, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification channel", err)
		os.Exit(1)
	}

	cartManager := cart.NewManager(pricing.Policy{
		FlatFee:   cfg.Shipping.FlatFee,
		FreeAbove: cfg.Shipping.FreeAbove,
	})

	checkoutService, err := checkout.NewService(ordersRepo, channel, logg, orderMetrics, cfg.Checkout.PersistTimeout)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DBPinger:    dbClient,
			FeedPinger:  redisClient,
			CartManager: cartManager,
			Catalog:     catalog,
			Checkout:    checkoutService,
			Orders:      ordersRepo,
			Renderer:    docexport.NewRenderer(),
			Registry:    registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
