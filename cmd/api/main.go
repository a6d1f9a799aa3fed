package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/printshop-backend/api/routes"
	"github.com/angelmondragon/printshop-backend/internal/bootstrap"
	"github.com/angelmondragon/printshop-backend/internal/cart"
	"github.com/angelmondragon/printshop-backend/internal/catalog"
	"github.com/angelmondragon/printshop-backend/internal/checkout"
	"github.com/angelmondragon/printshop-backend/internal/orders"
	"github.com/angelmondragon/printshop-backend/internal/users"
	"github.com/angelmondragon/printshop-backend/internal/webhooks/payments"
	"github.com/angelmondragon/printshop-backend/pkg/metrics"
	"github.com/angelmondragon/printshop-backend/pkg/outbox"
	"github.com/angelmondragon/printshop-backend/pkg/redis"
	pkgstripe "github.com/angelmondragon/printshop-backend/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

func main() {
	rt := bootstrap.Start("api")
	defer rt.Close()
	cfg := rt.Config
	logg := rt.Logger

	ctx, stop := rt.SignalContext()
	defer stop()

	dbClient := rt.Database(ctx)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	rt.Must("redis", err)
	rt.OnShutdown("redis", redisClient.Close)

	stripeClient, err := pkgstripe.NewClient(ctx, cfg.Stripe, logg)
	rt.Must("stripe", err)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	rt.Must("catalog service", err)

	cartRepo := cart.NewRepository(dbClient.DB())
	cartService, err := cart.NewService(cartRepo, dbClient)
	rt.Must("cart service", err)

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo)
	rt.Must("orders service", err)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		TransactionRunner: dbClient,
		OrdersRepo:        ordersRepo,
		CartRepo:          cartRepo,
		PaymentIntents:    pkgstripe.NewPaymentIntentClient(stripeClient),
		Outbox:            outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Metrics:           metrics.NewCheckoutMetrics(reg, cfg.Metrics.Namespace),
		Logger:            logg,
		Settings: checkout.Settings{
			Currency:       cfg.Checkout.Currency,
			DefaultCountry: cfg.Checkout.DefaultCountry,
			PaymentTimeout: stripeClient.RequestTimeout(),
		},
	})
	rt.Must("checkout service", err)

	webhookProcessor, err := payments.NewDBProcessor(
		dbClient,
		stripeClient,
		metrics.NewWebhookMetrics(reg, cfg.Metrics.Namespace),
		logg,
		cfg.Webhooks.MaxAttempts,
	)
	rt.Must("payment event processor", err)

	// PORT is injected by the hosting platform and wins over config.
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := &http.Server{
		Addr: ":" + port,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			DB:              dbClient,
			Redis:           redisClient,
			Users:           users.NewRepository(dbClient.DB()),
			Gatherer:        reg,
			Catalog:         catalogService,
			Cart:            cartService,
			Orders:          ordersService,
			Checkout:        checkoutService,
			PaymentWebhooks: webhookProcessor,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"addr":         server.Addr,
		"webhook_mode": cfg.Webhooks.Mode,
	})
	rt.RunUntilDone(ctx, "api server", func(ctx context.Context) error {
		return serve(ctx, server)
	})
}

// serve runs server until ctx ends, then drains in-flight requests.
func serve(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
