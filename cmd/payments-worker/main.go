package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/printshop-backend/internal/bootstrap"
	"github.com/angelmondragon/printshop-backend/internal/webhooks/payments"
	"github.com/angelmondragon/printshop-backend/pkg/metrics"
	pkgstripe "github.com/angelmondragon/printshop-backend/pkg/stripe"
)

func main() {
	rt := bootstrap.Start(workerName)
	defer rt.Close()
	cfg := rt.Config

	ctx, stop := rt.SignalContext()
	defer stop()

	dbClient := rt.Database(ctx)

	stripeClient, err := pkgstripe.NewClient(ctx, cfg.Stripe, rt.Logger)
	rt.Must("stripe", err)

	reg := prometheus.NewRegistry()
	processor, err := payments.NewDBProcessor(
		dbClient,
		stripeClient,
		metrics.NewWebhookMetrics(reg, cfg.Metrics.Namespace),
		rt.Logger,
		cfg.Webhooks.MaxAttempts,
	)
	rt.Must("payment event processor", err)

	service, err := NewService(ServiceParams{
		Config:    cfg,
		Logger:    rt.Logger,
		DB:        dbClient,
		Processor: processor,
		Metrics:   metrics.NewWorkerMetrics(reg, cfg.Metrics.Namespace),
	})
	rt.Must("payments worker", err)

	rt.ServeMetrics(ctx, reg)
	rt.RunUntilDone(ctx, workerName, service.Run)
}
