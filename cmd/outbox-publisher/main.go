package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/printshop-backend/internal/bootstrap"
	"github.com/angelmondragon/printshop-backend/pkg/metrics"
	"github.com/angelmondragon/printshop-backend/pkg/outbox"
	"github.com/angelmondragon/printshop-backend/pkg/outbox/registry"
	"github.com/angelmondragon/printshop-backend/pkg/pubsub"
)

func main() {
	rt := bootstrap.Start(workerName)
	defer rt.Close()
	cfg := rt.Config

	ctx, stop := rt.SignalContext()
	defer stop()

	dbClient := rt.Database(ctx)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, rt.Logger, pubsub.RequireTopic(cfg.PubSub.OrdersTopic))
	rt.Must("pubsub", err)
	rt.OnShutdown("pubsub", pubsubClient.Close)

	eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
	rt.Must("event registry", err)

	reg := prometheus.NewRegistry()
	service, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        rt.Logger,
		DB:            dbClient,
		PubSub:        pubsubClient,
		Repository:    outbox.NewRepository(dbClient.DB()),
		Registry:      eventRegistry,
		DLQRepository: outbox.NewDLQRepository(dbClient.DB()),
		Metrics:       metrics.NewWorkerMetrics(reg, cfg.Metrics.Namespace),
	})
	rt.Must("outbox publisher", err)

	rt.ServeMetrics(ctx, reg)
	rt.RunUntilDone(ctx, workerName, service.Run)
}
