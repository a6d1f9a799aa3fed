package main

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/printshop-backend/internal/analytics"
	"github.com/angelmondragon/printshop-backend/internal/bootstrap"
	"github.com/angelmondragon/printshop-backend/pkg/bigquery"
	"github.com/angelmondragon/printshop-backend/pkg/metrics"
	"github.com/angelmondragon/printshop-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/printshop-backend/pkg/pubsub"
	"github.com/angelmondragon/printshop-backend/pkg/redis"
)

const serviceName = "analytics-worker"

func main() {
	rt := bootstrap.Start(serviceName)
	defer rt.Close()
	cfg := rt.Config

	ctx, stop := rt.SignalContext()
	defer stop()
	ctx = rt.Logger.WithField(ctx, "subscription", cfg.PubSub.OrdersSubscription)

	redisClient, err := redis.New(ctx, cfg.Redis, rt.Logger)
	rt.Must("redis", err)
	rt.OnShutdown("redis", redisClient.Close)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, rt.Logger, pubsub.RequireSubscription(cfg.PubSub.OrdersSubscription))
	rt.Must("pubsub", err)
	rt.OnShutdown("pubsub", pubsubClient.Close)

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, rt.Logger)
	rt.Must("bigquery", err)
	rt.OnShutdown("bigquery", bqClient.Close)

	subscription := pubsubClient.OrdersSubscription()
	if subscription == nil {
		rt.Must("orders subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.ConsumerIdempotencyTTL)
	rt.Must("idempotency manager", err)

	consumer, err := analytics.NewConsumer(bqClient, bqClient.OrderEventsTable(), rt.Logger)
	rt.Must("order events consumer", err)

	reg := prometheus.NewRegistry()
	worker, err := analytics.NewWorker(subscription, consumer, manager, metrics.NewWorkerMetrics(reg, cfg.Metrics.Namespace), rt.Logger)
	rt.Must("analytics worker", err)

	rt.ServeMetrics(ctx, reg)
	rt.RunUntilDone(ctx, serviceName, worker.Run)
}
