// Package bootstrap holds the startup and shutdown sequence shared by every
// printshop binary.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/instance"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/metrics"
	"github.com/angelmondragon/printshop-backend/pkg/migrate"
)

const shutdownTimeout = 15 * time.Second

type closer struct {
	name string
	fn   func() error
}

// Runtime is one binary's loaded config, logger and the resources to release
// on exit.
type Runtime struct {
	Service string
	Config  *config.Config
	Logger  *logger.Logger

	closers []closer
	exit    func(int)
}

// Start reads .env when present, loads config and builds the service logger.
// A config error ends the process.
func Start(service string) *Runtime {
	rt := &Runtime{
		Service: service,
		Logger:  logger.New(logger.Options{ServiceName: service}),
		exit:    os.Exit,
	}
	if err := godotenv.Load(); err != nil {
		rt.Logger.Debug(context.Background(), "no .env file loaded")
	}

	cfg, err := config.Load()
	rt.Must("config", err)
	cfg.Service.Kind = service
	rt.Config = cfg

	rt.Logger = logger.New(logger.Options{
		ServiceName: service,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Fields: map[string]any{
			"env":      cfg.App.Env,
			"instance": instance.GetID(),
		},
	})
	return rt
}

// Must ends the process when a required resource failed to come up.
func (rt *Runtime) Must(resource string, err error) {
	if err == nil {
		return
	}
	rt.Logger.Error(context.Background(), fmt.Sprintf("%s unavailable", resource), err)
	rt.Close()
	rt.exit(1)
}

// OnShutdown registers fn to run from Close. Closers run last-in first-out.
func (rt *Runtime) OnShutdown(name string, fn func() error) {
	rt.closers = append(rt.closers, closer{name: name, fn: fn})
}

// Close releases registered resources once and logs the combined error.
func (rt *Runtime) Close() {
	var err error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		c := rt.closers[i]
		if cerr := c.fn(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", c.name, cerr))
		}
	}
	rt.closers = nil
	if err != nil {
		rt.Logger.Error(context.Background(), "shutdown completed with errors", err)
	}
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func (rt *Runtime) SignalContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return rt.Logger.WithField(ctx, "service_kind", rt.Service), stop
}

// Database opens the primary datastore and applies dev migrations when enabled.
func (rt *Runtime) Database(ctx context.Context) *db.Client {
	client, err := db.New(ctx, rt.Config.DB, rt.Logger)
	rt.Must("database", err)
	rt.OnShutdown("database", client.Close)
	rt.Must("dev migrations", migrate.MaybeRunDev(ctx, rt.Config, rt.Logger, client))
	return client
}

// ServeMetrics exposes gatherer on the app port for worker binaries.
func (rt *Runtime) ServeMetrics(ctx context.Context, gatherer prometheus.Gatherer) {
	server := metrics.Serve(ctx, rt.Config.App.Port, gatherer, rt.Logger)
	rt.OnShutdown("metrics server", func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}

// RunUntilDone runs a blocking loop; cancellation is a clean stop.
func (rt *Runtime) RunUntilDone(ctx context.Context, name string, run func(context.Context) error) {
	rt.Logger.Info(ctx, name+" starting")
	err := run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		rt.Logger.Error(ctx, name+" stopped unexpectedly", err)
		rt.Close()
		rt.exit(1)
		return
	}
	rt.Logger.Info(ctx, name+" stopped")
}
