package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/poller"
)

const (
	workerName       = "payments-worker"
	defaultBatchSize = 25
	defaultPollMs    = 1000
	maxBackoff       = 30 * time.Second
)

type pinger interface {
	Ping(context.Context) error
}

type inboxDrainer interface {
	Drain(ctx context.Context, limit int) (int, error)
}

type workerCounter interface {
	IncProcessed(worker string)
	IncFailed(worker string)
}

type ServiceParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        pinger
	Processor inboxDrainer
	Metrics   workerCounter
}

// Service drains the payment event inbox: events stored by the webhook
// endpoint in inbox mode, and events whose inline attempt failed.
type Service struct {
	logg         *logger.Logger
	db           pinger
	processor    inboxDrainer
	metrics      workerCounter
	batchSize    int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Processor == nil {
		return nil, errors.New("payment event processor is required")
	}

	batch := params.Config.Webhooks.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.Webhooks.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}

	return &Service{
		logg:         params.Logger,
		db:           params.DB,
		processor:    params.Processor,
		metrics:      params.Metrics,
		batchSize:    batch,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		s.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}
	return poller.Run(ctx, poller.Options{
		Name:       workerName,
		Interval:   s.pollInterval,
		MaxBackoff: maxBackoff,
		Logger:     s.logg,
	}, s.drainOnce)
}

// drainOnce processes one batch. Failed rows are already rescheduled in the
// inbox, so they are logged and counted but do not slow the loop down.
func (s *Service) drainOnce(ctx context.Context) (bool, error) {
	attempted, err := s.processor.Drain(ctx, s.batchSize)
	if attempted == 0 {
		return false, err
	}

	failures := multierr.Errors(err)
	for _, failure := range failures {
		s.logg.Warn(s.logg.WithField(ctx, "error", failure.Error()), "payment event attempt failed")
	}
	s.count(attempted-len(failures), len(failures))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"attempted": attempted,
		"failed":    len(failures),
	}), "payment inbox batch drained")
	return true, nil
}

func (s *Service) count(succeeded, failed int) {
	if s.metrics == nil {
		return
	}
	for i := 0; i < succeeded; i++ {
		s.metrics.IncProcessed(workerName)
	}
	for i := 0; i < failed; i++ {
		s.metrics.IncFailed(workerName)
	}
}
