// Package poller runs a batch step in a loop, sleeping between empty batches
// and backing off after failures.
package poller

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

const (
	defaultInterval   = 500 * time.Millisecond
	defaultMaxBackoff = 10 * time.Second
	jitterWindow      = 250 * time.Millisecond
)

var (
	jitterMu     sync.Mutex
	jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// Step processes one batch and reports whether it found work.
type Step func(ctx context.Context) (bool, error)

// Options tune the loop.
type Options struct {
	Name       string
	Interval   time.Duration
	MaxBackoff time.Duration
	Logger     *logger.Logger
}

// Run calls step until ctx is done. A batch that found work is followed
// immediately by the next one.
func Run(ctx context.Context, opts Options, step Step) error {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	maxBackoff := opts.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			if opts.Logger != nil {
				opts.Logger.Info(ctx, opts.Name+" context canceled")
			}
			return ctx.Err()
		default:
		}

		found, err := step(ctx)
		if err != nil {
			if opts.Logger != nil {
				opts.Logger.Error(ctx, opts.Name+" batch error", err)
			}
			backoff = NextBackoff(backoff, interval, maxBackoff)
			if err := Sleep(ctx, WithJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval
		if found {
			continue
		}
		if err := Sleep(ctx, WithJitter(interval)); err != nil {
			return err
		}
	}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NextBackoff doubles current up to max.
func NextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

// WithJitter adds up to 250ms of random delay.
func WithJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitterMu.Lock()
	jitter := time.Duration(jitterSource.Int63n(int64(jitterWindow)))
	jitterMu.Unlock()
	return d + jitter
}
