package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

// Nil is returned by Get when the key does not exist.
const Nil = redis.Nil

const (
	keyNamespace      = "ps"
	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rate_limit"
)

var errNotInitialized = errors.New("redis client not initialized")

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Incr(context.Context, string) *redis.IntCmd
	Expire(context.Context, string, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Client backs checkout idempotency, the checkout rate limiter and the
// analytics consumer's processed-event markers.
type Client struct {
	store cmdable
	raw   *redis.Client
	now   func() time.Time
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// IdempotencyStore exposes minimal operations used by idempotency helpers.
type IdempotencyStore interface {
	Get(context.Context, string) (string, error)
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(context.Context, ...string) error
}

// New connects with the configured pool and timeouts and pings once.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"addr": opts.Addr, "db": opts.DB}), "redis connection established")
	}
	return &Client{store: raw, raw: raw, now: time.Now}, nil
}

// optionsFromConfig prefers the URL; explicit pool and timeout settings fill
// whatever the URL leaves unset.
func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	case cfg.Address != "":
		opts = &redis.Options{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB}
	default:
		return nil, errors.New("redis url or address is required")
	}

	fillInt(&opts.DB, cfg.DB)
	fillInt(&opts.PoolSize, cfg.PoolSize)
	fillInt(&opts.MinIdleConns, cfg.MinIdleConns)
	fillDuration(&opts.DialTimeout, cfg.DialTimeout)
	fillDuration(&opts.ReadTimeout, cfg.ReadTimeout)
	fillDuration(&opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func fillInt(dst *int, v int) {
	if *dst == 0 {
		*dst = v
	}
}

func fillDuration(dst *time.Duration, v time.Duration) {
	if *dst == 0 {
		*dst = v
	}
}

func (c *Client) ready() (cmdable, error) {
	if c == nil || c.store == nil {
		return nil, errNotInitialized
	}
	return c.store, nil
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	store, err := c.ready()
	if err != nil {
		return err
	}
	return store.Set(ctx, key, value, ttl).Err()
}

// Get returns the value at key, or Nil when it is missing.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	store, err := c.ready()
	if err != nil {
		return "", err
	}
	return store.Get(ctx, key).Result()
}

// SetNX sets a value only if the key does not exist yet.
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	store, err := c.ready()
	if err != nil {
		return false, err
	}
	return store.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	store, err := c.ready()
	if err != nil {
		return err
	}
	return store.Del(ctx, keys...).Err()
}

// FixedWindowAllow counts a hit against scope in the current clock-aligned
// window and reports whether the count is still within limit. Each window
// gets its own key, which expires once the window is over.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	store, err := c.ready()
	if err != nil {
		return false, 0, err
	}
	if window <= 0 {
		return false, 0, fmt.Errorf("rate limit window must be positive, got %s", window)
	}

	start := c.clock().Truncate(window)
	key := c.RateLimitKey(scope) + ":" + strconv.FormatInt(start.Unix(), 10)
	count, err := store.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := store.Expire(ctx, key, window).Err(); err != nil {
			return false, count, err
		}
	}
	return count <= limit, count, nil
}

// IdempotencyKey returns a namespaced key for idempotency storage.
func (c *Client) IdempotencyKey(scope, id string) string {
	return buildKey(idempotencyPrefix, scope, id)
}

// RateLimitKey returns the namespaced prefix for a scope's rate limit counters.
func (c *Client) RateLimitKey(scope string) string {
	return buildKey(rateLimitPrefix, scope)
}

func (c *Client) Ping(ctx context.Context) error {
	store, err := c.ready()
	if err != nil {
		return err
	}
	return store.Ping(ctx).Err()
}

// Close is a no-op for clients built without a connection.
func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

func buildKey(parts ...string) string {
	clean := []string{keyNamespace}
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			clean = append(clean, part)
		}
	}
	return strings.Join(clean, ":")
}
