package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"

	defaultRequestTimeout = 10 * time.Second
	maxNetworkRetries     = 2
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errSecretRequired   = errors.New("stripe webhook secret is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

// keyPrefixes are the secret and restricted key prefixes accepted per environment.
var keyPrefixes = map[string][]string{
	testEnv: {"sk_test_", "rk_test_"},
	liveEnv: {"sk_live_", "rk_live_"},
}

// Client holds the Stripe API client, the webhook signing secret and the
// per-call budget.
type Client struct {
	api            *stripe.Client
	environment    string
	signingSecret  string
	requestTimeout time.Duration
}

func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env := cfg.Environment()
	if _, ok := keyPrefixes[env]; !ok {
		return nil, errInvalidStripeEnv
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errSecretRequired
	}
	if !keyMatchesEnv(env, apiKey) {
		return nil, fmt.Errorf("stripe environment %q requires one of %s keys", env, strings.Join(keyPrefixes[env], "/"))
	}

	c := &Client{environment: env, signingSecret: secret, requestTimeout: cfg.RequestTimeout}
	backends := stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: c.RequestTimeout()},
		MaxNetworkRetries: stripe.Int64(maxNetworkRetries),
		LeveledLogger:     newLeveledLogger(logg),
	})
	c.api = stripe.NewClient(apiKey, stripe.WithBackends(backends))

	if logg != nil {
		logg.Info(logg.WithField(ctx, "stripe_env", env), "stripe client initialized")
	}
	return c, nil
}

func keyMatchesEnv(env, key string) bool {
	for _, prefix := range keyPrefixes[env] {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// API returns the underlying Stripe API client.
func (c *Client) API() *stripe.Client {
	if c == nil {
		return nil
	}
	return c.api
}

func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

// RequestTimeout bounds each outbound Stripe call.
func (c *Client) RequestTimeout() time.Duration {
	if c == nil || c.requestTimeout <= 0 {
		return defaultRequestTimeout
	}
	return c.requestTimeout
}

// VerifyEvent authenticates a webhook body against its Stripe-Signature
// header and decodes the event. Events from other API versions are accepted.
func (c *Client) VerifyEvent(payload []byte, signature string) (stripe.Event, error) {
	if c == nil || c.signingSecret == "" {
		return stripe.Event{}, errSecretRequired
	}
	return webhook.ConstructEventWithOptions(payload, signature, c.signingSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
