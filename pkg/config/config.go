package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
	Stripe       StripeConfig
	Webhooks     WebhookConfig
	Outbox       OutboxConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	FeatureFlags FeatureFlagsConfig
	Metrics      MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Webhooks.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"PRINTSHOP_APP_ENV" required:"true"`
	Port         string   `envconfig:"PRINTSHOP_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"PRINTSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"PRINTSHOP_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"PRINTSHOP_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PRINTSHOP_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PRINTSHOP_DB_DSN"`
	Driver string `envconfig:"PRINTSHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PRINTSHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"PRINTSHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PRINTSHOP_DB_USER"`
	LegacyPassword string `envconfig:"PRINTSHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"PRINTSHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"PRINTSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRINTSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRINTSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRINTSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRINTSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRINTSHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PRINTSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"PRINTSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRINTSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRINTSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRINTSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRINTSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRINTSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRINTSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PRINTSHOP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PRINTSHOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PRINTSHOP_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CheckoutConfig struct {
	Currency        string        `envconfig:"PRINTSHOP_CHECKOUT_CURRENCY" default:"usd"`
	DefaultCountry  string        `envconfig:"PRINTSHOP_CHECKOUT_DEFAULT_COUNTRY" default:"USA"`
	RateLimitWindow time.Duration `envconfig:"PRINTSHOP_CHECKOUT_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitMax    int           `envconfig:"PRINTSHOP_CHECKOUT_RATE_LIMIT_MAX" default:"10"`
	IdempotencyTTL  time.Duration `envconfig:"PRINTSHOP_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
}

type StripeConfig struct {
	APIKey         string        `envconfig:"PRINTSHOP_STRIPE_API_KEY"`
	Secret         string        `envconfig:"PRINTSHOP_STRIPE_SECRET"`
	Env            string        `envconfig:"PRINTSHOP_STRIPE_ENV" default:"test"`
	RequestTimeout time.Duration `envconfig:"PRINTSHOP_STRIPE_REQUEST_TIMEOUT" default:"10s"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

const (
	WebhookModeInline = "inline"
	WebhookModeInbox  = "inbox"
)

type WebhookConfig struct {
	Mode           string `envconfig:"PRINTSHOP_WEBHOOK_MODE" default:"inline"`
	BatchSize      int    `envconfig:"PRINTSHOP_WEBHOOK_BATCH_SIZE" default:"25"`
	PollIntervalMS int    `envconfig:"PRINTSHOP_WEBHOOK_POLL_MS" default:"1000"`
	MaxAttempts    int    `envconfig:"PRINTSHOP_WEBHOOK_MAX_ATTEMPTS" default:"8"`
}

// ProcessInline reports whether webhook events are processed in the request that received them.
func (w WebhookConfig) ProcessInline() bool {
	return !strings.EqualFold(strings.TrimSpace(w.Mode), WebhookModeInbox)
}

func (w WebhookConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(w.Mode)) {
	case "", WebhookModeInline, WebhookModeInbox:
		return nil
	}
	return fmt.Errorf("%s must be %q or %q", EnvWebhookMode, WebhookModeInline, WebhookModeInbox)
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PRINTSHOP_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PRINTSHOP_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PRINTSHOP_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type EventingConfig struct {
	ConsumerIdempotencyTTL time.Duration `envconfig:"PRINTSHOP_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PRINTSHOP_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PRINTSHOP_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PRINTSHOP_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"PRINTSHOP_PUBSUB_ORDERS_TOPIC" default:"printshop-order-events"`
	OrdersSubscription string `envconfig:"PRINTSHOP_PUBSUB_ORDERS_SUBSCRIPTION" default:"printshop-order-events-analytics"`
}

type BigQueryConfig struct {
	Dataset          string `envconfig:"PRINTSHOP_BIGQUERY_DATASET" default:"printshop"`
	OrderEventsTable string `envconfig:"PRINTSHOP_BIGQUERY_ORDER_EVENTS_TABLE" default:"order_events"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PRINTSHOP_AUTO_MIGRATE" default:"false"`
}

type MetricsConfig struct {
	Namespace string `envconfig:"PRINTSHOP_METRICS_NAMESPACE" default:"printshop"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
