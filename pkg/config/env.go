package config

// EnvPrefix is the envconfig prefix shared by every binary.
const EnvPrefix = "PRINTSHOP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "PRINTSHOP_APP_ENV"
	EnvPort         = "PRINTSHOP_APP_PORT"
	EnvLogLevel     = "PRINTSHOP_LOG_LEVEL"
	EnvLogWarnStack = "PRINTSHOP_LOG_WARN_STACK"
	EnvCORSOrigins  = "PRINTSHOP_CORS_ORIGINS"

	EnvDBDSN      = "PRINTSHOP_DB_DSN"
	EnvDBHost     = "PRINTSHOP_DB_HOST"
	EnvDBPort     = "PRINTSHOP_DB_PORT"
	EnvDBUser     = "PRINTSHOP_DB_USER"
	EnvDBPassword = "PRINTSHOP_DB_PASSWORD"
	EnvDBName     = "PRINTSHOP_DB_NAME"
	EnvDBSSLMode  = "PRINTSHOP_DB_SSLMODE"

	EnvRedisURL = "PRINTSHOP_REDIS_URL"

	EnvJWTSecret = "PRINTSHOP_JWT_SECRET"
	EnvJWTIssuer = "PRINTSHOP_JWT_ISSUER"

	EnvStripeAPIKey         = "PRINTSHOP_STRIPE_API_KEY"
	EnvStripeSecret         = "PRINTSHOP_STRIPE_SECRET"
	EnvStripeEnv            = "PRINTSHOP_STRIPE_ENV"
	EnvStripeRequestTimeout = "PRINTSHOP_STRIPE_REQUEST_TIMEOUT"

	EnvWebhookMode = "PRINTSHOP_WEBHOOK_MODE"

	EnvGCPProjectID = "PRINTSHOP_GCP_PROJECT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
