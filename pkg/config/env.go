package config

// EnvPrefix is handed to envconfig; every field carries an explicit envconfig tag.
const EnvPrefix = "POS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv      = "POS_APP_ENV"
	EnvPort        = "POS_APP_PORT"
	EnvDBDSN       = "POS_DB_DSN"
	EnvDBHost      = "POS_DB_HOST"
	EnvDBUser      = "POS_DB_USER"
	EnvDBName      = "POS_DB_NAME"
	EnvDBPassword  = "POS_DB_PASSWORD"
	EnvUseSQLite   = "POS_USE_SQLITE"
	EnvRedisURL    = "POS_REDIS_URL"
	EnvJWTSecret   = "POS_JWT_SECRET"
	EnvJWTIssuer   = "POS_JWT_ISSUER"
	EnvAuditTopic  = "POS_PUBSUB_AUDIT_TOPIC"
	EnvGCPProject  = "POS_GCP_PROJECT_ID"
	EnvLowStockMin = "POS_LOW_STOCK_THRESHOLD_GRAMS"
	EnvCORSOrigins = "POS_CORS_ALLOWED_ORIGINS"
	EnvSweepPeriod = "POS_STOCK_SWEEP_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
