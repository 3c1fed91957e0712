package config

// EnvPrefix is handed to envconfig; every field tag below already carries it.
const EnvPrefix = "STREETEATS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv        = "STREETEATS_APP_ENV"
	EnvPort          = "STREETEATS_APP_PORT"
	EnvLogLevel      = "STREETEATS_LOG_LEVEL"
	EnvLogFormat     = "STREETEATS_LOG_FORMAT"
	EnvServiceKind   = "STREETEATS_SERVICE_KIND"
	EnvDBDSN         = "STREETEATS_DB_DSN"
	EnvDBDriver      = "STREETEATS_DB_DRIVER"
	EnvDBHost        = "STREETEATS_DB_HOST"
	EnvDBUser        = "STREETEATS_DB_USER"
	EnvDBName        = "STREETEATS_DB_NAME"
	EnvRedisURL      = "STREETEATS_REDIS_URL"
	EnvSessionSecret = "STREETEATS_SESSION_SECRET"
	EnvSessionTTL    = "STREETEATS_SESSION_TTL"
	EnvUseSQLite     = "STREETEATS_USE_SQLITE"
	EnvSQLitePath    = "STREETEATS_SQLITE_PATH"
	EnvMapsAPIKey    = "STREETEATS_GOOGLE_MAPS_API_KEY"
	EnvStorefrontURL = "STREETEATS_STOREFRONT_BASE_URL"
	EnvLocalDBPath   = "STREETEATS_LOCAL_DB_PATH"
	EnvSearchLimit   = "STREETEATS_SEARCH_RATE_LIMIT"
	EnvCronInterval  = "STREETEATS_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
