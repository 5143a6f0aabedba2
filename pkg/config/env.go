package config

// EnvPrefix is handed to envconfig; every field also carries an explicit
// MERCAPI_* tag so the prefix only matters for untagged additions.
const EnvPrefix = "mercapi"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultSQLitePath is the local database file used when no DSN is set.
const DefaultSQLitePath = "db/mercadona.db"

const (
	EnvAppEnv       = "MERCAPI_APP_ENV"
	EnvPort         = "MERCAPI_APP_PORT"
	EnvDBDSN        = "MERCAPI_DB_DSN"
	EnvDBDriver     = "MERCAPI_DB_DRIVER"
	EnvRedisURL     = "MERCAPI_REDIS_URL"
	EnvGeminiAPIKey = "MERCAPI_GEMINI_API_KEY"
)
