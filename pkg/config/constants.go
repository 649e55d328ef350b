package config

// EnvPrefix is passed to envconfig; every field carries its full variable name.
const EnvPrefix = "DEALTRACKER"

const (
	AppEnvDev = "dev"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultSQLiteDSN = "file:dealtracker.db?cache=shared&_foreign_keys=on"
)

const (
	EnvAppEnv   = "DEALTRACKER_APP_ENV"
	EnvPort     = "DEALTRACKER_APP_PORT"
	EnvLogLevel = "DEALTRACKER_LOG_LEVEL"

	EnvDBDSN    = "DEALTRACKER_DB_DSN"
	EnvDBDriver = "DEALTRACKER_DB_DRIVER"
	EnvDBHost   = "DEALTRACKER_DB_HOST"
	EnvDBUser   = "DEALTRACKER_DB_USER"
	EnvDBName   = "DEALTRACKER_DB_NAME"

	EnvRedisURL = "DEALTRACKER_REDIS_URL"

	EnvWorkspaceIdleTTL = "DEALTRACKER_WORKSPACE_IDLE_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
