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
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Workspace    WorkspaceConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DEALTRACKER_APP_ENV" required:"true"`
	Port         string `envconfig:"DEALTRACKER_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"DEALTRACKER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DEALTRACKER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

type DBConfig struct {
	DSN    string `envconfig:"DEALTRACKER_DB_DSN"`
	Driver string `envconfig:"DEALTRACKER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DEALTRACKER_DB_HOST"`
	LegacyPort     int    `envconfig:"DEALTRACKER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DEALTRACKER_DB_USER"`
	LegacyPassword string `envconfig:"DEALTRACKER_DB_PASSWORD"`
	LegacyName     string `envconfig:"DEALTRACKER_DB_NAME"`
	LegacySSLMode  string `envconfig:"DEALTRACKER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DEALTRACKER_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"DEALTRACKER_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DEALTRACKER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DEALTRACKER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

// RedisConfig is optional; an empty URL and address disables idempotency caching.
type RedisConfig struct {
	URL          string        `envconfig:"DEALTRACKER_REDIS_URL"`
	Address      string        `envconfig:"DEALTRACKER_REDIS_ADDR"`
	Password     string        `envconfig:"DEALTRACKER_REDIS_PASSWORD"`
	DB           int           `envconfig:"DEALTRACKER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DEALTRACKER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DEALTRACKER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DEALTRACKER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DEALTRACKER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DEALTRACKER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DEALTRACKER_AUTO_MIGRATE" default:"false"`
}

type WorkspaceConfig struct {
	IdleTTL       time.Duration `envconfig:"DEALTRACKER_WORKSPACE_IDLE_TTL" default:"2h"`
	SweepInterval time.Duration `envconfig:"DEALTRACKER_WORKSPACE_SWEEP_INTERVAL" default:"5m"`
	EventBuffer   int           `envconfig:"DEALTRACKER_WORKSPACE_EVENT_BUFFER" default:"32"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"DEALTRACKER_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
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
