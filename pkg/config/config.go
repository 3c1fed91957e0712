package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	FeatureFlags FeatureFlagsConfig
	GoogleMaps   GoogleMapsConfig
	Storefront   StorefrontConfig
	RateLimit    RateLimitConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	return LoadFor("")
}

// LoadFor parses the environment for a specific binary. A non-empty kind
// overrides STREETEATS_SERVICE_KIND.
func LoadFor(kind string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if kind != "" {
		cfg.Service.Kind = kind
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate checks cross-field rules envconfig cannot express.
func (c *Config) validate() error {
	var errs error
	if c.FeatureFlags.UseSQLite {
		c.DB.Driver = DriverSQLite
	}
	if c.Service.Kind != ServiceKindStorefront && c.DB.Driver != DriverSQLite {
		errs = multierr.Append(errs, c.DB.ensureDSN())
	}
	if c.Service.Kind == ServiceKindAPI && strings.TrimSpace(c.Session.Secret) == "" {
		errs = multierr.Append(errs, fmt.Errorf("%s is required for the api", EnvSessionSecret))
	}
	if c.Storefront.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.Storefront.BaseURL); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid %s: %w", EnvStorefrontURL, err))
		}
	}
	return errs
}

type AppConfig struct {
	Env          string `envconfig:"STREETEATS_APP_ENV" required:"true"`
	Port         string `envconfig:"STREETEATS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STREETEATS_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STREETEATS_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STREETEATS_LOG_WARN_STACK" default:"false"`

	// CORSOrigins is a comma separated allow-list; empty means the local
	// development hosts.
	CORSOrigins []string `envconfig:"STREETEATS_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

const (
	ServiceKindAPI        = "api"
	ServiceKindStorefront = "storefront"
	ServiceKindCron       = "cron"
)

type ServiceConfig struct {
	Kind string `envconfig:"STREETEATS_SERVICE_KIND" default:"api"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	DSN        string `envconfig:"STREETEATS_DB_DSN"`
	Driver     string `envconfig:"STREETEATS_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"STREETEATS_SQLITE_PATH" default:"streeteats.db"`

	LegacyHost     string `envconfig:"STREETEATS_DB_HOST"`
	LegacyPort     int    `envconfig:"STREETEATS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STREETEATS_DB_USER"`
	LegacyPassword string `envconfig:"STREETEATS_DB_PASSWORD"`
	LegacyName     string `envconfig:"STREETEATS_DB_NAME"`
	LegacySSLMode  string `envconfig:"STREETEATS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STREETEATS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STREETEATS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STREETEATS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STREETEATS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"STREETEATS_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STREETEATS_REDIS_URL"`
	Address      string        `envconfig:"STREETEATS_REDIS_ADDR"`
	Password     string        `envconfig:"STREETEATS_REDIS_PASSWORD"`
	DB           int           `envconfig:"STREETEATS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STREETEATS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STREETEATS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STREETEATS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STREETEATS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STREETEATS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type SessionConfig struct {
	Secret string        `envconfig:"STREETEATS_SESSION_SECRET"`
	Issuer string        `envconfig:"STREETEATS_SESSION_ISSUER" default:"streeteats"`
	TTL    time.Duration `envconfig:"STREETEATS_SESSION_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STREETEATS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STREETEATS_AUTO_MIGRATE" default:"false"`
}

type GoogleMapsConfig struct {
	APIKey             string        `envconfig:"STREETEATS_GOOGLE_MAPS_API_KEY"`
	Timeout            time.Duration `envconfig:"STREETEATS_GOOGLE_MAPS_TIMEOUT" default:"10s"`
	BreakerMaxFailures uint32        `envconfig:"STREETEATS_GOOGLE_MAPS_BREAKER_FAILURES" default:"3"`
	BreakerOpenTimeout time.Duration `envconfig:"STREETEATS_GOOGLE_MAPS_BREAKER_OPEN" default:"30s"`
}

// StorefrontConfig drives the terminal storefront and its client services.
type StorefrontConfig struct {
	BaseURL       string        `envconfig:"STREETEATS_STOREFRONT_BASE_URL" default:"http://localhost:8080"`
	Timeout       time.Duration `envconfig:"STREETEATS_STOREFRONT_TIMEOUT" default:"10s"`
	LocalDBPath   string        `envconfig:"STREETEATS_LOCAL_DB_PATH" default:"streeteats-local.db"`
	Namespace     string        `envconfig:"STREETEATS_LOCAL_NAMESPACE" default:"default"`
	VendorName    string        `envconfig:"STREETEATS_VENDOR_NAME" default:"Demo Vendor"`
	VendorPhone   string        `envconfig:"STREETEATS_VENDOR_PHONE" default:"+91 9876543210"`
	VendorAddress string        `envconfig:"STREETEATS_VENDOR_ADDRESS" default:"Demo Address"`
	RandomSeed    int64         `envconfig:"STREETEATS_RANDOM_SEED" default:"0"`
}

type RateLimitConfig struct {
	SearchWindow time.Duration `envconfig:"STREETEATS_SEARCH_RATE_WINDOW" default:"1m"`
	SearchLimit  int64         `envconfig:"STREETEATS_SEARCH_RATE_LIMIT" default:"30"`
}

type CronConfig struct {
	Interval              time.Duration `envconfig:"STREETEATS_CRON_INTERVAL" default:"1h"`
	NotificationRetention time.Duration `envconfig:"STREETEATS_NOTIFICATION_RETENTION" default:"720h"`
	CartRetention         time.Duration `envconfig:"STREETEATS_CART_RETENTION" default:"168h"`
	LockTTL               time.Duration `envconfig:"STREETEATS_CRON_LOCK_TTL" default:"10m"`
	JobTimeout            time.Duration `envconfig:"STREETEATS_CRON_JOB_TIMEOUT" default:"5m"`
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
