package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "freshmarket"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "FRESHMARKET_DB_DSN"
	EnvDBHost = "FRESHMARKET_DB_HOST"
	EnvDBUser = "FRESHMARKET_DB_USER"
	EnvDBName = "FRESHMARKET_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Shipping     ShippingConfig
	Checkout     CheckoutConfig
	Relay        RelayConfig
	Sendgrid     SendgridConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"FRESHMARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"FRESHMARKET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FRESHMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FRESHMARKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FRESHMARKET_DB_DSN"`
	Driver string `envconfig:"FRESHMARKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FRESHMARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"FRESHMARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FRESHMARKET_DB_USER"`
	LegacyPassword string `envconfig:"FRESHMARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"FRESHMARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"FRESHMARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FRESHMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FRESHMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FRESHMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FRESHMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FRESHMARKET_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FRESHMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"FRESHMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"FRESHMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FRESHMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FRESHMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FRESHMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FRESHMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FRESHMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ShippingConfig carries the delivery fee policy. The business adjusts these
// independently of releases, so they are never hard-coded.
type ShippingConfig struct {
	FlatFee   decimal.Decimal `envconfig:"FRESHMARKET_SHIPPING_FLAT_FEE" default:"5"`
	FreeAbove decimal.Decimal `envconfig:"FRESHMARKET_SHIPPING_FREE_ABOVE" default:"50"`
}

type CheckoutConfig struct {
	PersistTimeout time.Duration `envconfig:"FRESHMARKET_CHECKOUT_PERSIST_TIMEOUT" default:"10s"`
}

type RelayConfig struct {
	ResubscribeMinBackoff time.Duration `envconfig:"FRESHMARKET_RELAY_RESUBSCRIBE_MIN_BACKOFF" default:"500ms"`
	ResubscribeMaxBackoff time.Duration `envconfig:"FRESHMARKET_RELAY_RESUBSCRIBE_MAX_BACKOFF" default:"30s"`
	FallbackRefetch       time.Duration `envconfig:"FRESHMARKET_RELAY_FALLBACK_REFETCH" default:"5m"`
}

type SendgridConfig struct {
	APIKey         string `envconfig:"FRESHMARKET_SENDGRID_API_KEY"`
	FromEmail      string `envconfig:"FRESHMARKET_SENDGRID_FROM_EMAIL" default:"orders@freshmarket.example"`
	FromName       string `envconfig:"FRESHMARKET_SENDGRID_FROM_NAME" default:"FreshMarket Orders"`
	OrderRecipient string `envconfig:"FRESHMARKET_SENDGRID_ORDER_RECIPIENT"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FRESHMARKET_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FRESHMARKET_AUTO_MIGRATE" default:"false"`
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
