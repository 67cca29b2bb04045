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
	JWT          JWTConfig
	Checkout     CheckoutConfig
	Shipping     ShippingConfig
	VNPay        VNPayConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"NEKOVI_APP_ENV" required:"true"`
	Port         string `envconfig:"NEKOVI_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"NEKOVI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NEKOVI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"NEKOVI_DB_DSN"`
	Driver string `envconfig:"NEKOVI_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"NEKOVI_DB_HOST"`
	LegacyPort     int    `envconfig:"NEKOVI_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"NEKOVI_DB_USER"`
	LegacyPassword string `envconfig:"NEKOVI_DB_PASSWORD"`
	LegacyName     string `envconfig:"NEKOVI_DB_NAME"`
	LegacySSLMode  string `envconfig:"NEKOVI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NEKOVI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NEKOVI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NEKOVI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NEKOVI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NEKOVI_REDIS_URL" required:"true"`
	Address      string        `envconfig:"NEKOVI_REDIS_ADDR"`
	Password     string        `envconfig:"NEKOVI_REDIS_PASSWORD"`
	DB           int           `envconfig:"NEKOVI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NEKOVI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NEKOVI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NEKOVI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NEKOVI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NEKOVI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"NEKOVI_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"NEKOVI_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"NEKOVI_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CheckoutConfig struct {
	// Cart page sizes used by the storefront; the compact window backs the
	// checkout summary, the full window backs the cart page.
	SummaryPageSize int `envconfig:"NEKOVI_CHECKOUT_SUMMARY_PAGE_SIZE" default:"3"`
	CartPageSize    int `envconfig:"NEKOVI_CHECKOUT_CART_PAGE_SIZE" default:"6"`

	SessionTTL time.Duration `envconfig:"NEKOVI_CHECKOUT_SESSION_TTL" default:"2h"`
	// Gateway orders stuck in pending_payment beyond this window are expired
	// by the cron worker.
	PendingPaymentTTL time.Duration `envconfig:"NEKOVI_CHECKOUT_PENDING_PAYMENT_TTL" default:"24h"`
}

type ShippingConfig struct {
	BaseURL string        `envconfig:"NEKOVI_SHIPPING_BASE_URL" required:"true"`
	Token   string        `envconfig:"NEKOVI_SHIPPING_TOKEN"`
	ShopID  string        `envconfig:"NEKOVI_SHIPPING_SHOP_ID"`
	Timeout time.Duration `envconfig:"NEKOVI_SHIPPING_TIMEOUT" default:"10s"`
}

type VNPayConfig struct {
	BaseURL    string        `envconfig:"NEKOVI_VNPAY_BASE_URL" required:"true"`
	TmnCode    string        `envconfig:"NEKOVI_VNPAY_TMN_CODE" required:"true"`
	HashSecret string        `envconfig:"NEKOVI_VNPAY_HASH_SECRET" required:"true"`
	ReturnURL  string        `envconfig:"NEKOVI_VNPAY_RETURN_URL" required:"true"`
	Timeout    time.Duration `envconfig:"NEKOVI_VNPAY_TIMEOUT" default:"10s"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"NEKOVI_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"NEKOVI_PUBSUB_ORDERS_TOPIC" default:"nekovi-order-events"`
	OrdersSubscription string `envconfig:"NEKOVI_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"NEKOVI_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"NEKOVI_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"NEKOVI_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"NEKOVI_AUTO_MIGRATE" default:"false"`
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
