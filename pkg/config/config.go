package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Secrets       SecretsConfig
	Polar         PolarConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"SCANLY_APP_ENV" required:"true"`
	Port         string `envconfig:"SCANLY_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"SCANLY_APP_BASE_URL" default:"http://localhost:8080"`
	LogLevel     string `envconfig:"SCANLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SCANLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SCANLY_DB_DSN"`
	Driver string `envconfig:"SCANLY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SCANLY_DB_HOST"`
	LegacyPort     int    `envconfig:"SCANLY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SCANLY_DB_USER"`
	LegacyPassword string `envconfig:"SCANLY_DB_PASSWORD"`
	LegacyName     string `envconfig:"SCANLY_DB_NAME"`
	LegacySSLMode  string `envconfig:"SCANLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SCANLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SCANLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SCANLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SCANLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SCANLY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SCANLY_REDIS_ADDR"`
	Password     string        `envconfig:"SCANLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"SCANLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SCANLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SCANLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SCANLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SCANLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SCANLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SCANLY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SCANLY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SCANLY_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SCANLY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SCANLY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SCANLY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SCANLY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SCANLY_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SCANLY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SCANLY_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SCANLY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SCANLY_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SCANLY_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SCANLY_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// SecretsConfig holds the at-rest encryption key for QR payloads.
type SecretsConfig struct {
	// EncryptionKey is 32 bytes, hex encoded (64 characters).
	EncryptionKey string `envconfig:"SCANLY_ENCRYPTION_KEY" required:"true"`
}

type PolarConfig struct {
	AccessToken   string        `envconfig:"SCANLY_POLAR_ACCESS_TOKEN"`
	ProductID     string        `envconfig:"SCANLY_POLAR_PRODUCT_ID"`
	WebhookSecret string        `envconfig:"SCANLY_POLAR_WEBHOOK_SECRET"`
	Env           string        `envconfig:"SCANLY_POLAR_ENV" default:"sandbox"`
	SuccessURL    string        `envconfig:"SCANLY_POLAR_SUCCESS_URL"`
	Timeout       time.Duration `envconfig:"SCANLY_POLAR_TIMEOUT" default:"15s"`

	WebhookIdempotencyTTL time.Duration `envconfig:"SCANLY_POLAR_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

// Environment returns the normalized Polar environment (sandbox/production).
func (p PolarConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(p.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SCANLY_AUTO_MIGRATE" default:"false"`
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
