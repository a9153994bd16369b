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
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Push          PushConfig
	Purchases     PurchasesConfig
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
	Env          string `envconfig:"EDUPORT_APP_ENV" required:"true"`
	Port         string `envconfig:"EDUPORT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"EDUPORT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"EDUPORT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"EDUPORT_DB_DSN"`
	Driver string `envconfig:"EDUPORT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EDUPORT_DB_HOST"`
	LegacyPort     int    `envconfig:"EDUPORT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EDUPORT_DB_USER"`
	LegacyPassword string `envconfig:"EDUPORT_DB_PASSWORD"`
	LegacyName     string `envconfig:"EDUPORT_DB_NAME"`
	LegacySSLMode  string `envconfig:"EDUPORT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EDUPORT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EDUPORT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EDUPORT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EDUPORT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"EDUPORT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"EDUPORT_REDIS_ADDR"`
	Password     string        `envconfig:"EDUPORT_REDIS_PASSWORD"`
	DB           int           `envconfig:"EDUPORT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EDUPORT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EDUPORT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EDUPORT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EDUPORT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EDUPORT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"EDUPORT_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"EDUPORT_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"EDUPORT_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"EDUPORT_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"EDUPORT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"EDUPORT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"EDUPORT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"EDUPORT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"EDUPORT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"EDUPORT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"EDUPORT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"EDUPORT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"EDUPORT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"EDUPORT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"EDUPORT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"EDUPORT_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"EDUPORT_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"EDUPORT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"EDUPORT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"EDUPORT_PUBSUB_NOTIFICATION_TOPIC" default:"ep-notification-events"`
	NotificationSubscription string `envconfig:"EDUPORT_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type PushConfig struct {
	Endpoint  string        `envconfig:"EDUPORT_PUSH_ENDPOINT"`
	ServerKey string        `envconfig:"EDUPORT_PUSH_SERVER_KEY"`
	Timeout   time.Duration `envconfig:"EDUPORT_PUSH_TIMEOUT" default:"10s"`
}

type PurchasesConfig struct {
	DispatchTimeout time.Duration `envconfig:"EDUPORT_PURCHASE_DISPATCH_TIMEOUT" default:"15s"`
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
