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
	LowStock      LowStockConfig
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
	Env          string `envconfig:"ABASTO_APP_ENV" required:"true"`
	Port         string `envconfig:"ABASTO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ABASTO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ABASTO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ABASTO_DB_DSN"`
	Driver string `envconfig:"ABASTO_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"ABASTO_DB_HOST"`
	Port     int    `envconfig:"ABASTO_DB_PORT" default:"5432"`
	User     string `envconfig:"ABASTO_DB_USER"`
	Password string `envconfig:"ABASTO_DB_PASSWORD"`
	Name     string `envconfig:"ABASTO_DB_NAME"`
	SSLMode  string `envconfig:"ABASTO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ABASTO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ABASTO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ABASTO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ABASTO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite dialector should be used.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"ABASTO_REDIS_URL"`
	Address      string        `envconfig:"ABASTO_REDIS_ADDR"`
	Password     string        `envconfig:"ABASTO_REDIS_PASSWORD"`
	DB           int           `envconfig:"ABASTO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ABASTO_REDIS_POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"ABASTO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ABASTO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ABASTO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ABASTO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ABASTO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ABASTO_JWT_EXPIRATION_MINUTES" default:"480"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ABASTO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ABASTO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ABASTO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ABASTO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ABASTO_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"ABASTO_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"ABASTO_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"ABASTO_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ABASTO_AUTO_MIGRATE" default:"false"`
}

type LowStockConfig struct {
	SweepInterval time.Duration `envconfig:"ABASTO_LOW_STOCK_SWEEP_INTERVAL" default:"1h"`
	Enabled       bool          `envconfig:"ABASTO_LOW_STOCK_SWEEP_ENABLED" default:"true"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" || db.IsSQLite() {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
