package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "openshelf"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Env var names referenced outside struct tags (tests, error messages).
const (
	EnvAppEnv    = "OPENSHELF_APP_ENV"
	EnvPort      = "OPENSHELF_APP_PORT"
	EnvDBDSN     = "OPENSHELF_DB_DSN"
	EnvDBHost    = "OPENSHELF_DB_HOST"
	EnvDBUser    = "OPENSHELF_DB_USER"
	EnvDBName    = "OPENSHELF_DB_NAME"
	EnvRedisURL  = "OPENSHELF_REDIS_URL"
	EnvJWTSecret = "OPENSHELF_JWT_SECRET"
	EnvJWTIssuer = "OPENSHELF_JWT_ISSUER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Identity      IdentityConfig
	Password      PasswordConfig
	Auth          AuthConfig
	AuthRateLimit AuthRateLimitConfig
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
	if err := cfg.Auth.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"OPENSHELF_APP_ENV" required:"true"`
	Port         string `envconfig:"OPENSHELF_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OPENSHELF_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OPENSHELF_LOG_WARN_STACK" default:"false"`

	ReadTimeout  time.Duration `envconfig:"OPENSHELF_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"OPENSHELF_HTTP_WRITE_TIMEOUT" default:"30s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"OPENSHELF_DB_DSN"`
	Driver string `envconfig:"OPENSHELF_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"OPENSHELF_DB_HOST"`
	LegacyPort     int    `envconfig:"OPENSHELF_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OPENSHELF_DB_USER"`
	LegacyPassword string `envconfig:"OPENSHELF_DB_PASSWORD"`
	LegacyName     string `envconfig:"OPENSHELF_DB_NAME"`
	LegacySSLMode  string `envconfig:"OPENSHELF_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OPENSHELF_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OPENSHELF_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OPENSHELF_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OPENSHELF_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OPENSHELF_REDIS_URL" required:"true"`
	Address      string        `envconfig:"OPENSHELF_REDIS_ADDR"`
	Password     string        `envconfig:"OPENSHELF_REDIS_PASSWORD"`
	DB           int           `envconfig:"OPENSHELF_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OPENSHELF_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OPENSHELF_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OPENSHELF_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OPENSHELF_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OPENSHELF_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"OPENSHELF_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"OPENSHELF_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"OPENSHELF_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"OPENSHELF_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

// IdentityConfig controls verification of externally issued identity tokens.
// When TokenSecret is empty the id_token login path is disabled and only
// email/password credentials are accepted.
type IdentityConfig struct {
	TokenSecret string `envconfig:"OPENSHELF_IDENTITY_TOKEN_SECRET"`
	TokenIssuer string `envconfig:"OPENSHELF_IDENTITY_TOKEN_ISSUER" default:"openshelf-identity"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"OPENSHELF_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"OPENSHELF_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"OPENSHELF_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"OPENSHELF_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"OPENSHELF_ARGON_KEY_LEN" default:"32"`
}

// AuthConfig controls role derivation for lazily provisioned users.
type AuthConfig struct {
	// AdminDomains lists the email domains that map to the admin role.
	AdminDomains []string `envconfig:"OPENSHELF_AUTH_ADMIN_DOMAINS" default:"openshelf.io"`
	// DefaultRole is assigned to every email outside the admin allowlist.
	DefaultRole string `envconfig:"OPENSHELF_AUTH_DEFAULT_ROLE" default:"student"`
}

func (a AuthConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.DefaultRole)) {
	case "student", "user":
		return nil
	}
	return fmt.Errorf("default role must be student or user, got %q", a.DefaultRole)
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"OPENSHELF_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"OPENSHELF_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"OPENSHELF_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"OPENSHELF_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"OPENSHELF_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"OPENSHELF_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"OPENSHELF_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"OPENSHELF_AUTO_MIGRATE" default:"false"`
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
