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
	HTTPRateLimit HTTPRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Slug          SlugConfig
	Media         MediaConfig
	Pagination    PaginationConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Slug.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env           string `envconfig:"FOODGRAM_APP_ENV" required:"true"`
	Port          string `envconfig:"FOODGRAM_APP_PORT" required:"true"`
	PublicBaseURL string `envconfig:"FOODGRAM_PUBLIC_BASE_URL" default:"http://localhost:8080"`
	LogLevel      string `envconfig:"FOODGRAM_LOG_LEVEL" default:"info"`
	LogFormat     string `envconfig:"FOODGRAM_LOG_FORMAT" default:"json"`
	LogWarnStack  bool   `envconfig:"FOODGRAM_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"FOODGRAM_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BaseURL returns the public base URL without a trailing slash.
func (a AppConfig) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(a.PublicBaseURL), "/")
}

type DBConfig struct {
	DSN    string `envconfig:"FOODGRAM_DB_DSN"`
	Driver string `envconfig:"FOODGRAM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FOODGRAM_DB_HOST"`
	LegacyPort     int    `envconfig:"FOODGRAM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FOODGRAM_DB_USER"`
	LegacyPassword string `envconfig:"FOODGRAM_DB_PASSWORD"`
	LegacyName     string `envconfig:"FOODGRAM_DB_NAME"`
	LegacySSLMode  string `envconfig:"FOODGRAM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FOODGRAM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FOODGRAM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FOODGRAM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FOODGRAM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded SQLite one.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"FOODGRAM_REDIS_URL"`
	Address      string        `envconfig:"FOODGRAM_REDIS_ADDR"`
	Password     string        `envconfig:"FOODGRAM_REDIS_PASSWORD"`
	DB           int           `envconfig:"FOODGRAM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FOODGRAM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FOODGRAM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FOODGRAM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FOODGRAM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FOODGRAM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FOODGRAM_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FOODGRAM_JWT_ISSUER" default:"foodgram"`
	ExpirationMinutes      int    `envconfig:"FOODGRAM_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"FOODGRAM_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FOODGRAM_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FOODGRAM_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FOODGRAM_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FOODGRAM_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FOODGRAM_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FOODGRAM_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"FOODGRAM_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FOODGRAM_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"FOODGRAM_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"FOODGRAM_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"FOODGRAM_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type HTTPRateLimitConfig struct {
	Requests int           `envconfig:"FOODGRAM_HTTP_RATE_LIMIT_REQUESTS" default:"300"`
	Window   time.Duration `envconfig:"FOODGRAM_HTTP_RATE_LIMIT_WINDOW" default:"1m"`
	Disabled bool          `envconfig:"FOODGRAM_HTTP_RATE_LIMIT_DISABLED" default:"false"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FOODGRAM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FOODGRAM_AUTO_MIGRATE" default:"false"`
}

type SlugConfig struct {
	Length      int `envconfig:"FOODGRAM_SLUG_LENGTH" default:"6"`
	MaxAttempts int `envconfig:"FOODGRAM_SLUG_MAX_ATTEMPTS" default:"32"`
}

func (s SlugConfig) validate() error {
	if s.Length < MinSlugLength || s.Length > MaxSlugLength {
		return fmt.Errorf("%s must be between %d and %d", EnvSlugLength, MinSlugLength, MaxSlugLength)
	}
	if s.MaxAttempts <= 0 {
		return fmt.Errorf("%s must be positive", EnvSlugMaxAttempts)
	}
	return nil
}

type MediaConfig struct {
	Dir          string `envconfig:"FOODGRAM_MEDIA_DIR" default:"media"`
	PublicPrefix string `envconfig:"FOODGRAM_MEDIA_PUBLIC_PREFIX" default:"/media"`
	MaxUploadMB  int    `envconfig:"FOODGRAM_MAX_UPLOAD_MB" default:"5"`
}

// MaxUploadBytes converts the configured megabyte cap into bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 0
	}
	return int64(m.MaxUploadMB) << 20
}

type PaginationConfig struct {
	DefaultLimit int `envconfig:"FOODGRAM_PAGE_SIZE" default:"6"`
}

type CronConfig struct {
	Interval       time.Duration `envconfig:"FOODGRAM_CRON_INTERVAL" default:"1h"`
	LockTTL        time.Duration `envconfig:"FOODGRAM_CRON_LOCK_TTL" default:"55m"`
	SlugBatchSize  int           `envconfig:"FOODGRAM_CRON_SLUG_BATCH_SIZE" default:"500"`
	MediaRetention time.Duration `envconfig:"FOODGRAM_CRON_MEDIA_RETENTION" default:"24h"`
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
