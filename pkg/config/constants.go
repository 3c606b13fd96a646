package config

const (
	EnvPrefix = "FOODGRAM"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DefaultSQLiteDSN = "file:foodgram.db?_foreign_keys=on"

	MinSlugLength = 5
	MaxSlugLength = 10
)

const (
	EnvAppEnv                 = "FOODGRAM_APP_ENV"
	EnvPort                   = "FOODGRAM_APP_PORT"
	EnvPublicBaseURL          = "FOODGRAM_PUBLIC_BASE_URL"
	EnvDBDSN                  = "FOODGRAM_DB_DSN"
	EnvDBDriver               = "FOODGRAM_DB_DRIVER"
	EnvDBHost                 = "FOODGRAM_DB_HOST"
	EnvDBPort                 = "FOODGRAM_DB_PORT"
	EnvDBUser                 = "FOODGRAM_DB_USER"
	EnvDBPassword             = "FOODGRAM_DB_PASSWORD"
	EnvDBName                 = "FOODGRAM_DB_NAME"
	EnvRedisURL               = "FOODGRAM_REDIS_URL"
	EnvJWTSecret              = "FOODGRAM_JWT_SECRET"
	EnvJWTIssuer              = "FOODGRAM_JWT_ISSUER"
	EnvJWTExpMins             = "FOODGRAM_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "FOODGRAM_REFRESH_TOKEN_TTL_MINUTES"
	EnvUseSQLite              = "FOODGRAM_USE_SQLITE"
	EnvSlugLength             = "FOODGRAM_SLUG_LENGTH"
	EnvSlugMaxAttempts        = "FOODGRAM_SLUG_MAX_ATTEMPTS"
	EnvMediaDir               = "FOODGRAM_MEDIA_DIR"
	EnvCronInterval           = "FOODGRAM_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
