package config

const (
	EnvPrefix = "NEKOVI"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "NEKOVI_APP_ENV"
	EnvPort   = "NEKOVI_APP_PORT"

	EnvDBDSN  = "NEKOVI_DB_DSN"
	EnvDBHost = "NEKOVI_DB_HOST"
	EnvDBUser = "NEKOVI_DB_USER"
	EnvDBName = "NEKOVI_DB_NAME"

	EnvRedisURL = "NEKOVI_REDIS_URL"

	EnvJWTSecret = "NEKOVI_JWT_SECRET"
	EnvJWTIssuer = "NEKOVI_JWT_ISSUER"

	EnvShippingBaseURL = "NEKOVI_SHIPPING_BASE_URL"

	EnvVNPayBaseURL    = "NEKOVI_VNPAY_BASE_URL"
	EnvVNPayTmnCode    = "NEKOVI_VNPAY_TMN_CODE"
	EnvVNPayHashSecret = "NEKOVI_VNPAY_HASH_SECRET"
	EnvVNPayReturnURL  = "NEKOVI_VNPAY_RETURN_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
