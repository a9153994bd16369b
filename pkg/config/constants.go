package config

// EnvPrefix is passed to envconfig; individual fields carry full names so the
// prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names shared between Load and tests.
const (
	EnvAppEnv = "EDUPORT_APP_ENV"
	EnvPort   = "EDUPORT_APP_PORT"

	EnvDBDSN  = "EDUPORT_DB_DSN"
	EnvDBHost = "EDUPORT_DB_HOST"
	EnvDBUser = "EDUPORT_DB_USER"
	EnvDBName = "EDUPORT_DB_NAME"

	EnvRedisURL = "EDUPORT_REDIS_URL"

	EnvJWTSecret              = "EDUPORT_JWT_SECRET"
	EnvJWTIssuer              = "EDUPORT_JWT_ISSUER"
	EnvJWTExpMins             = "EDUPORT_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "EDUPORT_REFRESH_TOKEN_TTL_MINUTES"

	EnvGCPProjectID = "EDUPORT_GCP_PROJECT_ID"

	EnvPubSubNotificationTopic = "EDUPORT_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub   = "EDUPORT_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvPushEndpoint  = "EDUPORT_PUSH_ENDPOINT"
	EnvPushServerKey = "EDUPORT_PUSH_SERVER_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
