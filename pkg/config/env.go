package config

const EnvPrefix = "SPEAK2SEE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DispatchPubSub = "pubsub"
	DispatchInline = "inline"
)

const (
	EnvAppEnv         = "SPEAK2SEE_APP_ENV"
	EnvPort           = "SPEAK2SEE_APP_PORT"
	EnvDBDSN          = "SPEAK2SEE_DB_DSN"
	EnvDBHost         = "SPEAK2SEE_DB_HOST"
	EnvDBUser         = "SPEAK2SEE_DB_USER"
	EnvDBName         = "SPEAK2SEE_DB_NAME"
	EnvUseSQLite      = "SPEAK2SEE_USE_SQLITE"
	EnvRedisURL       = "SPEAK2SEE_REDIS_URL"
	EnvJWTSecret      = "SPEAK2SEE_JWT_SECRET"
	EnvJWTIssuer      = "SPEAK2SEE_JWT_ISSUER"
	EnvGCPProjectID   = "SPEAK2SEE_GCP_PROJECT_ID"
	EnvGCSBucket      = "SPEAK2SEE_GCS_BUCKET_NAME"
	EnvDispatch       = "SPEAK2SEE_WORKFLOW_DISPATCH"
	EnvPromptMaxChars = "SPEAK2SEE_PROMPT_MAX_CHARS"
	EnvExpressPoll    = "SPEAK2SEE_EXPRESS_POLL_INTERVAL"
	EnvMaxAudioBytes  = "SPEAK2SEE_MAX_AUDIO_BYTES"
)

var dbPartsEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
