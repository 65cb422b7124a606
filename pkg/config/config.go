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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Speech       SpeechConfig
	Vertex       VertexConfig
	Workflow     WorkflowConfig
	Intake       IntakeConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Workflow.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SPEAK2SEE_APP_ENV" required:"true"`
	Port         string `envconfig:"SPEAK2SEE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SPEAK2SEE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SPEAK2SEE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SPEAK2SEE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SPEAK2SEE_DB_DSN"`
	Driver string `envconfig:"SPEAK2SEE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SPEAK2SEE_DB_HOST"`
	Port     int    `envconfig:"SPEAK2SEE_DB_PORT" default:"5432"`
	User     string `envconfig:"SPEAK2SEE_DB_USER"`
	Password string `envconfig:"SPEAK2SEE_DB_PASSWORD"`
	Name     string `envconfig:"SPEAK2SEE_DB_NAME"`
	SSLMode  string `envconfig:"SPEAK2SEE_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"SPEAK2SEE_SQLITE_PATH" default:"speak2see.db"`

	MaxOpenConns    int           `envconfig:"SPEAK2SEE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SPEAK2SEE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SPEAK2SEE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SPEAK2SEE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SPEAK2SEE_REDIS_URL"`
	Address      string        `envconfig:"SPEAK2SEE_REDIS_ADDR"`
	Password     string        `envconfig:"SPEAK2SEE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SPEAK2SEE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SPEAK2SEE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SPEAK2SEE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SPEAK2SEE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SPEAK2SEE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SPEAK2SEE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"SPEAK2SEE_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"SPEAK2SEE_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite        bool   `envconfig:"SPEAK2SEE_USE_SQLITE" default:"false"`
	AutoMigrate      bool   `envconfig:"SPEAK2SEE_AUTO_MIGRATE" default:"false"`
	WorkflowDispatch string `envconfig:"SPEAK2SEE_WORKFLOW_DISPATCH" default:"pubsub"`
	StaleSweep       bool   `envconfig:"SPEAK2SEE_STALE_SWEEP" default:"true"`
	AnalyticsEnabled bool   `envconfig:"SPEAK2SEE_ANALYTICS_ENABLED" default:"false"`
}

// InlineDispatch reports whether executions run inside the API process instead of Pub/Sub workers.
func (f FeatureFlagsConfig) InlineDispatch() bool {
	return strings.EqualFold(strings.TrimSpace(f.WorkflowDispatch), DispatchInline)
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SPEAK2SEE_GCP_PROJECT_ID" required:"true"`
	Location               string `envconfig:"SPEAK2SEE_GCP_LOCATION" default:"us-central1"`
	CredentialsJSON        string `envconfig:"SPEAK2SEE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SPEAK2SEE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"SPEAK2SEE_GCS_BUCKET_NAME" required:"true"`
}

type PubSubConfig struct {
	WorkflowTopic          string `envconfig:"SPEAK2SEE_PUBSUB_WORKFLOW_TOPIC" default:"speak2see-workflow-start"`
	WorkflowSubscription   string `envconfig:"SPEAK2SEE_PUBSUB_WORKFLOW_SUBSCRIPTION" default:"speak2see-workflow-worker"`
	MaxOutstandingMessages int    `envconfig:"SPEAK2SEE_PUBSUB_MAX_OUTSTANDING" default:"16"`
	NumGoroutines          int    `envconfig:"SPEAK2SEE_PUBSUB_NUM_GOROUTINES" default:"2"`
}

type BigQueryConfig struct {
	Dataset         string `envconfig:"SPEAK2SEE_BIGQUERY_DATASET" default:"speak2see"`
	ExecutionsTable string `envconfig:"SPEAK2SEE_BIGQUERY_EXECUTIONS_TABLE" default:"workflow_executions"`
}

type SpeechConfig struct {
	LanguageCode    string        `envconfig:"SPEAK2SEE_SPEECH_LANGUAGE_CODE" default:"en-US"`
	Model           string        `envconfig:"SPEAK2SEE_SPEECH_MODEL" default:"default"`
	AutoPunctuation bool          `envconfig:"SPEAK2SEE_SPEECH_AUTO_PUNCTUATION" default:"true"`
	MaxAlternatives int64         `envconfig:"SPEAK2SEE_SPEECH_MAX_ALTERNATIVES" default:"1"`
	SampleRateHertz int64         `envconfig:"SPEAK2SEE_SPEECH_SAMPLE_RATE_HERTZ" default:"0"`
	RequestTimeout  time.Duration `envconfig:"SPEAK2SEE_SPEECH_REQUEST_TIMEOUT" default:"30s"`
}

type VertexConfig struct {
	Location       string        `envconfig:"SPEAK2SEE_VERTEX_LOCATION"`
	TextModel      string        `envconfig:"SPEAK2SEE_VERTEX_TEXT_MODEL" default:"gemini-2.0-flash"`
	ImageModel     string        `envconfig:"SPEAK2SEE_VERTEX_IMAGE_MODEL" default:"imagegeneration@006"`
	ImageSize      int           `envconfig:"SPEAK2SEE_VERTEX_IMAGE_SIZE" default:"1024"`
	ImageSeed      int           `envconfig:"SPEAK2SEE_VERTEX_IMAGE_SEED" default:"42"`
	GuidanceScale  float64       `envconfig:"SPEAK2SEE_VERTEX_GUIDANCE_SCALE" default:"8"`
	RequestTimeout time.Duration `envconfig:"SPEAK2SEE_VERTEX_REQUEST_TIMEOUT" default:"60s"`
}

type WorkflowConfig struct {
	PromptMaxChars       int           `envconfig:"SPEAK2SEE_PROMPT_MAX_CHARS" default:"512"`
	StandardPollInterval time.Duration `envconfig:"SPEAK2SEE_STANDARD_POLL_INTERVAL" default:"30s"`
	StandardTimeout      time.Duration `envconfig:"SPEAK2SEE_STANDARD_TIMEOUT" default:"15m"`
	ExpressPollInterval  time.Duration `envconfig:"SPEAK2SEE_EXPRESS_POLL_INTERVAL" default:"3s"`
	ExpressTimeout       time.Duration `envconfig:"SPEAK2SEE_EXPRESS_TIMEOUT" default:"1m"`
	ExpressSizeThreshold int64         `envconfig:"SPEAK2SEE_EXPRESS_SIZE_THRESHOLD" default:"10485760"`
	ClaimGrace           time.Duration `envconfig:"SPEAK2SEE_EXECUTION_CLAIM_GRACE" default:"5m"`
}

func (w WorkflowConfig) validate() error {
	if w.PromptMaxChars <= 0 {
		return fmt.Errorf("%s must be positive", EnvPromptMaxChars)
	}
	if w.StandardPollInterval <= 0 || w.ExpressPollInterval <= 0 {
		return fmt.Errorf("poll intervals must be positive")
	}
	if w.StandardTimeout <= 0 || w.ExpressTimeout <= 0 {
		return fmt.Errorf("execution timeouts must be positive")
	}
	return nil
}

type IntakeConfig struct {
	MaxAudioBytes      int64         `envconfig:"SPEAK2SEE_MAX_AUDIO_BYTES" default:"3145728"`
	ItemExpirationDays int           `envconfig:"SPEAK2SEE_ITEM_EXPIRATION_DAYS" default:"30"`
	UploadWindow       time.Duration `envconfig:"SPEAK2SEE_UPLOAD_RATE_LIMIT_WINDOW" default:"1m"`
	UploadLimit        int           `envconfig:"SPEAK2SEE_UPLOAD_RATE_LIMIT" default:"10"`
}

// ItemTTL returns the retention window applied to new items.
func (i IntakeConfig) ItemTTL() time.Duration {
	if i.ItemExpirationDays <= 0 {
		return 0
	}
	return time.Duration(i.ItemExpirationDays) * 24 * time.Hour
}

type CronConfig struct {
	Interval   time.Duration `envconfig:"SPEAK2SEE_CRON_INTERVAL" default:"5m"`
	SweepGrace time.Duration `envconfig:"SPEAK2SEE_SWEEP_GRACE" default:"10m"`
	BatchSize  int           `envconfig:"SPEAK2SEE_CRON_BATCH_SIZE" default:"200"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartsEnvVars {
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
