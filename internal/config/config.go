package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Karbon   KarbonConfig   `yaml:"karbon"`
	Calendly CalendlyConfig `yaml:"calendly"`
	Sync     SyncConfig     `yaml:"sync"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"5m"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	// APIKey protects the sync trigger and webhook endpoints. Empty
	// disables the check (local development only).
	APIKey string `yaml:"api_key" env:"SERVER_API_KEY"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	MigrateOnStart  bool          `yaml:"migrate_on_start"   env:"DATABASE_MIGRATE_ON_START"   env-default:"true"`
}

// KarbonConfig holds Karbon API credentials and client tuning.
type KarbonConfig struct {
	BaseURL     string        `yaml:"base_url"     env:"KARBON_BASE_URL"     env-default:"https://api.karbonhq.com/v3"`
	BearerToken string        `yaml:"bearer_token" env:"KARBON_BEARER_TOKEN"`
	AccessKey   string        `yaml:"access_key"   env:"KARBON_ACCESS_KEY"`
	PageSize    int           `yaml:"page_size"    env:"KARBON_PAGE_SIZE"    env-default:"100"`
	Timeout     time.Duration `yaml:"timeout"      env:"KARBON_TIMEOUT"      env-default:"30s"`
	// SubFetchBatch and SubFetchPause throttle per-work-item task/note
	// fetches to respect vendor rate limits.
	SubFetchBatch int           `yaml:"sub_fetch_batch" env:"KARBON_SUB_FETCH_BATCH" env-default:"10"`
	SubFetchPause time.Duration `yaml:"sub_fetch_pause" env:"KARBON_SUB_FETCH_PAUSE" env-default:"500ms"`
}

// CalendlyConfig holds Calendly API credentials.
type CalendlyConfig struct {
	BaseURL          string        `yaml:"base_url"          env:"CALENDLY_BASE_URL"          env-default:"https://api.calendly.com"`
	Token            string        `yaml:"token"             env:"CALENDLY_TOKEN"`
	OrganizationURI  string        `yaml:"organization_uri"  env:"CALENDLY_ORGANIZATION_URI"`
	Timeout          time.Duration `yaml:"timeout"           env:"CALENDLY_TIMEOUT"           env-default:"30s"`
	WebhookSecretKey string        `yaml:"webhook_secret"    env:"CALENDLY_WEBHOOK_SECRET"`
}

// SyncConfig holds orchestrator tuning.
type SyncConfig struct {
	ChunkSize int `yaml:"chunk_size" env:"SYNC_CHUNK_SIZE" env-default:"50"`
	// Interval enables scheduled incremental runs in the server process.
	// Zero disables the scheduler; syncs then run only on manual trigger
	// or webhook delivery.
	Interval time.Duration `yaml:"interval" env:"SYNC_INTERVAL" env-default:"0"`
	// RunTimeout bounds a single orchestrator invocation.
	RunTimeout time.Duration `yaml:"run_timeout" env:"SYNC_RUN_TIMEOUT" env-default:"30m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
