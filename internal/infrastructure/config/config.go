package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	Mail      MailConfig
	MediaWiki MediaWikiConfig
	Tasks     TasksConfig
	Tracker   TrackerConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite; sqlite treats DBName as a file path
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                 string
	RefreshSecret          string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	Issuer                 string
	MaxRefreshCount        int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string

	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// AuthRateLimitRequests caps login and registration attempts per
	// client within RateLimitWindow
	AuthRateLimitRequests int
}

// StorageConfig holds object storage settings for ticket documents
type StorageConfig struct {
	Driver          string // s3 or memory
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	DocsPrefix      string
	PresignExpiry   time.Duration
}

// MailConfig holds outgoing SMTP settings
type MailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Managers []string
	Admins   []string
}

// MediaWikiConfig holds settings for the wiki API client
type MediaWikiConfig struct {
	APIURL       string
	ArticleBase  string
	Template     string // tracker template inserted into file pages
	InfoTemplate string // template after which the tracker template is placed
	ThumbWidth   int
	Timeout      time.Duration
	RateLimit    float64 // requests per second
	RateBurst    int
	UserAgent    string
}

// TasksConfig holds delayed task queue settings
type TasksConfig struct {
	Enabled        bool
	Workers        int
	PollInterval   time.Duration
	DefaultDelay   time.Duration
	MaxAttempts    int
	RetryBackoff   time.Duration
	LockTimeout    time.Duration
	DigestInterval time.Duration
}

// TrackerConfig holds tracker domain settings
type TrackerConfig struct {
	Currency            string
	MinWaitDays         int
	BaseURL             string
	Languages           []string
	MaintenanceUsername string
	StatutoryText       string
	ImportRowLimit      int
	PublicDeployRoot    string
}

// MinWait returns the minimum wait between a user ack and its admin ack.
func (t TrackerConfig) MinWait() time.Duration {
	return time.Duration(t.MinWaitDays) * 24 * time.Hour
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string
	Insecure          bool
	MetricsEnabled    bool
	LogsEnabled       bool
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	DBSlowQueryThresh time.Duration
	ProfilingEnabled  bool
	PyroscopeURL      string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with TRACKER_ prefix (e.g., TRACKER_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/tracker")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                 v.GetString("jwt.secret"),
			RefreshSecret:          v.GetString("jwt.refresh_secret"),
			AccessTokenExpiration:  v.GetDuration("jwt.access_token_expiration"),
			RefreshTokenExpiration: v.GetDuration("jwt.refresh_token_expiration"),
			Issuer:                 v.GetString("jwt.issuer"),
			MaxRefreshCount:        v.GetInt("jwt.max_refresh_count"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),

			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),

			AuthRateLimitRequests: v.GetInt("http.auth_rate_limit_requests"),
		},
		Storage: StorageConfig{
			Driver:          v.GetString("storage.driver"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			DocsPrefix:      v.GetString("storage.docs_prefix"),
			PresignExpiry:   v.GetDuration("storage.presign_expiry"),
		},
		Mail: MailConfig{
			Enabled:  v.GetBool("mail.enabled"),
			Host:     v.GetString("mail.host"),
			Port:     v.GetInt("mail.port"),
			Username: v.GetString("mail.username"),
			Password: v.GetString("mail.password"),
			From:     v.GetString("mail.from"),
			Managers: v.GetStringSlice("mail.managers"),
			Admins:   v.GetStringSlice("mail.admins"),
		},
		MediaWiki: MediaWikiConfig{
			APIURL:       v.GetString("mediawiki.api_url"),
			ArticleBase:  v.GetString("mediawiki.article_base"),
			Template:     v.GetString("mediawiki.template"),
			InfoTemplate: v.GetString("mediawiki.info_template"),
			ThumbWidth:   v.GetInt("mediawiki.thumb_width"),
			Timeout:      v.GetDuration("mediawiki.timeout"),
			RateLimit:    v.GetFloat64("mediawiki.rate_limit"),
			RateBurst:    v.GetInt("mediawiki.rate_burst"),
			UserAgent:    v.GetString("mediawiki.user_agent"),
		},
		Tasks: TasksConfig{
			Enabled:        v.GetBool("tasks.enabled"),
			Workers:        v.GetInt("tasks.workers"),
			PollInterval:   v.GetDuration("tasks.poll_interval"),
			DefaultDelay:   v.GetDuration("tasks.default_delay"),
			MaxAttempts:    v.GetInt("tasks.max_attempts"),
			RetryBackoff:   v.GetDuration("tasks.retry_backoff"),
			LockTimeout:    v.GetDuration("tasks.lock_timeout"),
			DigestInterval: v.GetDuration("tasks.digest_interval"),
		},
		Tracker: TrackerConfig{
			Currency:            v.GetString("tracker.currency"),
			MinWaitDays:         v.GetInt("tracker.min_wait_days"),
			BaseURL:             v.GetString("tracker.base_url"),
			Languages:           v.GetStringSlice("tracker.languages"),
			MaintenanceUsername: v.GetString("tracker.maintenance_username"),
			StatutoryText:       v.GetString("tracker.statutory_text"),
			ImportRowLimit:      v.GetInt("tracker.import_row_limit"),
			PublicDeployRoot:    v.GetString("tracker.public_deploy_root"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			PyroscopeURL:      v.GetString("telemetry.pyroscope_url"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "tracker"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "tracker"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 15 * time.Minute
	}
	if cfg.JWT.RefreshTokenExpiration == 0 {
		cfg.JWT.RefreshTokenExpiration = 168 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "tracker"
	}
	if cfg.JWT.MaxRefreshCount == 0 {
		cfg.JWT.MaxRefreshCount = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 32 << 20 // 32MB, documents are uploaded through the API
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.HTTP.AuthRateLimitRequests == 0 {
		cfg.HTTP.AuthRateLimitRequests = 10
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "Accept-Language"}
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "memory"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "tracker"
	}
	if cfg.Storage.DocsPrefix == "" {
		cfg.Storage.DocsPrefix = "ticket-docs"
	}
	if cfg.Storage.PresignExpiry == 0 {
		cfg.Storage.PresignExpiry = 15 * time.Minute
	}
	if cfg.Mail.Host == "" {
		cfg.Mail.Host = "localhost"
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 25
	}
	if cfg.Mail.From == "" {
		cfg.Mail.From = "tracker@wikimedia.cz"
	}
	if cfg.MediaWiki.APIURL == "" {
		cfg.MediaWiki.APIURL = "https://commons.wikimedia.org/w/api.php"
	}
	if cfg.MediaWiki.ArticleBase == "" {
		cfg.MediaWiki.ArticleBase = "https://commons.wikimedia.org/wiki/"
	}
	if cfg.MediaWiki.Template == "" {
		cfg.MediaWiki.Template = "Wikimedia ČR tracker"
	}
	if cfg.MediaWiki.InfoTemplate == "" {
		cfg.MediaWiki.InfoTemplate = "Information"
	}
	if cfg.MediaWiki.ThumbWidth == 0 {
		cfg.MediaWiki.ThumbWidth = 100
	}
	if cfg.MediaWiki.Timeout == 0 {
		cfg.MediaWiki.Timeout = 30 * time.Second
	}
	if cfg.MediaWiki.RateLimit == 0 {
		cfg.MediaWiki.RateLimit = 5
	}
	if cfg.MediaWiki.RateBurst == 0 {
		cfg.MediaWiki.RateBurst = 10
	}
	if cfg.MediaWiki.UserAgent == "" {
		cfg.MediaWiki.UserAgent = "wikimedia-cz-tracker/1.0"
	}
	if cfg.Tasks.Workers == 0 {
		cfg.Tasks.Workers = 2
	}
	if cfg.Tasks.PollInterval == 0 {
		cfg.Tasks.PollInterval = 5 * time.Second
	}
	if cfg.Tasks.DefaultDelay == 0 {
		cfg.Tasks.DefaultDelay = 10 * time.Second
	}
	if cfg.Tasks.MaxAttempts == 0 {
		cfg.Tasks.MaxAttempts = 5
	}
	if cfg.Tasks.RetryBackoff == 0 {
		cfg.Tasks.RetryBackoff = 30 * time.Second
	}
	if cfg.Tasks.LockTimeout == 0 {
		cfg.Tasks.LockTimeout = 5 * time.Minute
	}
	if cfg.Tasks.DigestInterval == 0 {
		cfg.Tasks.DigestInterval = 24 * time.Hour
	}
	if cfg.Tracker.Currency == "" {
		cfg.Tracker.Currency = "CZK"
	}
	if cfg.Tracker.MinWaitDays == 0 {
		cfg.Tracker.MinWaitDays = 3
	}
	if cfg.Tracker.BaseURL == "" {
		cfg.Tracker.BaseURL = "http://localhost:8080"
	}
	if len(cfg.Tracker.Languages) == 0 {
		cfg.Tracker.Languages = []string{"cs", "en"}
	}
	if cfg.Tracker.MaintenanceUsername == "" {
		cfg.Tracker.MaintenanceUsername = "tracker-maintenance"
	}
	if cfg.Tracker.ImportRowLimit == 0 {
		cfg.Tracker.ImportRowLimit = 100
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.PyroscopeURL == "" {
		cfg.Telemetry.PyroscopeURL = "http://localhost:4040"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Tracker.MinWaitDays < 0 {
		return fmt.Errorf("tracker.min_wait_days cannot be negative")
	}
	if c.Tracker.ImportRowLimit < 0 {
		return fmt.Errorf("tracker.import_row_limit cannot be negative")
	}
	if c.Tasks.MaxAttempts < 1 {
		return fmt.Errorf("tasks.max_attempts must be at least 1")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be 'postgres' or 'sqlite', got %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "s3", "memory":
	default:
		return fmt.Errorf("storage.driver must be 's3' or 'memory', got %q", c.Storage.Driver)
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Driver != "postgres" {
			return fmt.Errorf("database.driver must be 'postgres' in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Storage.Driver == "memory" {
			return fmt.Errorf("storage.driver cannot be 'memory' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the host:port of the redis server
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Addr returns the host:port of the SMTP server
func (m *MailConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}
