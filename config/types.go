// Package config holds the process configuration: defaults overridden by
// environment variables, validated once at startup.
package config

import "time"

type Config struct {
	Server     ServerConfig     `json:"server"`
	Fetch      FetchConfig      `json:"fetch"`
	Discovery  DiscoveryConfig  `json:"discovery"`
	Governor   GovernorConfig   `json:"governor"`
	Scheduler  SchedulerConfig  `json:"scheduler"`
	Extractor  ExtractorConfig  `json:"extractor"`
	Summarizer SummarizerConfig `json:"summarizer"`
	Renderer   RendererConfig   `json:"renderer"`
	Database   DatabaseConfig   `json:"database"`
	DLQ        DLQConfig        `json:"dlq"`
}

type ServerConfig struct {
	Port            int           `json:"port" env:"SERVER_PORT" default:"9300"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	ReadTimeout     time.Duration `json:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `json:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"600s"`
}

type FetchConfig struct {
	UserAgent    string        `json:"user_agent" env:"FETCH_USER_AGENT" default:"Mozilla/5.0 (compatible; HarvesterBot/1.0; +https://harvester.example.com/bot)"`
	Timeout      time.Duration `json:"timeout" env:"FETCH_TIMEOUT" default:"15s"`
	HostInterval time.Duration `json:"host_interval" env:"FETCH_HOST_INTERVAL" default:"2s"`
}

type DiscoveryConfig struct {
	CacheTTL  time.Duration `json:"cache_ttl" env:"DISCOVERY_CACHE_TTL" default:"30m"`
	CacheSize int           `json:"cache_size" env:"DISCOVERY_CACHE_SIZE" default:"512"`
}

type GovernorConfig struct {
	HardLimitMB     int           `json:"hard_limit_mb" env:"GOVERNOR_HARD_LIMIT_MB" default:"450"`
	SoftLimitMB     int           `json:"soft_limit_mb" env:"GOVERNOR_SOFT_LIMIT_MB" default:"400"`
	SoftDelay       time.Duration `json:"soft_delay" env:"GOVERNOR_SOFT_DELAY" default:"3s"`
	BrowserCooldown time.Duration `json:"browser_cooldown" env:"GOVERNOR_BROWSER_COOLDOWN" default:"2s"`
	SkipHosts       []string      `json:"skip_hosts" env:"GOVERNOR_SKIP_HOSTS"`
}

type SchedulerConfig struct {
	Interval     time.Duration `json:"interval" env:"SCHEDULER_INTERVAL" default:"30m"`
	MaxFeedItems int           `json:"max_feed_items" env:"SCHEDULER_MAX_FEED_ITEMS" default:"20"`
	BatchSize    int           `json:"batch_size" env:"SCHEDULER_BATCH_SIZE" default:"3"`
}

// ExtractorConfig points at the external AI article extractor.
type ExtractorConfig struct {
	Host    string        `json:"host" env:"EXTRACTOR_HOST" default:"http://article-extractor:8400"`
	APIPath string        `json:"api_path" env:"EXTRACTOR_API_PATH" default:"/api/v1/extract"`
	Timeout time.Duration `json:"timeout" env:"EXTRACTOR_TIMEOUT" default:"120s"`
}

type SummarizerConfig struct {
	Host    string        `json:"host" env:"SUMMARIZER_HOST" default:"http://summarizer:11434"`
	APIPath string        `json:"api_path" env:"SUMMARIZER_API_PATH" default:"/api/v1/summarize"`
	Timeout time.Duration `json:"timeout" env:"SUMMARIZER_TIMEOUT" default:"120s"`
}

// RendererConfig points at the headless-render service used by the
// traditional scraping path.
type RendererConfig struct {
	Host    string        `json:"host" env:"RENDERER_HOST" default:"http://page-renderer:8500"`
	Timeout time.Duration `json:"timeout" env:"RENDERER_TIMEOUT" default:"60s"`
}

// DLQConfig controls the file-based dead letter journal. An empty base path
// disables journaling.
type DLQConfig struct {
	BasePath  string        `json:"base_path" env:"DLQ_BASE_PATH"`
	Retention time.Duration `json:"retention" env:"DLQ_RETENTION" default:"720h"`
}

type DatabaseConfig struct {
	Host     string `json:"host" env:"DB_HOST" default:"localhost"`
	Port     int    `json:"port" env:"DB_PORT" default:"5432"`
	User     string `json:"user" env:"DB_USER" default:"harvester"`
	Password string `json:"-" env:"DB_PASSWORD"`
	Name     string `json:"name" env:"DB_NAME" default:"harvester"`
	SSLMode  string `json:"ssl_mode" env:"DB_SSL_MODE" default:"prefer"`
	MaxConns int    `json:"max_conns" env:"DB_MAX_CONNS" default:"10"`
}
