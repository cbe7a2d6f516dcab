package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadConfig builds the configuration from defaults and environment
// overrides, then validates it.
func LoadConfig() (*Config, error) {
	config := defaultConfig()

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            9300,
			ShutdownTimeout: 30 * time.Second,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    600 * time.Second,
		},
		Fetch: FetchConfig{
			UserAgent:    "Mozilla/5.0 (compatible; HarvesterBot/1.0; +https://harvester.example.com/bot)",
			Timeout:      15 * time.Second,
			HostInterval: 2 * time.Second,
		},
		Discovery: DiscoveryConfig{
			CacheTTL:  30 * time.Minute,
			CacheSize: 512,
		},
		Governor: GovernorConfig{
			HardLimitMB:     450,
			SoftLimitMB:     400,
			SoftDelay:       3 * time.Second,
			BrowserCooldown: 2 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Interval:     30 * time.Minute,
			MaxFeedItems: 20,
			BatchSize:    3,
		},
		Extractor: ExtractorConfig{
			Host:    "http://article-extractor:8400",
			APIPath: "/api/v1/extract",
			Timeout: 120 * time.Second,
		},
		Summarizer: SummarizerConfig{
			Host:    "http://summarizer:11434",
			APIPath: "/api/v1/summarize",
			Timeout: 120 * time.Second,
		},
		Renderer: RendererConfig{
			Host:    "http://page-renderer:8500",
			Timeout: 60 * time.Second,
		},
		DLQ: DLQConfig{
			Retention: 720 * time.Hour,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "harvester",
			Name:     "harvester",
			SSLMode:  "prefer",
			MaxConns: 10,
		},
	}
}

func loadFromEnv(config *Config) error {
	loaders := []struct {
		name string
		load func() error
	}{
		{"server", func() error { return loadServerConfig(&config.Server) }},
		{"fetch", func() error { return loadFetchConfig(&config.Fetch) }},
		{"discovery", func() error { return loadDiscoveryConfig(&config.Discovery) }},
		{"governor", func() error { return loadGovernorConfig(&config.Governor) }},
		{"scheduler", func() error { return loadSchedulerConfig(&config.Scheduler) }},
		{"extractor", func() error {
			return loadServiceConfig("EXTRACTOR", &config.Extractor.Host, &config.Extractor.APIPath, &config.Extractor.Timeout)
		}},
		{"summarizer", func() error {
			return loadServiceConfig("SUMMARIZER", &config.Summarizer.Host, &config.Summarizer.APIPath, &config.Summarizer.Timeout)
		}},
		{"renderer", func() error { return loadRendererConfig(&config.Renderer) }},
		{"database", func() error { return loadDatabaseConfig(&config.Database) }},
		{"dlq", func() error { return loadDLQConfig(&config.DLQ) }},
	}

	for _, l := range loaders {
		if err := l.load(); err != nil {
			return fmt.Errorf("failed to load %s config: %w", l.name, err)
		}
	}
	return nil
}

func loadServerConfig(cfg *ServerConfig) error {
	if err := envInt("SERVER_PORT", &cfg.Port); err != nil {
		return err
	}
	if err := envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout); err != nil {
		return err
	}
	if err := envDuration("SERVER_READ_TIMEOUT", &cfg.ReadTimeout); err != nil {
		return err
	}
	return envDuration("SERVER_WRITE_TIMEOUT", &cfg.WriteTimeout)
}

func loadFetchConfig(cfg *FetchConfig) error {
	envString("FETCH_USER_AGENT", &cfg.UserAgent)
	if err := envDuration("FETCH_TIMEOUT", &cfg.Timeout); err != nil {
		return err
	}
	return envDuration("FETCH_HOST_INTERVAL", &cfg.HostInterval)
}

func loadDiscoveryConfig(cfg *DiscoveryConfig) error {
	if err := envDuration("DISCOVERY_CACHE_TTL", &cfg.CacheTTL); err != nil {
		return err
	}
	return envInt("DISCOVERY_CACHE_SIZE", &cfg.CacheSize)
}

func loadGovernorConfig(cfg *GovernorConfig) error {
	if err := envInt("GOVERNOR_HARD_LIMIT_MB", &cfg.HardLimitMB); err != nil {
		return err
	}
	if err := envInt("GOVERNOR_SOFT_LIMIT_MB", &cfg.SoftLimitMB); err != nil {
		return err
	}
	if err := envDuration("GOVERNOR_SOFT_DELAY", &cfg.SoftDelay); err != nil {
		return err
	}
	if err := envDuration("GOVERNOR_BROWSER_COOLDOWN", &cfg.BrowserCooldown); err != nil {
		return err
	}
	if hosts := os.Getenv("GOVERNOR_SKIP_HOSTS"); hosts != "" {
		for _, host := range strings.Split(hosts, ",") {
			if host = strings.TrimSpace(host); host != "" {
				cfg.SkipHosts = append(cfg.SkipHosts, host)
			}
		}
	}
	return nil
}

func loadSchedulerConfig(cfg *SchedulerConfig) error {
	if err := envDuration("SCHEDULER_INTERVAL", &cfg.Interval); err != nil {
		return err
	}
	if err := envInt("SCHEDULER_MAX_FEED_ITEMS", &cfg.MaxFeedItems); err != nil {
		return err
	}
	return envInt("SCHEDULER_BATCH_SIZE", &cfg.BatchSize)
}

func loadServiceConfig(prefix string, host, apiPath *string, timeout *time.Duration) error {
	envString(prefix+"_HOST", host)
	envString(prefix+"_API_PATH", apiPath)
	return envDuration(prefix+"_TIMEOUT", timeout)
}

func loadRendererConfig(cfg *RendererConfig) error {
	envString("RENDERER_HOST", &cfg.Host)
	return envDuration("RENDERER_TIMEOUT", &cfg.Timeout)
}

func loadDatabaseConfig(cfg *DatabaseConfig) error {
	envString("DB_HOST", &cfg.Host)
	if err := envInt("DB_PORT", &cfg.Port); err != nil {
		return err
	}
	envString("DB_USER", &cfg.User)
	envString("DB_PASSWORD", &cfg.Password)
	envString("DB_NAME", &cfg.Name)
	envString("DB_SSL_MODE", &cfg.SSLMode)
	return envInt("DB_MAX_CONNS", &cfg.MaxConns)
}

func loadDLQConfig(cfg *DLQConfig) error {
	envString("DLQ_BASE_PATH", &cfg.BasePath)
	return envDuration("DLQ_RETENTION", &cfg.Retention)
}

func envString(key string, dst *string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func envInt(key string, dst *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %s", key, value)
	}
	*dst = parsed
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %s", key, value)
	}
	*dst = parsed
	return nil
}
