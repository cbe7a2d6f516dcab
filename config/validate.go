package config

import "fmt"

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive: %v", config.Fetch.Timeout)
	}

	if config.Fetch.HostInterval < 0 {
		return fmt.Errorf("fetch host interval must be non-negative: %v", config.Fetch.HostInterval)
	}

	if config.Discovery.CacheTTL <= 0 {
		return fmt.Errorf("discovery cache TTL must be positive: %v", config.Discovery.CacheTTL)
	}

	if config.Discovery.CacheSize <= 0 {
		return fmt.Errorf("discovery cache size must be positive: %d", config.Discovery.CacheSize)
	}

	if config.Governor.HardLimitMB <= 0 {
		return fmt.Errorf("governor hard limit must be positive: %d", config.Governor.HardLimitMB)
	}

	if config.Governor.SoftLimitMB > config.Governor.HardLimitMB {
		return fmt.Errorf("governor soft limit %d exceeds hard limit %d",
			config.Governor.SoftLimitMB, config.Governor.HardLimitMB)
	}

	if config.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive: %v", config.Scheduler.Interval)
	}

	if config.Scheduler.BatchSize <= 0 {
		return fmt.Errorf("scheduler batch size must be positive: %d", config.Scheduler.BatchSize)
	}

	if config.Scheduler.MaxFeedItems <= 0 {
		return fmt.Errorf("scheduler max feed items must be positive: %d", config.Scheduler.MaxFeedItems)
	}

	if config.Extractor.Host == "" {
		return fmt.Errorf("extractor host cannot be empty")
	}

	if config.Summarizer.Host == "" {
		return fmt.Errorf("summarizer host cannot be empty")
	}

	if config.Renderer.Host == "" {
		return fmt.Errorf("renderer host cannot be empty")
	}

	if config.DLQ.BasePath != "" && config.DLQ.Retention <= 0 {
		return fmt.Errorf("dlq retention must be positive: %v", config.DLQ.Retention)
	}

	if config.Database.Host == "" {
		return fmt.Errorf("database host cannot be empty")
	}

	if config.Database.MaxConns <= 0 {
		return fmt.Errorf("database max connections must be positive: %d", config.Database.MaxConns)
	}

	return nil
}
