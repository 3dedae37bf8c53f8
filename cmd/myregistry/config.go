package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"myremoting/adapters/myredis"
)

const defaultReaperInterval = time.Second

type MyRegistryConfig struct {
	// Redis.Addr is empty when entries are kept in memory.
	Redis          myredis.RedisConfig
	HTTPPort       int
	ReaperInterval time.Duration
}

// LoadConfig loads configuration from environment variables.
// SERVICE_PORT_HTTP is required. REDIS_ADDR switches storage to Redis; REDIS_PREFIX and
// REAPER_INTERVAL_MS are optional.
func LoadConfig() (*MyRegistryConfig, error) {
	httpPortStr := os.Getenv("SERVICE_PORT_HTTP")
	if httpPortStr == "" {
		return nil, fmt.Errorf("SERVICE_PORT_HTTP is required")
	}
	httpPort, err := strconv.Atoi(httpPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVICE_PORT_HTTP: %w", err)
	}

	reaperInterval := defaultReaperInterval
	if v := os.Getenv("REAPER_INTERVAL_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REAPER_INTERVAL_MS: %w", err)
		}
		if ms <= 0 {
			return nil, fmt.Errorf("REAPER_INTERVAL_MS must be positive")
		}
		reaperInterval = time.Duration(ms) * time.Millisecond
	}

	prefix := os.Getenv("REDIS_PREFIX")
	if prefix == "" {
		prefix = myredis.DefaultPrefix
	}

	return &MyRegistryConfig{
		Redis: myredis.RedisConfig{
			Addr:   os.Getenv("REDIS_ADDR"),
			Prefix: prefix,
		},
		HTTPPort:       httpPort,
		ReaperInterval: reaperInterval,
	}, nil
}
