package config

import (
	"os"
	"sync"
)

var (
	redisOnce   sync.Once
	redisConfig *RedisConfig
)

// RedisConfig holds Redis settings for the background job queue. When no
// address is configured the server falls back to an in-process dispatcher.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Concurrency bounds the worker's parallel extraction jobs.
	Concurrency int
}

// Configured reports whether a Redis-backed queue is available.
func (c *RedisConfig) Configured() bool { return c.Addr != "" }

// GetRedisConfig loads Redis settings from the environment.
func GetRedisConfig() *RedisConfig {
	redisOnce.Do(func() {
		loadEnv()
		redisConfig = &RedisConfig{
			Addr:        os.Getenv("REDIS_ADDR"),
			Password:    os.Getenv("REDIS_PASSWORD"),
			DB:          getenvInt("REDIS_DB", 0),
			Concurrency: getenvInt("WORKER_CONCURRENCY", 5),
		}
	})
	return redisConfig
}
