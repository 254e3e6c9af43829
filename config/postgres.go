package config

import (
	"fmt"
	"os"
	"sync"
)

var (
	postgresOnce   sync.Once
	postgresConfig *PostgresConfig
)

// PostgresConfig holds connection settings for the document record store.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxPool  int
}

// ConnString builds a lib/pq connection string.
func (c *PostgresConfig) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetPostgresConfig loads Postgres settings from the environment.
func GetPostgresConfig() *PostgresConfig {
	postgresOnce.Do(func() {
		loadEnv()
		postgresConfig = &PostgresConfig{
			Host:     getenv("POSTGRES_HOST", "localhost"),
			Port:     getenv("POSTGRES_PORT", "5432"),
			User:     getenv("POSTGRES_USER", "postgres"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   getenv("POSTGRES_DB", "documents"),
			SSLMode:  getenv("POSTGRES_SSLMODE", "disable"),
			MaxPool:  getenvInt("POSTGRES_MAX_POOL", 10),
		}
	})
	return postgresConfig
}
