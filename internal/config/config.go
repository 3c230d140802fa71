package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	DatabaseURL   string        `env:"DATABASE_URL"`
	Neo4jURI      string        `env:"NEO4J_URI"`
	Neo4jUser     string        `env:"NEO4J_USER" envDefault:"neo4j"`
	Neo4jPassword string        `env:"NEO4J_PASSWORD"`
	WorkerCount   int           `env:"WORKER_COUNT" envDefault:"8"`
	BatchSize     int           `env:"BATCH_SIZE" envDefault:"500"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	MetricsAddr   string        `env:"METRICS_ADDR"`
	WatchDebounce time.Duration `env:"WATCH_DEBOUNCE" envDefault:"250ms"`
	// BaseLocale is the development language other locales are checked against.
	BaseLocale string `env:"BASE_LOCALE" envDefault:"en"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	return cfg, nil
}
