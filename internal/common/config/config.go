package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port    int      `env:"PORT" envDefault:"8080"`
		Origins []string `env:"ORIGIN" envSeparator:"," envDefault:"http://localhost:3000"`
	}

	// Storage selects the user repository backend: "memory" or "redis".
	Storage string `env:"STORAGE" envDefault:"memory"`

	Redis struct {
		Host      string `env:"REDIS_HOST" envDefault:"localhost"`
		Port      int    `env:"REDIS_PORT" envDefault:"6379"`
		Password  string `env:"REDIS_PASSWORD" envDefault:""`
		DB        int    `env:"REDIS_DB" envDefault:"0"`
		KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"picker"`
	}
}

// RedisAddr returns host:port for the Redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// .env is optional; in production variables are set directly
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	switch cfg.Storage {
	case StorageMemory, StorageRedis:
	default:
		return nil, fmt.Errorf("unsupported STORAGE %q", cfg.Storage)
	}

	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
