package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	AdminAPIKey string        `env:"ADMIN_API_KEY"`
	TokenSecret string        `env:"TOKEN_SECRET,required,notEmpty"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"720h"`

	// Empty keeps hints, leadership and fan-out inside this process.
	RedisURL string `env:"REDIS_URL"`
	ItemPool string `env:"ITEM_POOL"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
