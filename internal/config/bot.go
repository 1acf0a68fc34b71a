package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type BotConfig struct {
	ServerURL   string        `env:"SERVER_URL" envDefault:"http://localhost:8080"`
	Name        string        `env:"BOT_NAME" envDefault:"bot"`
	AdminAPIKey string        `env:"ADMIN_API_KEY"`
	Heartbeat   time.Duration `env:"BOT_HEARTBEAT" envDefault:"10s"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
