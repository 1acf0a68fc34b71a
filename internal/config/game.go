package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type GameConfig struct {
	MinPlayers          int           `env:"MIN_PLAYERS" envDefault:"2"`
	TurnTimeout         time.Duration `env:"TURN_TIMEOUT" envDefault:"60s"`
	StartRequestTimeout time.Duration `env:"START_REQUEST_TIMEOUT" envDefault:"60s"`
	StartCountdown      time.Duration `env:"START_COUNTDOWN" envDefault:"3s"`
	PresenceGrace       time.Duration `env:"PRESENCE_GRACE" envDefault:"45s"`
	ReconcileInterval   time.Duration `env:"RECONCILE_INTERVAL" envDefault:"5s"`
	// Zero derives the lease from ReconcileInterval, see Lease.
	LeaderLease         time.Duration `env:"LEADER_LEASE"`
	ChatHistory         int           `env:"CHAT_HISTORY" envDefault:"50"`
}

// Lease is LEADER_LEASE when set, otherwise two reconcile intervals. A leader
// that stops cleanly releases the lease and is replaced on the next tick; a
// crashed one within three intervals of its last renewal.
func (c GameConfig) Lease() time.Duration {
	if c.LeaderLease > 0 {
		return c.LeaderLease
	}
	interval := c.ReconcileInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return 2 * interval
}

func LoadGame() (GameConfig, error) {
	var cfg GameConfig
	err := env.Parse(&cfg)
	return cfg, err
}
