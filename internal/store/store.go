package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"genshin-bingo/internal/store/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

var ErrNotFound = errors.New("not found")

// Store wraps DB access.
type Store struct {
	Pool *pgxpool.Pool
}

func New(dsn string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

// Migrate brings the schema up to date.
func (s *Store) Migrate() error {
	db := stdlib.OpenDBFromPool(s.Pool)
	defer db.Close()
	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
