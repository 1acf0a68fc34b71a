package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"genshin-bingo/internal/auth"
	"genshin-bingo/internal/bingo"
	"genshin-bingo/internal/broadcast"
	"genshin-bingo/internal/config"
	"genshin-bingo/internal/coordinator"
	"genshin-bingo/internal/game"
	"genshin-bingo/internal/ids"
	"genshin-bingo/internal/journal"
	"genshin-bingo/internal/logging"
	"genshin-bingo/internal/presence"
	"genshin-bingo/internal/store"
	httptransport "genshin-bingo/internal/transport/http"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := logging.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Close()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("server stopped")
		logging.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.AppConfig) error {
	st, err := store.New(cfg.Server.PostgresDSN)
	if err != nil {
		return fmt.Errorf("store init: %w", err)
	}
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	if err := st.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	instanceID := ids.New()
	checks := map[string]httptransport.HealthCheck{"db": st.Ping}

	var (
		rdb    *redis.Client
		hints  presence.HintStore = presence.NewLocalHints()
		leader presence.Leader    = presence.LocalLeader{}
	)
	if cfg.Server.RedisURL != "" {
		rdb, err = openRedis(ctx, cfg.Server.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		hints = presence.NewRedisHints(rdb)
		leader = presence.NewRedisLeader(rdb, instanceID, cfg.Game.Lease())
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Str("instance", instanceID).Msg("redis enabled")
	}

	tracker := presence.NewTracker(st, hints, cfg.Game.PresenceGrace)
	bridge := broadcast.NewBridge(broadcast.NewEventBuffer(500), rdb, instanceID)

	opts := []game.Option{
		game.WithOnlineChecker(tracker),
		game.WithRules(game.Rules{
			MinPlayers:          cfg.Game.MinPlayers,
			TurnTimeout:         cfg.Game.TurnTimeout,
			StartRequestTimeout: cfg.Game.StartRequestTimeout,
		}),
	}
	if pool := bingo.ParsePool(cfg.Server.ItemPool); len(pool) > 0 {
		opts = append(opts, game.WithPool(pool))
	}
	eng := game.NewEngine(st, opts...)

	countdown := cfg.Game.StartCountdown
	if countdown == 0 {
		countdown = -1
	}
	coord := coordinator.New(eng, journal.New(st), bridge, tracker, coordinator.Options{
		Countdown: countdown,
		Leader:    leader,
	})
	defer coord.Close()

	r := httptransport.NewRouter(httptransport.Deps{
		Coord:     coord,
		Issuer:    auth.NewIssuer(cfg.Server.TokenSecret, cfg.Server.TokenTTL),
		Snapshots: presence.NewSnapshots(st),
		Server:    cfg.Server,
		Game:      cfg.Game,
		Checks:    checks,
	})
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bridge.Run(gctx)
	})
	g.Go(func() error {
		coord.StartJanitor(gctx, cfg.Game.ReconcileInterval)
		<-gctx.Done()
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Str("instance", instanceID).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
