package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"genshin-bingo/internal/config"
	"genshin-bingo/internal/game"
	"genshin-bingo/internal/game/viewmodel"
	"genshin-bingo/internal/logging"
	"genshin-bingo/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type action int

const (
	actionNone action = iota
	actionPrepare
	actionRequestStart
	actionAgree
	actionDraw
)

func (a action) String() string {
	switch a {
	case actionPrepare:
		return "prepare"
	case actionRequestStart:
		return "request_start"
	case actionAgree:
		return "agree"
	case actionDraw:
		return "draw"
	}
	return "none"
}

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	if err := logging.Init(logCfg); err != nil {
		panic(err)
	}
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal().Err(err).Msg("load bot config failed")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("bot stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.BotConfig) error {
	api := newAPIClient(cfg.ServerURL, cfg.AdminAPIKey)
	myID, err := api.register(ctx, cfg.Name)
	if err != nil {
		return err
	}
	log.Info().Str("player_id", myID).Str("name", cfg.Name).Msg("registered")

	wsURL, err := api.wsURL()
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.WriteJSON(ws.ClientMessage{Type: ws.TypeTrack}); err != nil {
		return err
	}

	events := make(chan struct{}, 1)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			var base struct {
				Type  string `json:"type"`
				Event string `json:"event"`
			}
			if err := json.Unmarshal(data, &base); err != nil {
				continue
			}
			if base.Type != ws.TypeEvent || base.Event != "state_changed" {
				continue
			}
			select {
			case events <- struct{}{}:
			default:
			}
		}
	}()

	heartbeat := time.NewTicker(cfg.Heartbeat)
	defer heartbeat.Stop()

	step(ctx, api, myID)
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return ctx.Err()
		case err := <-readErr:
			return err
		case <-heartbeat.C:
			if err := conn.WriteJSON(ws.ClientMessage{Type: ws.TypeHeartbeat}); err != nil {
				return err
			}
			// Turn timeouts are only enforced when someone asks.
			step(ctx, api, myID)
		case <-events:
			step(ctx, api, myID)
		}
	}
}

func step(ctx context.Context, api *apiClient, myID string) {
	st, err := api.state(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("fetch state failed")
		return
	}
	a := decide(st, myID)
	if a == actionNone {
		return
	}
	if err := api.act(ctx, a, st); err != nil {
		log.Debug().Err(err).Str("action", a.String()).Msg("action rejected")
		return
	}
	log.Info().Str("action", a.String()).Str("phase", st.Phase).Int("turn", st.CurrentOrder).Msg("acted")
}

func decide(st *viewmodel.StateView, myID string) action {
	var me *viewmodel.PlayerView
	ready := 0
	for i := range st.Players {
		if st.Players[i].IsReady {
			ready++
		}
		if st.Players[i].ID == myID {
			me = &st.Players[i]
		}
	}
	if me == nil {
		return actionNone
	}
	switch game.Phase(st.Phase) {
	case game.PhaseIdle:
		if !me.IsReady {
			return actionPrepare
		}
		if ready >= 2 {
			return actionRequestStart
		}
	case game.PhasePending:
		if st.StartRequest != nil && !me.Agreed {
			return actionAgree
		}
	case game.PhaseStarted:
		if st.IsMyTurn {
			return actionDraw
		}
	}
	return actionNone
}
