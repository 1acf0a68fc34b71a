package game_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"genshin-bingo/internal/game"
	"genshin-bingo/internal/store/memstore"
)

type testOnline struct {
	mu      sync.Mutex
	offline map[string]bool
}

func (o *testOnline) set(id string, online bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.offline[id] = !online
}

func (o *testOnline) OnlineSet(_ context.Context, players []game.Player) (map[string]bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]bool, len(players))
	for _, p := range players {
		out[p.ID] = !o.offline[p.ID]
	}
	return out, nil
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	eng    *game.Engine
	store  *memstore.Store
	online *testOnline
	clock  *testClock
	ctx    context.Context
}

func newHarness(t *testing.T, opts ...game.Option) *harness {
	t.Helper()
	h := &harness{
		store:  memstore.New(),
		online: &testOnline{offline: map[string]bool{}},
		clock:  &testClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		ctx:    context.Background(),
	}
	base := []game.Option{
		game.WithOnlineChecker(h.online),
		game.WithClock(h.clock.Now),
		game.WithSeed(7),
	}
	h.eng = game.NewEngine(h.store, append(base, opts...)...)
	return h
}

func (h *harness) register(t *testing.T, name string, admin bool) game.Player {
	t.Helper()
	p, err := h.eng.Register(h.ctx, name, admin)
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return *p
}

// ready fills the board and flags the player ready.
func (h *harness) ready(t *testing.T, id string) {
	t.Helper()
	if _, _, err := h.eng.RandomFill(h.ctx, id); err != nil {
		t.Fatalf("random fill %s: %v", id, err)
	}
	ready, _, err := h.eng.ToggleReady(h.ctx, id)
	if err != nil {
		t.Fatalf("toggle ready %s: %v", id, err)
	}
	if !ready {
		t.Fatalf("expected %s ready", id)
	}
}

func (h *harness) state(t *testing.T) game.GameState {
	t.Helper()
	st, err := h.store.GetGameState(h.ctx)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	return *st
}

func (h *harness) player(t *testing.T, id string) game.Player {
	t.Helper()
	p, err := h.store.GetPlayer(h.ctx, id)
	if err != nil {
		t.Fatalf("get player %s: %v", id, err)
	}
	return *p
}

// holder returns the player holding the current turn.
func (h *harness) holder(t *testing.T) game.Player {
	t.Helper()
	return h.holderOf(t, h.state(t).CurrentOrder)
}

func (h *harness) holderOf(t *testing.T, order int) game.Player {
	t.Helper()
	players, err := h.store.ListPlayers(h.ctx)
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	for _, p := range players {
		if p.Order > 0 && p.Order == order {
			return p
		}
	}
	t.Fatalf("no player with order %d", order)
	return game.Player{}
}

func (h *harness) setCurrentOrder(t *testing.T, order int) {
	t.Helper()
	st := h.state(t)
	st.CurrentOrder = order
	if err := h.store.SaveGameState(h.ctx, &st); err != nil {
		t.Fatalf("save state: %v", err)
	}
}

// startThree registers three ready players and starts the round.
func (h *harness) startThree(t *testing.T) []game.Player {
	t.Helper()
	ps := []game.Player{
		h.register(t, "Aether", true),
		h.register(t, "Lumine", false),
		h.register(t, "Paimon", false),
	}
	for _, p := range ps {
		h.ready(t, p.ID)
	}
	if _, err := h.eng.Start(h.ctx, game.StartOptions{ActorID: ps[0].ID}); err != nil {
		t.Fatalf("start: %v", err)
	}
	return ps
}
