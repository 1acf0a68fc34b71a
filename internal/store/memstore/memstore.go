// Package memstore is an in-process implementation of the durable store
// interfaces. It backs the unit tests and single-node runs without Postgres.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"genshin-bingo/internal/bingo"
	"genshin-bingo/internal/game"
	"genshin-bingo/internal/journal"
	"genshin-bingo/internal/presence"
)

type Store struct {
	mu       sync.Mutex
	state    game.GameState
	players  map[string]game.Player
	chat     []game.ChatMessage
	snapshot *presence.Snapshot
	events   []journal.Entry
}

func New() *Store {
	return &Store{
		state:   game.NeutralState(),
		players: map[string]game.Player{},
	}
}

func clonePlayer(p game.Player) game.Player {
	p.Board = append(bingo.Board{}, p.Board...)
	if p.LastSeen != nil {
		t := *p.LastSeen
		p.LastSeen = &t
	}
	return p
}

func (s *Store) GetGameState(_ context.Context) (*game.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state.Clone()
	return &st, nil
}

func (s *Store) saveLocked(st *game.GameState) error {
	if st.Version != s.state.Version {
		return game.ErrStaleState
	}
	st.Version++
	s.state = st.Clone()
	return nil
}

func (s *Store) SaveGameState(_ context.Context, st *game.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(st)
}

func (s *Store) ListPlayers(_ context.Context) ([]game.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]game.Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, clonePlayer(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetPlayer(_ context.Context, id string) (*game.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return nil, game.ErrPlayerNotFound
	}
	out := clonePlayer(p)
	return &out, nil
}

func (s *Store) CreatePlayer(_ context.Context, p game.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.players {
		if existing.Name == p.Name || existing.ID == p.ID {
			return game.ErrNameTaken
		}
	}
	s.players[p.ID] = clonePlayer(p)
	return nil
}

func (s *Store) UpdatePlayer(_ context.Context, id string, patch game.PlayerPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return game.ErrPlayerNotFound
	}
	if patch.Board != nil {
		p.Board = append(bingo.Board{}, (*patch.Board)...)
	}
	if patch.Order != nil {
		p.Order = *patch.Order
	}
	if patch.Score != nil {
		p.Score = *patch.Score
	}
	if patch.IsReady != nil {
		p.IsReady = *patch.IsReady
	}
	if patch.LastSeen != nil {
		t := *patch.LastSeen
		p.LastSeen = &t
	}
	s.players[id] = p
	return nil
}

func (s *Store) DeletePlayer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[id]; !ok {
		return game.ErrPlayerNotFound
	}
	delete(s.players, id)
	return nil
}

func (s *Store) StartRound(_ context.Context, st *game.GameState, orders map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.Version != s.state.Version {
		return game.ErrStaleState
	}
	for id, p := range s.players {
		p.Order = orders[id]
		p.IsReady = false
		p.Score = 0
		s.players[id] = p
	}
	return s.saveLocked(st)
}

func (s *Store) CommitDraw(_ context.Context, st *game.GameState, scores map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.Version != s.state.Version {
		return game.ErrStaleState
	}
	for id, score := range scores {
		if p, ok := s.players[id]; ok {
			p.Score = score
			s.players[id] = p
		}
	}
	return s.saveLocked(st)
}

func (s *Store) ResetRound(_ context.Context, st *game.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.players {
		p.Order = 0
		p.IsReady = false
		p.Score = 0
		p.Board = bingo.Board{}
		s.players[id] = p
	}
	st.Version = s.state.Version + 1
	s.state = st.Clone()
	return nil
}

func (s *Store) AppendChat(_ context.Context, msg game.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = append(s.chat, msg)
	return nil
}

func (s *Store) ListChat(_ context.Context, limit int) ([]game.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := 0
	if limit > 0 && len(s.chat) > limit {
		start = len(s.chat) - limit
	}
	return append([]game.ChatMessage{}, s.chat[start:]...), nil
}

func (s *Store) TouchLastSeen(_ context.Context, ids []string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		p, ok := s.players[id]
		if !ok {
			continue
		}
		if p.LastSeen == nil || at.After(*p.LastSeen) {
			t := at
			p.LastSeen = &t
		}
		s.players[id] = p
	}
	return nil
}

func (s *Store) GetOnlineSnapshot(_ context.Context) (*presence.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return nil, nil
	}
	out := *s.snapshot
	out.PlayerIDs = append([]string{}, s.snapshot.PlayerIDs...)
	return &out, nil
}

func (s *Store) SaveOnlineSnapshot(_ context.Context, snap presence.Snapshot) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot != nil && !snap.ClientTS.After(s.snapshot.ClientTS) {
		return false, nil
	}
	snap.PlayerIDs = append([]string{}, snap.PlayerIDs...)
	s.snapshot = &snap
	return true, nil
}

func (s *Store) AppendEvent(_ context.Context, e journal.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *Store) ListEvents(_ context.Context, limit int) ([]journal.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]journal.Entry, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

var (
	_ game.Store             = (*Store)(nil)
	_ presence.LivenessStore = (*Store)(nil)
	_ presence.SnapshotStore = (*Store)(nil)
	_ journal.Store          = (*Store)(nil)
)
