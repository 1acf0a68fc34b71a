package game

import "context"

// Store is the durable state the engine reads and writes.
//
// SaveGameState, StartRound and CommitDraw are conditional on st.Version and
// return ErrStaleState when another writer got there first; on success they
// bump st.Version. ResetRound is unconditional.
type Store interface {
	GetGameState(ctx context.Context) (*GameState, error)
	SaveGameState(ctx context.Context, st *GameState) error

	ListPlayers(ctx context.Context) ([]Player, error)
	GetPlayer(ctx context.Context, id string) (*Player, error)
	CreatePlayer(ctx context.Context, p Player) error
	UpdatePlayer(ctx context.Context, id string, patch PlayerPatch) error
	DeletePlayer(ctx context.Context, id string) error

	// StartRound assigns orders (everyone else gets 0), clears ready flags
	// and scores, and saves st in one transaction.
	StartRound(ctx context.Context, st *GameState, orders map[string]int) error
	// CommitDraw persists changed scores and st in one transaction.
	CommitDraw(ctx context.Context, st *GameState, scores map[string]int) error
	// ResetRound neutralises every player and overwrites the state.
	ResetRound(ctx context.Context, st *GameState) error

	AppendChat(ctx context.Context, msg ChatMessage) error
	ListChat(ctx context.Context, limit int) ([]ChatMessage, error)
}

// OnlineChecker resolves which players currently count as online.
type OnlineChecker interface {
	OnlineSet(ctx context.Context, players []Player) (map[string]bool, error)
}

type everyoneOnline struct{}

func (everyoneOnline) OnlineSet(_ context.Context, players []Player) (map[string]bool, error) {
	out := make(map[string]bool, len(players))
	for _, p := range players {
		out[p.ID] = true
	}
	return out, nil
}
