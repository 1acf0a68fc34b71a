package game

import (
	"context"
	"strings"
	"unicode/utf8"

	"genshin-bingo/internal/bingo"

	"github.com/rs/zerolog/log"
)

type Standing struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Rank     int    `json:"rank"`
	Score    int    `json:"score"`
	Filled   int    `json:"filled"`
	Full     bool   `json:"full"`
	Order    int    `json:"order"`
	Online   bool   `json:"online"`
}

// Standings ranks the round's players; before a start it ranks everyone.
func (e *Engine) Standings(ctx context.Context) ([]Standing, error) {
	st, err := e.state(ctx)
	if err != nil {
		return nil, err
	}
	players, err := e.players(ctx)
	if err != nil {
		return nil, err
	}
	return rankPlayers(st, players, e.onlineSet(ctx, players)), nil
}

func rankPlayers(st *GameState, players []Player, online map[string]bool) []Standing {
	ranked := players
	if st.IsStarted() {
		ranked = make([]Player, 0, len(players))
		for _, p := range players {
			if p.Active() || p.ID == st.WinnerID {
				ranked = append(ranked, p)
			}
		}
	}
	keys := make([]bingo.RankKey, len(ranked))
	for i, p := range ranked {
		keys[i] = bingo.KeyFor(p.Board, st.DrawnNames)
	}
	idx := bingo.SortByRank(keys)
	sorted := make([]bingo.RankKey, len(idx))
	for i, j := range idx {
		sorted[i] = keys[j]
	}
	ranks := bingo.Ranks(sorted)

	out := make([]Standing, len(idx))
	for i, j := range idx {
		p := ranked[j]
		out[i] = Standing{
			PlayerID: p.ID,
			Name:     p.Name,
			Rank:     ranks[i],
			Score:    sorted[i].Score,
			Filled:   p.Board.Filled(),
			Full:     sorted[i].Full,
			Order:    p.Order,
			Online:   online[p.ID],
		}
	}
	return out
}

// PostChat appends a message. A boast is only open to the top three of a
// started round and carries the rank held when it was posted.
func (e *Engine) PostChat(ctx context.Context, playerID, body string, boast bool) (*ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" || utf8.RuneCountInString(body) > maxMessageLen {
		return nil, ErrInvalidMessage
	}
	p, err := e.player(ctx, playerID)
	if err != nil {
		return nil, err
	}
	msg := ChatMessage{
		ID:         e.newID(),
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Body:       body,
		Kind:       ChatKindMessage,
		CreatedAt:  e.now().UTC(),
	}
	if boast {
		st, err := e.state(ctx)
		if err != nil {
			return nil, err
		}
		if !st.IsStarted() {
			return nil, ErrGameNotStarted
		}
		players, err := e.players(ctx)
		if err != nil {
			return nil, err
		}
		rank := 0
		for _, s := range rankPlayers(st, players, nil) {
			if s.PlayerID == p.ID {
				rank = s.Rank
				break
			}
		}
		if rank == 0 || rank > boastMaxRank {
			return nil, ErrNotTopRanked
		}
		msg.Kind = ChatKindBoast
		msg.Rank = rank
	}
	if err := e.store.AppendChat(ctx, msg); err != nil {
		return nil, storeErr("append_chat", err)
	}
	log.Debug().Str("player_id", p.ID).Str("kind", string(msg.Kind)).Msg("chat posted")
	return &msg, nil
}

// Chat returns the most recent messages, oldest first.
func (e *Engine) Chat(ctx context.Context, limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	msgs, err := e.store.ListChat(ctx, limit)
	if err != nil {
		return nil, storeErr("list_chat", err)
	}
	return msgs, nil
}

// Snapshot is the public view of the whole game.
type Snapshot struct {
	State     GameState    `json:"state"`
	Players   []PlayerView `json:"players"`
	Remaining int          `json:"remaining"`
	AllAgreed bool         `json:"all_agreed"`
}

type PlayerView struct {
	Player
	Filled int  `json:"filled"`
	Online bool `json:"online"`
}

func (e *Engine) Snapshot(ctx context.Context) (*Snapshot, error) {
	st, err := e.state(ctx)
	if err != nil {
		return nil, err
	}
	players, err := e.players(ctx)
	if err != nil {
		return nil, err
	}
	online := e.onlineSet(ctx, players)
	views := make([]PlayerView, len(players))
	for i, p := range players {
		views[i] = PlayerView{Player: p, Filled: p.Board.Filled(), Online: online[p.ID]}
	}
	snap := &Snapshot{
		State:     *st,
		Players:   views,
		Remaining: len(bingo.Remaining(e.pool, st.DrawnNames)),
	}
	if st.HasPendingRequest() {
		snap.AllAgreed = allAgreed(players, st.StartAgreedUsers)
	}
	return snap, nil
}
