package game

import (
	"context"
	"strings"

	"genshin-bingo/internal/bingo"

	"github.com/rs/zerolog/log"
)

// editable loads a player whose board may still change.
func (e *Engine) editable(ctx context.Context, playerID string) (*Player, error) {
	st, err := e.state(ctx)
	if err != nil {
		return nil, err
	}
	if st.IsStarted() {
		return nil, ErrBoardLocked
	}
	return e.player(ctx, playerID)
}

// SetSlot fills one slot, or clears it when item is empty. Clearing a slot
// of a ready player revalidates the pending start vote; the returned
// Validation says what that did.
func (e *Engine) SetSlot(ctx context.Context, playerID string, slot int, item string) (*Player, Validation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.editable(ctx, playerID)
	if err != nil {
		return nil, Validation{}, err
	}
	if slot < 0 || slot >= bingo.Size {
		return nil, Validation{}, ErrInvalidSlot
	}
	item = strings.TrimSpace(item)
	board := p.Board.Normalize()
	if item != "" {
		if _, ok := e.inPool[item]; !ok {
			return nil, Validation{}, ErrUnknownItem
		}
		if at := board.IndexOf(item); at >= 0 && at != slot {
			return nil, Validation{}, ErrDuplicateItem
		}
	}
	board[slot] = item
	return e.saveBoardLocked(ctx, p, board)
}

// RandomFill fills the empty slots with unused items from the pool.
func (e *Engine) RandomFill(ctx context.Context, playerID string) (*Player, Validation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.editable(ctx, playerID)
	if err != nil {
		return nil, Validation{}, err
	}
	return e.saveBoardLocked(ctx, p, bingo.Fill(p.Board, e.pool, e.rnd))
}

func (e *Engine) ClearBoard(ctx context.Context, playerID string) (*Player, Validation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.editable(ctx, playerID)
	if err != nil {
		return nil, Validation{}, err
	}
	return e.saveBoardLocked(ctx, p, bingo.Board{})
}

// saveBoardLocked persists board right away and drops the ready flag of an
// incomplete board.
func (e *Engine) saveBoardLocked(ctx context.Context, p *Player, board bingo.Board) (*Player, Validation, error) {
	wasReady := p.IsReady
	ready := p.IsReady && board.Complete()
	if err := e.store.UpdatePlayer(ctx, p.ID, PlayerPatch{Board: &board, IsReady: &ready}); err != nil {
		return nil, Validation{}, storeErr("update_player", err)
	}
	p.Board = board
	p.IsReady = ready
	var v Validation
	if wasReady && !ready {
		log.Debug().Str("player_id", p.ID).Int("filled", board.Filled()).Msg("board incomplete, ready cleared")
		var err error
		if v, err = e.validateRequestLocked(ctx); err != nil {
			return nil, v, err
		}
	}
	return p, v, nil
}

// ToggleReady flips the ready flag and returns the new value. Readying needs
// a complete board; un-readying leaves any pending start vote at once and
// the returned Validation reports whether that cancelled it.
func (e *Engine) ToggleReady(ctx context.Context, playerID string) (bool, Validation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var v Validation
	st, err := e.state(ctx)
	if err != nil {
		return false, v, err
	}
	if st.IsStarted() {
		return false, v, ErrGameAlreadyStarted
	}
	p, err := e.player(ctx, playerID)
	if err != nil {
		return false, v, err
	}
	ready := !p.IsReady
	if ready && !p.Board.Complete() {
		return false, v, ErrBoardIncomplete
	}
	if err := e.store.UpdatePlayer(ctx, p.ID, PlayerPatch{IsReady: &ready}); err != nil {
		return false, v, storeErr("update_player", err)
	}
	log.Info().Str("player_id", p.ID).Bool("ready", ready).Msg("ready toggled")
	if !ready {
		if v, err = e.validateRequestLocked(ctx); err != nil {
			return false, v, err
		}
	}
	return ready, v, nil
}
