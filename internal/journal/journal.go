package journal

import (
	"context"
	"time"

	"genshin-bingo/internal/game"
	"genshin-bingo/internal/ids"
)

type Kind string

const (
	KindStarted        Kind = "started"
	KindDrawn          Kind = "drawn"
	KindFinished       Kind = "finished"
	KindTurnAdvanced   Kind = "turn_advanced"
	KindDropped        Kind = "dropped"
	KindReset          Kind = "reset"
	KindAlone          Kind = "alone_terminated"
	KindStartRequested Kind = "start_requested"
	KindStartCancelled Kind = "start_cancelled"
)

// Entry is one row of the append-only game history.
type Entry struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	PlayerID  string         `json:"player_id,omitempty"`
	Detail    map[string]any `json:"detail"`
	CreatedAt time.Time      `json:"created_at"`
}

type Store interface {
	AppendEvent(ctx context.Context, e Entry) error
	ListEvents(ctx context.Context, limit int) ([]Entry, error)
}

type Journal struct {
	Store Store
	now   func() time.Time
}

func New(s Store) *Journal {
	return &Journal{Store: s, now: time.Now}
}

func (j *Journal) append(ctx context.Context, kind Kind, playerID string, detail map[string]any) error {
	if detail == nil {
		detail = map[string]any{}
	}
	return j.Store.AppendEvent(ctx, Entry{
		ID:        ids.New(),
		Kind:      kind,
		PlayerID:  playerID,
		Detail:    detail,
		CreatedAt: j.now().UTC(),
	})
}

func (j *Journal) Started(ctx context.Context, st game.GameState, by string, force bool) error {
	return j.append(ctx, KindStarted, by, map[string]any{
		"participants":  st.Participants,
		"current_order": st.CurrentOrder,
		"force":         force,
	})
}

// Drawn records the draw and, when it ended the round, the finish.
func (j *Journal) Drawn(ctx context.Context, res game.DrawResult) error {
	if err := j.append(ctx, KindDrawn, res.DrawerID, map[string]any{
		"name":  res.Name,
		"count": len(res.State.DrawnNames),
	}); err != nil {
		return err
	}
	if !res.Finished {
		return nil
	}
	return j.Finished(ctx, res.State)
}

func (j *Journal) Finished(ctx context.Context, st game.GameState) error {
	return j.append(ctx, KindFinished, st.WinnerID, map[string]any{
		"drawn": len(st.DrawnNames),
	})
}

func (j *Journal) TurnAdvanced(ctx context.Context, st game.GameState, reason string) error {
	return j.append(ctx, KindTurnAdvanced, "", map[string]any{
		"current_order": st.CurrentOrder,
		"reason":        reason,
	})
}

func (j *Journal) Swept(ctx context.Context, res game.SweepResult) error {
	for _, id := range res.Dropped {
		if err := j.append(ctx, KindDropped, id, nil); err != nil {
			return err
		}
	}
	if res.Terminated {
		return j.append(ctx, KindAlone, "", nil)
	}
	return nil
}

func (j *Journal) Reset(ctx context.Context, by string) error {
	return j.append(ctx, KindReset, by, nil)
}

func (j *Journal) StartRequested(ctx context.Context, by string) error {
	return j.append(ctx, KindStartRequested, by, nil)
}

func (j *Journal) StartCancelled(ctx context.Context, reason string) error {
	return j.append(ctx, KindStartCancelled, "", map[string]any{"reason": reason})
}

func (j *Journal) History(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return j.Store.ListEvents(ctx, limit)
}
