package presence

import (
	"context"
	"time"

	"genshin-bingo/internal/game"

	"github.com/rs/zerolog/log"
)

// LivenessStore is the durable last-seen record.
type LivenessStore interface {
	TouchLastSeen(ctx context.Context, ids []string, at time.Time) error
}

// HintStore is a fast, expiring "connected right now" marker. It may be lost
// at any time and is never the only evidence a player is online.
type HintStore interface {
	Mark(ctx context.Context, playerID string, ttl time.Duration) error
	Clear(ctx context.Context, playerID string) error
	Present(ctx context.Context, ids []string) (map[string]bool, error)
}

// Tracker derives online status from last_seen freshness, falling back to
// hints for players whose durable record looks stale.
type Tracker struct {
	liveness LivenessStore
	hints    HintStore
	grace    time.Duration
	now      func() time.Time
}

func NewTracker(liveness LivenessStore, hints HintStore, grace time.Duration) *Tracker {
	if hints == nil {
		hints = NewLocalHints()
	}
	if grace <= 0 {
		grace = 45 * time.Second
	}
	return &Tracker{liveness: liveness, hints: hints, grace: grace, now: time.Now}
}

func (t *Tracker) Grace() time.Duration { return t.grace }

// Heartbeat refreshes the durable record first, then the hint.
func (t *Tracker) Heartbeat(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := t.liveness.TouchLastSeen(ctx, ids, t.now().UTC()); err != nil {
		return err
	}
	for _, id := range ids {
		if err := t.hints.Mark(ctx, id, t.grace); err != nil {
			log.Warn().Err(err).Str("player_id", id).Msg("presence hint write failed")
		}
	}
	return nil
}

// Forget drops the hint for a player who disconnected cleanly.
func (t *Tracker) Forget(ctx context.Context, id string) error {
	return t.hints.Clear(ctx, id)
}

func (t *Tracker) fresh(p game.Player) bool {
	return p.LastSeen != nil && t.now().Sub(*p.LastSeen) <= t.grace
}

func (t *Tracker) OnlineSet(ctx context.Context, players []game.Player) (map[string]bool, error) {
	out := make(map[string]bool, len(players))
	var stale []string
	for _, p := range players {
		if t.fresh(p) {
			out[p.ID] = true
			continue
		}
		stale = append(stale, p.ID)
	}
	if len(stale) == 0 {
		return out, nil
	}
	present, err := t.hints.Present(ctx, stale)
	if err != nil {
		// durable answer stands on its own
		log.Warn().Err(err).Msg("presence hint read failed")
		return out, nil
	}
	for _, id := range stale {
		if present[id] {
			out[id] = true
		}
	}
	return out, nil
}
