package coordinator

import (
	"context"
	"time"

	"genshin-bingo/internal/broadcast"
	"genshin-bingo/internal/game"
	"genshin-bingo/internal/journal"

	"github.com/rs/zerolog/log"
)

func (c *Coordinator) RequestStart(ctx context.Context, requesterID string) (*game.GameState, error) {
	st, err := c.eng.RequestStart(ctx, requesterID)
	if err != nil {
		noteStale(err)
		return nil, err
	}
	c.record(c.journal.StartRequested(ctx, requesterID), journal.KindStartRequested)
	c.stateChanged(ctx, "start_requested", st)
	return st, nil
}

// Agree records the player's agreement. Once everyone eligible agreed the
// start is scheduled after the countdown.
func (c *Coordinator) Agree(ctx context.Context, playerID string) (bool, *game.GameState, error) {
	all, st, err := c.eng.Agree(ctx, playerID)
	if err != nil {
		noteStale(err)
		return false, nil, err
	}
	if !all {
		c.stateChanged(ctx, "start_agreed", st)
		return false, st, nil
	}
	if c.countdown <= 0 {
		c.startAgreed(ctx)
		return true, st, nil
	}
	startsAt := c.scheduleStart()
	ev := StateChanged{
		Reason:       "countdown",
		Phase:        string(st.Phase),
		Version:      st.Version,
		CurrentOrder: st.CurrentOrder,
	}
	if !startsAt.IsZero() {
		ev.StartsAt = startsAt.UnixMilli()
	}
	c.bridge.Publish(ctx, broadcast.EventStateChanged, ev)
	return true, st, nil
}

// scheduleStart arms the countdown timer unless one is already running.
func (c *Coordinator) scheduleStart() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.timer != nil {
		return time.Time{}
	}
	c.timer = time.AfterFunc(c.countdown, func() {
		c.mu.Lock()
		c.timer = nil
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
		c.startAgreed(c.ctx)
	})
	return time.Now().Add(c.countdown)
}

func (c *Coordinator) stopCountdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// requestRevalidated follows up on an engine call that re-checked the start
// vote as a side effect. A cancelled vote must not leave its timer armed.
func (c *Coordinator) requestRevalidated(ctx context.Context, v game.Validation) {
	if !v.Cancelled {
		return
	}
	c.stopCountdown()
	c.record(c.journal.StartCancelled(ctx, v.Reason), journal.KindStartCancelled)
	log.Info().Str("reason", v.Reason).Msg("start vote cancelled")
}

// CountdownPending reports whether an agreed start is waiting to fire.
func (c *Coordinator) CountdownPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

func (c *Coordinator) startAgreed(ctx context.Context) {
	snap, err := c.eng.Snapshot(ctx)
	by := ""
	if err == nil {
		by = snap.State.StartRequestedBy
	}
	st, err := c.eng.StartAgreed(ctx)
	if err != nil {
		noteStale(err)
		log.Info().Err(err).Msg("agreed start abandoned")
		c.stateChanged(ctx, "start_abandoned", nil)
		return
	}
	c.started(ctx, st, by, false)
}

func (c *Coordinator) CancelStart(ctx context.Context) (*game.GameState, error) {
	st, cancelled, err := c.eng.CancelStart(ctx)
	if err != nil {
		noteStale(err)
		return nil, err
	}
	c.stopCountdown()
	if cancelled {
		c.record(c.journal.StartCancelled(ctx, game.CancelByRequest), journal.KindStartCancelled)
		c.stateChanged(ctx, "start_cancelled", st)
	}
	return st, nil
}
