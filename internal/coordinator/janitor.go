package coordinator

import (
	"context"
	"time"

	"genshin-bingo/internal/game"
	"genshin-bingo/internal/journal"

	"github.com/rs/zerolog/log"
)

// Report is what one reconciliation pass changed.
type Report struct {
	Sweep      game.SweepResult `json:"sweep"`
	TimedOut   bool             `json:"timed_out"`
	Validation game.Validation  `json:"validation"`
}

func (r Report) Changed() bool {
	return r.Sweep.Changed() || r.TimedOut || r.Validation.Changed()
}

// Reconcile drops offline players, enforces the turn timeout and revalidates
// a pending start vote, in that order.
func (c *Coordinator) Reconcile(ctx context.Context) (Report, error) {
	metricReconcileTotal.Add(1)
	var rep Report

	sweep, err := c.eng.SweepOffline(ctx)
	if err != nil {
		return c.reconcileFailed(rep, err)
	}
	rep.Sweep = sweep
	if sweep.Changed() {
		c.record(c.journal.Swept(ctx, sweep), journal.KindDropped)
		if sweep.Finished {
			snap, err := c.eng.Snapshot(ctx)
			if err == nil {
				c.record(c.journal.Finished(ctx, snap.State), journal.KindFinished)
			}
		}
		if sweep.Terminated {
			c.stopCountdown()
		}
		c.stateChanged(ctx, "swept", nil)
	}

	timedOut, err := c.eng.CheckTurnTimeout(ctx)
	if err != nil {
		return c.reconcileFailed(rep, err)
	}
	rep.TimedOut = timedOut
	if timedOut {
		snap, err := c.eng.Snapshot(ctx)
		if err == nil {
			c.turnAdvanced(ctx, &snap.State, "timeout")
		}
	}

	v, err := c.eng.ValidateStartRequest(ctx)
	if err != nil {
		return c.reconcileFailed(rep, err)
	}
	rep.Validation = v
	c.requestRevalidated(ctx, v)
	if v.Changed() {
		c.stateChanged(ctx, "start_validated", nil)
	}
	return rep, nil
}

func (c *Coordinator) reconcileFailed(rep Report, err error) (Report, error) {
	noteStale(err)
	metricReconcileErrors.Add(1)
	return rep, err
}

// StartJanitor runs Reconcile every interval on whichever replica holds the
// leader lease.
func (c *Coordinator) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		defer func() {
			if err := c.leader.Release(context.Background()); err != nil {
				log.Warn().Err(err).Msg("leader release failed")
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.tick(ctx)
			}
		}
	}()
}

func (c *Coordinator) tick(ctx context.Context) {
	ok, err := c.leader.Acquire(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("leader lease check failed")
		return
	}
	if !ok {
		return
	}
	rep, err := c.Reconcile(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("reconcile failed")
		return
	}
	if rep.Changed() {
		log.Info().
			Strs("dropped", rep.Sweep.Dropped).
			Bool("terminated", rep.Sweep.Terminated).
			Bool("timed_out", rep.TimedOut).
			Str("reason", rep.Validation.Reason).
			Msg("reconcile applied changes")
	}
}
