package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"genshin-bingo/internal/broadcast"
	"genshin-bingo/internal/game"
	"genshin-bingo/internal/journal"
	"genshin-bingo/internal/presence"

	"github.com/rs/zerolog/log"
)

const defaultCountdown = 3 * time.Second

// StateChanged is the payload of every state_changed event. Clients refetch
// the full state on receipt.
type StateChanged struct {
	Reason       string `json:"reason"`
	Phase        string `json:"phase"`
	Version      int64  `json:"version"`
	CurrentOrder int    `json:"current_order"`
	WinnerID     string `json:"winner_id,omitempty"`
	LastDrawn    string `json:"last_drawn,omitempty"`
	StartsAt     int64  `json:"starts_at,omitempty"`
}

type Options struct {
	// Countdown between unanimous agreement and the start. Zero means the
	// default; negative starts immediately.
	Countdown time.Duration
	Leader    presence.Leader
}

// Coordinator runs engine operations and tells everyone about the result:
// it journals transitions, publishes events and owns the timers.
type Coordinator struct {
	eng     *game.Engine
	journal *journal.Journal
	bridge  *broadcast.Bridge
	tracker *presence.Tracker
	leader  presence.Leader

	countdown time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

func New(eng *game.Engine, j *journal.Journal, bridge *broadcast.Bridge, tracker *presence.Tracker, opts Options) *Coordinator {
	if opts.Countdown == 0 {
		opts.Countdown = defaultCountdown
	}
	if opts.Leader == nil {
		opts.Leader = presence.LocalLeader{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		eng:       eng,
		journal:   j,
		bridge:    bridge,
		tracker:   tracker,
		leader:    opts.Leader,
		countdown: opts.Countdown,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (c *Coordinator) Engine() *game.Engine { return c.eng }

func (c *Coordinator) Tracker() *presence.Tracker { return c.tracker }

func (c *Coordinator) Bridge() *broadcast.Bridge { return c.bridge }

func (c *Coordinator) History(ctx context.Context, limit int) ([]journal.Entry, error) {
	return c.journal.History(ctx, limit)
}

// Publish sends an arbitrary event on the game stream.
func (c *Coordinator) Publish(ctx context.Context, event string, data any) broadcast.Event {
	return c.bridge.Publish(ctx, event, data)
}

func (c *Coordinator) stateChanged(ctx context.Context, reason string, st *game.GameState) {
	ev := StateChanged{Reason: reason}
	if st != nil {
		ev.Phase = string(st.Phase)
		ev.Version = st.Version
		ev.CurrentOrder = st.CurrentOrder
		ev.WinnerID = st.WinnerID
	}
	c.bridge.Publish(ctx, broadcast.EventStateChanged, ev)
}

func (c *Coordinator) record(err error, kind journal.Kind) {
	if err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Msg("journal append failed")
	}
}

func noteStale(err error) {
	if errors.Is(err, game.ErrStaleState) {
		metricStaleWritesTotal.Add(1)
	}
}

func (c *Coordinator) Register(ctx context.Context, name string, isAdmin bool) (*game.Player, error) {
	p, err := c.eng.Register(ctx, name, isAdmin)
	if err != nil {
		return nil, err
	}
	c.stateChanged(ctx, "player_joined", nil)
	return p, nil
}

func (c *Coordinator) DeletePlayer(ctx context.Context, actorID, targetID string) error {
	v, err := c.eng.DeletePlayer(ctx, actorID, targetID)
	if err != nil {
		noteStale(err)
		return err
	}
	c.requestRevalidated(ctx, v)
	if err := c.tracker.Forget(ctx, targetID); err != nil {
		log.Warn().Err(err).Str("player_id", targetID).Msg("presence forget failed")
	}
	c.stateChanged(ctx, "player_removed", nil)
	return nil
}

func (c *Coordinator) SetSlot(ctx context.Context, playerID string, slot int, item string) (*game.Player, error) {
	p, v, err := c.eng.SetSlot(ctx, playerID, slot, item)
	if err != nil {
		return nil, err
	}
	c.requestRevalidated(ctx, v)
	c.stateChanged(ctx, "board", nil)
	return p, nil
}

func (c *Coordinator) RandomFill(ctx context.Context, playerID string) (*game.Player, error) {
	p, v, err := c.eng.RandomFill(ctx, playerID)
	if err != nil {
		return nil, err
	}
	c.requestRevalidated(ctx, v)
	c.stateChanged(ctx, "board", nil)
	return p, nil
}

func (c *Coordinator) ClearBoard(ctx context.Context, playerID string) (*game.Player, error) {
	p, v, err := c.eng.ClearBoard(ctx, playerID)
	if err != nil {
		return nil, err
	}
	c.requestRevalidated(ctx, v)
	c.stateChanged(ctx, "board", nil)
	return p, nil
}

func (c *Coordinator) ToggleReady(ctx context.Context, playerID string) (bool, error) {
	ready, v, err := c.eng.ToggleReady(ctx, playerID)
	if err != nil {
		return false, err
	}
	c.requestRevalidated(ctx, v)
	c.stateChanged(ctx, "ready", nil)
	return ready, nil
}

func (c *Coordinator) Start(ctx context.Context, opts game.StartOptions) (*game.GameState, error) {
	st, err := c.eng.Start(ctx, opts)
	if err != nil {
		noteStale(err)
		return nil, err
	}
	c.stopCountdown()
	c.started(ctx, st, opts.ActorID, opts.Force)
	return st, nil
}

func (c *Coordinator) started(ctx context.Context, st *game.GameState, by string, force bool) {
	metricStartsTotal.Add(1)
	c.record(c.journal.Started(ctx, *st, by, force), journal.KindStarted)
	c.stateChanged(ctx, "started", st)
}

func (c *Coordinator) Draw(ctx context.Context, req game.DrawRequest) (*game.DrawResult, error) {
	res, err := c.eng.Draw(ctx, req)
	if err != nil {
		noteStale(err)
		return nil, err
	}
	metricDrawsTotal.Add(1)
	c.record(c.journal.Drawn(ctx, *res), journal.KindDrawn)
	reason := "drawn"
	if res.Finished {
		reason = "finished"
	}
	ev := StateChanged{
		Reason:       reason,
		Phase:        string(res.State.Phase),
		Version:      res.State.Version,
		CurrentOrder: res.State.CurrentOrder,
		WinnerID:     res.WinnerID,
		LastDrawn:    res.Name,
	}
	c.bridge.Publish(ctx, broadcast.EventStateChanged, ev)
	return res, nil
}

func (c *Coordinator) AdvanceTurn(ctx context.Context) (*game.GameState, error) {
	st, err := c.eng.AdvanceTurn(ctx)
	if err != nil {
		noteStale(err)
		return nil, err
	}
	c.turnAdvanced(ctx, st, "skipped")
	return st, nil
}

func (c *Coordinator) turnAdvanced(ctx context.Context, st *game.GameState, reason string) {
	c.record(c.journal.TurnAdvanced(ctx, *st, reason), journal.KindTurnAdvanced)
	if st.IsFinished() {
		c.record(c.journal.Finished(ctx, *st), journal.KindFinished)
	}
	c.stateChanged(ctx, "turn_"+reason, st)
}

func (c *Coordinator) Reset(ctx context.Context, by string) (*game.GameState, error) {
	st, err := c.eng.Reset(ctx)
	if err != nil {
		return nil, err
	}
	c.stopCountdown()
	metricResetsTotal.Add(1)
	c.record(c.journal.Reset(ctx, by), journal.KindReset)
	c.stateChanged(ctx, "reset", st)
	return st, nil
}

func (c *Coordinator) PostChat(ctx context.Context, playerID, body string, boast bool) (*game.ChatMessage, error) {
	msg, err := c.eng.PostChat(ctx, playerID, body, boast)
	if err != nil {
		return nil, err
	}
	c.bridge.Publish(ctx, broadcast.EventChatMessage, msg)
	return msg, nil
}

// Heartbeat marks players as alive.
func (c *Coordinator) Heartbeat(ctx context.Context, ids ...string) error {
	if err := c.tracker.Heartbeat(ctx, ids...); err != nil {
		return &game.StoreError{Op: "heartbeat", Err: err}
	}
	return nil
}

// Close stops the countdown and anything else scheduled by the coordinator.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.cancel()
}
