package game

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"genshin-bingo/internal/bingo"
	"genshin-bingo/internal/ids"

	"github.com/rs/zerolog/log"
)

const (
	maxNameLen    = 32
	maxMessageLen = 300
	boastMaxRank  = 3
)

// Rules are the tunable limits of a round.
type Rules struct {
	MinPlayers          int
	TurnTimeout         time.Duration
	StartRequestTimeout time.Duration
}

func DefaultRules() Rules {
	return Rules{
		MinPlayers:          2,
		TurnTimeout:         60 * time.Second,
		StartRequestTimeout: 60 * time.Second,
	}
}

// Engine owns every state-mutating rule of the game. Mutations are
// serialised per process; the store's version check covers replicas.
type Engine struct {
	store  Store
	online OnlineChecker
	pool   []string
	inPool map[string]struct{}
	rules  Rules
	now    func() time.Time
	newID  func() string

	mu  sync.Mutex
	rnd *rand.Rand
}

type Option func(*Engine)

func WithOnlineChecker(oc OnlineChecker) Option {
	return func(e *Engine) {
		if oc != nil {
			e.online = oc
		}
	}
}

func WithPool(pool []string) Option {
	return func(e *Engine) {
		if len(pool) >= bingo.Size {
			e.pool = append([]string{}, pool...)
		}
	}
}

func WithRules(r Rules) Option {
	return func(e *Engine) {
		if r.MinPlayers > 0 {
			e.rules.MinPlayers = r.MinPlayers
		}
		if r.TurnTimeout > 0 {
			e.rules.TurnTimeout = r.TurnTimeout
		}
		if r.StartRequestTimeout > 0 {
			e.rules.StartRequestTimeout = r.StartRequestTimeout
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rnd = rand.New(rand.NewSource(seed)) }
}

func NewEngine(st Store, opts ...Option) *Engine {
	e := &Engine{
		store:  st,
		online: everyoneOnline{},
		pool:   bingo.DefaultPool,
		rules:  DefaultRules(),
		now:    time.Now,
		newID:  ids.New,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.inPool = make(map[string]struct{}, len(e.pool))
	for _, name := range e.pool {
		e.inPool[name] = struct{}{}
	}
	return e
}

func (e *Engine) Rules() Rules { return e.rules }

func (e *Engine) Pool() []string { return append([]string{}, e.pool...) }

func (e *Engine) state(ctx context.Context) (*GameState, error) {
	st, err := e.store.GetGameState(ctx)
	if err != nil {
		return nil, storeErr("get_game_state", err)
	}
	if st == nil {
		neutral := NeutralState()
		return &neutral, nil
	}
	if st.DrawnNames == nil {
		st.DrawnNames = []string{}
	}
	return st, nil
}

func (e *Engine) players(ctx context.Context) ([]Player, error) {
	players, err := e.store.ListPlayers(ctx)
	if err != nil {
		return nil, storeErr("list_players", err)
	}
	return players, nil
}

func (e *Engine) player(ctx context.Context, id string) (*Player, error) {
	if id == "" {
		return nil, ErrPlayerNotFound
	}
	p, err := e.store.GetPlayer(ctx, id)
	if err != nil {
		return nil, storeErr("get_player", err)
	}
	return p, nil
}

func (e *Engine) onlineSet(ctx context.Context, players []Player) map[string]bool {
	set, err := e.online.OnlineSet(ctx, players)
	if err != nil {
		// Treat everyone as online rather than dropping a whole round on a hint outage.
		log.Warn().Err(err).Msg("online set lookup failed")
		set, _ = everyoneOnline{}.OnlineSet(ctx, players)
	}
	return set
}

func (e *Engine) save(ctx context.Context, st *GameState) error {
	st.UpdatedAt = e.now().UTC()
	return storeErr("save_game_state", e.store.SaveGameState(ctx, st))
}

// Register creates a player with an empty board outside the rotation.
func (e *Engine) Register(ctx context.Context, name string, isAdmin bool) (*Player, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return nil, ErrInvalidName
	}
	p := Player{
		ID:        e.newID(),
		Name:      name,
		IsAdmin:   isAdmin,
		Board:     bingo.Board{},
		CreatedAt: e.now().UTC(),
	}
	if err := e.store.CreatePlayer(ctx, p); err != nil {
		return nil, storeErr("create_player", err)
	}
	log.Info().Str("player_id", p.ID).Str("name", p.Name).Bool("admin", isAdmin).Msg("player registered")
	return &p, nil
}

func (e *Engine) Player(ctx context.Context, id string) (*Player, error) {
	return e.player(ctx, id)
}

func (e *Engine) Players(ctx context.Context) ([]Player, error) {
	return e.players(ctx)
}

// DeletePlayer removes a player. Only admins may do it. A deleted turn
// holder hands the turn on; a deleted agreer leaves the start vote.
func (e *Engine) DeletePlayer(ctx context.Context, actorID, targetID string) (Validation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var v Validation
	actor, err := e.player(ctx, actorID)
	if err != nil {
		return v, err
	}
	if !actor.IsAdmin {
		return v, ErrForbidden
	}
	target, err := e.player(ctx, targetID)
	if err != nil {
		return v, err
	}
	if err := e.store.DeletePlayer(ctx, target.ID); err != nil {
		return v, storeErr("delete_player", err)
	}
	log.Info().Str("player_id", target.ID).Str("by", actor.ID).Msg("player deleted")

	st, err := e.state(ctx)
	if err != nil {
		return v, err
	}
	switch {
	case st.InProgress() && target.Active() && target.Order == st.CurrentOrder:
		players, err := e.players(ctx)
		if err != nil {
			return v, err
		}
		_, err = e.advanceLocked(ctx, st, players)
		return v, err
	case st.HasPendingRequest():
		return e.validateRequestLocked(ctx)
	}
	return v, nil
}

// Start moves Idle or Pending to Started.
type StartOptions struct {
	ActorID string
	Force   bool
}

func (e *Engine) Start(ctx context.Context, opts StartOptions) (*GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startLocked(ctx, opts)
}

func (e *Engine) startLocked(ctx context.Context, opts StartOptions) (*GameState, error) {
	if opts.Force {
		actor, err := e.player(ctx, opts.ActorID)
		if err != nil {
			return nil, err
		}
		if !actor.IsAdmin {
			return nil, ErrForbidden
		}
	}
	st, err := e.state(ctx)
	if err != nil {
		return nil, err
	}
	if st.IsStarted() {
		return nil, ErrGameAlreadyStarted
	}
	players, err := e.players(ctx)
	if err != nil {
		return nil, err
	}
	eligible := eligiblePlayers(players)
	need := e.rules.MinPlayers
	if opts.Force {
		need = 1
	}
	if len(eligible) < need || len(eligible) == 0 {
		return nil, ErrInsufficientPlayers
	}

	perm := e.rnd.Perm(len(eligible))
	orders := make(map[string]int, len(eligible))
	first := 0
	for i, p := range eligible {
		order := perm[i] + 1
		orders[p.ID] = order
		if first == 0 || order < first {
			first = order
		}
	}

	now := e.now().UTC()
	next := st.Clone()
	next.clearRequest()
	next.Phase = PhaseStarted
	next.WinnerID = ""
	next.CurrentOrder = first
	next.DrawnNames = []string{}
	next.Participants = len(eligible)
	next.TurnStartedAt = &now
	next.UpdatedAt = now
	if err := e.store.StartRound(ctx, &next, orders); err != nil {
		return nil, storeErr("start_round", err)
	}
	log.Info().Int("participants", next.Participants).Bool("force", opts.Force).Int("current_order", first).Msg("game started")
	return &next, nil
}

type DrawRequest struct {
	PlayerID string
	// ExpectedTurn, when non-zero, must match the current order.
	ExpectedTurn int
}

type DrawResult struct {
	Name     string         `json:"name"`
	DrawerID string         `json:"drawer_id"`
	WinnerID string         `json:"winner_id,omitempty"`
	Finished bool           `json:"finished"`
	Scores   map[string]int `json:"scores"`
	State    GameState      `json:"state"`
}

// Draw reveals one undrawn item on behalf of the turn holder, rescores every
// active board and either declares a winner or advances the turn.
func (e *Engine) Draw(ctx context.Context, req DrawRequest) (*DrawResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.state(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case st.IsFinished():
		return nil, ErrGameFinished
	case !st.InProgress():
		return nil, ErrGameNotStarted
	}
	if req.ExpectedTurn > 0 && req.ExpectedTurn != st.CurrentOrder {
		return nil, ErrStaleTurn
	}
	players, err := e.players(ctx)
	if err != nil {
		return nil, err
	}
	drawer, ok := findPlayer(players, req.PlayerID)
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if !drawer.Active() || drawer.Order != st.CurrentOrder {
		return nil, ErrNotYourTurn
	}

	name, err := bingo.DrawFrom(e.pool, st.DrawnNames, e.rnd)
	if err != nil {
		return nil, err
	}
	next := st.Clone()
	next.DrawnNames = append(next.DrawnNames, name)

	active := activePlayers(players)
	scores := make(map[string]int)
	all := make(map[string]int, len(active))
	winner := ""
	for _, p := range active {
		score := bingo.CountBingoLines(p.Board, next.DrawnNames)
		all[p.ID] = score
		if score != p.Score {
			scores[p.ID] = score
		}
		if winner == "" && bingo.CheckFullBingo(p.Board, next.DrawnNames) {
			winner = p.ID
		}
	}

	now := e.now().UTC()
	next.TurnStartedAt = &now
	next.UpdatedAt = now
	if winner != "" {
		next.Phase = PhaseFinished
		next.WinnerID = winner
		next.CurrentOrder = 0
	} else {
		order, ok := nextOrder(active, e.onlineSet(ctx, players), st.CurrentOrder)
		if ok {
			next.CurrentOrder = order
		} else {
			next.Phase = PhaseFinished
			next.CurrentOrder = 0
		}
	}
	if err := e.store.CommitDraw(ctx, &next, scores); err != nil {
		return nil, storeErr("commit_draw", err)
	}

	ev := log.Info().Str("player_id", drawer.ID).Str("drawn", name).Int("drawn_count", len(next.DrawnNames))
	if winner != "" {
		ev = ev.Str("winner_id", winner)
	} else {
		ev = ev.Int("current_order", next.CurrentOrder)
	}
	ev.Msg("item drawn")

	return &DrawResult{
		Name:     name,
		DrawerID: drawer.ID,
		WinnerID: winner,
		Finished: next.IsFinished(),
		Scores:   all,
		State:    next,
	}, nil
}

// AdvanceTurn hands the turn to the next online active player.
func (e *Engine) AdvanceTurn(ctx context.Context) (*GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.state(ctx)
	if err != nil {
		return nil, err
	}
	if !st.InProgress() {
		return nil, ErrGameNotStarted
	}
	players, err := e.players(ctx)
	if err != nil {
		return nil, err
	}
	return e.advanceLocked(ctx, st, players)
}

func (e *Engine) advanceLocked(ctx context.Context, st *GameState, players []Player) (*GameState, error) {
	next := st.Clone()
	order, ok := nextOrder(activePlayers(players), e.onlineSet(ctx, players), st.CurrentOrder)
	if ok {
		next.CurrentOrder = order
	} else {
		next.Phase = PhaseFinished
		next.WinnerID = ""
		next.CurrentOrder = 0
	}
	now := e.now().UTC()
	next.TurnStartedAt = &now
	if err := e.save(ctx, &next); err != nil {
		return nil, err
	}
	if ok {
		log.Info().Int("from", st.CurrentOrder).Int("current_order", order).Msg("turn advanced")
	} else {
		log.Warn().Int("from", st.CurrentOrder).Msg("no online players left, game finished without winner")
	}
	return &next, nil
}

// CheckTurnTimeout advances a turn held longer than the turn budget.
func (e *Engine) CheckTurnTimeout(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.state(ctx)
	if err != nil {
		return false, err
	}
	if !st.InProgress() || st.TurnStartedAt == nil {
		return false, nil
	}
	if e.now().Sub(*st.TurnStartedAt) <= e.rules.TurnTimeout {
		return false, nil
	}
	players, err := e.players(ctx)
	if err != nil {
		return false, err
	}
	log.Info().Int("current_order", st.CurrentOrder).Dur("timeout", e.rules.TurnTimeout).Msg("turn timed out")
	if _, err := e.advanceLocked(ctx, st, players); err != nil {
		return false, err
	}
	return true, nil
}

type SweepResult struct {
	Dropped    []string `json:"dropped,omitempty"`
	Advanced   bool     `json:"advanced"`
	Terminated bool     `json:"terminated"`
	Finished   bool     `json:"finished"`
}

func (r SweepResult) Changed() bool {
	return len(r.Dropped) > 0 || r.Advanced || r.Terminated
}

// SweepOffline drops offline players from the rotation. A round started with
// two or more players is reset once at most one online player remains.
func (e *Engine) SweepOffline(ctx context.Context) (SweepResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res SweepResult
	st, err := e.state(ctx)
	if err != nil {
		return res, err
	}
	if !st.InProgress() {
		return res, nil
	}
	players, err := e.players(ctx)
	if err != nil {
		return res, err
	}
	online := e.onlineSet(ctx, players)

	holderGone := true
	remaining := 0
	zero := 0
	for i := range players {
		p := &players[i]
		if !p.Active() {
			continue
		}
		if !online[p.ID] {
			if err := e.store.UpdatePlayer(ctx, p.ID, PlayerPatch{Order: &zero}); err != nil {
				return res, storeErr("update_player", err)
			}
			log.Info().Str("player_id", p.ID).Int("order", p.Order).Msg("offline player dropped from rotation")
			res.Dropped = append(res.Dropped, p.ID)
			p.Order = 0
			continue
		}
		remaining++
		if p.Order == st.CurrentOrder {
			holderGone = false
		}
	}

	if st.Participants >= 2 && remaining <= 1 {
		if _, err := e.resetLocked(ctx); err != nil {
			return res, err
		}
		log.Info().Int("participants", st.Participants).Int("remaining", remaining).Msg("alone, game reset")
		res.Terminated = true
		return res, nil
	}
	if holderGone {
		next, err := e.advanceLocked(ctx, st, players)
		if err != nil {
			return res, err
		}
		res.Advanced = true
		res.Finished = next.IsFinished()
	}
	return res, nil
}

// Reset returns the game and every player to neutral values.
func (e *Engine) Reset(ctx context.Context) (*GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resetLocked(ctx)
}

func (e *Engine) resetLocked(ctx context.Context) (*GameState, error) {
	st := NeutralState()
	st.UpdatedAt = e.now().UTC()
	if err := e.store.ResetRound(ctx, &st); err != nil {
		return nil, storeErr("reset_round", err)
	}
	log.Info().Msg("game reset")
	return &st, nil
}

func findPlayer(players []Player, id string) (Player, bool) {
	for _, p := range players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

func eligiblePlayers(players []Player) []Player {
	out := make([]Player, 0, len(players))
	for _, p := range players {
		if p.Eligible() {
			out = append(out, p)
		}
	}
	return out
}

// activePlayers returns the rotation sorted by ascending order.
func activePlayers(players []Player) []Player {
	out := make([]Player, 0, len(players))
	for _, p := range players {
		if p.Active() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// nextOrder finds the first online order after current, wrapping around.
func nextOrder(active []Player, online map[string]bool, current int) (int, bool) {
	orders := make([]int, 0, len(active))
	for _, p := range active {
		if online[p.ID] {
			orders = append(orders, p.Order)
		}
	}
	if len(orders) == 0 {
		return 0, false
	}
	sort.Ints(orders)
	for _, o := range orders {
		if o > current {
			return o, true
		}
	}
	return orders[0], true
}
