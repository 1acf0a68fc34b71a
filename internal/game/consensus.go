package game

import (
	"context"
	"slices"

	"github.com/rs/zerolog/log"
)

// Cancellation reasons reported by ValidateStartRequest.
const (
	CancelTimeout           = "timeout"
	CancelRequesterNotReady = "requester_not_ready"
	CancelInsufficientReady = "insufficient_ready"
	CancelByRequest         = "cancelled"
)

type Validation struct {
	Cancelled bool     `json:"cancelled"`
	Reason    string   `json:"reason,omitempty"`
	Pruned    []string `json:"pruned,omitempty"`
}

func (v Validation) Changed() bool {
	return v.Cancelled || len(v.Pruned) > 0
}

// RequestStart opens a start vote. The requester agrees implicitly.
func (e *Engine) RequestStart(ctx context.Context, requesterID string) (*GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.state(ctx)
	if err != nil {
		return nil, err
	}
	if st.IsStarted() {
		return nil, ErrGameAlreadyStarted
	}
	if st.HasPendingRequest() {
		return nil, ErrRequestAlreadyPending
	}
	requester, err := e.player(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if !requester.Eligible() {
		return nil, ErrNotEligible
	}
	players, err := e.players(ctx)
	if err != nil {
		return nil, err
	}
	if len(eligiblePlayers(players)) < e.rules.MinPlayers {
		return nil, ErrInsufficientReady
	}

	now := e.now().UTC()
	next := st.Clone()
	next.Phase = PhasePending
	next.StartRequestedBy = requester.ID
	next.StartAgreedUsers = []string{requester.ID}
	next.StartRequestedAt = &now
	if err := e.save(ctx, &next); err != nil {
		return nil, err
	}
	log.Info().Str("player_id", requester.ID).Msg("start requested")
	return &next, nil
}

// Agree records a vote and reports whether every eligible player agreed.
// The caller decides when to fire the start.
func (e *Engine) Agree(ctx context.Context, playerID string) (bool, *GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.state(ctx)
	if err != nil {
		return false, nil, err
	}
	if !st.HasPendingRequest() {
		return false, nil, ErrNoPendingRequest
	}
	players, err := e.players(ctx)
	if err != nil {
		return false, nil, err
	}
	p, ok := findPlayer(players, playerID)
	if !ok {
		return false, nil, ErrPlayerNotFound
	}
	if !p.Eligible() {
		return false, nil, ErrNotEligible
	}
	next := st.Clone()
	if !slices.Contains(next.StartAgreedUsers, p.ID) {
		next.StartAgreedUsers = append(next.StartAgreedUsers, p.ID)
		if err := e.save(ctx, &next); err != nil {
			return false, nil, err
		}
		log.Info().Str("player_id", p.ID).Int("agreed", len(next.StartAgreedUsers)).Msg("start agreed")
	}
	return allAgreed(players, next.StartAgreedUsers), &next, nil
}

// CancelStart clears the vote. Cancelling with no vote pending is a no-op.
func (e *Engine) CancelStart(ctx context.Context) (*GameState, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.state(ctx)
	if err != nil {
		return nil, false, err
	}
	if !st.HasPendingRequest() {
		return st, false, nil
	}
	next, err := e.cancelLocked(ctx, st, CancelByRequest)
	if err != nil {
		return nil, false, err
	}
	return next, true, nil
}

func (e *Engine) cancelLocked(ctx context.Context, st *GameState, reason string) (*GameState, error) {
	next := st.Clone()
	next.clearRequest()
	if err := e.save(ctx, &next); err != nil {
		return nil, err
	}
	log.Info().Str("requested_by", st.StartRequestedBy).Str("reason", reason).Msg("start request cancelled")
	return &next, nil
}

// ValidateStartRequest cancels a vote that timed out, lost its requester or
// fell below the minimum, and prunes agreers who are no longer eligible.
func (e *Engine) ValidateStartRequest(ctx context.Context) (Validation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.validateRequestLocked(ctx)
}

func (e *Engine) validateRequestLocked(ctx context.Context) (Validation, error) {
	var v Validation
	st, err := e.state(ctx)
	if err != nil {
		return v, err
	}
	if !st.HasPendingRequest() {
		return v, nil
	}

	cancel := func(reason string) (Validation, error) {
		if _, err := e.cancelLocked(ctx, st, reason); err != nil {
			return v, err
		}
		v.Cancelled = true
		v.Reason = reason
		return v, nil
	}

	if st.StartRequestedAt != nil && e.now().Sub(*st.StartRequestedAt) > e.rules.StartRequestTimeout {
		return cancel(CancelTimeout)
	}
	players, err := e.players(ctx)
	if err != nil {
		return v, err
	}
	eligible := eligibleSet(players)
	if !eligible[st.StartRequestedBy] {
		return cancel(CancelRequesterNotReady)
	}
	if len(eligible) < e.rules.MinPlayers {
		return cancel(CancelInsufficientReady)
	}

	kept := make([]string, 0, len(st.StartAgreedUsers))
	for _, id := range st.StartAgreedUsers {
		if eligible[id] {
			kept = append(kept, id)
		} else {
			v.Pruned = append(v.Pruned, id)
		}
	}
	if len(v.Pruned) == 0 {
		return v, nil
	}
	next := st.Clone()
	next.StartAgreedUsers = kept
	if err := e.save(ctx, &next); err != nil {
		return v, err
	}
	log.Info().Strs("pruned", v.Pruned).Msg("start vote pruned")
	return v, nil
}

// StartAgreed starts the round if the pending vote is still unanimous.
func (e *Engine) StartAgreed(ctx context.Context) (*GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.validateRequestLocked(ctx)
	if err != nil {
		return nil, err
	}
	if v.Cancelled {
		return nil, ErrNoPendingRequest
	}
	st, err := e.state(ctx)
	if err != nil {
		return nil, err
	}
	if !st.HasPendingRequest() {
		return nil, ErrNoPendingRequest
	}
	players, err := e.players(ctx)
	if err != nil {
		return nil, err
	}
	if !allAgreed(players, st.StartAgreedUsers) {
		return nil, ErrNotAllAgreed
	}
	return e.startLocked(ctx, StartOptions{ActorID: st.StartRequestedBy})
}

func eligibleSet(players []Player) map[string]bool {
	out := make(map[string]bool, len(players))
	for _, p := range players {
		if p.Eligible() {
			out[p.ID] = true
		}
	}
	return out
}

func allAgreed(players []Player, agreed []string) bool {
	eligible := eligibleSet(players)
	if len(eligible) == 0 {
		return false
	}
	for id := range eligible {
		if !slices.Contains(agreed, id) {
			return false
		}
	}
	return true
}
