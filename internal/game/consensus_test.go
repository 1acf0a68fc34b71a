package game_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"genshin-bingo/internal/game"
)

func threeReady(t *testing.T, h *harness) []game.Player {
	t.Helper()
	ps := []game.Player{
		h.register(t, "Aether", true),
		h.register(t, "Lumine", false),
		h.register(t, "Paimon", false),
	}
	for _, p := range ps {
		h.ready(t, p.ID)
	}
	return ps
}

func TestRequestAgreeAndStart(t *testing.T) {
	h := newHarness(t)
	ps := threeReady(t, h)

	st, err := h.eng.RequestStart(h.ctx, ps[0].ID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if st.Phase != game.PhasePending || st.StartRequestedBy != ps[0].ID || !slices.Equal(st.StartAgreedUsers, []string{ps[0].ID}) {
		t.Fatalf("unexpected pending state: %+v", st)
	}
	if _, err := h.eng.RequestStart(h.ctx, ps[1].ID); !errors.Is(err, game.ErrRequestAlreadyPending) {
		t.Fatalf("expected request_already_pending, got %v", err)
	}

	all, _, err := h.eng.Agree(h.ctx, ps[1].ID)
	if err != nil || all {
		t.Fatalf("agree p2: all=%v err=%v", all, err)
	}
	all, st, err = h.eng.Agree(h.ctx, ps[1].ID)
	if err != nil || all || len(st.StartAgreedUsers) != 2 {
		t.Fatalf("repeat agree must be idempotent: all=%v st=%+v err=%v", all, st, err)
	}
	if _, err := h.eng.StartAgreed(h.ctx); !errors.Is(err, game.ErrNotAllAgreed) {
		t.Fatalf("expected not_all_agreed, got %v", err)
	}
	all, _, err = h.eng.Agree(h.ctx, ps[2].ID)
	if err != nil || !all {
		t.Fatalf("agree p3: all=%v err=%v", all, err)
	}

	started, err := h.eng.StartAgreed(h.ctx)
	if err != nil {
		t.Fatalf("start agreed: %v", err)
	}
	if started.Phase != game.PhaseStarted || started.Participants != 3 || started.StartRequestedBy != "" {
		t.Fatalf("unexpected started state: %+v", started)
	}
}

func TestUnreadyDropsAgreementWithoutCancelling(t *testing.T) {
	h := newHarness(t)
	ps := threeReady(t, h)
	if _, err := h.eng.RequestStart(h.ctx, ps[0].ID); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, _, err := h.eng.Agree(h.ctx, ps[1].ID); err != nil {
		t.Fatalf("agree: %v", err)
	}

	ready, v, err := h.eng.ToggleReady(h.ctx, ps[1].ID)
	if err != nil || ready {
		t.Fatalf("unready: ready=%v err=%v", ready, err)
	}
	if v.Cancelled || !slices.Equal(v.Pruned, []string{ps[1].ID}) {
		t.Fatalf("expected agreement pruned without cancel, got %+v", v)
	}
	st := h.state(t)
	if st.Phase != game.PhasePending {
		t.Fatalf("expected request to survive, got %s", st.Phase)
	}
	if !slices.Equal(st.StartAgreedUsers, []string{ps[0].ID}) {
		t.Fatalf("expected only requester agreed, got %v", st.StartAgreedUsers)
	}

	_, v, err = h.eng.ToggleReady(h.ctx, ps[2].ID)
	if err != nil {
		t.Fatalf("unready p3: %v", err)
	}
	if !v.Cancelled || v.Reason != game.CancelInsufficientReady {
		t.Fatalf("expected insufficient_ready cancel, got %+v", v)
	}
	st = h.state(t)
	if st.Phase != game.PhaseIdle || st.StartRequestedBy != "" || st.StartAgreedUsers != nil {
		t.Fatalf("expected request cancelled below two ready, got %+v", st)
	}
}

func TestRequesterUnreadyCancels(t *testing.T) {
	h := newHarness(t)
	ps := threeReady(t, h)
	if _, err := h.eng.RequestStart(h.ctx, ps[1].ID); err != nil {
		t.Fatalf("request: %v", err)
	}
	_, v, err := h.eng.ClearBoard(h.ctx, ps[1].ID)
	if err != nil {
		t.Fatalf("clear board: %v", err)
	}
	if !v.Cancelled || v.Reason != game.CancelRequesterNotReady {
		t.Fatalf("expected requester_not_ready cancel, got %+v", v)
	}
	if st := h.state(t); st.HasPendingRequest() {
		t.Fatalf("expected cancel when requester lost eligibility, got %+v", st)
	}
}

func TestStartRequestTimeout(t *testing.T) {
	h := newHarness(t)
	ps := threeReady(t, h)
	if _, err := h.eng.RequestStart(h.ctx, ps[0].ID); err != nil {
		t.Fatalf("request: %v", err)
	}

	h.clock.Advance(59 * time.Second)
	v, err := h.eng.ValidateStartRequest(h.ctx)
	if err != nil || v.Changed() {
		t.Fatalf("expected untouched request, v=%+v err=%v", v, err)
	}

	h.clock.Advance(2 * time.Second)
	v, err = h.eng.ValidateStartRequest(h.ctx)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !v.Cancelled || v.Reason != game.CancelTimeout {
		t.Fatalf("expected timeout cancel, got %+v", v)
	}
	v, err = h.eng.ValidateStartRequest(h.ctx)
	if err != nil || v.Changed() {
		t.Fatalf("second validate must be a no-op, v=%+v err=%v", v, err)
	}
}

func TestCancelStartIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ps := threeReady(t, h)
	if _, err := h.eng.RequestStart(h.ctx, ps[0].ID); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, cancelled, err := h.eng.CancelStart(h.ctx); err != nil || !cancelled {
		t.Fatalf("cancel: cancelled=%v err=%v", cancelled, err)
	}
	st, cancelled, err := h.eng.CancelStart(h.ctx)
	if err != nil || cancelled {
		t.Fatalf("second cancel: cancelled=%v err=%v", cancelled, err)
	}
	if st.Phase != game.PhaseIdle {
		t.Fatalf("expected idle, got %s", st.Phase)
	}
}

func TestRequestAndAgreeEligibility(t *testing.T) {
	h := newHarness(t)
	a := h.register(t, "Aether", false)
	b := h.register(t, "Lumine", false)
	c := h.register(t, "Paimon", false)

	if _, _, err := h.eng.Agree(h.ctx, a.ID); !errors.Is(err, game.ErrNoPendingRequest) {
		t.Fatalf("expected no_pending_request, got %v", err)
	}
	if _, err := h.eng.RequestStart(h.ctx, a.ID); !errors.Is(err, game.ErrNotEligible) {
		t.Fatalf("expected not_eligible, got %v", err)
	}
	h.ready(t, a.ID)
	if _, err := h.eng.RequestStart(h.ctx, a.ID); !errors.Is(err, game.ErrInsufficientReady) {
		t.Fatalf("expected insufficient_ready, got %v", err)
	}
	h.ready(t, b.ID)
	if _, err := h.eng.RequestStart(h.ctx, a.ID); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, _, err := h.eng.Agree(h.ctx, c.ID); !errors.Is(err, game.ErrNotEligible) {
		t.Fatalf("expected not_eligible for unready agree, got %v", err)
	}
}

func TestValidatePrunesIneligibleAgreer(t *testing.T) {
	h := newHarness(t)
	ps := threeReady(t, h)
	if _, err := h.eng.RequestStart(h.ctx, ps[0].ID); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, _, err := h.eng.Agree(h.ctx, ps[2].ID); err != nil {
		t.Fatalf("agree: %v", err)
	}
	// Drop eligibility behind the engine's back; only Validate notices.
	notReady := false
	if err := h.store.UpdatePlayer(h.ctx, ps[2].ID, game.PlayerPatch{IsReady: &notReady}); err != nil {
		t.Fatalf("update: %v", err)
	}
	v, err := h.eng.ValidateStartRequest(h.ctx)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if v.Cancelled || !slices.Equal(v.Pruned, []string{ps[2].ID}) {
		t.Fatalf("expected prune of p3, got %+v", v)
	}
}
