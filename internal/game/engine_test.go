package game_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"genshin-bingo/internal/bingo"
	"genshin-bingo/internal/game"
)

func TestStartAssignsOrdersToEligiblePlayersOnly(t *testing.T) {
	h := newHarness(t)
	a := h.register(t, "Aether", false)
	b := h.register(t, "Lumine", false)
	c := h.register(t, "Paimon", false)
	h.ready(t, a.ID)
	h.ready(t, b.ID)
	if _, _, err := h.eng.RandomFill(h.ctx, c.ID); err != nil {
		t.Fatalf("fill: %v", err)
	}

	st, err := h.eng.Start(h.ctx, game.StartOptions{ActorID: a.ID})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if st.Phase != game.PhaseStarted || st.Participants != 2 {
		t.Fatalf("unexpected state: %+v", st)
	}

	orders := []int{h.player(t, a.ID).Order, h.player(t, b.ID).Order}
	slices.Sort(orders)
	if orders[0] != 1 || orders[1] != 2 {
		t.Fatalf("expected permutation of {1,2}, got %v", orders)
	}
	if got := h.player(t, c.ID).Order; got != 0 {
		t.Fatalf("expected ineligible order 0, got %d", got)
	}
	if st.CurrentOrder != orders[0] {
		t.Fatalf("expected current order %d, got %d", orders[0], st.CurrentOrder)
	}
	if len(st.DrawnNames) != 0 || st.TurnStartedAt == nil {
		t.Fatalf("expected fresh round, got %+v", st)
	}
	for _, id := range []string{a.ID, b.ID, c.ID} {
		if h.player(t, id).IsReady {
			t.Fatalf("expected ready cleared for %s", id)
		}
	}
	if _, err := h.eng.Start(h.ctx, game.StartOptions{ActorID: a.ID}); !errors.Is(err, game.ErrGameAlreadyStarted) {
		t.Fatalf("expected game_already_started, got %v", err)
	}
}

func TestStartNeedsTwoEligibleUnlessForced(t *testing.T) {
	h := newHarness(t)
	admin := h.register(t, "Aether", true)
	other := h.register(t, "Lumine", false)

	if _, err := h.eng.Start(h.ctx, game.StartOptions{ActorID: admin.ID, Force: true}); !errors.Is(err, game.ErrInsufficientPlayers) {
		t.Fatalf("expected insufficient_players with nobody eligible, got %v", err)
	}

	h.ready(t, admin.ID)
	if _, err := h.eng.Start(h.ctx, game.StartOptions{ActorID: admin.ID}); !errors.Is(err, game.ErrInsufficientPlayers) {
		t.Fatalf("expected insufficient_players, got %v", err)
	}
	if _, err := h.eng.Start(h.ctx, game.StartOptions{ActorID: other.ID, Force: true}); !errors.Is(err, game.ErrForbidden) {
		t.Fatalf("expected forbidden for non-admin force, got %v", err)
	}
	st, err := h.eng.Start(h.ctx, game.StartOptions{ActorID: admin.ID, Force: true})
	if err != nil {
		t.Fatalf("forced start: %v", err)
	}
	if st.Participants != 1 || st.CurrentOrder != 1 || h.player(t, admin.ID).Order != 1 {
		t.Fatalf("unexpected forced round: %+v", st)
	}
}

func TestDrawChecksTurnAndAdvances(t *testing.T) {
	h := newHarness(t)
	h.startThree(t)

	holder := h.holder(t)
	st := h.state(t)
	var other game.Player
	players, _ := h.store.ListPlayers(h.ctx)
	for _, p := range players {
		if p.ID != holder.ID {
			other = p
			break
		}
	}

	if _, err := h.eng.Draw(h.ctx, game.DrawRequest{PlayerID: other.ID}); !errors.Is(err, game.ErrNotYourTurn) {
		t.Fatalf("expected not_your_turn, got %v", err)
	}
	if _, err := h.eng.Draw(h.ctx, game.DrawRequest{PlayerID: holder.ID, ExpectedTurn: st.CurrentOrder + 1}); !errors.Is(err, game.ErrStaleTurn) {
		t.Fatalf("expected stale_turn, got %v", err)
	}

	res, err := h.eng.Draw(h.ctx, game.DrawRequest{PlayerID: holder.ID, ExpectedTurn: st.CurrentOrder})
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if res.Name == "" || len(res.State.DrawnNames) != 1 || res.State.DrawnNames[0] != res.Name {
		t.Fatalf("unexpected draw result: %+v", res)
	}
	if res.State.CurrentOrder != st.CurrentOrder+1 {
		t.Fatalf("expected turn %d, got %d", st.CurrentOrder+1, res.State.CurrentOrder)
	}
	if got := h.state(t); got.Version != res.State.Version || len(got.DrawnNames) != 1 {
		t.Fatalf("stored state diverged: %+v", got)
	}
}

func TestDrawBeforeStart(t *testing.T) {
	h := newHarness(t)
	p := h.register(t, "Aether", false)
	if _, err := h.eng.Draw(h.ctx, game.DrawRequest{PlayerID: p.ID}); !errors.Is(err, game.ErrGameNotStarted) {
		t.Fatalf("expected game_not_started, got %v", err)
	}
}

func TestDrawUntilFullBingo(t *testing.T) {
	pool := append([]string{}, bingo.DefaultPool[:bingo.Size]...)
	h := newHarness(t, game.WithPool(pool))
	ps := h.startThree(t)

	seen := map[string]bool{}
	var last *game.DrawResult
	for i := 0; i < bingo.Size; i++ {
		holder := h.holder(t)
		res, err := h.eng.Draw(h.ctx, game.DrawRequest{PlayerID: holder.ID})
		if err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		if seen[res.Name] {
			t.Fatalf("duplicate draw %q", res.Name)
		}
		seen[res.Name] = true
		for _, p := range ps {
			got := h.player(t, p.ID)
			if want := bingo.CountBingoLines(got.Board, res.State.DrawnNames); got.Score != want {
				t.Fatalf("score of %s = %d, want %d", p.Name, got.Score, want)
			}
		}
		last = res
		if res.Finished {
			break
		}
	}
	if last == nil || !last.Finished {
		t.Fatalf("expected the round to finish")
	}
	if len(last.State.DrawnNames) != bingo.Size {
		t.Fatalf("expected %d draws, got %d", bingo.Size, len(last.State.DrawnNames))
	}

	// Every board holds the whole pool, so all complete together and the
	// lowest order wins.
	winner := h.player(t, last.WinnerID)
	if winner.Order != 1 {
		t.Fatalf("expected winner with order 1, got order %d", winner.Order)
	}
	st := h.state(t)
	if st.Phase != game.PhaseFinished || st.WinnerID != winner.ID || st.CurrentOrder != 0 {
		t.Fatalf("unexpected finished state: %+v", st)
	}
	for _, p := range ps {
		if got := h.player(t, p.ID).Score; got != bingo.MaxLines {
			t.Fatalf("expected full score for %s, got %d", p.Name, got)
		}
	}
	if _, err := h.eng.Draw(h.ctx, game.DrawRequest{PlayerID: winner.ID}); !errors.Is(err, game.ErrGameFinished) {
		t.Fatalf("expected game_finished, got %v", err)
	}
}

func TestAdvanceTurnWraps(t *testing.T) {
	h := newHarness(t)
	h.startThree(t)
	h.setCurrentOrder(t, 3)

	st, err := h.eng.AdvanceTurn(h.ctx)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if st.CurrentOrder != 1 {
		t.Fatalf("expected wrap to 1, got %d", st.CurrentOrder)
	}
}

func TestAdvanceTurnSkipsOfflinePlayers(t *testing.T) {
	h := newHarness(t)
	h.startThree(t)
	h.setCurrentOrder(t, 1)

	second := h.holderOf(t, 2)
	h.online.set(second.ID, false)

	st, err := h.eng.AdvanceTurn(h.ctx)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if st.CurrentOrder != 3 {
		t.Fatalf("expected 3 after skipping offline 2, got %d", st.CurrentOrder)
	}
}

func TestAdvanceTurnWithNobodyOnlineFinishes(t *testing.T) {
	h := newHarness(t)
	ps := h.startThree(t)
	for _, p := range ps {
		h.online.set(p.ID, false)
	}
	st, err := h.eng.AdvanceTurn(h.ctx)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if st.Phase != game.PhaseFinished || st.WinnerID != "" || st.CurrentOrder != 0 {
		t.Fatalf("expected finish without winner, got %+v", st)
	}
}

func TestTurnTimeoutAdvances(t *testing.T) {
	h := newHarness(t)
	h.startThree(t)
	before := h.state(t)

	h.clock.Advance(30 * time.Second)
	moved, err := h.eng.CheckTurnTimeout(h.ctx)
	if err != nil || moved {
		t.Fatalf("expected no timeout yet, moved=%v err=%v", moved, err)
	}

	h.clock.Advance(31 * time.Second)
	moved, err = h.eng.CheckTurnTimeout(h.ctx)
	if err != nil || !moved {
		t.Fatalf("expected timeout, moved=%v err=%v", moved, err)
	}
	after := h.state(t)
	if after.CurrentOrder == before.CurrentOrder {
		t.Fatalf("expected turn to move from %d", before.CurrentOrder)
	}
	if !after.TurnStartedAt.Equal(h.clock.Now()) {
		t.Fatalf("expected turn clock refreshed, got %v", after.TurnStartedAt)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ps := h.startThree(t)
	holder := h.holder(t)
	if _, err := h.eng.Draw(h.ctx, game.DrawRequest{PlayerID: holder.ID}); err != nil {
		t.Fatalf("draw: %v", err)
	}

	first, err := h.eng.Reset(h.ctx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	second, err := h.eng.Reset(h.ctx)
	if err != nil {
		t.Fatalf("second reset: %v", err)
	}
	a, b := *first, *second
	a.Version, b.Version = 0, 0
	if a.Phase != game.PhaseIdle || a.CurrentOrder != 0 || a.WinnerID != "" || len(a.DrawnNames) != 0 || a.Participants != 0 {
		t.Fatalf("reset state not neutral: %+v", a)
	}
	if a.Phase != b.Phase || a.CurrentOrder != b.CurrentOrder || len(a.DrawnNames) != len(b.DrawnNames) ||
		a.StartRequestedBy != b.StartRequestedBy || a.TurnStartedAt != nil || b.TurnStartedAt != nil {
		t.Fatalf("resets differ: %+v vs %+v", a, b)
	}
	for _, p := range ps {
		got := h.player(t, p.ID)
		if got.Order != 0 || got.Score != 0 || got.IsReady || len(got.Board) != 0 {
			t.Fatalf("player %s not neutral: %+v", p.Name, got)
		}
	}
}

func TestSweepDropsOfflineHolderAndAdvances(t *testing.T) {
	h := newHarness(t)
	h.startThree(t)
	holder := h.holder(t)
	h.online.set(holder.ID, false)

	res, err := h.eng.SweepOffline(h.ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(res.Dropped) != 1 || res.Dropped[0] != holder.ID || !res.Advanced || res.Terminated {
		t.Fatalf("unexpected sweep: %+v", res)
	}
	if got := h.player(t, holder.ID).Order; got != 0 {
		t.Fatalf("expected dropped order 0, got %d", got)
	}
	if st := h.state(t); st.CurrentOrder == holder.Order || st.Phase != game.PhaseStarted {
		t.Fatalf("expected turn to move on, got %+v", st)
	}
}

func TestSweepResetsWhenAlone(t *testing.T) {
	h := newHarness(t)
	ps := h.startThree(t)
	h.online.set(ps[1].ID, false)
	h.online.set(ps[2].ID, false)

	res, err := h.eng.SweepOffline(h.ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !res.Terminated {
		t.Fatalf("expected alone termination, got %+v", res)
	}
	if st := h.state(t); st.Phase != game.PhaseIdle {
		t.Fatalf("expected idle after alone reset, got %s", st.Phase)
	}
}

func TestSweepLeavesForcedSoloRoundAlone(t *testing.T) {
	h := newHarness(t)
	admin := h.register(t, "Aether", true)
	h.ready(t, admin.ID)
	if _, err := h.eng.Start(h.ctx, game.StartOptions{ActorID: admin.ID, Force: true}); err != nil {
		t.Fatalf("forced start: %v", err)
	}
	res, err := h.eng.SweepOffline(h.ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.Changed() {
		t.Fatalf("expected no change, got %+v", res)
	}
	if st := h.state(t); st.Phase != game.PhaseStarted {
		t.Fatalf("expected solo round to continue, got %s", st.Phase)
	}
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)
	if _, err := h.eng.Register(h.ctx, "   ", false); !errors.Is(err, game.ErrInvalidName) {
		t.Fatalf("expected invalid_name, got %v", err)
	}
	h.register(t, "Nahida", false)
	if _, err := h.eng.Register(h.ctx, "Nahida", false); !errors.Is(err, game.ErrNameTaken) {
		t.Fatalf("expected name_taken, got %v", err)
	}
}

func TestDeletePlayerNeedsAdminAndHandsTurnOn(t *testing.T) {
	h := newHarness(t)
	ps := h.startThree(t)
	holder := h.holder(t)

	if _, err := h.eng.DeletePlayer(h.ctx, ps[1].ID, holder.ID); !errors.Is(err, game.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	victim := holder
	if victim.ID == ps[0].ID {
		if _, err := h.eng.AdvanceTurn(h.ctx); err != nil {
			t.Fatalf("advance: %v", err)
		}
		victim = h.holder(t)
	}
	if _, err := h.eng.DeletePlayer(h.ctx, ps[0].ID, victim.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := h.store.GetPlayer(h.ctx, victim.ID); !errors.Is(err, game.ErrPlayerNotFound) {
		t.Fatalf("expected deleted player gone, got %v", err)
	}
	if st := h.state(t); st.CurrentOrder == victim.Order {
		t.Fatalf("expected turn to leave deleted player")
	}
}
