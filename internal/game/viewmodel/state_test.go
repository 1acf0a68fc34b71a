package viewmodel

import (
	"testing"
	"time"

	"genshin-bingo/internal/bingo"
	"genshin-bingo/internal/game"
)

func testSnapshot(phase game.Phase) *game.Snapshot {
	started := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	board := bingo.Board(append([]string{}, bingo.DefaultPool[:bingo.Size]...))
	return &game.Snapshot{
		State: game.GameState{
			Phase:         phase,
			CurrentOrder:  2,
			DrawnNames:    []string{"Amber", "Lisa"},
			Participants:  2,
			TurnStartedAt: &started,
			Version:       7,
		},
		Players: []game.PlayerView{
			{Player: game.Player{ID: "p1", Name: "A", Board: board, Order: 1}, Filled: 25, Online: true},
			{Player: game.Player{ID: "p2", Name: "B", Board: board, Order: 2}, Filled: 25, Online: true},
		},
		Remaining: 10,
	}
}

func TestBuildStateHidesOtherBoards(t *testing.T) {
	snap := testSnapshot(game.PhaseStarted)
	now := snap.State.TurnStartedAt.Add(20 * time.Second)
	view := BuildState(snap, Options{ViewerID: "p2", Now: now, TurnTimeout: time.Minute})

	if view.Players[0].Board != nil {
		t.Fatalf("expected p1 board hidden from p2")
	}
	if len(view.Players[1].Board) != bingo.Size {
		t.Fatalf("expected own board visible, got %d slots", len(view.Players[1].Board))
	}
	if !view.IsMyTurn || !view.Players[1].IsTurn {
		t.Fatalf("expected p2 to hold the turn")
	}
	if view.LastDrawn != "Lisa" {
		t.Fatalf("expected last drawn Lisa, got %q", view.LastDrawn)
	}
	if view.TurnLeftMS != 40000 {
		t.Fatalf("expected 40000ms left, got %d", view.TurnLeftMS)
	}
}

func TestBuildPublicStateRevealsBoardsWhenFinished(t *testing.T) {
	snap := testSnapshot(game.PhaseFinished)
	snap.State.WinnerID = "p1"
	view := BuildPublicState(snap, Options{ViewerID: "p1", TurnTimeout: time.Minute})
	if view.MyID != "" || view.MyBoard != nil {
		t.Fatalf("public view must not carry a viewer")
	}
	for _, p := range view.Players {
		if len(p.Board) != bingo.Size {
			t.Fatalf("expected board of %s revealed", p.ID)
		}
		if p.IsTurn {
			t.Fatalf("no turn after finish")
		}
	}
	if view.TurnLeftMS != 0 {
		t.Fatalf("expected no turn clock, got %d", view.TurnLeftMS)
	}
}

func TestBuildStatePendingRequest(t *testing.T) {
	snap := testSnapshot(game.PhasePending)
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	snap.State.StartRequestedBy = "p1"
	snap.State.StartAgreedUsers = []string{"p1"}
	snap.State.StartRequestedAt = &at
	view := BuildPublicState(snap, Options{StartRequestTimeout: time.Minute})
	if view.StartRequest == nil {
		t.Fatalf("expected start request view")
	}
	if !view.StartRequest.ExpiresAt.Equal(at.Add(time.Minute)) {
		t.Fatalf("unexpected expiry %v", view.StartRequest.ExpiresAt)
	}
	if !view.Players[0].Agreed || view.Players[1].Agreed {
		t.Fatalf("unexpected agreed flags: %+v", view.Players)
	}
}
