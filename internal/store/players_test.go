package store

import (
	"errors"
	"testing"
	"time"

	"genshin-bingo/internal/bingo"
	"genshin-bingo/internal/game"
)

func TestPlayerCRUD(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	p := mustCreatePlayer(t, st, ctx, "Venti")
	dup := p
	dup.ID = "other"
	if err := st.CreatePlayer(ctx, dup); !errors.Is(err, game.ErrNameTaken) {
		t.Fatalf("expected name_taken, got %v", err)
	}

	board := bingo.NewBoard()
	board[3] = "Amber"
	if err := st.UpdatePlayer(ctx, p.ID, game.PlayerPatch{Board: &board}); err != nil {
		t.Fatalf("update board: %v", err)
	}
	got, err := st.GetPlayer(ctx, p.ID)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if len(got.Board) != bingo.Size || got.Board[3] != "Amber" {
		t.Fatalf("unexpected board: %v", got.Board)
	}
	if got.IsReady || got.Order != 0 {
		t.Fatalf("untouched fields changed: %+v", got)
	}

	seen := time.Now().UTC().Truncate(time.Millisecond)
	if err := st.TouchLastSeen(ctx, []string{p.ID}, seen); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if err := st.TouchLastSeen(ctx, []string{p.ID}, seen.Add(-time.Minute)); err != nil {
		t.Fatalf("touch older: %v", err)
	}
	got, _ = st.GetPlayer(ctx, p.ID)
	if got.LastSeen == nil || !got.LastSeen.Equal(seen) {
		t.Fatalf("expected last_seen %v, got %v", seen, got.LastSeen)
	}

	if err := st.DeletePlayer(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := st.GetPlayer(ctx, p.ID); !errors.Is(err, game.ErrPlayerNotFound) {
		t.Fatalf("expected player_not_found, got %v", err)
	}
	if err := st.UpdatePlayer(ctx, p.ID, game.PlayerPatch{}); !errors.Is(err, game.ErrPlayerNotFound) {
		t.Fatalf("expected player_not_found on update, got %v", err)
	}
}

func TestChatKeepsNewestInOrder(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	base := time.Now().UTC()
	for i, body := range []string{"one", "two", "three"} {
		msg := game.ChatMessage{
			ID:         body,
			PlayerID:   "p",
			PlayerName: "P",
			Body:       body,
			Kind:       game.ChatKindMessage,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}
		if err := st.AppendChat(ctx, msg); err != nil {
			t.Fatalf("append chat: %v", err)
		}
	}
	msgs, err := st.ListChat(ctx, 2)
	if err != nil {
		t.Fatalf("list chat: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Body != "two" || msgs[1].Body != "three" {
		t.Fatalf("unexpected chat: %+v", msgs)
	}
}
