package store

import (
	"testing"
	"time"

	"genshin-bingo/internal/journal"
	"genshin-bingo/internal/presence"
)

func TestOnlineSnapshotMonotonic(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	snap, err := st.GetOnlineSnapshot(ctx)
	if err != nil || snap != nil {
		t.Fatalf("expected empty snapshot, got %+v err=%v", snap, err)
	}
	ts := time.Now().UTC().Truncate(time.Millisecond)
	ok, err := st.SaveOnlineSnapshot(ctx, presence.Snapshot{PlayerIDs: []string{"a", "b"}, ClientTS: ts, UpdatedAt: ts})
	if err != nil || !ok {
		t.Fatalf("first save: ok=%v err=%v", ok, err)
	}
	ok, err = st.SaveOnlineSnapshot(ctx, presence.Snapshot{PlayerIDs: []string{"c"}, ClientTS: ts.Add(-time.Second), UpdatedAt: ts})
	if err != nil || ok {
		t.Fatalf("older save must be rejected: ok=%v err=%v", ok, err)
	}
	ok, err = st.SaveOnlineSnapshot(ctx, presence.Snapshot{PlayerIDs: []string{"c"}, ClientTS: ts, UpdatedAt: ts})
	if err != nil || ok {
		t.Fatalf("equal save must be rejected: ok=%v err=%v", ok, err)
	}
	ok, err = st.SaveOnlineSnapshot(ctx, presence.Snapshot{PlayerIDs: []string{"d"}, ClientTS: ts.Add(time.Second), UpdatedAt: ts})
	if err != nil || !ok {
		t.Fatalf("newer save: ok=%v err=%v", ok, err)
	}
	snap, err = st.GetOnlineSnapshot(ctx)
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if len(snap.PlayerIDs) != 1 || snap.PlayerIDs[0] != "d" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestGameEventsNewestFirst(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	j := journal.New(st)
	if err := j.StartRequested(ctx, "p1"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := j.Reset(ctx, "admin"); err != nil {
		t.Fatalf("append: %v", err)
	}
	entries, err := j.History(ctx, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 || entries[0].Kind != journal.KindReset || entries[1].PlayerID != "p1" {
		t.Fatalf("unexpected history: %+v", entries)
	}
}
