package presence

import (
	"context"
	"errors"
	"testing"
	"time"

	"genshin-bingo/internal/game"
)

type fakeLiveness struct {
	touched map[string]time.Time
}

func (f *fakeLiveness) TouchLastSeen(_ context.Context, ids []string, at time.Time) error {
	for _, id := range ids {
		f.touched[id] = at
	}
	return nil
}

type brokenHints struct{}

func (brokenHints) Mark(context.Context, string, time.Duration) error { return errors.New("down") }
func (brokenHints) Clear(context.Context, string) error               { return errors.New("down") }
func (brokenHints) Present(context.Context, []string) (map[string]bool, error) {
	return nil, errors.New("down")
}

func TestOnlineSetPrefersDurableRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	hints := NewLocalHints()
	hints.now = func() time.Time { return now }
	tr := NewTracker(&fakeLiveness{touched: map[string]time.Time{}}, hints, 45*time.Second)
	tr.now = func() time.Time { return now }

	fresh := now.Add(-10 * time.Second)
	stale := now.Add(-2 * time.Minute)
	players := []game.Player{
		{ID: "fresh", LastSeen: &fresh},
		{ID: "stale", LastSeen: &stale},
		{ID: "hinted", LastSeen: &stale},
		{ID: "never"},
	}
	if err := hints.Mark(context.Background(), "hinted", time.Minute); err != nil {
		t.Fatalf("mark: %v", err)
	}

	got, err := tr.OnlineSet(context.Background(), players)
	if err != nil {
		t.Fatalf("online set: %v", err)
	}
	if !got["fresh"] || got["stale"] || !got["hinted"] || got["never"] {
		t.Fatalf("unexpected online set: %v", got)
	}
}

func TestOnlineSetSurvivesHintOutage(t *testing.T) {
	now := time.Now()
	tr := NewTracker(&fakeLiveness{touched: map[string]time.Time{}}, brokenHints{}, 30*time.Second)
	fresh := now.Add(-time.Second)
	got, err := tr.OnlineSet(context.Background(), []game.Player{{ID: "a", LastSeen: &fresh}, {ID: "b"}})
	if err != nil {
		t.Fatalf("online set: %v", err)
	}
	if !got["a"] || got["b"] {
		t.Fatalf("unexpected online set: %v", got)
	}
}

func TestHeartbeatTouchesBothSignals(t *testing.T) {
	live := &fakeLiveness{touched: map[string]time.Time{}}
	hints := NewLocalHints()
	tr := NewTracker(live, hints, 30*time.Second)

	if err := tr.Heartbeat(context.Background(), "a", "b"); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if len(live.touched) != 2 {
		t.Fatalf("expected two durable touches, got %v", live.touched)
	}
	present, _ := hints.Present(context.Background(), []string{"a", "b", "c"})
	if !present["a"] || !present["b"] || present["c"] {
		t.Fatalf("unexpected hints: %v", present)
	}
	if err := tr.Forget(context.Background(), "a"); err != nil {
		t.Fatalf("forget: %v", err)
	}
	present, _ = hints.Present(context.Background(), []string{"a"})
	if present["a"] {
		t.Fatalf("expected hint cleared")
	}
}

func TestLocalHintsExpire(t *testing.T) {
	now := time.Now()
	hints := NewLocalHints()
	hints.now = func() time.Time { return now }
	_ = hints.Mark(context.Background(), "a", time.Second)
	now = now.Add(2 * time.Second)
	present, _ := hints.Present(context.Background(), []string{"a"})
	if present["a"] {
		t.Fatalf("expected expired hint")
	}
}
