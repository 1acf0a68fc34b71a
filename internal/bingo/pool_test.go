package bingo

import (
	"errors"
	"math/rand"
	"testing"
)

func TestDefaultPoolIsUniqueAndLargeEnough(t *testing.T) {
	seen := map[string]bool{}
	for _, name := range DefaultPool {
		if seen[name] {
			t.Fatalf("duplicate pool item %q", name)
		}
		seen[name] = true
	}
	if len(DefaultPool) < Size {
		t.Fatalf("pool has %d items, need at least %d", len(DefaultPool), Size)
	}
}

func TestParsePool(t *testing.T) {
	if got := ParsePool("a, b ,a"); len(got) != len(DefaultPool) {
		t.Fatalf("short pool should fall back to default, got %d items", len(got))
	}
	raw := ""
	for i := 0; i < 30; i++ {
		raw += string(rune('A'+i%26)) + string(rune('a'+i/26)) + ","
	}
	got := ParsePool(raw)
	if len(got) != 30 {
		t.Fatalf("ParsePool len = %d, want 30", len(got))
	}
}

func TestDrawFromIsExhaustiveAndNonRepeating(t *testing.T) {
	pool := []string{"a", "b", "c", "d", "e", "f", "g"}
	rnd := rand.New(rand.NewSource(7))
	drawn := []string{}
	for range pool {
		name, err := DrawFrom(pool, drawn, rnd)
		if err != nil {
			t.Fatalf("draw: %v", err)
		}
		drawn = append(drawn, name)
	}
	if len(drawn) != len(pool) {
		t.Fatalf("drawn %d, want %d", len(drawn), len(pool))
	}
	seen := map[string]bool{}
	for _, name := range drawn {
		if seen[name] {
			t.Fatalf("duplicate draw %q in %v", name, drawn)
		}
		seen[name] = true
	}
	if _, err := DrawFrom(pool, drawn, rnd); !errors.Is(err, ErrExhaustedPool) {
		t.Fatalf("expected ErrExhaustedPool, got %v", err)
	}
}

func TestFillKeepsExistingAndAvoidsDuplicates(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	b := NewBoard()
	b[3] = DefaultPool[0]
	out := Fill(b, DefaultPool, rnd)
	if !out.Complete() {
		t.Fatalf("expected complete board, filled=%d", out.Filled())
	}
	if out[3] != DefaultPool[0] {
		t.Fatalf("slot 3 changed to %q", out[3])
	}
	seen := map[string]bool{}
	for _, v := range out {
		if seen[v] {
			t.Fatalf("duplicate %q after fill", v)
		}
		seen[v] = true
	}
}
