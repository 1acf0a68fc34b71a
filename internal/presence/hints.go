package presence

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const hintKeyPrefix = "bingo:presence:"

func hintKey(id string) string {
	return hintKeyPrefix + id
}

type RedisHints struct {
	rdb *redis.Client
}

func NewRedisHints(rdb *redis.Client) *RedisHints {
	return &RedisHints{rdb: rdb}
}

func (h *RedisHints) Mark(ctx context.Context, playerID string, ttl time.Duration) error {
	return h.rdb.Set(ctx, hintKey(playerID), time.Now().UTC().Format(time.RFC3339Nano), ttl).Err()
}

func (h *RedisHints) Clear(ctx context.Context, playerID string) error {
	return h.rdb.Del(ctx, hintKey(playerID)).Err()
}

func (h *RedisHints) Present(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = hintKey(id)
	}
	vals, err := h.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		if v != nil {
			out[ids[i]] = true
		}
	}
	return out, nil
}

// LocalHints keeps hints in process memory for single-replica runs.
type LocalHints struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewLocalHints() *LocalHints {
	return &LocalHints{expires: map[string]time.Time{}, now: time.Now}
}

func (h *LocalHints) Mark(_ context.Context, playerID string, ttl time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.expires[playerID] = h.now().Add(ttl)
	return nil
}

func (h *LocalHints) Clear(_ context.Context, playerID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.expires, playerID)
	return nil
}

func (h *LocalHints) Present(_ context.Context, ids []string) (map[string]bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		exp, ok := h.expires[id]
		if !ok {
			continue
		}
		if now.After(exp) {
			delete(h.expires, id)
			continue
		}
		out[id] = true
	}
	return out, nil
}
