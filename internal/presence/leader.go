package presence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Leader decides which replica runs the periodic reconciliation.
type Leader interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// LocalLeader is always the leader.
type LocalLeader struct{}

func (LocalLeader) Acquire(context.Context) (bool, error) { return true, nil }

func (LocalLeader) Release(context.Context) error { return nil }

const leaderKey = "bingo:leader"

var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLeader holds a lease key; the holder renews it every tick.
type RedisLeader struct {
	rdb *redis.Client
	id  string
	ttl time.Duration
}

func NewRedisLeader(rdb *redis.Client, instanceID string, ttl time.Duration) *RedisLeader {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLeader{rdb: rdb, id: instanceID, ttl: ttl}
}

func (l *RedisLeader) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, leaderKey, l.id, l.ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	n, err := renewScript.Run(ctx, l.rdb, []string{leaderKey}, l.id, l.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (l *RedisLeader) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.rdb, []string{leaderKey}, l.id).Err()
}
