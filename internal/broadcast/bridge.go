package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Channel is the Redis pub/sub channel shared by every replica.
const Channel = "bingo:events"

// Event names published on the stream.
const (
	EventStateChanged = "state_changed"
	EventChatMessage  = "chat_message"
	EventPresence     = "presence"
)

type envelope struct {
	Origin   string          `json:"origin"`
	Event    string          `json:"event"`
	ServerTS int64           `json:"server_ts"`
	Data     json.RawMessage `json:"data"`
}

// Bridge fans events out to local subscribers and, when Redis is configured,
// to the other replicas. Delivery across replicas is at-least-once and
// unordered; anything lost is healed by clients refetching state.
type Bridge struct {
	buf    *EventBuffer
	rdb    *redis.Client
	origin string

	readyOnce sync.Once
	ready     chan struct{}
}

// NewBridge returns a bridge over buf. A nil rdb keeps every event local.
func NewBridge(buf *EventBuffer, rdb *redis.Client, origin string) *Bridge {
	return &Bridge{
		buf:    buf,
		rdb:    rdb,
		origin: origin,
		ready:  make(chan struct{}),
	}
}

func (b *Bridge) Buffer() *EventBuffer { return b.buf }

// Ready is closed once Run is receiving remote events (immediately for a
// local bridge).
func (b *Bridge) Ready() <-chan struct{} { return b.ready }

func (b *Bridge) markReady() {
	b.readyOnce.Do(func() { close(b.ready) })
}

func (b *Bridge) Publish(ctx context.Context, event string, data any) Event {
	ev := b.buf.Append(event, data)
	if b.rdb == nil {
		return ev
	}
	raw, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Str("event", event).Msg("broadcast marshal failed")
		return ev
	}
	msg, err := json.Marshal(envelope{Origin: b.origin, Event: event, ServerTS: ev.ServerTS, Data: raw})
	if err != nil {
		return ev
	}
	if err := b.rdb.Publish(ctx, Channel, msg).Err(); err != nil {
		log.Warn().Err(err).Str("event", event).Msg("broadcast publish failed")
	}
	return ev
}

// Run relays events published by other replicas into the local buffer until
// ctx is done. It resubscribes after connection errors.
func (b *Bridge) Run(ctx context.Context) error {
	if b.rdb == nil {
		b.markReady()
		<-ctx.Done()
		return nil
	}
	for {
		err := b.relay(ctx)
		if ctx.Err() != nil {
			return nil
		}
		log.Warn().Err(err).Msg("broadcast subscription lost")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Second):
		}
	}
}

func (b *Bridge) relay(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, Channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	b.markReady()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return redis.ErrClosed
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Warn().Err(err).Msg("broadcast decode failed")
				continue
			}
			if env.Origin == b.origin {
				continue
			}
			b.buf.Append(env.Event, env.Data)
		}
	}
}
