package broadcast

import (
	"strconv"
	"sync"
	"time"
)

const (
	defaultBufferSize = 500
	subscriberBacklog = 32
)

// Event is one entry on the game stream. ID is local to the process that
// buffered it and is what SSE clients echo back in Last-Event-ID.
type Event struct {
	ID       string `json:"event_id"`
	Type     string `json:"event"`
	ServerTS int64  `json:"server_ts"`
	Data     any    `json:"data"`
}

type EventBuffer struct {
	mu       sync.Mutex
	nextID   int64
	max      int
	events   []Event
	watchers map[chan Event]struct{}
	closed   bool
	now      func() time.Time
}

func NewEventBuffer(max int) *EventBuffer {
	if max <= 0 {
		max = defaultBufferSize
	}
	return &EventBuffer{
		max:      max,
		watchers: map[chan Event]struct{}{},
		now:      time.Now,
	}
}

func (b *EventBuffer) Append(event string, data any) Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	ev := Event{
		ID:       strconv.FormatInt(b.nextID, 10),
		Type:     event,
		ServerTS: b.now().UnixMilli(),
		Data:     data,
	}
	b.events = append(b.events, ev)
	if len(b.events) > b.max {
		b.events = b.events[len(b.events)-b.max:]
	}
	if b.closed {
		return ev
	}
	for ch := range b.watchers {
		// slow subscribers miss events; they resync from /api/state.
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

// ReplayAfter returns buffered events newer than lastEventID. An empty or
// unparsable id replays the whole buffer.
func (b *EventBuffer) ReplayAfter(lastEventID string) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	last, err := strconv.ParseInt(lastEventID, 10, 64)
	if err != nil {
		last = 0
	}
	out := make([]Event, 0, len(b.events))
	for _, ev := range b.events {
		id, _ := strconv.ParseInt(ev.ID, 10, 64)
		if id > last {
			out = append(out, ev)
		}
	}
	return out
}

func (b *EventBuffer) Subscribe() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, subscriberBacklog)
	if b.closed {
		close(ch)
		return ch
	}
	b.watchers[ch] = struct{}{}
	return ch
}

func (b *EventBuffer) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.watchers[ch]; !ok {
		return
	}
	delete(b.watchers, ch)
	close(ch)
}

func (b *EventBuffer) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.watchers)
}

func (b *EventBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.watchers {
		close(ch)
	}
	b.watchers = map[chan Event]struct{}{}
}
