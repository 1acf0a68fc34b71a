package httptransport

import (
	"net/http"
	"time"

	"genshin-bingo/internal/broadcast"
)

var ssePingInterval = 15 * time.Second

// Events streams the game event feed. Last-Event-ID resumes from the local
// replay buffer; anything older is recovered by refetching /api/state.
func (h *Handlers) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteHTTPError(w, http.StatusInternalServerError, "stream_not_supported")
			return
		}
		buf := h.coord.Bridge().Buffer()
		broadcast.SetSSEHeaders(w)
		metricSSEConnectionsTotal.Add(1)
		metricSSEConnectionsActive.Add(1)
		defer metricSSEConnectionsActive.Add(-1)

		ch := buf.Subscribe()
		defer buf.Unsubscribe(ch)

		lastEventID := r.Header.Get("Last-Event-ID")
		if lastEventID != "" {
			for _, ev := range buf.ReplayAfter(lastEventID) {
				if err := broadcast.WriteSSE(w, ev); err != nil {
					return
				}
			}
		}
		hello := broadcast.Event{Type: "hello", ServerTS: time.Now().UnixMilli(), Data: map[string]any{"replayed_after": lastEventID}}
		if err := broadcast.WriteSSE(w, hello); err != nil {
			return
		}
		flusher.Flush()

		ticker := time.NewTicker(ssePingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if err := broadcast.WriteSSE(w, ev); err != nil {
					return
				}
				flusher.Flush()
			case <-ticker.C:
				ping := broadcast.Event{
					Type:     "ping",
					ServerTS: time.Now().UnixMilli(),
					Data:     map[string]any{"ts": time.Now().UnixMilli()},
				}
				if err := broadcast.WriteSSE(w, ping); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
