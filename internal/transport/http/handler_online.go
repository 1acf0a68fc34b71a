package httptransport

import (
	"net/http"
	"time"

	"genshin-bingo/internal/game"
)

type onlineRequest struct {
	PlayerIDs []string `json:"player_ids"`
	// ClientTS is the reporter's clock in unix milliseconds.
	ClientTS int64 `json:"client_ts"`
}

func (h *Handlers) OnlineUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := h.snapshots.Get(r.Context())
		if err != nil {
			writeErr(w, &game.StoreError{Op: "get_online_snapshot", Err: err})
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func (h *Handlers) ReportOnlineUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := mustPlayer(w, r); !ok {
			return
		}
		var req onlineRequest
		if err := decodeBody(r, &req); err != nil || req.ClientTS <= 0 {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		snap, err := h.snapshots.Report(r.Context(), req.PlayerIDs, time.UnixMilli(req.ClientTS))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}
