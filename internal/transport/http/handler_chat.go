package httptransport

import "net/http"

type chatRequest struct {
	Body  string `json:"body"`
	Boast bool   `json:"boast"`
}

func (h *Handlers) Chat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := ParseLimit(r, h.game.ChatHistory)
		items, err := h.eng.Chat(r.Context(), limit)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

func (h *Handlers) PostChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := mustPlayer(w, r)
		if !ok {
			return
		}
		var req chatRequest
		if err := decodeBody(r, &req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		msg, err := h.coord.PostChat(r.Context(), p.ID, req.Body, req.Boast)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}
