package httptransport

import (
	"net/http"
	"strconv"

	"genshin-bingo/internal/game"

	"github.com/go-chi/chi/v5"
)

type slotRequest struct {
	Item string `json:"item"`
}

func (h *Handlers) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := mustPlayer(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func (h *Handlers) SetSlot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := mustPlayer(w, r)
		if !ok {
			return
		}
		slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
		if err != nil {
			writeErr(w, game.ErrInvalidSlot)
			return
		}
		item := ""
		if r.Method == http.MethodPut {
			var req slotRequest
			if err := decodeBody(r, &req); err != nil {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
				return
			}
			if req.Item == "" {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
				return
			}
			item = req.Item
		}
		updated, err := h.coord.SetSlot(r.Context(), p.ID, slot, item)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (h *Handlers) RandomFill() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := mustPlayer(w, r)
		if !ok {
			return
		}
		updated, err := h.coord.RandomFill(r.Context(), p.ID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (h *Handlers) ClearBoard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := mustPlayer(w, r)
		if !ok {
			return
		}
		updated, err := h.coord.ClearBoard(r.Context(), p.ID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (h *Handlers) ToggleReady() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := mustPlayer(w, r)
		if !ok {
			return
		}
		ready, err := h.coord.ToggleReady(r.Context(), p.ID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ready": ready})
	}
}

func (h *Handlers) Heartbeat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := mustPlayer(w, r)
		if !ok {
			return
		}
		if err := h.coord.Heartbeat(r.Context(), p.ID); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
