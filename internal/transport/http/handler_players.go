package httptransport

import (
	"net/http"
	"time"

	"genshin-bingo/internal/game"
	"genshin-bingo/internal/game/viewmodel"

	"github.com/go-chi/chi/v5"
)

type registerRequest struct {
	Name string `json:"name"`
}

type registerResponse struct {
	Player game.Player `json:"player"`
	Token  string      `json:"token"`
}

// Register creates a player. Callers presenting the admin key get an admin.
func (h *Handlers) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeBody(r, &req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		p, err := h.coord.Register(r.Context(), req.Name, CheckAdminAuth(r, h.adminKey))
		if err != nil {
			writeErr(w, err)
			return
		}
		tok, err := h.issuer.Issue(p.ID, p.Name)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusCreated, registerResponse{Player: *p, Token: tok})
	}
}

func (h *Handlers) Players() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := h.eng.Snapshot(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		view := viewmodel.BuildPublicState(snap, h.viewOptions(""))
		writeJSON(w, http.StatusOK, map[string]any{"items": view.Players})
	}
}

func (h *Handlers) DeletePlayer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := mustPlayer(w, r)
		if !ok {
			return
		}
		if err := h.coord.DeletePlayer(r.Context(), p.ID, chi.URLParam(r, "player_id")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handlers) viewOptions(viewerID string) viewmodel.Options {
	rules := h.eng.Rules()
	return viewmodel.Options{
		ViewerID:            viewerID,
		Now:                 time.Now(),
		TurnTimeout:         rules.TurnTimeout,
		StartRequestTimeout: rules.StartRequestTimeout,
	}
}
