package httptransport

import (
	"net/http"

	"genshin-bingo/internal/game"
	"genshin-bingo/internal/game/viewmodel"
)

func (h *Handlers) State() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := h.eng.Snapshot(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		viewer := ""
		if p := optionalPlayer(h.issuer, h.eng, r); p != nil {
			viewer = p.ID
		}
		writeJSON(w, http.StatusOK, viewmodel.BuildState(snap, h.viewOptions(viewer)))
	}
}

func (h *Handlers) Standings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.eng.Standings(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

func (h *Handlers) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := ParseLimit(r, 100)
		items, err := h.coord.History(r.Context(), limit)
		if err != nil {
			writeErr(w, &game.StoreError{Op: "list_events", Err: err})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "limit": limit})
	}
}

type startRequest struct {
	Force bool `json:"force"`
}

func (h *Handlers) Start() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := mustPlayer(w, r)
		if !ok {
			return
		}
		var req startRequest
		if err := decodeBody(r, &req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		st, err := h.coord.Start(r.Context(), game.StartOptions{ActorID: p.ID, Force: req.Force})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

type drawRequest struct {
	ExpectedTurn int `json:"expected_turn"`
}

func (h *Handlers) Draw() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := mustPlayer(w, r)
		if !ok {
			return
		}
		var req drawRequest
		if err := decodeBody(r, &req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		res, err := h.coord.Draw(r.Context(), game.DrawRequest{PlayerID: p.ID, ExpectedTurn: req.ExpectedTurn})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (h *Handlers) Reset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := mustPlayer(w, r)
		if !ok {
			return
		}
		st, err := h.coord.Reset(r.Context(), p.ID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func (h *Handlers) RequestStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := mustPlayer(w, r)
		if !ok {
			return
		}
		st, err := h.coord.RequestStart(r.Context(), p.ID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, st)
	}
}

func (h *Handlers) AgreeStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := mustPlayer(w, r)
		if !ok {
			return
		}
		all, st, err := h.coord.Agree(r.Context(), p.ID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"all_agreed": all, "state": st})
	}
}

func (h *Handlers) CancelStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := mustPlayer(w, r); !ok {
			return
		}
		st, err := h.coord.CancelStart(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// CheckTurn runs one reconciliation pass on demand.
func (h *Handlers) CheckTurn() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := h.coord.Reconcile(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}
