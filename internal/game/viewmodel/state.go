package viewmodel

import (
	"slices"
	"time"

	"genshin-bingo/internal/game"
)

type PlayerView struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	IsAdmin bool     `json:"is_admin"`
	Order   int      `json:"order"`
	Score   int      `json:"score"`
	IsReady bool     `json:"is_ready"`
	Filled  int      `json:"filled"`
	Online  bool     `json:"online"`
	IsTurn  bool     `json:"is_turn"`
	Agreed  bool     `json:"agreed"`
	Board   []string `json:"board,omitempty"`
}

type StartRequestView struct {
	RequestedBy string    `json:"requested_by"`
	Agreed      []string  `json:"agreed"`
	ExpiresAt   time.Time `json:"expires_at"`
	AllAgreed   bool      `json:"all_agreed"`
}

type StateView struct {
	Phase        string            `json:"phase"`
	Version      int64             `json:"version"`
	CurrentOrder int               `json:"current_order"`
	WinnerID     string            `json:"winner_id,omitempty"`
	DrawnNames   []string          `json:"drawn_names"`
	LastDrawn    string            `json:"last_drawn,omitempty"`
	Remaining    int               `json:"remaining"`
	Participants int               `json:"participants"`
	TurnLeftMS   int64             `json:"turn_left_ms"`
	StartRequest *StartRequestView `json:"start_request,omitempty"`
	MyID         string            `json:"my_id,omitempty"`
	MyBoard      []string          `json:"my_board,omitempty"`
	IsMyTurn     bool              `json:"is_my_turn"`
	Players      []PlayerView      `json:"players"`
}

type Options struct {
	ViewerID            string
	Now                 time.Time
	TurnTimeout         time.Duration
	StartRequestTimeout time.Duration
}

// BuildState renders snap for one viewer. Other players' boards stay hidden
// until the round is finished.
func BuildState(snap *game.Snapshot, opts Options) StateView {
	st := snap.State
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	drawn := append([]string{}, st.DrawnNames...)
	out := StateView{
		Phase:        string(st.Phase),
		Version:      st.Version,
		CurrentOrder: st.CurrentOrder,
		WinnerID:     st.WinnerID,
		DrawnNames:   drawn,
		Remaining:    snap.Remaining,
		Participants: st.Participants,
		MyID:         opts.ViewerID,
		Players:      make([]PlayerView, 0, len(snap.Players)),
	}
	if len(drawn) > 0 {
		out.LastDrawn = drawn[len(drawn)-1]
	}
	if st.InProgress() && st.TurnStartedAt != nil && opts.TurnTimeout > 0 {
		left := st.TurnStartedAt.Add(opts.TurnTimeout).Sub(opts.Now)
		if left < 0 {
			left = 0
		}
		out.TurnLeftMS = left.Milliseconds()
	}
	if st.HasPendingRequest() {
		req := &StartRequestView{
			RequestedBy: st.StartRequestedBy,
			Agreed:      append([]string{}, st.StartAgreedUsers...),
			AllAgreed:   snap.AllAgreed,
		}
		if st.StartRequestedAt != nil {
			req.ExpiresAt = st.StartRequestedAt.Add(opts.StartRequestTimeout)
		}
		out.StartRequest = req
	}

	for _, p := range snap.Players {
		isTurn := st.InProgress() && p.Active() && p.Order == st.CurrentOrder
		view := PlayerView{
			ID:      p.ID,
			Name:    p.Name,
			IsAdmin: p.IsAdmin,
			Order:   p.Order,
			Score:   p.Score,
			IsReady: p.IsReady,
			Filled:  p.Filled,
			Online:  p.Online,
			IsTurn:  isTurn,
			Agreed:  slices.Contains(st.StartAgreedUsers, p.ID),
		}
		if st.IsFinished() || p.ID == opts.ViewerID {
			view.Board = append([]string{}, p.Board...)
		}
		if p.ID == opts.ViewerID {
			out.MyBoard = p.Board.Normalize()
			out.IsMyTurn = isTurn
		}
		out.Players = append(out.Players, view)
	}
	return out
}

// BuildPublicState renders snap for a spectator.
func BuildPublicState(snap *game.Snapshot, opts Options) StateView {
	opts.ViewerID = ""
	return BuildState(snap, opts)
}
