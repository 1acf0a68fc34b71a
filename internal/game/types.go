package game

import (
	"time"

	"genshin-bingo/internal/bingo"
)

// Phase is the lifecycle position of the shared game.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhasePending  Phase = "pending"
	PhaseStarted  Phase = "started"
	PhaseFinished Phase = "finished"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseIdle, PhasePending, PhaseStarted, PhaseFinished:
		return true
	default:
		return false
	}
}

// GameState is the singleton row every player shares.
type GameState struct {
	Phase            Phase      `json:"phase"`
	WinnerID         string     `json:"winner_id,omitempty"`
	CurrentOrder     int        `json:"current_order"`
	DrawnNames       []string   `json:"drawn_names"`
	Participants     int        `json:"participants"`
	StartRequestedBy string     `json:"start_requested_by,omitempty"`
	StartAgreedUsers []string   `json:"start_agreed_users,omitempty"`
	StartRequestedAt *time.Time `json:"start_requested_at,omitempty"`
	TurnStartedAt    *time.Time `json:"turn_started_at,omitempty"`
	Version          int64      `json:"version"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NeutralState is the state after a reset.
func NeutralState() GameState {
	return GameState{Phase: PhaseIdle, DrawnNames: []string{}}
}

func (s GameState) IsStarted() bool {
	return s.Phase == PhaseStarted || s.Phase == PhaseFinished
}

func (s GameState) IsFinished() bool {
	return s.Phase == PhaseFinished
}

// InProgress reports a started round that has not finished yet.
func (s GameState) InProgress() bool {
	return s.Phase == PhaseStarted
}

func (s GameState) HasPendingRequest() bool {
	return s.Phase == PhasePending && s.StartRequestedBy != ""
}

func (s GameState) Clone() GameState {
	out := s
	out.DrawnNames = append([]string{}, s.DrawnNames...)
	if s.StartAgreedUsers != nil {
		out.StartAgreedUsers = append([]string{}, s.StartAgreedUsers...)
	}
	if s.StartRequestedAt != nil {
		t := *s.StartRequestedAt
		out.StartRequestedAt = &t
	}
	if s.TurnStartedAt != nil {
		t := *s.TurnStartedAt
		out.TurnStartedAt = &t
	}
	return out
}

func (s *GameState) clearRequest() {
	s.StartRequestedBy = ""
	s.StartAgreedUsers = nil
	s.StartRequestedAt = nil
	if s.Phase == PhasePending {
		s.Phase = PhaseIdle
	}
}

type Player struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	IsAdmin   bool        `json:"is_admin"`
	Board     bingo.Board `json:"board"`
	Order     int         `json:"order"`
	Score     int         `json:"score"`
	IsReady   bool        `json:"is_ready"`
	LastSeen  *time.Time  `json:"last_seen,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Active reports whether the player is in the current turn rotation.
func (p Player) Active() bool {
	return p.Order > 0
}

// Eligible reports whether the player may take part in a start.
func (p Player) Eligible() bool {
	return p.IsReady && p.Board.Complete()
}

// PlayerPatch lists the fields an update touches; nil fields stay unchanged.
type PlayerPatch struct {
	Board    *bingo.Board
	Order    *int
	Score    *int
	IsReady  *bool
	LastSeen *time.Time
}

type ChatKind string

const (
	ChatKindMessage ChatKind = "chat"
	ChatKindBoast   ChatKind = "boast"
)

type ChatMessage struct {
	ID         string    `json:"id"`
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	Body       string    `json:"body"`
	Kind       ChatKind  `json:"kind"`
	Rank       int       `json:"rank,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
