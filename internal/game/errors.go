package game

import (
	"errors"

	"genshin-bingo/internal/bingo"
)

var (
	ErrInsufficientPlayers   = errors.New("insufficient_players")
	ErrInsufficientReady     = errors.New("insufficient_ready")
	ErrNotEligible           = errors.New("not_eligible")
	ErrBoardIncomplete       = errors.New("board_incomplete")
	ErrBoardLocked           = errors.New("board_locked")
	ErrInvalidSlot           = errors.New("invalid_slot")
	ErrUnknownItem           = errors.New("unknown_item")
	ErrDuplicateItem         = errors.New("duplicate_item")
	ErrInvalidName           = errors.New("invalid_name")
	ErrInvalidMessage        = errors.New("invalid_message")
	ErrNotYourTurn           = errors.New("not_your_turn")
	ErrGameNotStarted        = errors.New("game_not_started")
	ErrGameAlreadyStarted    = errors.New("game_already_started")
	ErrGameFinished          = errors.New("game_finished")
	ErrNotTopRanked          = errors.New("not_top_ranked")
	ErrRequestAlreadyPending = errors.New("request_already_pending")
	ErrNoPendingRequest      = errors.New("no_pending_request")
	ErrNotAllAgreed          = errors.New("not_all_agreed")
	ErrNameTaken             = errors.New("name_taken")
	ErrStaleTurn             = errors.New("stale_turn")
	ErrStaleState            = errors.New("stale_state")
	ErrForbidden             = errors.New("forbidden")
	ErrPlayerNotFound        = errors.New("player_not_found")
	ErrExhaustedPool         = bingo.ErrExhaustedPool
)

// Kind groups errors by how a caller should react to them.
type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindExhaustion Kind = "exhaustion"
	KindForbidden  Kind = "forbidden"
	KindNotFound   Kind = "not_found"
	KindStore      Kind = "store"
	KindUnknown    Kind = "unknown"
)

var kinds = map[error]Kind{
	ErrInsufficientPlayers:   KindValidation,
	ErrInsufficientReady:     KindValidation,
	ErrNotEligible:           KindValidation,
	ErrBoardIncomplete:       KindValidation,
	ErrBoardLocked:           KindValidation,
	ErrInvalidSlot:           KindValidation,
	ErrUnknownItem:           KindValidation,
	ErrDuplicateItem:         KindValidation,
	ErrInvalidName:           KindValidation,
	ErrInvalidMessage:        KindValidation,
	ErrNotYourTurn:           KindValidation,
	ErrGameNotStarted:        KindValidation,
	ErrGameAlreadyStarted:    KindValidation,
	ErrGameFinished:          KindValidation,
	ErrNotTopRanked:          KindValidation,
	ErrRequestAlreadyPending: KindConflict,
	ErrNoPendingRequest:      KindConflict,
	ErrNotAllAgreed:          KindConflict,
	ErrNameTaken:             KindConflict,
	ErrStaleTurn:             KindConflict,
	ErrStaleState:            KindConflict,
	ErrExhaustedPool:         KindExhaustion,
	ErrForbidden:             KindForbidden,
	ErrPlayerNotFound:        KindNotFound,
}

// StoreError wraps an I/O failure against the durable store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "store " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for sentinel := range kinds {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return &StoreError{Op: op, Err: err}
}

// KindOf classifies err.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var se *StoreError
	if errors.As(err, &se) {
		return KindStore
	}
	for sentinel, kind := range kinds {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindUnknown
}

// Code returns the wire code of err.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var se *StoreError
	if errors.As(err, &se) {
		return "store_error"
	}
	for sentinel := range kinds {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal_error"
}
