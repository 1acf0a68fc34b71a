package httptransport

import (
	"errors"
	"net/http"

	"genshin-bingo/internal/auth"
	"genshin-bingo/internal/game"
	"genshin-bingo/internal/presence"
)

// MapError turns a domain error into a status and wire code.
func MapError(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid_token"
	case errors.Is(err, presence.ErrStaleSnapshot):
		return http.StatusConflict, "stale_snapshot"
	}
	code := game.Code(err)
	switch game.KindOf(err) {
	case game.KindValidation:
		return http.StatusBadRequest, code
	case game.KindConflict:
		return http.StatusConflict, code
	case game.KindExhaustion:
		return http.StatusUnprocessableEntity, code
	case game.KindForbidden:
		return http.StatusForbidden, code
	case game.KindNotFound:
		return http.StatusNotFound, code
	case game.KindStore:
		return http.StatusServiceUnavailable, code
	}
	return http.StatusInternalServerError, "internal_error"
}

func writeErr(w http.ResponseWriter, err error) {
	metricRequestErrors.Add(1)
	status, code := MapError(err)
	WriteHTTPError(w, status, code)
}
