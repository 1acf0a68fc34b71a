package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"genshin-bingo/internal/auth"
	"genshin-bingo/internal/config"
	"genshin-bingo/internal/coordinator"
	"genshin-bingo/internal/game"
	"genshin-bingo/internal/presence"
)

type Handlers struct {
	coord     *coordinator.Coordinator
	eng       *game.Engine
	issuer    *auth.Issuer
	snapshots *presence.Snapshots
	adminKey  string
	game      config.GameConfig
}

func NewHandlers(coord *coordinator.Coordinator, issuer *auth.Issuer, snapshots *presence.Snapshots, adminKey string, gameCfg config.GameConfig) *Handlers {
	return &Handlers{
		coord:     coord,
		eng:       coord.Engine(),
		issuer:    issuer,
		snapshots: snapshots,
		adminKey:  adminKey,
		game:      gameCfg,
	}
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func mustPlayer(w http.ResponseWriter, r *http.Request) (*game.Player, bool) {
	p, ok := PlayerFromContext(r.Context())
	if !ok {
		WriteHTTPError(w, http.StatusUnauthorized, "invalid_token")
		return nil, false
	}
	return p, true
}
