package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"genshin-bingo/internal/auth"
	"genshin-bingo/internal/config"
	"genshin-bingo/internal/coordinator"
	"genshin-bingo/internal/mcpserver"
	"genshin-bingo/internal/presence"
	"genshin-bingo/internal/ws"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Deps struct {
	Coord     *coordinator.Coordinator
	Issuer    *auth.Issuer
	Snapshots *presence.Snapshots
	Server    config.ServerConfig
	Game      config.GameConfig
	Checks    map[string]HealthCheck
}

func NewRouter(d Deps) *chi.Mux {
	h := NewHandlers(d.Coord, d.Issuer, d.Snapshots, d.Server.AdminAPIKey, d.Game)
	adminHandlers := NewAdminHandlers(d.Checks)
	wsSrv := ws.NewServer(d.Coord, d.Issuer, d.Snapshots)
	mcpSrv := mcpserver.New(d.Coord, d.Issuer)
	playerAuth := PlayerAuthMiddleware(d.Issuer, d.Coord.Engine())

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())
	r.With(APILogMiddleware()).Get("/ws", wsSrv.HandleWS)
	r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	})
	r.With(APILogMiddleware()).Method(http.MethodPost, "/mcp", mcpSrv.Handler())
	r.With(APILogMiddleware()).Method(http.MethodGet, "/mcp", mcpSrv.Handler())
	r.With(APILogMiddleware()).Method(http.MethodDelete, "/mcp", mcpSrv.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Post("/players", h.Register())
		r.Get("/players", h.Players())
		r.Get("/state", h.State())
		r.Get("/standings", h.Standings())
		r.Get("/game/history", h.History())
		r.Get("/chat", h.Chat())
		r.Get("/online-users", h.OnlineUsers())
		r.Get("/events", h.Events())
		r.Post("/check-turn", h.CheckTurn())

		r.Group(func(r chi.Router) {
			r.Use(playerAuth)
			r.Get("/me", h.Me())
			r.Put("/me/board/{slot}", h.SetSlot())
			r.Delete("/me/board/{slot}", h.SetSlot())
			r.Post("/me/board/random", h.RandomFill())
			r.Delete("/me/board", h.ClearBoard())
			r.Post("/me/ready", h.ToggleReady())
			r.Post("/me/heartbeat", h.Heartbeat())

			r.Post("/game/draw", h.Draw())
			r.Post("/game/start-request", h.RequestStart())
			r.Post("/game/start-request/agree", h.AgreeStart())
			r.Delete("/game/start-request", h.CancelStart())

			r.Post("/chat", h.PostChat())
			r.Post("/online-users", h.ReportOnlineUsers())

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Use(BodyCaptureMiddleware(4096))
				r.Post("/game/start", h.Start())
				r.Post("/game/reset", h.Reset())
				r.Delete("/players/{player_id}", h.DeletePlayer())
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(d.Server.AdminAPIKey))
			r.Get("/debug/vars", expvar.Handler().ServeHTTP)
		})
	})

	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 64)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
