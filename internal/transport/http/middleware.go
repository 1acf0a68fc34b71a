package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"genshin-bingo/internal/auth"
	"genshin-bingo/internal/game"
	"genshin-bingo/internal/logging"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"
)

type playerContextKey struct{}

func PlayerFromContext(ctx context.Context) (*game.Player, bool) {
	p, ok := ctx.Value(playerContextKey{}).(*game.Player)
	return p, ok
}

func APILogMiddleware() func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		slog.New(slog.NewJSONHandler(logging.Writer(), &slog.HandlerOptions{})),
		&httplog.Options{
			Level:              slog.LevelInfo,
			Schema:             httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
			LogRequestBody:     func(*http.Request) bool { return false },
			LogResponseBody:    func(*http.Request) bool { return false },
			LogRequestHeaders:  []string{},
			LogResponseHeaders: []string{},
			LogExtraAttrs: func(req *http.Request, _ string, _ int) []slog.Attr {
				rc := chi.RouteContext(req.Context())
				route := req.URL.Path
				if rc != nil && rc.RoutePattern() != "" {
					route = rc.RoutePattern()
				}
				attrs := []slog.Attr{
					slog.String("request_id", chimw.GetReqID(req.Context())),
					slog.String("method", req.Method),
					slog.String("route", route),
					slog.String("path", req.URL.Path),
				}
				if p, ok := PlayerFromContext(req.Context()); ok {
					attrs = append(attrs, slog.String("player_id", p.ID))
				}
				return attrs
			},
		},
	)
}

func BodyCaptureMiddleware(maxCaptureBytes int) func(http.Handler) http.Handler {
	if maxCaptureBytes <= 0 {
		maxCaptureBytes = 4096
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSSERequest(r) {
				next.ServeHTTP(w, r)
				return
			}
			reqBody, err := io.ReadAll(r.Body)
			if err != nil {
				reqBody = nil
			}
			r.Body = io.NopCloser(bytes.NewReader(reqBody))

			cw := &captureWriter{ResponseWriter: w, maxBytes: maxCaptureBytes}
			next.ServeHTTP(cw, r)

			reqLog := reqBody
			if len(reqLog) > maxCaptureBytes {
				reqLog = reqLog[:maxCaptureBytes]
			}
			httplog.SetAttrs(r.Context(),
				slog.Any("request_body", parseMaybeJSON(reqLog)),
				slog.Any("response_body", parseMaybeJSON(cw.body.Bytes())),
				slog.Bool("request_body_truncated", len(reqBody) > maxCaptureBytes),
				slog.Bool("response_body_truncated", cw.truncated),
			)
		})
	}
}

type captureWriter struct {
	http.ResponseWriter
	body      bytes.Buffer
	maxBytes  int
	truncated bool
}

func (c *captureWriter) Write(p []byte) (int, error) {
	if !c.truncated {
		remain := c.maxBytes - c.body.Len()
		if remain > 0 {
			if len(p) <= remain {
				_, _ = c.body.Write(p)
			} else {
				_, _ = c.body.Write(p[:remain])
				c.truncated = true
			}
		} else {
			c.truncated = true
		}
	}
	return c.ResponseWriter.Write(p)
}

func (c *captureWriter) Flush() {
	if f, ok := c.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func parseMaybeJSON(b []byte) any {
	if len(b) == 0 {
		return ""
	}
	var out any
	if err := json.Unmarshal(b, &out); err == nil {
		return out
	}
	return string(b)
}

func WriteHTTPError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// PlayerAuthMiddleware resolves the bearer token to a live player record.
// A token for a deleted player is rejected.
func PlayerAuthMiddleware(issuer *auth.Issuer, eng *game.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := issuer.Parse(auth.BearerToken(r))
			if err != nil {
				WriteHTTPError(w, http.StatusUnauthorized, "invalid_token")
				return
			}
			p, err := eng.Player(r.Context(), claims.Subject)
			if err != nil {
				status, code := MapError(err)
				if status == http.StatusNotFound {
					status, code = http.StatusUnauthorized, "invalid_token"
				}
				WriteHTTPError(w, status, code)
				return
			}
			ctx := context.WithValue(r.Context(), playerContextKey{}, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// optionalPlayer is PlayerAuthMiddleware without the rejection: anonymous
// requests pass through with no player in context.
func optionalPlayer(issuer *auth.Issuer, eng *game.Engine, r *http.Request) *game.Player {
	claims, err := issuer.Parse(auth.BearerToken(r))
	if err != nil {
		return nil
	}
	p, err := eng.Player(r.Context(), claims.Subject)
	if err != nil {
		return nil
	}
	return p
}

// RequireAdmin must run after PlayerAuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PlayerFromContext(r.Context())
		if !ok || !p.IsAdmin {
			WriteHTTPError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func AdminAuthMiddleware(adminKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey != "" {
				if !CheckAdminAuth(r, adminKey) {
					WriteHTTPError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func CheckAdminAuth(r *http.Request, adminKey string) bool {
	if adminKey == "" {
		return false
	}
	if v := r.Header.Get("X-Admin-Key"); v == adminKey {
		return true
	}
	h := r.Header.Get("Authorization")
	prefix := "Bearer "
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):] == adminKey
	}
	return false
}

func ParseLimit(r *http.Request, def int) int {
	limit := def
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 500 {
		limit = 500
	}
	return limit
}

func isSSERequest(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		return true
	}
	return r.URL.Path == "/api/events"
}
