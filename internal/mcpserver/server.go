package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"genshin-bingo/internal/auth"
	"genshin-bingo/internal/coordinator"
	"genshin-bingo/internal/game"
	"genshin-bingo/internal/game/viewmodel"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const publicStateURI = "bingo://state/public"

type Server struct {
	coord  *coordinator.Coordinator
	eng    *game.Engine
	issuer *auth.Issuer

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(coord *coordinator.Coordinator, issuer *auth.Issuer) *Server {
	mcpSrv := server.NewMCPServer(
		"genshin-bingo",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		coord:      coord,
		eng:        coord.Engine(),
		issuer:     issuer,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerLobbyTools()
	s.registerGameTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcp.NewResource(
			publicStateURI,
			"game_public_state",
			mcp.WithResourceDescription("Current game state without any private board"),
			mcp.WithMIMEType("application/json"),
		),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			snap, err := s.eng.Snapshot(ctx)
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(viewmodel.BuildPublicState(snap, s.viewOptions("")))
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      publicStateURI,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			}, nil
		},
	)
}

func (s *Server) authPlayer(ctx context.Context, token string) (*game.Player, *mcp.CallToolResult) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, toolError("invalid_request", "token is required")
	}
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return nil, toolError("unauthorized", "invalid token")
	}
	p, err := s.eng.Player(ctx, claims.Subject)
	if err != nil {
		if game.KindOf(err) == game.KindNotFound {
			return nil, toolError("unauthorized", "player no longer exists")
		}
		return nil, mapDomainError(err)
	}
	return p, nil
}

func (s *Server) viewOptions(viewerID string) viewmodel.Options {
	rules := s.eng.Rules()
	return viewmodel.Options{
		ViewerID:            viewerID,
		Now:                 time.Now(),
		TurnTimeout:         rules.TurnTimeout,
		StartRequestTimeout: rules.StartRequestTimeout,
	}
}
