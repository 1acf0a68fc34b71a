package mcpserver

import (
	"context"

	"genshin-bingo/internal/game"
	"genshin-bingo/internal/game/viewmodel"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerGameTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_game_state",
			mcp.WithDescription("Get the game state; with a token your own board is included"),
			mcp.WithString("token", mcp.Description("Optional player token")),
		),
		s.handleGetGameState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_standings",
			mcp.WithDescription("Get players ranked by full bingo, then lines"),
		),
		s.handleGetStandings,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"draw",
			mcp.WithDescription("Draw the next item when it is your turn"),
			mcp.WithString("token", mcp.Required(), mcp.Description("Player token")),
			mcp.WithNumber("expected_turn", mcp.Description("Turn order you believe is current; stale values are rejected")),
		),
		s.handleDraw,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"post_chat",
			mcp.WithDescription("Post a chat message, or a boast when you rank in the top three"),
			mcp.WithString("token", mcp.Required(), mcp.Description("Player token")),
			mcp.WithString("body", mcp.Required(), mcp.Description("Message text, up to 300 characters")),
			mcp.WithBoolean("boast", mcp.Description("Post as a boast")),
		),
		s.handlePostChat,
	)
}

func (s *Server) handleGetGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	viewer := ""
	if tok := request.GetString("token", ""); tok != "" {
		p, errResp := s.authPlayer(ctx, tok)
		if errResp != nil {
			return errResp, nil
		}
		viewer = p.ID
	}
	snap, err := s.eng.Snapshot(ctx)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(viewmodel.BuildState(snap, s.viewOptions(viewer))), nil
}

func (s *Server) handleGetStandings(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.eng.Standings(ctx)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(map[string]any{"items": items}), nil
}

func (s *Server) handleDraw(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request.GetString("token", ""))
	if errResp != nil {
		return errResp, nil
	}
	res, err := s.coord.Draw(ctx, game.DrawRequest{
		PlayerID:     p.ID,
		ExpectedTurn: request.GetInt("expected_turn", 0),
	})
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(res), nil
}

func (s *Server) handlePostChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request.GetString("token", ""))
	if errResp != nil {
		return errResp, nil
	}
	msg, err := s.coord.PostChat(ctx, p.ID, request.GetString("body", ""), request.GetBool("boast", false))
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(msg), nil
}
