package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerLobbyTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"register_player",
			mcp.WithDescription("Register a player and receive its token"),
			mcp.WithString("name", mcp.Required(), mcp.Description("Display name, 1-32 characters")),
		),
		s.handleRegisterPlayer,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"random_fill_board",
			mcp.WithDescription("Fill every empty slot of your board with random unused items"),
			mcp.WithString("token", mcp.Required(), mcp.Description("Player token")),
		),
		s.handleRandomFill,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"toggle_ready",
			mcp.WithDescription("Flip your ready flag; needs a complete board to become ready"),
			mcp.WithString("token", mcp.Required(), mcp.Description("Player token")),
		),
		s.handleToggleReady,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"request_start",
			mcp.WithDescription("Open a vote to start the round"),
			mcp.WithString("token", mcp.Required(), mcp.Description("Player token")),
		),
		s.handleRequestStart,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"agree_start",
			mcp.WithDescription("Agree to the pending start vote"),
			mcp.WithString("token", mcp.Required(), mcp.Description("Player token")),
		),
		s.handleAgreeStart,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"cancel_start",
			mcp.WithDescription("Cancel the pending start vote"),
			mcp.WithString("token", mcp.Required(), mcp.Description("Player token")),
		),
		s.handleCancelStart,
	)
}

func (s *Server) handleRegisterPlayer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := s.coord.Register(ctx, request.GetString("name", ""), false)
	if err != nil {
		return mapDomainError(err), nil
	}
	tok, err := s.issuer.Issue(p.ID, p.Name)
	if err != nil {
		return toolError("internal_error", err.Error()), nil
	}
	return toolResult(map[string]any{"player": p, "token": tok}), nil
}

func (s *Server) handleRandomFill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request.GetString("token", ""))
	if errResp != nil {
		return errResp, nil
	}
	updated, err := s.coord.RandomFill(ctx, p.ID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(updated), nil
}

func (s *Server) handleToggleReady(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request.GetString("token", ""))
	if errResp != nil {
		return errResp, nil
	}
	ready, err := s.coord.ToggleReady(ctx, p.ID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(map[string]any{"ready": ready}), nil
}

func (s *Server) handleRequestStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request.GetString("token", ""))
	if errResp != nil {
		return errResp, nil
	}
	st, err := s.coord.RequestStart(ctx, p.ID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(st), nil
}

func (s *Server) handleAgreeStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request.GetString("token", ""))
	if errResp != nil {
		return errResp, nil
	}
	all, st, err := s.coord.Agree(ctx, p.ID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(map[string]any{"all_agreed": all, "state": st}), nil
}

func (s *Server) handleCancelStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, errResp := s.authPlayer(ctx, request.GetString("token", "")); errResp != nil {
		return errResp, nil
	}
	st, err := s.coord.CancelStart(ctx)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(st), nil
}
