package store

import (
	"context"

	"genshin-bingo/internal/game"

	"github.com/jackc/pgx/v5/pgtype"
)

func (s *Store) AppendChat(ctx context.Context, msg game.ChatMessage) error {
	var rank pgtype.Int4
	if msg.Rank > 0 {
		rank = pgtype.Int4{Int32: int32(msg.Rank), Valid: true}
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO chat_messages (id, player_id, player_name, body, kind, rank, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, msg.PlayerID, msg.PlayerName, msg.Body, string(msg.Kind), rank, msg.CreatedAt)
	return err
}

// ListChat returns the newest limit messages, oldest first.
func (s *Store) ListChat(ctx context.Context, limit int) ([]game.ChatMessage, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, player_id, player_name, body, kind, rank, created_at FROM (
			SELECT * FROM chat_messages ORDER BY created_at DESC, id DESC LIMIT $1
		) recent ORDER BY created_at, id`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []game.ChatMessage{}
	for rows.Next() {
		var (
			m    game.ChatMessage
			kind string
			rank pgtype.Int4
		)
		if err := rows.Scan(&m.ID, &m.PlayerID, &m.PlayerName, &m.Body, &kind, &rank, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Kind = game.ChatKind(kind)
		m.Rank = intVal(rank)
		out = append(out, m)
	}
	return out, rows.Err()
}
