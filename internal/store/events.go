package store

import (
	"context"
	"encoding/json"

	"genshin-bingo/internal/journal"

	"github.com/jackc/pgx/v5/pgtype"
)

func (s *Store) AppendEvent(ctx context.Context, e journal.Entry) error {
	detail, err := json.Marshal(e.Detail)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO game_events (id, kind, player_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, string(e.Kind), textParam(e.PlayerID), detail, e.CreatedAt)
	return err
}

// ListEvents returns the newest limit events, newest first.
func (s *Store) ListEvents(ctx context.Context, limit int) ([]journal.Entry, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, kind, player_id, detail, created_at
		FROM game_events ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []journal.Entry{}
	for rows.Next() {
		var (
			e        journal.Entry
			kind     string
			playerID pgtype.Text
			detail   []byte
		)
		if err := rows.Scan(&e.ID, &kind, &playerID, &detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = journal.Kind(kind)
		e.PlayerID = textVal(playerID)
		if err := json.Unmarshal(detail, &e.Detail); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
