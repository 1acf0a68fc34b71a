package store

import (
	"context"
	"time"

	"genshin-bingo/internal/bingo"
	"genshin-bingo/internal/game"

	"github.com/jackc/pgx/v5/pgtype"
)

const playerColumns = `id, name, is_admin, board, turn_order, score, is_ready, last_seen, created_at`

func scanPlayer(row rowScanner) (*game.Player, error) {
	var (
		p        game.Player
		board    []string
		lastSeen pgtype.Timestamptz
	)
	if err := row.Scan(&p.ID, &p.Name, &p.IsAdmin, &board, &p.Order, &p.Score, &p.IsReady, &lastSeen, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Board = bingo.Board(nonNil(board))
	p.LastSeen = timePtrVal(lastSeen)
	return &p, nil
}

func (s *Store) ListPlayers(ctx context.Context) ([]game.Player, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+playerColumns+` FROM players ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []game.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Store) GetPlayer(ctx context.Context, id string) (*game.Player, error) {
	p, err := scanPlayer(s.Pool.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id))
	if err != nil {
		if mapNotFound(err) == ErrNotFound {
			return nil, game.ErrPlayerNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Store) CreatePlayer(ctx context.Context, p game.Player) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO players (id, name, is_admin, board, turn_order, score, is_ready, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Name, p.IsAdmin, nonNil(p.Board), p.Order, p.Score, p.IsReady, p.CreatedAt)
	if isUniqueViolation(err) {
		return game.ErrNameTaken
	}
	return err
}

func (s *Store) UpdatePlayer(ctx context.Context, id string, patch game.PlayerPatch) error {
	var board []string
	if patch.Board != nil {
		board = nonNil(*patch.Board)
	}
	tag, err := s.Pool.Exec(ctx, `
		UPDATE players SET
			board = CASE WHEN $2::boolean THEN $3::text[] ELSE board END,
			turn_order = COALESCE($4, turn_order),
			score = COALESCE($5, score),
			is_ready = COALESCE($6, is_ready),
			last_seen = COALESCE($7, last_seen)
		WHERE id = $1`,
		id, patch.Board != nil, board, intPtrParam(patch.Order), intPtrParam(patch.Score),
		boolPtrParam(patch.IsReady), timeParam(patch.LastSeen))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return game.ErrPlayerNotFound
	}
	return nil
}

func (s *Store) DeletePlayer(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return game.ErrPlayerNotFound
	}
	return nil
}

// TouchLastSeen records a heartbeat for every id.
func (s *Store) TouchLastSeen(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.Pool.Exec(ctx, `UPDATE players SET last_seen = GREATEST(COALESCE(last_seen, $2), $2) WHERE id = ANY($1)`, ids, at)
	return err
}
