package store

import (
	"context"

	"genshin-bingo/internal/game"
	"genshin-bingo/internal/journal"
	"genshin-bingo/internal/presence"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const gameStateColumns = `phase, winner_id, current_order, drawn_names, participants,
	start_requested_by, start_agreed_users, start_requested_at, turn_started_at, version, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGameState(row rowScanner) (*game.GameState, error) {
	var (
		st          game.GameState
		phase       string
		winner      pgtype.Text
		requestedBy pgtype.Text
		requestedAt pgtype.Timestamptz
		turnAt      pgtype.Timestamptz
	)
	if err := row.Scan(&phase, &winner, &st.CurrentOrder, &st.DrawnNames, &st.Participants,
		&requestedBy, &st.StartAgreedUsers, &requestedAt, &turnAt, &st.Version, &st.UpdatedAt); err != nil {
		return nil, err
	}
	st.Phase = game.Phase(phase)
	st.WinnerID = textVal(winner)
	st.StartRequestedBy = textVal(requestedBy)
	st.StartRequestedAt = timePtrVal(requestedAt)
	st.TurnStartedAt = timePtrVal(turnAt)
	st.DrawnNames = nonNil(st.DrawnNames)
	if len(st.StartAgreedUsers) == 0 {
		st.StartAgreedUsers = nil
	}
	return &st, nil
}

func (s *Store) GetGameState(ctx context.Context) (*game.GameState, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+gameStateColumns+` FROM game_state WHERE id = 1`)
	st, err := scanGameState(row)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return st, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// saveState writes st if its version is still current and bumps the version.
func saveState(ctx context.Context, db execer, st *game.GameState) error {
	tag, err := db.Exec(ctx, `
		UPDATE game_state SET
			phase = $1, winner_id = $2, current_order = $3, drawn_names = $4, participants = $5,
			start_requested_by = $6, start_agreed_users = $7, start_requested_at = $8,
			turn_started_at = $9, updated_at = $10, version = version + 1
		WHERE id = 1 AND version = $11`,
		string(st.Phase), textParam(st.WinnerID), st.CurrentOrder, nonNil(st.DrawnNames), st.Participants,
		textParam(st.StartRequestedBy), nonNil(st.StartAgreedUsers), timeParam(st.StartRequestedAt),
		timeParam(st.TurnStartedAt), st.UpdatedAt, st.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return game.ErrStaleState
	}
	st.Version++
	return nil
}

func (s *Store) SaveGameState(ctx context.Context, st *game.GameState) error {
	return saveState(ctx, s.Pool, st)
}

func (s *Store) StartRound(ctx context.Context, st *game.GameState, orders map[string]int) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE players SET turn_order = 0, is_ready = false, score = 0`); err != nil {
		return err
	}
	for id, order := range orders {
		if _, err := tx.Exec(ctx, `UPDATE players SET turn_order = $2 WHERE id = $1`, id, order); err != nil {
			return err
		}
	}
	version := st.Version
	if err := saveState(ctx, tx, st); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		st.Version = version
		return err
	}
	return nil
}

func (s *Store) CommitDraw(ctx context.Context, st *game.GameState, scores map[string]int) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if len(scores) > 0 {
		batch := &pgx.Batch{}
		for id, score := range scores {
			batch.Queue(`UPDATE players SET score = $2 WHERE id = $1`, id, score)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}
	version := st.Version
	if err := saveState(ctx, tx, st); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		st.Version = version
		return err
	}
	return nil
}

func (s *Store) ResetRound(ctx context.Context, st *game.GameState) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE players SET turn_order = 0, is_ready = false, score = 0, board = '{}'`); err != nil {
		return err
	}
	err = tx.QueryRow(ctx, `
		UPDATE game_state SET
			phase = 'idle', winner_id = NULL, current_order = 0, drawn_names = '{}', participants = 0,
			start_requested_by = NULL, start_agreed_users = '{}', start_requested_at = NULL,
			turn_started_at = NULL, updated_at = $1, version = version + 1
		WHERE id = 1
		RETURNING version`, st.UpdatedAt).Scan(&st.Version)
	if err != nil {
		return mapNotFound(err)
	}
	return tx.Commit(ctx)
}

var (
	_ game.Store             = (*Store)(nil)
	_ presence.LivenessStore = (*Store)(nil)
	_ presence.SnapshotStore = (*Store)(nil)
	_ journal.Store          = (*Store)(nil)
)
