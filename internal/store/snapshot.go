package store

import (
	"context"

	"genshin-bingo/internal/presence"
)

func (s *Store) GetOnlineSnapshot(ctx context.Context) (*presence.Snapshot, error) {
	var snap presence.Snapshot
	err := s.Pool.QueryRow(ctx, `SELECT player_ids, client_ts, updated_at FROM online_snapshot WHERE id = 1`).
		Scan(&snap.PlayerIDs, &snap.ClientTS, &snap.UpdatedAt)
	if err != nil {
		if mapNotFound(err) == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	snap.PlayerIDs = nonNil(snap.PlayerIDs)
	return &snap, nil
}

func (s *Store) SaveOnlineSnapshot(ctx context.Context, snap presence.Snapshot) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		INSERT INTO online_snapshot (id, player_ids, client_ts, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			player_ids = EXCLUDED.player_ids,
			client_ts = EXCLUDED.client_ts,
			updated_at = EXCLUDED.updated_at
		WHERE online_snapshot.client_ts < EXCLUDED.client_ts`,
		nonNil(snap.PlayerIDs), snap.ClientTS, snap.UpdatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
