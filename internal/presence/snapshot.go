package presence

import (
	"context"
	"errors"
	"slices"
	"time"
)

var ErrStaleSnapshot = errors.New("stale_snapshot")

// Snapshot is the last reported online-user list.
type Snapshot struct {
	PlayerIDs []string  `json:"player_ids"`
	ClientTS  time.Time `json:"client_ts"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SnapshotStore interface {
	// GetOnlineSnapshot returns nil when nothing was reported yet.
	GetOnlineSnapshot(ctx context.Context) (*Snapshot, error)
	// SaveOnlineSnapshot writes snap only if it is strictly newer than the
	// stored one and reports whether it did.
	SaveOnlineSnapshot(ctx context.Context, snap Snapshot) (bool, error)
}

type Snapshots struct {
	store SnapshotStore
	now   func() time.Time
}

func NewSnapshots(store SnapshotStore) *Snapshots {
	return &Snapshots{store: store, now: time.Now}
}

func (s *Snapshots) Get(ctx context.Context) (Snapshot, error) {
	snap, err := s.store.GetOnlineSnapshot(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if snap == nil {
		return Snapshot{PlayerIDs: []string{}}, nil
	}
	return *snap, nil
}

// Report stores ids as of clientTS. Reports not newer than the stored one
// fail with ErrStaleSnapshot and change nothing.
func (s *Snapshots) Report(ctx context.Context, ids []string, clientTS time.Time) (Snapshot, error) {
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(clean, id) {
			clean = append(clean, id)
		}
	}
	slices.Sort(clean)
	snap := Snapshot{PlayerIDs: clean, ClientTS: clientTS.UTC(), UpdatedAt: s.now().UTC()}
	ok, err := s.store.SaveOnlineSnapshot(ctx, snap)
	if err != nil {
		return Snapshot{}, err
	}
	if !ok {
		return Snapshot{}, ErrStaleSnapshot
	}
	return snap, nil
}
