package store

import (
	"sync/atomic"

	"waste-analytics-service/internal/model"
)

// SnapshotStore holds the snapshot requests read from. Publishing replaces
// the whole snapshot; readers keep whichever one they already obtained.
type SnapshotStore struct {
	current atomic.Pointer[model.Snapshot]
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

func (s *SnapshotStore) Current() *model.Snapshot {
	return s.current.Load()
}

func (s *SnapshotStore) Publish(snap *model.Snapshot) {
	s.current.Store(snap)
}
