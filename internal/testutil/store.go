package testutil

import (
	"fsdrift/internal/drift"
	"fsdrift/internal/store"
)

// NewMemorySnapshotStore returns an unencrypted snapshot store backed by memory.
func NewMemorySnapshotStore(clock drift.Clock) *store.SnapshotStore {
	return store.NewSnapshotStore(store.NewMemoryBackend(), clock, drift.NewNopLogger())
}
