package cache

import "sync/atomic"

// Store holds one source's published snapshot and the single-flight build
// slot. Reads are lock-free pointer loads; the build slot is a compare-
// and-swap so concurrent rebuild triggers cannot interleave.
type Store struct {
	source   string
	building atomic.Bool
	snapshot atomic.Pointer[Snapshot]
}

// NewStore creates an empty store for the named source. Current returns
// nil until the first successful publish.
func NewStore(source string) *Store {
	return &Store{source: source}
}

// Source returns the source name the store serves.
func (s *Store) Source() string { return s.source }

// TryAcquireBuild claims the build slot. It returns false when another
// rebuild already holds it, in which case the caller must not build.
func (s *Store) TryAcquireBuild() bool {
	return s.building.CompareAndSwap(false, true)
}

// ReleaseBuild frees the build slot. Callers release on every exit path,
// including panics.
func (s *Store) ReleaseBuild() {
	s.building.Store(false)
}

// Building reports whether a rebuild currently holds the build slot.
func (s *Store) Building() bool {
	return s.building.Load()
}

// Publish atomically replaces the current snapshot. Readers holding the
// previous snapshot keep a consistent view until they drop it.
func (s *Store) Publish(snap *Snapshot) {
	s.snapshot.Store(snap)
}

// Current returns the latest published snapshot, or nil before the first
// publish.
func (s *Store) Current() *Snapshot {
	return s.snapshot.Load()
}

// Status returns the current snapshot's metadata. ok is false before the
// first publish.
func (s *Store) Status() (Meta, bool) {
	snap := s.Current()
	if snap == nil {
		return Meta{}, false
	}
	return snap.Meta, true
}
