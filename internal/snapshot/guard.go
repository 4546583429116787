package snapshot

import "dnsc/internal/dnscerr"

// Guard wraps a *Snapshot and rejects every operation that would require
// mutating it in place. Snapshots are immutable by construction already;
// Guard exists so callers that hold a generic "working copy" handle can be
// given a type that makes read-only-ness part of its API rather than a
// convention (spec.md §3.1's "snapshots are never mutated" invariant).
type Guard struct {
	snapshot *Snapshot
}

// NewGuard wraps s. A nil snapshot produces a Guard whose Snapshot method
// reports CorruptedState.
func NewGuard(s *Snapshot) *Guard {
	return &Guard{snapshot: s}
}

// Snapshot returns the wrapped, read-only snapshot.
func (g *Guard) Snapshot() (*Snapshot, error) {
	if g.snapshot == nil {
		return nil, &dnscerr.CorruptedState{Reason: "guard wraps a nil snapshot"}
	}
	return g.snapshot, nil
}

// Mutate always fails: there is no in-place mutation path for a Snapshot.
// Callers must go through the Action Protocol to derive a new, child
// snapshot instead.
func (g *Guard) Mutate() error {
	return dnscerr.ErrReadOnlyViolation
}
