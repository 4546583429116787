package action

import "dnsc/internal/snapshot"

// BatchJob is a sequence of action envelopes meant to apply atomically
// against the same parent chain: if any envelope is rejected, none of the
// batch's snapshots become the project's current snapshot. Each
// intermediate snapshot produced along the way is still a genuine,
// addressable, immutable snapshot — only the "current" pointer advance is
// all-or-nothing.
type BatchJob struct {
	Envelopes []Envelope
}

// BatchResult is the outcome of applying a BatchJob.
type BatchResult struct {
	// Committed is true iff every envelope applied cleanly. When false,
	// FailedAt names the zero-based index of the first rejection and Err
	// holds its error; Chain contains only the snapshots produced before
	// the failure (for inspection — none of them should be treated as the
	// project's new current snapshot).
	Committed bool
	Chain     []*snapshot.Snapshot
	Events    [][]Event
	FailedAt  int
	Err       error
}

// ApplyBatch applies envelopes in order, each against the previous
// envelope's resulting snapshot (or parent, for the first). It stops at the
// first rejection rather than skipping it.
func (a *Applier) ApplyBatch(parent *snapshot.Snapshot, job BatchJob) BatchResult {
	current := parent
	result := BatchResult{FailedAt: -1}
	for i, env := range job.Envelopes {
		child, events, err := a.Apply(current, env)
		if err != nil {
			result.FailedAt = i
			result.Err = err
			return result
		}
		result.Chain = append(result.Chain, child)
		result.Events = append(result.Events, events)
		current = child
	}
	result.Committed = true
	return result
}
