package proof

import (
	"dnsc/internal/dnscerr"
	"dnsc/internal/snapshot"
)

// StaleGuard implements the supplemented stale-results check: a ResultSet
// computed against one snapshot is stale the moment the project's current
// snapshot for that case has moved on, because every downstream artifact
// (proof steps, totals, warnings) was derived against a structural payload
// that no longer exists.
type StaleGuard struct{}

// Check compares resultSnapshotHash, the fingerprint a ResultSet was
// computed against, with current's fingerprint. A mismatch is reported as
// a StaleResultsError naming the superseding fingerprint; affectedFields
// lets the caller say which parts of the result depend on the stale data
// (e.g. ["nodes", "branches"] for a topology change, ["totals"] for a
// load change) without StaleGuard itself inspecting the diff.
func (StaleGuard) Check(resultSetID, resultSnapshotHash string, current *snapshot.Snapshot, affectedFields []string) error {
	if current.Fingerprint() == resultSnapshotHash {
		return nil
	}
	return &dnscerr.StaleResultsError{
		ResultSetID:    resultSetID,
		SnapshotID:     resultSnapshotHash,
		SupersededBy:   current.Fingerprint(),
		AffectedFields: affectedFields,
	}
}
