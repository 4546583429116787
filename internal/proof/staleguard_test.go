package proof

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dnsc/internal/dnscerr"
	"dnsc/internal/snapshot"
)

func genesisSnapshot(t *testing.T) *snapshot.Snapshot {
	t.Helper()
	s, err := snapshot.New(snapshot.Params{
		ID: "s1", CreatedAt: time.Now().UTC(), NetworkModelID: "net-1", SchemaVersion: "1",
		Nodes: map[string]snapshot.Node{
			"A": {ID: "A", Kind: snapshot.NodeSlack, NominalVoltageKV: 110},
		},
	})
	require.NoError(t, err)
	return s
}

func TestStaleGuardPassesWhenFingerprintMatches(t *testing.T) {
	s := genesisSnapshot(t)
	err := StaleGuard{}.Check("rs-1", s.Fingerprint(), s, nil)
	assert.NoError(t, err)
}

func TestStaleGuardFailsWhenFingerprintDiverges(t *testing.T) {
	s := genesisSnapshot(t)
	err := StaleGuard{}.Check("rs-1", "stale-hash", s, []string{"nodes"})
	require.Error(t, err)
	var stale *dnscerr.StaleResultsError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, s.Fingerprint(), stale.SupersededBy)
	assert.Equal(t, []string{"nodes"}, stale.AffectedFields)
}
