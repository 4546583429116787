package envelope

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dnsc/internal/catalog"
	"dnsc/internal/snapshot"
)

func twoNodeSnapshot(t *testing.T, bothPQ bool) *snapshot.Snapshot {
	t.Helper()
	kindA := snapshot.NodeSlack
	if bothPQ {
		kindA = snapshot.NodePQ
	}
	activeMW := 2.0
	reactiveMvar := 0.5
	s, err := snapshot.New(snapshot.Params{
		ID: "s1", CreatedAt: time.Now().UTC(), NetworkModelID: "net-1", SchemaVersion: "1",
		Nodes: map[string]snapshot.Node{
			"A": {ID: "A", Kind: kindA, NominalVoltageKV: 110},
			"B": {ID: "B", Kind: snapshot.NodePQ, NominalVoltageKV: 110, ScheduledActiveMW: &activeMW, ScheduledReactiveMvar: &reactiveMvar},
		},
		Branches: map[string]snapshot.Branch{
			"L1": {
				ID: "L1", Kind: snapshot.BranchLine, FromNode: "A", ToNode: "B", InService: true, LengthKm: 1,
				InlineImpedance: &snapshot.InlineImpedance{ROhmPerKm: 0.4, XOhmPerKm: 0.8, LengthKm: 1},
			},
		},
	})
	require.NoError(t, err)
	return s
}

func TestBuildLoadFlowEnvelopeEligibleOnCleanSnapshot(t *testing.T) {
	s := twoNodeSnapshot(t, false)
	reg := catalog.NewRegistry(nil)
	env, err := Build(context.Background(), s, reg, "case-1", AnalysisLoadFlow)
	require.NoError(t, err)
	assert.True(t, env.Eligibility.Eligible)
	assert.Equal(t, 1, env.SchemaVersion)
	assert.Equal(t, s.Fingerprint(), env.SnapshotRevision)
}

func TestBuildShortCircuitEnvelopeIneligibleWithoutSlack(t *testing.T) {
	s := twoNodeSnapshot(t, true)
	reg := catalog.NewRegistry(nil)
	env, err := Build(context.Background(), s, reg, "case-2", AnalysisShortCircuit3F)
	require.NoError(t, err)
	assert.False(t, env.Eligibility.Eligible)

	var codes []string
	for _, b := range env.Eligibility.Blockers {
		codes = append(codes, b.Code)
	}
	assert.Contains(t, codes, "E-D01")
}

func TestBuildRejectsUnknownAnalysisType(t *testing.T) {
	s := twoNodeSnapshot(t, false)
	reg := catalog.NewRegistry(nil)
	_, err := Build(context.Background(), s, reg, "case-1", AnalysisType("BOGUS"))
	require.Error(t, err)
}

func TestBuildContentHashDeterministic(t *testing.T) {
	s := twoNodeSnapshot(t, false)
	reg := catalog.NewRegistry(nil)
	e1, err := Build(context.Background(), s, reg, "case-1", AnalysisLoadFlow)
	require.NoError(t, err)
	e2, err := Build(context.Background(), s, reg, "case-1", AnalysisLoadFlow)
	require.NoError(t, err)
	assert.Equal(t, e1.ContentHash, e2.ContentHash)
}
