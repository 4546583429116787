package validation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dnsc/internal/catalog"
	"dnsc/internal/snapshot"
)

func twoPQOnlySnapshot(t *testing.T) *snapshot.Snapshot {
	t.Helper()
	s, err := snapshot.New(snapshot.Params{
		ID: "snap-1", CreatedAt: time.Now().UTC(), NetworkModelID: "net-1", SchemaVersion: "1",
		Nodes: map[string]snapshot.Node{
			"n1": {ID: "n1", Kind: snapshot.NodePQ, NominalVoltageKV: 15},
			"n2": {ID: "n2", Kind: snapshot.NodePQ, NominalVoltageKV: 15},
		},
	})
	require.NoError(t, err)
	return s
}

func TestValidateFlagsMissingSlackNode(t *testing.T) {
	s := twoPQOnlySnapshot(t)
	e := NewEngine()
	report, err := e.Validate(context.Background(), s, catalog.NewRegistry(nil))
	require.NoError(t, err)
	require.True(t, report.IsBlocked())
	assert.Equal(t, "E-D01", report.Blockers[0].Code)
}

func TestValidateFlagsDisconnectedComponents(t *testing.T) {
	s, err := snapshot.New(snapshot.Params{
		ID: "snap-1", CreatedAt: time.Now().UTC(), NetworkModelID: "net-1", SchemaVersion: "1",
		Nodes: map[string]snapshot.Node{
			"n1": {ID: "n1", Kind: snapshot.NodeSlack, NominalVoltageKV: 15},
			"n2": {ID: "n2", Kind: snapshot.NodePQ, NominalVoltageKV: 15},
		},
	})
	require.NoError(t, err)
	e := NewEngine()
	report, err := e.Validate(context.Background(), s, catalog.NewRegistry(nil))
	require.NoError(t, err)
	var codes []string
	for _, i := range report.Blockers {
		codes = append(codes, i.Code)
	}
	assert.Contains(t, codes, "E-D03")
}

func TestValidateReportIsSortedDeterministically(t *testing.T) {
	s := twoPQOnlySnapshot(t)
	e := NewEngine()
	r1, err := e.Validate(context.Background(), s, catalog.NewRegistry(nil))
	require.NoError(t, err)
	r2, err := e.Validate(context.Background(), s, catalog.NewRegistry(nil))
	require.NoError(t, err)
	assert.Equal(t, r1.All(), r2.All())
}

func TestValidateCleanSnapshotHasNoBlockers(t *testing.T) {
	s, err := snapshot.New(snapshot.Params{
		ID: "snap-1", CreatedAt: time.Now().UTC(), NetworkModelID: "net-1", SchemaVersion: "1",
		Nodes: map[string]snapshot.Node{
			"n1": {ID: "n1", Kind: snapshot.NodeSlack, NominalVoltageKV: 15},
			"n2": {ID: "n2", Kind: snapshot.NodePQ, NominalVoltageKV: 15},
		},
		Branches: map[string]snapshot.Branch{
			"b1": {
				ID: "b1", Kind: snapshot.BranchLine, FromNode: "n1", ToNode: "n2", InService: true, LengthKm: 1,
				InlineImpedance: &snapshot.InlineImpedance{ROhmPerKm: 0.2, XOhmPerKm: 0.08, BMicroSiemensPerKm: 50},
			},
		},
	})
	require.NoError(t, err)
	e := NewEngine()
	report, err := e.Validate(context.Background(), s, catalog.NewRegistry(nil))
	require.NoError(t, err)
	assert.False(t, report.IsBlocked())
}
