package diff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dnsc/internal/snapshot"
)

func baseParams() snapshot.Params {
	return snapshot.Params{
		ID: "s1", CreatedAt: time.Now().UTC(), NetworkModelID: "net-1", SchemaVersion: "1",
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
	}
}

func TestCompareIdenticalSnapshotsIsEmpty(t *testing.T) {
	p := baseParams()
	s1, err := snapshot.New(p)
	require.NoError(t, err)
	p2 := baseParams()
	s2, err := snapshot.New(p2)
	require.NoError(t, err)

	result := Compare(s1, s2)
	assert.True(t, result.IsIdentical())
}

func TestCompareDetectsAddedNode(t *testing.T) {
	p1 := baseParams()
	s1, err := snapshot.New(p1)
	require.NoError(t, err)

	p2 := baseParams()
	p2.Nodes["n3"] = snapshot.Node{ID: "n3", Kind: snapshot.NodePQ, NominalVoltageKV: 15}
	s2, err := snapshot.New(p2)
	require.NoError(t, err)

	result := Compare(s1, s2)
	require.False(t, result.IsIdentical())
	require.Len(t, result.AddedElements, 1)
	assert.Equal(t, "n3", result.AddedElements[0].ID)
	assert.Equal(t, "nodes", result.AddedElements[0].EntityType)
}

func TestCompareDetectsRemovedAndModified(t *testing.T) {
	p1 := baseParams()
	s1, err := snapshot.New(p1)
	require.NoError(t, err)

	p2 := baseParams()
	b := p2.Branches["b1"]
	b.LengthKm = 5
	p2.Branches["b1"] = b
	delete(p2.Nodes, "n2")
	delete(p2.Branches, "b1")
	p2.Branches["b2"] = snapshot.Branch{
		ID: "b2", Kind: snapshot.BranchLine, FromNode: "n1", ToNode: "n1", InService: false, LengthKm: 5,
	}
	// Make n2 not referenced to keep the snapshot constructible.
	p2.Branches = map[string]snapshot.Branch{}
	n1 := p2.Nodes["n1"]
	n1.NominalVoltageKV = 20
	p2.Nodes["n1"] = n1
	s2, err := snapshot.New(p2)
	require.NoError(t, err)

	result := Compare(s1, s2)
	require.False(t, result.IsIdentical())
	assert.NotEmpty(t, result.RemovedElements)
	require.Len(t, result.ModifiedElements, 1)
	assert.Equal(t, "nodes", result.ModifiedElements[0].EntityType)
	assert.Equal(t, "n1", result.ModifiedElements[0].ID)
}

func TestCompareFieldChangesSortedByFieldName(t *testing.T) {
	p1 := baseParams()
	s1, err := snapshot.New(p1)
	require.NoError(t, err)

	p2 := baseParams()
	b := p2.Branches["b1"]
	b.LengthKm = 9
	b.InService = false
	p2.Branches["b1"] = b
	s2, err := snapshot.New(p2)
	require.NoError(t, err)

	result := Compare(s1, s2)
	require.Len(t, result.ModifiedElements, 1)
	fields := result.ModifiedElements[0].Fields
	for i := 1; i < len(fields); i++ {
		assert.LessOrEqual(t, fields[i-1].FieldName, fields[i].FieldName)
	}
}
