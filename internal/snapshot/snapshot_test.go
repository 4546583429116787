package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dnsc/internal/dnscerr"
)

func minimalValidParams() Params {
	return Params{
		ID:             "snap-1",
		CreatedAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		NetworkModelID: "net-1",
		SchemaVersion:  "1",
		Nodes: map[string]Node{
			"n1": {ID: "n1", Kind: NodeSlack, NominalVoltageKV: 15},
			"n2": {ID: "n2", Kind: NodePQ, NominalVoltageKV: 15},
		},
		Branches: map[string]Branch{
			"b1": {
				ID: "b1", Kind: BranchLine, FromNode: "n1", ToNode: "n2", InService: true, LengthKm: 1,
				InlineImpedance: &InlineImpedance{ROhmPerKm: 0.2, XOhmPerKm: 0.08, BMicroSiemensPerKm: 50},
			},
		},
	}
}

func TestNewAcceptsMinimalValidSnapshot(t *testing.T) {
	s, err := New(minimalValidParams())
	require.NoError(t, err)
	assert.NotEmpty(t, s.Fingerprint())
	assert.Len(t, s.Nodes(), 2)
}

func TestFingerprintIsInsertionOrderInvariant(t *testing.T) {
	p1 := minimalValidParams()
	p2 := minimalValidParams()
	// Rebuild node map with different insertion order; Go map iteration is
	// already randomized, but assert explicitly for clarity.
	reordered := map[string]Node{}
	reordered["n2"] = p2.Nodes["n2"]
	reordered["n1"] = p2.Nodes["n1"]
	p2.Nodes = reordered

	s1, err := New(p1)
	require.NoError(t, err)
	s2, err := New(p2)
	require.NoError(t, err)
	assert.Equal(t, s1.Fingerprint(), s2.Fingerprint())
}

func TestFingerprintExcludesIDParentAndCreatedAt(t *testing.T) {
	p1 := minimalValidParams()
	p2 := minimalValidParams()
	p2.ID = "snap-2"
	p2.CreatedAt = time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	parent := "snap-1"
	p2.ParentID = &parent

	s1, err := New(p1)
	require.NoError(t, err)
	s2, err := New(p2)
	require.NoError(t, err)
	assert.Equal(t, s1.Fingerprint(), s2.Fingerprint())
}

func TestFingerprintChangesWithStructuralContent(t *testing.T) {
	p1 := minimalValidParams()
	s1, err := New(p1)
	require.NoError(t, err)

	p2 := minimalValidParams()
	n := p2.Branches["b1"]
	n.LengthKm = 2
	p2.Branches["b1"] = n
	s2, err := New(p2)
	require.NoError(t, err)

	assert.NotEqual(t, s1.Fingerprint(), s2.Fingerprint())
}

func TestNewRejectsDanglingBranchEndpoint(t *testing.T) {
	p := minimalValidParams()
	b := p.Branches["b1"]
	b.ToNode = "ghost"
	p.Branches["b1"] = b

	_, err := New(p)
	require.Error(t, err)
	var verr *dnscerr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, codesOf(verr.Issues), "E-D02")
}

func TestNewRejectsSelfLoopBranch(t *testing.T) {
	p := minimalValidParams()
	b := p.Branches["b1"]
	b.ToNode = b.FromNode
	p.Branches["b1"] = b

	_, err := New(p)
	require.Error(t, err)
	var verr *dnscerr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, codesOf(verr.Issues), "E-D06")
}

func TestNewRejectsDanglingSourceNode(t *testing.T) {
	p := minimalValidParams()
	p.Sources = map[string]Source{"s1": {ID: "s1", NodeID: "ghost", Model: SourceGrid, InService: true}}

	_, err := New(p)
	require.Error(t, err)
	var verr *dnscerr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, codesOf(verr.Issues), "E-D04")
}

func TestNewRejectsDanglingSubstationBusRef(t *testing.T) {
	p := minimalValidParams()
	p.Substations = map[string]Substation{"sub1": {ID: "sub1", BusRefs: []string{"ghost"}}}

	_, err := New(p)
	require.Error(t, err)
	var verr *dnscerr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, codesOf(verr.Issues), "E-D08")
}

func TestNewRejectsUnmaterializedCatalogBinding(t *testing.T) {
	p := minimalValidParams()
	b := p.Branches["b1"]
	b.CatalogBinding = &CatalogBinding{MaterializedHash: ""}
	p.Branches["b1"] = b

	_, err := New(p)
	require.Error(t, err)
	var verr *dnscerr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, codesOf(verr.Issues), "E-D16")
}

func TestNewRejectsInverterGeneratorWithoutConnectionVariant(t *testing.T) {
	p := minimalValidParams()
	p.Generators = map[string]Generator{
		"g1": {ID: "g1", NodeID: "n2", Technology: TechnologyPVInverter, InService: true},
	}

	_, err := New(p)
	require.Error(t, err)
	var verr *dnscerr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, codesOf(verr.Issues), "E-D10")
}

func TestNewRejectsNNSideVariantWithoutSubstationRef(t *testing.T) {
	p := minimalValidParams()
	variant := ConnectionNNSide
	p.Generators = map[string]Generator{
		"g1": {ID: "g1", NodeID: "n2", Technology: TechnologyBESSInverter, ConnectionVariant: &variant, InService: true},
	}

	_, err := New(p)
	require.Error(t, err)
	var verr *dnscerr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, codesOf(verr.Issues), "E-D11")
}

func TestNewAcceptsSynchronousGeneratorWithoutConnectionVariant(t *testing.T) {
	p := minimalValidParams()
	p.Generators = map[string]Generator{
		"g1": {ID: "g1", NodeID: "n2", Technology: TechnologySynchronous, InService: true},
	}

	_, err := New(p)
	require.NoError(t, err)
}

func TestNewRejectsMeasurementWithDanglingElementRef(t *testing.T) {
	p := minimalValidParams()
	p.Measurements = map[string]Measurement{"m1": {ID: "m1", ElementRef: "ghost"}}

	_, err := New(p)
	require.Error(t, err)
	var verr *dnscerr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, codesOf(verr.Issues), "E-D14")
}

func TestNewRejectsProtectionAssignmentWithDanglingElementRef(t *testing.T) {
	p := minimalValidParams()
	p.ProtectionAssignments = map[string]ProtectionAssignment{"pa1": {ID: "pa1", ElementRef: "ghost"}}

	_, err := New(p)
	require.Error(t, err)
	var verr *dnscerr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, codesOf(verr.Issues), "E-D15")
}

func TestNewAllowsTwoPQOnlySnapshotToConstruct(t *testing.T) {
	// No slack node present: construction still succeeds. Slack-existence
	// (E-D01) is a Validation Engine rule fired against a built snapshot,
	// not a constructor-time rejection.
	p := minimalValidParams()
	n1 := p.Nodes["n1"]
	n1.Kind = NodePQ
	p.Nodes["n1"] = n1

	_, err := New(p)
	require.NoError(t, err)
}

func codesOf(issues []dnscerr.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Code)
	}
	return out
}
