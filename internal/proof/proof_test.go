package proof

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dnsc/internal/encoding"
)

func sampleProof() ProofDocument {
	return New(
		Header{ProjectName: "Feeder 7", CaseName: "SC3F at B2", SolverVersion: "dnsc-1.0"},
		[]Step{
			{
				StepID: "s2", StepNumber: 2, Title: "Fault current", EquationID: "EQ_SC1_B",
				Latex:             `I_k = c U_n / (\sqrt{3} Z)`,
				SymbolTable:       map[string]string{"c": "voltage factor"},
				InputValues:       map[string]float64{"u_n": 15.0, "c": 1.1},
				SubstitutionLatex: `I_k = 1.1 \cdot 15 / (\sqrt{3} \cdot 2.0)`,
				ResultValue:       4.76,
				UnitCheck:         true,
				SourceKeys:        []string{"catalog:kab_240"},
			},
			{
				StepID: "s1", StepNumber: 1, Title: "Impedance", EquationID: "EQ_SC1_A",
				Latex:             `Z = R + jX`,
				InputValues:       map[string]float64{"r": 0.125, "x": 0.08},
				SubstitutionLatex: `Z = 0.125 + j0.08`,
				ResultValue:       0.148,
				UnitCheck:         true,
			},
		},
		Summary{
			KeyResults:      map[string]encoding.Value{"ik_ka": encoding.Real(4.76)},
			UnitCheckPassed: true,
			TotalSteps:      2,
			OverallStatus:   "OK",
		},
	)
}

func TestToCanonicalValueOmitsDocumentIDAndCreatedAt(t *testing.T) {
	p1 := sampleProof()
	p2 := p1
	p2.DocumentID = "different-id"
	p2.CreatedAt = p1.CreatedAt.Add(time.Hour)

	h1, err := p1.ContentHash()
	require.NoError(t, err)
	h2, err := p2.ContentHash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestContentHashStableAcrossCalls(t *testing.T) {
	p := sampleProof()
	h1, err := p.ContentHash()
	require.NoError(t, err)
	h2, err := p.ContentHash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestContentHashChangesWithStepResult(t *testing.T) {
	p1 := sampleProof()
	p2 := sampleProof()
	p2.Steps[0].ResultValue = 999

	h1, err := p1.ContentHash()
	require.NoError(t, err)
	h2, err := p2.ContentHash()
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestLoadFlowResultSetSignatureDeterministic(t *testing.T) {
	rs := LoadFlowResultSetV1{
		SnapshotHash:      "snap-1",
		ConvergenceStatus: Converged,
		IterationCount:    4,
		Nodes: []NodeResult{
			{NodeID: "B", Fields: map[string]float64{"v_pu": 0.99}},
			{NodeID: "A", Fields: map[string]float64{"v_pu": 1.0}},
		},
		Totals: map[string]float64{"losses_kw": 1.2},
	}
	s1, err := rs.DeterministicSignature()
	require.NoError(t, err)
	s2, err := rs.DeterministicSignature()
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
}

func TestLoadFlowResultSetSignatureIgnoresNodeOrder(t *testing.T) {
	a := []NodeResult{{NodeID: "A", Fields: map[string]float64{"v_pu": 1.0}}, {NodeID: "B", Fields: map[string]float64{"v_pu": 0.99}}}
	b := []NodeResult{{NodeID: "B", Fields: map[string]float64{"v_pu": 0.99}}, {NodeID: "A", Fields: map[string]float64{"v_pu": 1.0}}}

	rs1 := LoadFlowResultSetV1{ConvergenceStatus: Converged, Nodes: a}
	rs2 := LoadFlowResultSetV1{ConvergenceStatus: Converged, Nodes: b}

	s1, err := rs1.DeterministicSignature()
	require.NoError(t, err)
	s2, err := rs2.DeterministicSignature()
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
}

func TestRenderLatexSortsSections(t *testing.T) {
	p := sampleProof()
	tex, err := RenderLatex(p)
	require.NoError(t, err)
	assert.Contains(t, tex, `EQ\_SC1\_A`)
	assert.Contains(t, tex, `EQ\_SC1\_B`)
	assert.Contains(t, tex, "Step 1: Impedance")
	assert.Contains(t, tex, "Step 2: Fault current")
	assert.Less(t, strings.Index(tex, "Step 1: Impedance"), strings.Index(tex, "Step 2: Fault current"))
}

func TestBuildPackByteIdentical(t *testing.T) {
	p := sampleProof()
	tex, err := RenderLatex(p)
	require.NoError(t, err)
	input := PackInput{Proof: p, Latex: tex}

	pack1, err := BuildPack(input)
	require.NoError(t, err)
	pack2, err := BuildPack(input)
	require.NoError(t, err)
	assert.Equal(t, pack1, pack2)
}

func TestBuildPackOmitsPDFWhenAbsent(t *testing.T) {
	p := sampleProof()
	tex, err := RenderLatex(p)
	require.NoError(t, err)

	withoutPDF, err := BuildPack(PackInput{Proof: p, Latex: tex})
	require.NoError(t, err)
	withPDF, err := BuildPack(PackInput{Proof: p, Latex: tex, PDF: []byte("%PDF-1.4 stub")})
	require.NoError(t, err)
	assert.NotEqual(t, withoutPDF, withPDF)
}
