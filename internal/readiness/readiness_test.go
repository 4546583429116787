package readiness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dnsc/internal/catalog"
	"dnsc/internal/dnscerr"
	"dnsc/internal/validation"
)

func TestEvaluateExportReadyRequiresNoBlockersAnywhere(t *testing.T) {
	report := validation.Report{
		Blockers: []validation.AreaIssue{
			{Issue: dnscerr.Issue{Code: "E-D01"}, Area: validation.AreaTopology},
		},
	}
	matrix, err := Evaluate(report)
	require.NoError(t, err)

	var export *AnalysisEligibility
	for i := range matrix.Entries {
		if matrix.Entries[i].Gate == GateExport {
			export = &matrix.Entries[i]
		}
	}
	require.NotNil(t, export)
	assert.False(t, export.Eligible)
}

func TestEvaluateSLDReadyIgnoresUnrelatedAreaBlockers(t *testing.T) {
	report := validation.Report{
		Blockers: []validation.AreaIssue{
			{Issue: dnscerr.Issue{Code: "E-D05"}, Area: validation.AreaCatalogs},
		},
	}
	matrix, err := Evaluate(report)
	require.NoError(t, err)

	var sld *AnalysisEligibility
	for i := range matrix.Entries {
		if matrix.Entries[i].Gate == GateSLD {
			sld = &matrix.Entries[i]
		}
	}
	require.NotNil(t, sld)
	assert.True(t, sld.Eligible)
}

func TestEvaluateDeterministicHash(t *testing.T) {
	report := validation.Report{
		Blockers: []validation.AreaIssue{
			{Issue: dnscerr.Issue{Code: "E-D01"}, Area: validation.AreaTopology},
		},
	}
	m1, err := Evaluate(report)
	require.NoError(t, err)
	m2, err := Evaluate(report)
	require.NoError(t, err)
	assert.Equal(t, m1.Hash, m2.Hash)
}

func TestComputeCoverageScoreCountsOnlyCatalogCleanBindings(t *testing.T) {
	elements := []Bindable{
		NewBindable("b1", []catalog.FieldProvenance{{Field: "r_ohm_per_km", Source: catalog.SourceCatalog}}, true),
		NewBindable("b2", []catalog.FieldProvenance{{Field: "r_ohm_per_km", Source: catalog.SourceDerived}}, true),
		NewBindable("b3", nil, false),
	}
	score := ComputeCoverageScore(elements)
	assert.Equal(t, 3, score.Total)
	assert.Equal(t, 1, score.Covered)
	assert.InDelta(t, 1.0/3.0, score.Fraction(), 1e-9)
}
