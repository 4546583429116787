package drift

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dnsc/internal/catalog"
	"dnsc/internal/encoding"
	"dnsc/internal/snapshot"
)

func snapWithBinding(t *testing.T, version catalog.Version, fields map[string]float64) *snapshot.Snapshot {
	t.Helper()
	mf := map[string]float64{}
	for k, v := range fields {
		mf[k] = v
	}
	s, err := snapshot.New(snapshot.Params{
		ID: "s1", CreatedAt: time.Now().UTC(), NetworkModelID: "net-1", SchemaVersion: "1",
		Nodes: map[string]snapshot.Node{
			"n1": {ID: "n1", Kind: snapshot.NodeSlack, NominalVoltageKV: 15},
			"n2": {ID: "n2", Kind: snapshot.NodePQ, NominalVoltageKV: 15},
		},
		Branches: map[string]snapshot.Branch{
			"b1": {
				ID: "b1", Kind: snapshot.BranchCable, FromNode: "n1", ToNode: "n2", InService: true, LengthKm: 1,
				CatalogBinding: &snapshot.CatalogBinding{
					Namespace: catalog.NamespaceCableMV, ItemID: "kab_240", ItemVersion: version,
					MaterializedFields: mf, MaterializedHash: "irrelevant-for-drift",
				},
			},
		},
	})
	require.NoError(t, err)
	return s
}

func registryWith(t *testing.T, version catalog.Version, rPerKm, displayOnly float64) *catalog.Registry {
	t.Helper()
	r := catalog.NewRegistry(map[catalog.Namespace]catalog.MaterializationContract{
		catalog.NamespaceCableMV: {SolverFields: []string{"r_ohm_per_km"}, UIFields: []string{"display_weight_kg_per_km"}},
	})
	r, err := r.WithPublished(catalog.Type{
		Namespace: catalog.NamespaceCableMV, ID: "kab_240", Version: version, DisplayLabel: "Cable 240",
		Fields: map[string]encoding.Value{
			"r_ohm_per_km":              encoding.Real(rPerKm),
			"display_weight_kg_per_km":  encoding.Real(displayOnly),
		},
	})
	require.NoError(t, err)
	return r
}

func TestScanClassifiesRemoved(t *testing.T) {
	s := snapWithBinding(t, "2026.01", map[string]float64{"r_ohm_per_km": 0.125})
	reg := catalog.NewRegistry(nil)
	report, err := Scan(s, reg)
	require.NoError(t, err)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, ClassRemoved, report.Findings[0].Classification)
}

func TestScanClassifiesClean(t *testing.T) {
	s := snapWithBinding(t, "2026.01", map[string]float64{"r_ohm_per_km": 0.125})
	reg := registryWith(t, "2026.01", 0.125, 500)
	report, err := Scan(s, reg)
	require.NoError(t, err)
	assert.Equal(t, ClassClean, report.Findings[0].Classification)
}

func TestScanClassifiesBreakingOnSolverFieldChange(t *testing.T) {
	s := snapWithBinding(t, "2026.01", map[string]float64{"r_ohm_per_km": 0.125})
	reg := registryWith(t, "2026.02", 0.999, 500)
	report, err := Scan(s, reg)
	require.NoError(t, err)
	assert.Equal(t, ClassBreaking, report.Findings[0].Classification)
}

func TestScanClassifiesInformationalOnUIFieldOnlyChange(t *testing.T) {
	s := snapWithBinding(t, "2026.01", map[string]float64{"r_ohm_per_km": 0.125})
	reg := registryWith(t, "2026.02", 0.125, 999)
	report, err := Scan(s, reg)
	require.NoError(t, err)
	assert.Equal(t, ClassInformational, report.Findings[0].Classification)
}

func TestScanReportHashDeterministic(t *testing.T) {
	s := snapWithBinding(t, "2026.01", map[string]float64{"r_ohm_per_km": 0.125})
	reg := registryWith(t, "2026.01", 0.125, 500)
	r1, err := Scan(s, reg)
	require.NoError(t, err)
	r2, err := Scan(s, reg)
	require.NoError(t, err)
	assert.Equal(t, r1.ReportHash, r2.ReportHash)
}
