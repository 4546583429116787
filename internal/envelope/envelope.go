// Package envelope implements the Solver-Input Envelope Builder
// (spec.md §4.K): given a snapshot and an analysis type, assembles the
// versioned, solver-facing payload a downstream engine consumes, plus the
// eligibility and provenance context that accompanies it.
package envelope

import (
	"context"
	"sort"

	"dnsc/internal/catalog"
	"dnsc/internal/encoding"
	"dnsc/internal/readiness"
	"dnsc/internal/snapshot"
	"dnsc/internal/validation"
)

// AnalysisType is the closed set of solver runs an envelope can target.
type AnalysisType string

const (
	AnalysisLoadFlow       AnalysisType = "LOAD_FLOW"
	AnalysisShortCircuit3F AnalysisType = "SHORT_CIRCUIT_3F"
	AnalysisShortCircuit1F AnalysisType = "SHORT_CIRCUIT_1F"
)

// schemaVersion is the frozen payload schema version per analysis type.
// Adding a field to an analysis's payload requires bumping its entry here
// and introducing a new field-set branch in nodeFields —
// never widening an existing version in place.
var schemaVersion = map[AnalysisType]int{
	AnalysisLoadFlow:       1,
	AnalysisShortCircuit3F: 1,
	AnalysisShortCircuit1F: 1,
}

var analysisGate = map[AnalysisType]readiness.Gate{
	AnalysisLoadFlow:       readiness.GateLoadFlow,
	AnalysisShortCircuit3F: readiness.GateShortCircuit,
	AnalysisShortCircuit1F: readiness.GateShortCircuit,
}

// ProvenanceSummary aggregates the catalog-binding provenance across every
// bindable element in a snapshot, so a solver-input consumer can judge how
// much of the payload rests on overrides or derivations rather than
// catalog-sourced values.
type ProvenanceSummary struct {
	DistinctCatalogRefs []string
	OverrideCount       int
	DerivedCount        int
}

// UnknownAnalysisTypeError is returned when Build is asked for an analysis
// type outside the closed set this version of the package knows a frozen
// schema for.
type UnknownAnalysisTypeError struct {
	AnalysisType string
}

func (e *UnknownAnalysisTypeError) Error() string {
	return "unknown analysis type: " + e.AnalysisType
}

// Envelope is the full, versioned solver-input package for one
// (snapshot, analysis_type) pair.
type Envelope struct {
	AnalysisType     AnalysisType
	SchemaVersion    int
	CaseID           string
	SnapshotRevision string
	Eligibility      readiness.AnalysisEligibility
	Provenance       ProvenanceSummary
	Payload          encoding.Value
	ContentHash      string
}

// Build assembles the envelope for (snap, analysisType). It runs the
// Validation Engine and Readiness evaluation itself rather than accepting
// a precomputed report, so a caller building an envelope always sees the
// eligibility the payload was actually frozen against.
func Build(ctx context.Context, snap *snapshot.Snapshot, reg *catalog.Registry, caseID string, analysisType AnalysisType) (Envelope, error) {
	version, ok := schemaVersion[analysisType]
	if !ok {
		return Envelope{}, &UnknownAnalysisTypeError{AnalysisType: string(analysisType)}
	}

	engine := validation.NewEngine()
	report, err := engine.Validate(ctx, snap, reg)
	if err != nil {
		return Envelope{}, err
	}
	matrix, err := readiness.Evaluate(report)
	if err != nil {
		return Envelope{}, err
	}
	eligibility := eligibilityFor(matrix, analysisGate[analysisType])

	payload := buildPayload(snap, analysisType)
	provenance := buildProvenance(snap)

	canonical := toCanonical(analysisType, version, caseID, snap.Fingerprint(), eligibility, provenance, payload)
	hash, err := encoding.ContentHash(canonical)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		AnalysisType:     analysisType,
		SchemaVersion:    version,
		CaseID:           caseID,
		SnapshotRevision: snap.Fingerprint(),
		Eligibility:      eligibility,
		Provenance:       provenance,
		Payload:          payload,
		ContentHash:      hash,
	}, nil
}

func eligibilityFor(matrix readiness.Matrix, gate readiness.Gate) readiness.AnalysisEligibility {
	for _, e := range matrix.Entries {
		if e.Gate == gate {
			return e
		}
	}
	return readiness.AnalysisEligibility{Gate: gate, Eligible: false}
}

// nodeFields declares, per analysis type, the solver-facing fields the
// payload's node entries carry, plus a fixed set of solver-tunable knobs
// appended alongside the entity subset. Branch entries carry the same field
// set for every analysis type.
var nodeFields = map[AnalysisType][]string{
	AnalysisLoadFlow:       {"kind", "nominal_voltage_kv", "scheduled_active_mw", "scheduled_reactive_mvar"},
	AnalysisShortCircuit3F: {"kind", "nominal_voltage_kv"},
	AnalysisShortCircuit1F: {"kind", "nominal_voltage_kv"},
}

var solverKnobs = map[AnalysisType]map[string]encoding.Value{
	AnalysisLoadFlow:       {"max_iterations": encoding.Int(40), "tolerance_pu": encoding.Real(1e-6)},
	AnalysisShortCircuit3F: {"voltage_factor_c": encoding.Real(1.1)},
	AnalysisShortCircuit1F: {"voltage_factor_c": encoding.Real(1.1)},
}

func buildPayload(snap *snapshot.Snapshot, at AnalysisType) encoding.Value {
	fields := map[string]encoding.Value{
		"nodes":        nodesPayload(snap, at),
		"branches":     branchesPayload(snap),
		"switches":     switchesPayload(snap),
		"sources":      sourcesPayload(snap),
		"solver_knobs": encoding.Map(solverKnobs[at]),
	}
	return encoding.Map(fields)
}

func nodesPayload(snap *snapshot.Snapshot, at AnalysisType) encoding.Value {
	wanted := nodeFields[at]
	out := make([]encoding.Value, 0)
	for _, n := range snap.Nodes() {
		m := map[string]encoding.Value{"id": encoding.String(n.ID)}
		for _, f := range wanted {
			switch f {
			case "kind":
				m["kind"] = encoding.String(string(n.Kind))
			case "nominal_voltage_kv":
				m["nominal_voltage_kv"] = encoding.Real(n.NominalVoltageKV)
			case "scheduled_active_mw":
				if n.ScheduledActiveMW != nil {
					m["scheduled_active_mw"] = encoding.Real(*n.ScheduledActiveMW)
				}
			case "scheduled_reactive_mvar":
				if n.ScheduledReactiveMvar != nil {
					m["scheduled_reactive_mvar"] = encoding.Real(*n.ScheduledReactiveMvar)
				}
			}
		}
		out = append(out, encoding.Map(m))
	}
	return encoding.Seq(out...)
}

func branchesPayload(snap *snapshot.Snapshot) encoding.Value {
	out := make([]encoding.Value, 0)
	for _, b := range snap.Branches() {
		m := map[string]encoding.Value{
			"id":         encoding.String(b.ID),
			"kind":       encoding.String(string(b.Kind)),
			"from_node":  encoding.String(b.FromNode),
			"to_node":    encoding.String(b.ToNode),
			"in_service": encoding.Bool(b.InService),
			"length_km":  encoding.Real(b.LengthKm),
		}
		if b.CatalogBinding != nil {
			solverFields := map[string]encoding.Value{}
			for k, v := range b.CatalogBinding.MaterializedFields {
				solverFields[k] = encoding.Real(v)
			}
			m["materialized_fields"] = encoding.Map(solverFields)
		}
		out = append(out, encoding.Map(m))
	}
	return encoding.Seq(out...)
}

func switchesPayload(snap *snapshot.Snapshot) encoding.Value {
	out := make([]encoding.Value, 0)
	for _, sw := range snap.Switches() {
		out = append(out, encoding.Map(map[string]encoding.Value{
			"id":         encoding.String(sw.ID),
			"from_node":  encoding.String(sw.FromNode),
			"to_node":    encoding.String(sw.ToNode),
			"state":      encoding.String(string(sw.State)),
			"in_service": encoding.Bool(sw.InService),
		}))
	}
	return encoding.Seq(out...)
}

func sourcesPayload(snap *snapshot.Snapshot) encoding.Value {
	out := make([]encoding.Value, 0)
	for _, src := range snap.Sources() {
		payload := map[string]encoding.Value{}
		for k, v := range src.Payload {
			payload[k] = encoding.Real(v)
		}
		out = append(out, encoding.Map(map[string]encoding.Value{
			"id":         encoding.String(src.ID),
			"node_id":    encoding.String(src.NodeID),
			"model":      encoding.String(string(src.Model)),
			"in_service": encoding.Bool(src.InService),
			"payload":    encoding.Map(payload),
		}))
	}
	return encoding.Seq(out...)
}

func buildProvenance(snap *snapshot.Snapshot) ProvenanceSummary {
	refs := map[string]bool{}
	overrides := 0
	derived := 0

	consider := func(b *snapshot.CatalogBinding) {
		if b == nil {
			return
		}
		refs[string(b.Namespace)+"/"+string(b.ItemID)+"@"+string(b.ItemVersion)] = true
		for _, p := range b.Provenance {
			switch p.Source {
			case catalog.SourceOverride:
				overrides++
			case catalog.SourceDerived:
				derived++
			}
		}
	}

	for _, b := range snap.Branches() {
		consider(b.CatalogBinding)
	}
	for _, g := range snap.Generators() {
		consider(g.CatalogBinding)
	}
	for _, m := range snap.Measurements() {
		consider(m.CatalogBinding)
	}
	for _, pa := range snap.ProtectionAssignments() {
		consider(pa.DeviceBinding)
		consider(pa.SettingTemplateBinding)
	}

	sorted := make([]string, 0, len(refs))
	for r := range refs {
		sorted = append(sorted, r)
	}
	sort.Strings(sorted)

	return ProvenanceSummary{DistinctCatalogRefs: sorted, OverrideCount: overrides, DerivedCount: derived}
}

func toCanonical(at AnalysisType, version int, caseID, snapshotRevision string, elig readiness.AnalysisEligibility, prov ProvenanceSummary, payload encoding.Value) encoding.Value {
	refs := make([]encoding.Value, 0, len(prov.DistinctCatalogRefs))
	for _, r := range prov.DistinctCatalogRefs {
		refs = append(refs, encoding.String(r))
	}
	blockers := make([]encoding.Value, 0, len(elig.Blockers))
	for _, b := range elig.Blockers {
		blockers = append(blockers, encoding.Map(map[string]encoding.Value{
			"code":        encoding.String(b.Code),
			"element_ref": encoding.String(b.ElementRef),
		}))
	}
	return encoding.Map(map[string]encoding.Value{
		"analysis_type":     encoding.String(string(at)),
		"schema_version":    encoding.Int(int64(version)),
		"case_id":           encoding.String(caseID),
		"snapshot_revision": encoding.String(snapshotRevision),
		"eligible":          encoding.Bool(elig.Eligible),
		"blockers":          encoding.Seq(blockers...),
		"provenance": encoding.Map(map[string]encoding.Value{
			"distinct_catalog_refs": encoding.Seq(refs...),
			"override_count":        encoding.Int(int64(prov.OverrideCount)),
			"derived_count":         encoding.Int(int64(prov.DerivedCount)),
		}),
		"payload": payload,
	})
}
