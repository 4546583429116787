// Package validation implements the Validation / Diagnostic Engine
// (spec.md §4.F): a fixed, closed registry of pure rule functions evaluated
// against a snapshot (and optionally a catalog registry), producing a
// frozen, sorted report of blocker/warning/info issues.
package validation

import (
	"dnsc/internal/catalog"
	"dnsc/internal/dnscerr"
	"dnsc/internal/snapshot"
)

// Area partitions issues by the subsystem they concern, matching the areas
// Readiness (component G) gates on.
type Area string

const (
	AreaTopology     Area = "topology"
	AreaSources      Area = "sources"
	AreaCatalogs     Area = "catalogs"
	AreaGenerators   Area = "generators"
	AreaProtection   Area = "protection"
	AreaMeasurements Area = "measurements"
	AreaAnalysis     Area = "analysis"
	AreaStations     Area = "stations"
)

// Severity is derived from an issue code's prefix.
type Severity string

const (
	SeverityBlocker Severity = "E"
	SeverityWarning Severity = "W"
	SeverityInfo    Severity = "I"
)

// SeverityOf derives an issue's severity from its code prefix. Codes not
// matching a known prefix are treated as blockers — a rule emitting a
// malformed code is a bug, and failing closed is the safer default.
func SeverityOf(code string) Severity {
	if len(code) == 0 {
		return SeverityBlocker
	}
	switch code[0] {
	case 'W':
		return SeverityWarning
	case 'I':
		return SeverityInfo
	default:
		return SeverityBlocker
	}
}

// AreaIssue pairs a raw issue with the area it belongs to, so the report
// and Readiness (G) can partition without re-deriving area from code.
type AreaIssue struct {
	dnscerr.Issue
	Area Area
}

// Rule is one pure, closed-form check. It never mutates snap or reg and
// must be safe to call concurrently with every other rule.
type Rule struct {
	Code string
	Area Area
	Func func(snap *snapshot.Snapshot, reg *catalog.Registry) []dnscerr.Issue
}

// Registry is the fixed, closed set of rules the Engine evaluates. It is
// populated once at init and never mutated at runtime — spec.md requires a
// fixed rule enumeration, not an extensible plugin set.
var Registry = []Rule{
	{Code: "E-D01", Area: AreaTopology, Func: ruleSlackExists},
	{Code: "E-D03", Area: AreaTopology, Func: ruleSingleConnectedComponent},
	{Code: "E-D05", Area: AreaCatalogs, Func: ruleImpedanceResolvable},
	{Code: "E009", Area: AreaCatalogs, Func: ruleTransformerHasNameplate},
	{Code: "E010", Area: AreaCatalogs, Func: ruleOverrideProvenanceDeclared},
	{Code: "W001", Area: AreaSources, Func: ruleZeroSequenceResistancePresent},
	{Code: "W002", Area: AreaSources, Func: ruleZeroSequenceReactancePresent},
	{Code: "E-D10", Area: AreaGenerators, Func: ruleGeneratorVariantPresent},
	{Code: "E-D11", Area: AreaGenerators, Func: ruleGeneratorNNSideValid},
	{Code: "E-D12", Area: AreaGenerators, Func: ruleGeneratorBlockTransformerValid},
}

func ruleSlackExists(snap *snapshot.Snapshot, _ *catalog.Registry) []dnscerr.Issue {
	for _, n := range snap.Nodes() {
		if n.Kind == snapshot.NodeSlack {
			return nil
		}
	}
	return []dnscerr.Issue{{Code: "E-D01", Message: "sieć nie zawiera żadnego węzła bilansującego"}}
}

func ruleSingleConnectedComponent(snap *snapshot.Snapshot, _ *catalog.Registry) []dnscerr.Issue {
	nodes := snap.Nodes()
	if len(nodes) == 0 {
		return nil
	}
	parent := make(map[string]string, len(nodes))
	for _, n := range nodes {
		parent[n.ID] = n.ID
	}
	var find func(string) string
	find = func(x string) string {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for _, b := range snap.Branches() {
		if b.InService {
			union(b.FromNode, b.ToNode)
		}
	}
	for _, sw := range snap.Switches() {
		if sw.InService && sw.State == snapshot.SwitchClosed {
			union(sw.FromNode, sw.ToNode)
		}
	}
	root := find(nodes[0].ID)
	for _, n := range nodes[1:] {
		if find(n.ID) != root {
			return []dnscerr.Issue{{Code: "E-D03", Message: "graf sieci nie tworzy jednej spójnej składowej"}}
		}
	}
	return nil
}

func ruleImpedanceResolvable(snap *snapshot.Snapshot, _ *catalog.Registry) []dnscerr.Issue {
	var issues []dnscerr.Issue
	for _, b := range snap.Branches() {
		if !b.InService {
			continue
		}
		if b.Kind != snapshot.BranchLine && b.Kind != snapshot.BranchCable {
			continue
		}
		if b.CatalogBinding != nil {
			continue
		}
		if b.ImpedanceOverride != nil {
			continue
		}
		if b.InlineImpedance == nil || (b.InlineImpedance.ROhmPerKm == 0 && b.InlineImpedance.XOhmPerKm == 0) {
			issues = append(issues, dnscerr.Issue{Code: "E-D05", Message: "linia/kabel bez impedancji i bez odwołania katalogowego", ElementRef: b.ID})
		}
	}
	return issues
}

func ruleTransformerHasNameplate(snap *snapshot.Snapshot, _ *catalog.Registry) []dnscerr.Issue {
	var issues []dnscerr.Issue
	for _, b := range snap.Branches() {
		if b.Kind != snapshot.BranchTransformer || !b.InService {
			continue
		}
		if b.CatalogBinding != nil {
			continue
		}
		issues = append(issues, dnscerr.Issue{Code: "E009", Message: "transformator bez odwołania katalogowego i bez ważnej tabliczki znamionowej", ElementRef: b.ID})
	}
	return issues
}

func ruleOverrideProvenanceDeclared(snap *snapshot.Snapshot, _ *catalog.Registry) []dnscerr.Issue {
	var issues []dnscerr.Issue
	for _, b := range snap.Branches() {
		if b.ImpedanceOverride == nil || b.CatalogBinding == nil {
			continue
		}
		declared := false
		for _, p := range b.CatalogBinding.Provenance {
			if p.Source == catalog.SourceOverride {
				declared = true
				break
			}
		}
		if !declared {
			issues = append(issues, dnscerr.Issue{Code: "E010", Message: "nadpisanie parametrów obecne, lecz proweniencja nie deklaruje override", ElementRef: b.ID})
		}
	}
	return issues
}

func ruleZeroSequenceResistancePresent(snap *snapshot.Snapshot, _ *catalog.Registry) []dnscerr.Issue {
	var issues []dnscerr.Issue
	for _, s := range snap.Sources() {
		if !s.InService {
			continue
		}
		if _, ok := s.Payload["zero_sequence_resistance_ohm"]; !ok {
			issues = append(issues, dnscerr.Issue{Code: "W001", Message: "brak rezystancji składowej zerowej do analizy zwarć jednofazowych", ElementRef: s.ID})
		}
	}
	return issues
}

func ruleZeroSequenceReactancePresent(snap *snapshot.Snapshot, _ *catalog.Registry) []dnscerr.Issue {
	var issues []dnscerr.Issue
	for _, s := range snap.Sources() {
		if !s.InService {
			continue
		}
		if _, ok := s.Payload["zero_sequence_reactance_ohm"]; !ok {
			issues = append(issues, dnscerr.Issue{Code: "W002", Message: "brak reaktancji składowej zerowej do analizy zwarć jednofazowych", ElementRef: s.ID})
		}
	}
	return issues
}

func ruleGeneratorVariantPresent(snap *snapshot.Snapshot, _ *catalog.Registry) []dnscerr.Issue {
	var issues []dnscerr.Issue
	for _, g := range snap.Generators() {
		if g.Technology != snapshot.TechnologySynchronous && g.ConnectionVariant == nil {
			issues = append(issues, dnscerr.Issue{Code: "E-D10", Message: "generator falownikowy musi mieć określony wariant przyłączenia", ElementRef: g.ID})
		}
	}
	return issues
}

func ruleGeneratorNNSideValid(snap *snapshot.Snapshot, _ *catalog.Registry) []dnscerr.Issue {
	var issues []dnscerr.Issue
	for _, g := range snap.Generators() {
		if g.ConnectionVariant == nil || *g.ConnectionVariant != snapshot.ConnectionNNSide {
			continue
		}
		if g.SubstationRef == nil {
			issues = append(issues, dnscerr.Issue{Code: "E-D11", Message: "wariant nn_side wymaga poprawnego odwołania do stacji", ElementRef: g.ID})
			continue
		}
		if _, ok := findSubstation(snap, *g.SubstationRef); !ok {
			issues = append(issues, dnscerr.Issue{Code: "E-D11", Message: "wariant nn_side wymaga poprawnego odwołania do stacji", ElementRef: g.ID})
		}
	}
	return issues
}

func ruleGeneratorBlockTransformerValid(snap *snapshot.Snapshot, _ *catalog.Registry) []dnscerr.Issue {
	var issues []dnscerr.Issue
	for _, g := range snap.Generators() {
		if g.ConnectionVariant == nil || *g.ConnectionVariant != snapshot.ConnectionBlockTransformer {
			continue
		}
		if g.TransformerRef == nil {
			issues = append(issues, dnscerr.Issue{Code: "E-D12", Message: "wariant block_transformer wymaga poprawnego odwołania do transformatora", ElementRef: g.ID})
			continue
		}
		if _, ok := snap.Branch(*g.TransformerRef); !ok {
			issues = append(issues, dnscerr.Issue{Code: "E-D12", Message: "wariant block_transformer wymaga poprawnego odwołania do transformatora", ElementRef: g.ID})
		}
	}
	return issues
}

func findSubstation(snap *snapshot.Snapshot, id string) (snapshot.Substation, bool) {
	for _, s := range snap.Substations() {
		if s.ID == id {
			return s, true
		}
	}
	return snapshot.Substation{}, false
}

// areaOf looks up the area a code belongs to in Registry; falls back to
// AreaAnalysis for codes the fixed rule set never produces directly (so
// every AreaIssue in a Report carries an area).
func areaOf(code string) Area {
	for _, r := range Registry {
		if r.Code == code {
			return r.Area
		}
	}
	return AreaAnalysis
}
