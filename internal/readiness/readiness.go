// Package readiness implements Readiness & Eligibility (spec.md §4.G): a
// post-processor over a validation.Report that partitions blockers by area
// and derives per-analysis eligibility gates.
package readiness

import (
	"sort"

	"dnsc/internal/dnscerr"
	"dnsc/internal/encoding"
	"dnsc/internal/validation"
)

// Gate names the fixed set of analysis eligibility gates spec.md defines.
type Gate string

const (
	GateSLD           Gate = "sld_ready"
	GateShortCircuit  Gate = "short_circuit_ready"
	GateLoadFlow      Gate = "load_flow_ready"
	GateExport        Gate = "export_ready"
)

// gateAreas declares which validation areas block each gate. export_ready
// has no entry: it is computed specially as "no blockers anywhere".
var gateAreas = map[Gate][]validation.Area{
	GateSLD:          {validation.AreaTopology, validation.AreaStations, validation.AreaGenerators},
	GateShortCircuit: {validation.AreaTopology, validation.AreaSources, validation.AreaCatalogs},
	GateLoadFlow:     {validation.AreaTopology, validation.AreaSources, validation.AreaCatalogs},
}

// AnalysisEligibility is one analysis type's gate outcome.
type AnalysisEligibility struct {
	Gate      Gate
	Eligible  bool
	Blockers  []dnscerr.Issue
	Warnings  []dnscerr.Issue
}

// Matrix is the full Eligibility output: one entry per gate, sorted by gate
// name, plus a deterministic content hash over that sorted sequence.
type Matrix struct {
	Entries []AnalysisEligibility
	Hash    string
}

// Evaluate partitions report by area and derives every gate's eligibility.
func Evaluate(report validation.Report) (Matrix, error) {
	blockersByArea := map[validation.Area][]dnscerr.Issue{}
	for _, b := range report.Blockers {
		blockersByArea[b.Area] = append(blockersByArea[b.Area], b.Issue)
	}
	warningsByArea := map[validation.Area][]dnscerr.Issue{}
	for _, w := range report.Warnings {
		warningsByArea[w.Area] = append(warningsByArea[w.Area], w.Issue)
	}

	gates := []Gate{GateSLD, GateShortCircuit, GateLoadFlow, GateExport}
	entries := make([]AnalysisEligibility, 0, len(gates))
	for _, gate := range gates {
		var blockers, warnings []dnscerr.Issue
		if gate == GateExport {
			for _, b := range report.Blockers {
				blockers = append(blockers, b.Issue)
			}
			for _, w := range report.Warnings {
				warnings = append(warnings, w.Issue)
			}
		} else {
			for _, area := range gateAreas[gate] {
				blockers = append(blockers, blockersByArea[area]...)
				warnings = append(warnings, warningsByArea[area]...)
			}
		}
		sortIssues(blockers)
		sortIssues(warnings)
		entries = append(entries, AnalysisEligibility{
			Gate:     gate,
			Eligible: len(blockers) == 0,
			Blockers: blockers,
			Warnings: warnings,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Gate < entries[j].Gate })

	hash, err := encoding.ContentHash(toCanonical(entries))
	if err != nil {
		return Matrix{}, err
	}
	return Matrix{Entries: entries, Hash: hash}, nil
}

func sortIssues(issues []dnscerr.Issue) {
	sort.Slice(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.ElementRef < b.ElementRef
	})
}

func toCanonical(entries []AnalysisEligibility) encoding.Value {
	out := make([]encoding.Value, 0, len(entries))
	for _, e := range entries {
		out = append(out, encoding.Map(map[string]encoding.Value{
			"gate":     encoding.String(string(e.Gate)),
			"eligible": encoding.Bool(e.Eligible),
			"blockers": issuesSeq(e.Blockers),
			"warnings": issuesSeq(e.Warnings),
		}))
	}
	return encoding.Seq(out...)
}

func issuesSeq(issues []dnscerr.Issue) encoding.Value {
	out := make([]encoding.Value, 0, len(issues))
	for _, i := range issues {
		out = append(out, encoding.Map(map[string]encoding.Value{
			"code":        encoding.String(i.Code),
			"element_ref": encoding.String(i.ElementRef),
		}))
	}
	return encoding.Seq(out...)
}
