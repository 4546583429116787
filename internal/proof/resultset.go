package proof

import (
	"sort"

	"dnsc/internal/encoding"
)

// ConvergenceStatus is the closed set of solver run outcomes.
type ConvergenceStatus string

const (
	Converged         ConvergenceStatus = "CONVERGED"
	NotConverged      ConvergenceStatus = "NOT_CONVERGED"
	FailedValidation  ConvergenceStatus = "FAILED_VALIDATION"
	FailedSolver      ConvergenceStatus = "FAILED_SOLVER"
)

// NodeResult is one node's entry in a result set's per-node array.
type NodeResult struct {
	NodeID string
	Fields map[string]float64
}

// BranchResult is one branch's entry in a result set's per-branch array.
type BranchResult struct {
	BranchID string
	Fields   map[string]float64
}

func nodeResultsValue(nodes []NodeResult) encoding.Value {
	sorted := append([]NodeResult(nil), nodes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].NodeID < sorted[j].NodeID })
	out := make([]encoding.Value, 0, len(sorted))
	for _, n := range sorted {
		out = append(out, encoding.Map(map[string]encoding.Value{
			"node_id": encoding.String(n.NodeID),
			"fields":  floatMapValue(n.Fields),
		}))
	}
	return encoding.Seq(out...)
}

func branchResultsValue(branches []BranchResult) encoding.Value {
	sorted := append([]BranchResult(nil), branches...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].BranchID < sorted[j].BranchID })
	out := make([]encoding.Value, 0, len(sorted))
	for _, b := range sorted {
		out = append(out, encoding.Map(map[string]encoding.Value{
			"branch_id": encoding.String(b.BranchID),
			"fields":    floatMapValue(b.Fields),
		}))
	}
	return encoding.Seq(out...)
}

func floatMapValue(fields map[string]float64) encoding.Value {
	out := map[string]encoding.Value{}
	for k, v := range fields {
		out[k] = encoding.Real(v)
	}
	return encoding.Map(out)
}

func stringSeqSorted(items []string) encoding.Value {
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)
	out := make([]encoding.Value, 0, len(sorted))
	for _, s := range sorted {
		out = append(out, encoding.String(s))
	}
	return encoding.Seq(out...)
}

// LoadFlowResultSetV1 is the frozen v1 wrapper around a load-flow solver's
// output. Once published its field set is immutable; a new field requires
// LoadFlowResultSetV2, never an in-place addition here.
type LoadFlowResultSetV1 struct {
	SnapshotHash      string
	RunHash           string
	InputHash         string
	ConvergenceStatus ConvergenceStatus
	IterationCount    int
	Nodes             []NodeResult
	Branches          []BranchResult
	Totals            map[string]float64
	Warnings          []string
	Errors            []string
}

func (r LoadFlowResultSetV1) canonicalValue() encoding.Value {
	return encoding.Map(map[string]encoding.Value{
		"analysis_type":      encoding.String("LOAD_FLOW"),
		"result_version":     encoding.String("v1"),
		"snapshot_hash":      encoding.String(r.SnapshotHash),
		"run_hash":           encoding.String(r.RunHash),
		"input_hash":         encoding.String(r.InputHash),
		"convergence_status": encoding.String(string(r.ConvergenceStatus)),
		"iteration_count":    encoding.Int(int64(r.IterationCount)),
		"nodes":              nodeResultsValue(r.Nodes),
		"branches":           branchResultsValue(r.Branches),
		"totals":             floatMapValue(r.Totals),
		"warnings":           stringSeqSorted(r.Warnings),
		"errors":             stringSeqSorted(r.Errors),
	})
}

// DeterministicSignature computes the SHA-256 of r's canonical content,
// excluding the signature field itself.
func (r LoadFlowResultSetV1) DeterministicSignature() (string, error) {
	return encoding.ContentHash(r.canonicalValue())
}

// ShortCircuitResultSetV1 is the frozen v1 wrapper around a short-circuit
// solver's output.
type ShortCircuitResultSetV1 struct {
	SnapshotHash      string
	RunHash           string
	InputHash         string
	FaultType         string
	FaultBus          string
	ConvergenceStatus ConvergenceStatus
	IterationCount    int
	Nodes             []NodeResult
	Branches          []BranchResult
	Totals            map[string]float64
	Warnings          []string
	Errors            []string
}

func (r ShortCircuitResultSetV1) canonicalValue() encoding.Value {
	return encoding.Map(map[string]encoding.Value{
		"analysis_type":      encoding.String("SHORT_CIRCUIT"),
		"result_version":     encoding.String("v1"),
		"snapshot_hash":      encoding.String(r.SnapshotHash),
		"run_hash":           encoding.String(r.RunHash),
		"input_hash":         encoding.String(r.InputHash),
		"fault_type":         encoding.String(r.FaultType),
		"fault_bus":          encoding.String(r.FaultBus),
		"convergence_status": encoding.String(string(r.ConvergenceStatus)),
		"iteration_count":    encoding.Int(int64(r.IterationCount)),
		"nodes":              nodeResultsValue(r.Nodes),
		"branches":           branchResultsValue(r.Branches),
		"totals":             floatMapValue(r.Totals),
		"warnings":           stringSeqSorted(r.Warnings),
		"errors":             stringSeqSorted(r.Errors),
	})
}

// DeterministicSignature computes the SHA-256 of r's canonical content,
// excluding the signature field itself.
func (r ShortCircuitResultSetV1) DeterministicSignature() (string, error) {
	return encoding.ContentHash(r.canonicalValue())
}
