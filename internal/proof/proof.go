// Package proof implements the Result / Proof Artifact Builder (spec.md
// §4.I): wrapping a solver run into a step-by-step ProofDocument, a frozen
// versioned ResultSet, and a byte-deterministic export (Proof Pack ZIP,
// DOCX, LaTeX).
package proof

import (
	"time"

	"github.com/google/uuid"

	"dnsc/internal/encoding"
)

// Header carries the run-identifying metadata common to every ProofDocument.
// FaultLocation, FaultType, VoltageFactor, SourceBus, and TargetBus are only
// populated by fault-analysis proofs; nil for analyses that don't apply.
type Header struct {
	ProjectName   string
	CaseName      string
	RunTimestamp  string
	SolverVersion string
	FaultLocation *string
	FaultType     *string
	VoltageFactor *float64
	SourceBus     *string
	TargetBus     *string
}

// Step is one derivation step: an equation applied to input values,
// producing a result with its own unit check.
type Step struct {
	StepID            string
	StepNumber        int
	Title             string
	EquationID        string
	Latex             string
	SymbolTable       map[string]string
	UnitDerivation    string
	InputValues       map[string]float64
	SubstitutionLatex string
	ResultValue       float64
	UnitCheck         bool
	SourceKeys        []string
}

// Summary closes out a ProofDocument with the headline results.
type Summary struct {
	KeyResults      map[string]encoding.Value
	UnitCheckPassed bool
	TotalSteps      int
	Warnings        []string
	OverallStatus   string
}

// ProofDocument is the full derivation artifact. DocumentID and CreatedAt
// are informational: they never enter ToCanonicalValue or ContentHash.
type ProofDocument struct {
	DocumentID string
	CreatedAt  time.Time
	Header     Header
	Steps      []Step
	Summary    Summary
}

// New assembles a ProofDocument, stamping a fresh informational document id
// and timestamp. Neither value participates in the document's content hash.
func New(header Header, steps []Step, summary Summary) ProofDocument {
	return ProofDocument{
		DocumentID: uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Header:     header,
		Steps:      steps,
		Summary:    summary,
	}
}

// ToCanonicalValue builds the canonical-encoder payload for p, omitting the
// informational document_id and created_at fields per spec.md §4.I.
func (p ProofDocument) ToCanonicalValue() encoding.Value {
	return encoding.Map(map[string]encoding.Value{
		"header":  headerValue(p.Header),
		"steps":   stepsValue(p.Steps),
		"summary": summaryValue(p.Summary),
	})
}

// ContentHash is the SHA-256 of p's canonical dict.
func (p ProofDocument) ContentHash() (string, error) {
	return encoding.ContentHash(p.ToCanonicalValue())
}

func headerValue(h Header) encoding.Value {
	fields := map[string]encoding.Value{
		"project_name":   encoding.String(h.ProjectName),
		"case_name":      encoding.String(h.CaseName),
		"run_timestamp":  encoding.String(h.RunTimestamp),
		"solver_version": encoding.String(h.SolverVersion),
	}
	if h.FaultLocation != nil {
		fields["fault_location"] = encoding.String(*h.FaultLocation)
	}
	if h.FaultType != nil {
		fields["fault_type"] = encoding.String(*h.FaultType)
	}
	if h.VoltageFactor != nil {
		fields["voltage_factor"] = encoding.Real(*h.VoltageFactor)
	}
	if h.SourceBus != nil {
		fields["source_bus"] = encoding.String(*h.SourceBus)
	}
	if h.TargetBus != nil {
		fields["target_bus"] = encoding.String(*h.TargetBus)
	}
	return encoding.Map(fields)
}

func stepsValue(steps []Step) encoding.Value {
	out := make([]encoding.Value, 0, len(steps))
	for _, s := range steps {
		symbols := map[string]encoding.Value{}
		for k, v := range s.SymbolTable {
			symbols[k] = encoding.String(v)
		}
		inputs := map[string]encoding.Value{}
		for k, v := range s.InputValues {
			inputs[k] = encoding.Real(v)
		}
		sourceKeys := make([]encoding.Value, 0, len(s.SourceKeys))
		for _, k := range s.SourceKeys {
			sourceKeys = append(sourceKeys, encoding.String(k))
		}
		out = append(out, encoding.Map(map[string]encoding.Value{
			"step_id":            encoding.String(s.StepID),
			"step_number":        encoding.Int(int64(s.StepNumber)),
			"title":              encoding.String(s.Title),
			"equation_id":        encoding.String(s.EquationID),
			"latex":              encoding.String(s.Latex),
			"symbol_table":       encoding.Map(symbols),
			"unit_derivation":    encoding.String(s.UnitDerivation),
			"input_values":       encoding.Map(inputs),
			"substitution_latex": encoding.String(s.SubstitutionLatex),
			"result_value":       encoding.Real(s.ResultValue),
			"unit_check":         encoding.Bool(s.UnitCheck),
			"source_keys":        encoding.Seq(sourceKeys...),
		}))
	}
	return encoding.Seq(out...)
}

func summaryValue(s Summary) encoding.Value {
	keyResults := map[string]encoding.Value{}
	for k, v := range s.KeyResults {
		keyResults[k] = v
	}
	warnings := make([]encoding.Value, 0, len(s.Warnings))
	for _, w := range s.Warnings {
		warnings = append(warnings, encoding.String(w))
	}
	return encoding.Map(map[string]encoding.Value{
		"key_results":       encoding.Map(keyResults),
		"unit_check_passed": encoding.Bool(s.UnitCheckPassed),
		"total_steps":       encoding.Int(int64(s.TotalSteps)),
		"warnings":          encoding.Seq(warnings...),
		"overall_status":    encoding.String(s.OverallStatus),
	})
}
