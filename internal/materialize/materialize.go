// Package materialize implements Catalog Binding & Materialization
// (spec.md §4.E): resolving an element's catalog binding into a canonical
// field projection and its content hash, with field-level provenance.
package materialize

import (
	"dnsc/internal/catalog"
	"dnsc/internal/dnscerr"
	"dnsc/internal/encoding"
)

// CanonicalProjection builds the encoder-ready value for a materialized
// field set. Field selection (which keys belong) is the caller's
// responsibility — it comes from the namespace's MaterializationContract.
func CanonicalProjection(fields map[string]float64) encoding.Value {
	m := make(map[string]encoding.Value, len(fields))
	for k, v := range fields {
		m[k] = encoding.Real(v)
	}
	return encoding.Map(m)
}

// Hash returns the SHA-256 of fields' canonical projection.
func Hash(fields map[string]float64) (string, error) {
	return encoding.ContentHash(CanonicalProjection(fields))
}

// MissingRequiredIssue reports that a safety-critical field could not be
// resolved and was deliberately left unfilled rather than defaulted
// (spec.md §4.E: "defaults are never fabricated for safety-critical fields").
func MissingRequiredIssue(elementRef, field string) dnscerr.Issue {
	return dnscerr.Issue{
		Code:       "E-M01",
		Message:    "brak wymaganego pola materializacji: " + field,
		ElementRef: elementRef,
		Path:       field,
	}
}

// Select projects t's fields through contract, returning the resolved
// values plus provenance and, for each solver field the type does not
// carry, a MissingRequiredIssue instead of a fabricated default.
func Select(t catalog.Type, contract catalog.MaterializationContract) (map[string]float64, []catalog.FieldProvenance, []dnscerr.Issue) {
	fields := make(map[string]float64, len(contract.SolverFields))
	prov := make([]catalog.FieldProvenance, 0, len(contract.SolverFields))
	var issues []dnscerr.Issue
	ref := string(t.Namespace) + "/" + string(t.ID) + "@" + string(t.Version)
	for _, f := range contract.SolverFields {
		v, ok := t.Fields[f]
		if !ok {
			issues = append(issues, MissingRequiredIssue(string(t.ID), f))
			continue
		}
		fields[f] = v.AsFloat()
		prov = append(prov, catalog.FieldProvenance{Field: f, Source: catalog.SourceCatalog, Reference: ref})
	}
	return fields, prov, issues
}

// DetectDrift compares a previously materialized hash against a fresh
// recomputation from the registry-of-record's current type, reporting
// whether the binding is stale (spec.md §4.E: "mismatch... reports as
// drift (see 4.J)").
func DetectDrift(storedHash string, t catalog.Type, contract catalog.MaterializationContract) (bool, error) {
	fields, _, issues := Select(t, contract)
	if len(issues) > 0 {
		return true, nil
	}
	fresh, err := Hash(fields)
	if err != nil {
		return false, err
	}
	return fresh != storedHash, nil
}
