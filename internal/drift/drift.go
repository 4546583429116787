// Package drift implements the Drift Detector (spec.md §4.J): comparing a
// snapshot's frozen catalog bindings against the current registry-of-record
// to classify how each binding has diverged.
package drift

import (
	"sort"

	"dnsc/internal/catalog"
	"dnsc/internal/encoding"
	"dnsc/internal/snapshot"
)

// Classification is the closed set of divergence outcomes for one binding.
type Classification string

const (
	ClassRemoved       Classification = "REMOVED"
	ClassClean         Classification = "CLEAN"
	ClassBreaking      Classification = "BREAKING"
	ClassInformational Classification = "INFORMATIONAL"
)

// Finding is one binding's drift classification.
type Finding struct {
	ElementID     string
	Namespace     catalog.Namespace
	CatalogItemID catalog.ItemID
	BoundVersion  catalog.Version
	Classification Classification
}

// Report is the full, sorted drift scan result.
type Report struct {
	Findings   []Finding
	ReportHash string
}

// bindingRef pairs an element id with the binding it carries, gathered from
// every entity kind that can hold a CatalogBinding.
type bindingRef struct {
	elementID string
	binding   *snapshot.CatalogBinding
}

// Scan iterates every catalog binding in snap, sorted, and classifies each
// against reg.
func Scan(snap *snapshot.Snapshot, reg *catalog.Registry) (Report, error) {
	var refs []bindingRef
	for _, b := range snap.Branches() {
		if b.CatalogBinding != nil {
			refs = append(refs, bindingRef{elementID: b.ID, binding: b.CatalogBinding})
		}
	}
	for _, g := range snap.Generators() {
		if g.CatalogBinding != nil {
			refs = append(refs, bindingRef{elementID: g.ID, binding: g.CatalogBinding})
		}
	}
	for _, m := range snap.Measurements() {
		if m.CatalogBinding != nil {
			refs = append(refs, bindingRef{elementID: m.ID, binding: m.CatalogBinding})
		}
	}
	for _, pa := range snap.ProtectionAssignments() {
		if pa.DeviceBinding != nil {
			refs = append(refs, bindingRef{elementID: pa.ID, binding: pa.DeviceBinding})
		}
		if pa.SettingTemplateBinding != nil {
			refs = append(refs, bindingRef{elementID: pa.ID, binding: pa.SettingTemplateBinding})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].elementID < refs[j].elementID })

	findings := make([]Finding, 0, len(refs))
	for _, ref := range refs {
		findings = append(findings, classify(ref, reg))
	}
	sort.Slice(findings, func(i, j int) bool { return lessFinding(findings[i], findings[j]) })

	hash, err := encoding.ContentHash(toCanonical(findings))
	if err != nil {
		return Report{}, err
	}
	return Report{Findings: findings, ReportHash: hash}, nil
}

func classify(ref bindingRef, reg *catalog.Registry) Finding {
	b := ref.binding
	base := Finding{
		ElementID:     ref.elementID,
		Namespace:     b.Namespace,
		CatalogItemID: b.ItemID,
		BoundVersion:  b.ItemVersion,
	}
	current, ok := reg.Get(b.Namespace, b.ItemID)
	if !ok {
		base.Classification = ClassRemoved
		return base
	}
	if current.Version == b.ItemVersion {
		base.Classification = ClassClean
		return base
	}
	contract, _ := reg.MaterializationContract(b.Namespace)
	for _, field := range contract.SolverFields {
		if fieldDiffers(current, b, field) {
			base.Classification = ClassBreaking
			return base
		}
	}
	for _, field := range contract.UIFields {
		if fieldDiffers(current, b, field) {
			base.Classification = ClassInformational
			return base
		}
	}
	base.Classification = ClassClean
	return base
}

func fieldDiffers(t catalog.Type, b *snapshot.CatalogBinding, field string) bool {
	current, ok := t.Fields[field]
	stored, hadStored := b.MaterializedFields[field]
	if !ok {
		return hadStored
	}
	return current.AsFloat() != stored
}

func lessFinding(a, b Finding) bool {
	if a.Classification != b.Classification {
		return a.Classification < b.Classification
	}
	if a.Namespace != b.Namespace {
		return a.Namespace < b.Namespace
	}
	if a.CatalogItemID != b.CatalogItemID {
		return a.CatalogItemID < b.CatalogItemID
	}
	return a.ElementID < b.ElementID
}

func toCanonical(findings []Finding) encoding.Value {
	out := make([]encoding.Value, 0, len(findings))
	for _, f := range findings {
		out = append(out, encoding.Map(map[string]encoding.Value{
			"element_id":      encoding.String(f.ElementID),
			"namespace":       encoding.String(string(f.Namespace)),
			"catalog_item_id": encoding.String(string(f.CatalogItemID)),
			"bound_version":   encoding.String(string(f.BoundVersion)),
			"classification":  encoding.String(string(f.Classification)),
		}))
	}
	return encoding.Seq(out...)
}
