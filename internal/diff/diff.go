// Package diff implements the Diff Engine (spec.md §4.H): a structural,
// sorted, id-keyed comparison between two snapshots' canonical payloads.
package diff

import (
	"sort"

	"dnsc/internal/encoding"
	"dnsc/internal/snapshot"
)

// FieldChange is one changed field on a modified element.
type FieldChange struct {
	FieldName string
	Old       encoding.Value
	New       encoding.Value
}

// ModifiedElement is one element present in both snapshots with at least
// one changed field, sorted internally by field name.
type ModifiedElement struct {
	EntityType string
	ID         string
	Fields     []FieldChange
}

// Result is the full structural diff between two snapshots.
type Result struct {
	AddedElements    []ElementRef
	RemovedElements  []ElementRef
	ModifiedElements []ModifiedElement
}

// ElementRef identifies one element by its entity type and id.
type ElementRef struct {
	EntityType string
	ID         string
}

// IsIdentical reports whether the diff is empty — equivalent to the two
// snapshots sharing a fingerprint.
func (r Result) IsIdentical() bool {
	return len(r.AddedElements) == 0 && len(r.RemovedElements) == 0 && len(r.ModifiedElements) == 0
}

// entitySection names the top-level sections of the canonical payload that
// hold id-keyed element sequences, in the order snapshot.ToCanonicalValue
// declares them (the encoder itself emits keys sorted).
var entitySections = []string{
	"nodes", "branches", "switches", "sources", "loads", "substations",
	"bays", "junctions", "corridors", "measurements", "protection_assignments", "generators",
}

// Compare diffs a against b at the level of the structural dictionary — the
// same layer used to compute fingerprints. Equal fingerprints short-circuit
// to an empty Result.
func Compare(a, b *snapshot.Snapshot) Result {
	if a.Fingerprint() == b.Fingerprint() {
		return Result{}
	}

	av := a.ToCanonicalValue().Fields()
	bv := b.ToCanonicalValue().Fields()

	var added, removed []ElementRef
	var modified []ModifiedElement

	for _, section := range entitySections {
		aByID := indexByID(av[section])
		bByID := indexByID(bv[section])

		for id := range aByID {
			if _, ok := bByID[id]; !ok {
				removed = append(removed, ElementRef{EntityType: section, ID: id})
			}
		}
		for id, bElem := range bByID {
			aElem, ok := aByID[id]
			if !ok {
				added = append(added, ElementRef{EntityType: section, ID: id})
				continue
			}
			if changes := fieldChanges(aElem, bElem); len(changes) > 0 {
				modified = append(modified, ModifiedElement{EntityType: section, ID: id, Fields: changes})
			}
		}
	}

	sort.Slice(added, func(i, j int) bool { return lessRef(added[i], added[j]) })
	sort.Slice(removed, func(i, j int) bool { return lessRef(removed[i], removed[j]) })
	sort.Slice(modified, func(i, j int) bool {
		if modified[i].EntityType != modified[j].EntityType {
			return modified[i].EntityType < modified[j].EntityType
		}
		return modified[i].ID < modified[j].ID
	})

	return Result{AddedElements: added, RemovedElements: removed, ModifiedElements: modified}
}

func lessRef(a, b ElementRef) bool {
	if a.EntityType != b.EntityType {
		return a.EntityType < b.EntityType
	}
	return a.ID < b.ID
}

func indexByID(section encoding.Value) map[string]encoding.Value {
	out := map[string]encoding.Value{}
	for _, item := range section.Items() {
		fields := item.Fields()
		id, ok := fields["id"]
		if !ok {
			continue
		}
		out[id.AsString()] = item
	}
	return out
}

// fieldChanges compares every field except "id", sorted by field name.
func fieldChanges(a, b encoding.Value) []FieldChange {
	af, bf := a.Fields(), b.Fields()
	keys := map[string]bool{}
	for k := range af {
		keys[k] = true
	}
	for k := range bf {
		keys[k] = true
	}
	delete(keys, "id")

	var changes []FieldChange
	for k := range keys {
		av, aok := af[k]
		bv, bok := bf[k]
		if !aok || !bok {
			changes = append(changes, FieldChange{FieldName: k, Old: af[k], New: bf[k]})
			continue
		}
		aEnc, _ := encoding.Encode(av)
		bEnc, _ := encoding.Encode(bv)
		if string(aEnc) != string(bEnc) {
			changes = append(changes, FieldChange{FieldName: k, Old: av, New: bv})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].FieldName < changes[j].FieldName })
	return changes
}
