package readiness

import (
	"sort"

	"dnsc/internal/diff"
)

// DiffArea is the functional-area classification applied to a diff.Result,
// mirroring the way validation.Area classifies snapshot issues.
type DiffArea string

const (
	DiffAreaTopology DiffArea = "topology"
	DiffAreaCatalogs DiffArea = "catalogs"
	DiffAreaSources  DiffArea = "sources"
	DiffAreaGenerators DiffArea = "generators"
	DiffAreaProtection DiffArea = "protection"
	DiffAreaMeasurements DiffArea = "measurements"
)

var sectionArea = map[string]DiffArea{
	"nodes":       DiffAreaTopology,
	"branches":    DiffAreaTopology,
	"switches":    DiffAreaTopology,
	"substations": DiffAreaTopology,
	"bays":        DiffAreaTopology,
	"junctions":   DiffAreaTopology,
	"corridors":   DiffAreaTopology,
	"sources":                DiffAreaSources,
	"measurements":           DiffAreaMeasurements,
	"protection_assignments": DiffAreaProtection,
	"generators":             DiffAreaGenerators,
}

// ClassifiedDiff groups a diff.Result's changes by functional area.
type ClassifiedDiff struct {
	Areas map[DiffArea][]diff.ElementRef
}

// ClassifyDiff partitions a diff.Result's added, removed, and modified
// elements (the latter contributing once per element, as an ElementRef) by
// functional area. A change touching an element's "catalog_binding" field
// additionally contributes a DiffAreaCatalogs entry for that element,
// regardless of its base entity area.
func ClassifyDiff(result diff.Result) ClassifiedDiff {
	areas := map[DiffArea][]diff.ElementRef{}
	add := func(area DiffArea, ref diff.ElementRef) {
		areas[area] = append(areas[area], ref)
	}

	for _, ref := range result.AddedElements {
		add(areaFor(ref.EntityType), ref)
	}
	for _, ref := range result.RemovedElements {
		add(areaFor(ref.EntityType), ref)
	}
	for _, m := range result.ModifiedElements {
		ref := diff.ElementRef{EntityType: m.EntityType, ID: m.ID}
		add(areaFor(m.EntityType), ref)
		for _, f := range m.Fields {
			if f.FieldName == "catalog_binding" {
				add(DiffAreaCatalogs, ref)
				break
			}
		}
	}

	for area := range areas {
		sort.Slice(areas[area], func(i, j int) bool {
			a, b := areas[area][i], areas[area][j]
			if a.EntityType != b.EntityType {
				return a.EntityType < b.EntityType
			}
			return a.ID < b.ID
		})
	}
	return ClassifiedDiff{Areas: areas}
}

func areaFor(entityType string) DiffArea {
	if a, ok := sectionArea[entityType]; ok {
		return a
	}
	return DiffAreaTopology
}
