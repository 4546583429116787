package catalog

import "dnsc/internal/dnscerr"

// LineInlineParams are the per-length-unit parameters supplied directly on
// a branch when no catalog type is bound.
type LineInlineParams struct {
	ROhmPerKm          float64
	XOhmPerKm          float64
	BMicroSiemensPerKm float64
}

// LineImpedanceOverride is a total (over the whole segment, not per km)
// impedance override that dominates every other source for a line/cable.
type LineImpedanceOverride struct {
	RTotalOhm          float64
	XTotalOhm          float64
	BTotalMicroSiemens float64
	Reason             string
}

// LineParams is the resolved, total-over-segment impedance of a branch.
type LineParams struct {
	RTotalOhm          float64
	XTotalOhm          float64
	BTotalMicroSiemens float64
}

// ResolveLineParams implements the override > type_ref > inline precedence
// contract for lines and cables (spec.md §4.B). lengthKm scales catalog and
// inline per-km fields into the totals an override would otherwise supply
// directly.
func (r *Registry) ResolveLineParams(ns Namespace, typeRef *ItemID, override *LineImpedanceOverride, inline LineInlineParams, lengthKm float64) (LineParams, []FieldProvenance, error) {
	if override != nil {
		ref := override.Reason
		if ref == "" {
			ref = "override"
		}
		prov := provAll(SourceOverride, ref, "r_total_ohm", "x_total_ohm", "b_total_microsiemens")
		return LineParams{
			RTotalOhm:          override.RTotalOhm,
			XTotalOhm:          override.XTotalOhm,
			BTotalMicroSiemens: override.BTotalMicroSiemens,
		}, prov, nil
	}
	if typeRef != nil {
		t, ok := r.Get(ns, *typeRef)
		if !ok {
			return LineParams{}, nil, &dnscerr.TypeNotFound{TypeRef: string(*typeRef), EquipmentKind: string(ns)}
		}
		rPerKm := fieldFloat(t, "r_ohm_per_km")
		xPerKm := fieldFloat(t, "x_ohm_per_km")
		bPerKm := fieldFloat(t, "b_microsiemens_per_km")
		ref := string(t.Namespace) + "/" + string(t.ID) + "@" + string(t.Version)
		prov := provAll(SourceCatalog, ref, "r_total_ohm", "x_total_ohm", "b_total_microsiemens")
		return LineParams{
			RTotalOhm:          rPerKm * lengthKm,
			XTotalOhm:          xPerKm * lengthKm,
			BTotalMicroSiemens: bPerKm * lengthKm,
		}, prov, nil
	}
	prov := provAll(SourceDerived, "inline", "r_total_ohm", "x_total_ohm", "b_total_microsiemens")
	return LineParams{
		RTotalOhm:          inline.ROhmPerKm * lengthKm,
		XTotalOhm:          inline.XOhmPerKm * lengthKm,
		BTotalMicroSiemens: inline.BMicroSiemensPerKm * lengthKm,
	}, prov, nil
}

// TransformerInlineParams are nameplate parameters supplied directly on a
// transformer branch when no catalog type is bound.
type TransformerInlineParams struct {
	RatedPowerKVA       float64
	ShortCircuitUkPct   float64
	CopperLossesKW      float64
	IronLossesKW        float64
}

// TransformerParams is the resolved nameplate used by solvers.
type TransformerParams struct {
	RatedPowerKVA     float64
	ShortCircuitUkPct float64
	CopperLossesKW    float64
	IronLossesKW      float64
}

// ResolveTransformerParams implements the type_ref > inline precedence for
// transformers. There is no segment-level override for transformers.
func (r *Registry) ResolveTransformerParams(ns Namespace, typeRef *ItemID, inline TransformerInlineParams) (TransformerParams, []FieldProvenance, error) {
	if typeRef != nil {
		t, ok := r.Get(ns, *typeRef)
		if !ok {
			return TransformerParams{}, nil, &dnscerr.TypeNotFound{TypeRef: string(*typeRef), EquipmentKind: string(ns)}
		}
		ref := string(t.Namespace) + "/" + string(t.ID) + "@" + string(t.Version)
		prov := provAll(SourceCatalog, ref, "rated_power_kva", "short_circuit_uk_pct", "copper_losses_kw", "iron_losses_kw")
		return TransformerParams{
			RatedPowerKVA:     fieldFloat(t, "rated_power_kva"),
			ShortCircuitUkPct: fieldFloat(t, "short_circuit_uk_pct"),
			CopperLossesKW:    fieldFloat(t, "copper_losses_kw"),
			IronLossesKW:      fieldFloat(t, "iron_losses_kw"),
		}, prov, nil
	}
	prov := provAll(SourceDerived, "inline", "rated_power_kva", "short_circuit_uk_pct", "copper_losses_kw", "iron_losses_kw")
	return TransformerParams{
		RatedPowerKVA:     inline.RatedPowerKVA,
		ShortCircuitUkPct: inline.ShortCircuitUkPct,
		CopperLossesKW:    inline.CopperLossesKW,
		IronLossesKW:      inline.IronLossesKW,
	}, prov, nil
}

func provAll(source SourceKind, ref string, fields ...string) []FieldProvenance {
	out := make([]FieldProvenance, 0, len(fields))
	for _, f := range fields {
		out = append(out, FieldProvenance{Field: f, Source: source, Reference: ref})
	}
	return out
}

func fieldFloat(t Type, name string) float64 {
	v, ok := t.Fields[name]
	if !ok {
		return 0
	}
	return v.AsFloat()
}
