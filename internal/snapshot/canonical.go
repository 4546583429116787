package snapshot

import "dnsc/internal/encoding"

// ToCanonicalValue mirrors the structural payload as an encoding.Value
// tree, suitable for persistence or re-hashing. It excludes snapshot id,
// parent id, and creation wall time — the same exclusions the fingerprint
// applies (spec.md §4.C).
func (s *Snapshot) ToCanonicalValue() encoding.Value {
	return encoding.Map(map[string]encoding.Value{
		"schema_version":         encoding.String(s.schemaVersion),
		"nodes":                  encodeNodes(s.Nodes()),
		"branches":               encodeBranches(s.Branches()),
		"switches":               encodeSwitches(s.Switches()),
		"sources":                encodeSources(s.Sources()),
		"loads":                  encodeLoads(s.Loads()),
		"substations":            encodeSubstations(s.Substations()),
		"bays":                   encodeBays(s.Bays()),
		"junctions":              encodeJunctions(s.Junctions()),
		"corridors":              encodeCorridors(s.Corridors()),
		"measurements":           encodeMeasurements(s.Measurements()),
		"protection_assignments": encodeProtectionAssignments(s.ProtectionAssignments()),
		"generators":             encodeGenerators(s.Generators()),
	})
}

func (s *Snapshot) computeFingerprint() (string, error) {
	return encoding.ContentHash(s.ToCanonicalValue())
}

func optFloat(f *float64) encoding.Value {
	if f == nil {
		return encoding.Null()
	}
	return encoding.Real(*f)
}

func optString(s *string) encoding.Value {
	if s == nil {
		return encoding.Null()
	}
	return encoding.String(*s)
}

func encodeBinding(b *CatalogBinding) encoding.Value {
	if b == nil {
		return encoding.Null()
	}
	fields := make(map[string]encoding.Value, len(b.MaterializedFields))
	for k, v := range b.MaterializedFields {
		fields[k] = encoding.Real(v)
	}
	prov := make([]encoding.Value, 0, len(b.Provenance))
	for _, p := range b.Provenance {
		prov = append(prov, encoding.Map(map[string]encoding.Value{
			"field":     encoding.String(p.Field),
			"source":    encoding.String(string(p.Source)),
			"reference": encoding.String(p.Reference),
		}))
	}
	return encoding.Map(map[string]encoding.Value{
		"namespace":           encoding.String(string(b.Namespace)),
		"item_id":             encoding.String(string(b.ItemID)),
		"item_version":        encoding.String(string(b.ItemVersion)),
		"materialized_fields": encoding.Map(fields),
		"materialized_hash":   encoding.String(b.MaterializedHash),
		"provenance":          encoding.Seq(prov...),
	})
}

func encodeNodes(nodes []Node) encoding.Value {
	out := make([]encoding.Value, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, encoding.Map(map[string]encoding.Value{
			"id":                        encoding.String(n.ID),
			"display_name":              encoding.String(n.DisplayName),
			"kind":                      encoding.String(string(n.Kind)),
			"nominal_voltage_kv":        encoding.Real(n.NominalVoltageKV),
			"scheduled_active_mw":       optFloat(n.ScheduledActiveMW),
			"scheduled_reactive_mvar":   optFloat(n.ScheduledReactiveMvar),
			"initial_voltage_magnitude": optFloat(n.InitialVoltageMagnitude),
			"initial_voltage_angle_deg": optFloat(n.InitialVoltageAngleDeg),
		}))
	}
	return encoding.Seq(out...)
}

func encodeBranches(branches []Branch) encoding.Value {
	out := make([]encoding.Value, 0, len(branches))
	for _, b := range branches {
		inline := encoding.Null()
		if b.InlineImpedance != nil {
			inline = encoding.Map(map[string]encoding.Value{
				"r_ohm_per_km":          encoding.Real(b.InlineImpedance.ROhmPerKm),
				"x_ohm_per_km":          encoding.Real(b.InlineImpedance.XOhmPerKm),
				"b_microsiemens_per_km": encoding.Real(b.InlineImpedance.BMicroSiemensPerKm),
			})
		}
		override := encoding.Null()
		if b.ImpedanceOverride != nil {
			override = encoding.Map(map[string]encoding.Value{
				"r_total_ohm":          encoding.Real(b.ImpedanceOverride.RTotalOhm),
				"x_total_ohm":          encoding.Real(b.ImpedanceOverride.XTotalOhm),
				"b_total_microsiemens": encoding.Real(b.ImpedanceOverride.BTotalMicroSiemens),
				"reason":               encoding.String(b.ImpedanceOverride.Reason),
			})
		}
		out = append(out, encoding.Map(map[string]encoding.Value{
			"id":                 encoding.String(b.ID),
			"display_name":       encoding.String(b.DisplayName),
			"kind":               encoding.String(string(b.Kind)),
			"from_node":          encoding.String(b.FromNode),
			"to_node":            encoding.String(b.ToNode),
			"in_service":         encoding.Bool(b.InService),
			"length_km":          encoding.Real(b.LengthKm),
			"catalog_binding":    encodeBinding(b.CatalogBinding),
			"inline_impedance":   inline,
			"impedance_override": override,
		}))
	}
	return encoding.Seq(out...)
}

func encodeSwitches(switches []Switch) encoding.Value {
	out := make([]encoding.Value, 0, len(switches))
	for _, sw := range switches {
		out = append(out, encoding.Map(map[string]encoding.Value{
			"id":         encoding.String(sw.ID),
			"from_node":  encoding.String(sw.FromNode),
			"to_node":    encoding.String(sw.ToNode),
			"kind":       encoding.String(string(sw.Kind)),
			"state":      encoding.String(string(sw.State)),
			"in_service": encoding.Bool(sw.InService),
		}))
	}
	return encoding.Seq(out...)
}

func encodeSources(sources []Source) encoding.Value {
	out := make([]encoding.Value, 0, len(sources))
	for _, src := range sources {
		payload := make(map[string]encoding.Value, len(src.Payload))
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

func encodeLoads(loads []Load) encoding.Value {
	out := make([]encoding.Value, 0, len(loads))
	for _, l := range loads {
		out = append(out, encoding.Map(map[string]encoding.Value{
			"id":         encoding.String(l.ID),
			"node_id":    encoding.String(l.NodeID),
			"p_mw":       encoding.Real(l.PMW),
			"q_mvar":     encoding.Real(l.QMvar),
			"model":      encoding.String(l.Model),
			"in_service": encoding.Bool(l.InService),
		}))
	}
	return encoding.Seq(out...)
}

func encodeSubstations(subs []Substation) encoding.Value {
	out := make([]encoding.Value, 0, len(subs))
	for _, s := range subs {
		out = append(out, encoding.Map(map[string]encoding.Value{
			"id":               encoding.String(s.ID),
			"bus_refs":         stringSeq(s.BusRefs),
			"bay_refs":         stringSeq(s.BayRefs),
			"transformer_refs": stringSeq(s.TransformerRefs),
		}))
	}
	return encoding.Seq(out...)
}

func encodeBays(bays []Bay) encoding.Value {
	out := make([]encoding.Value, 0, len(bays))
	for _, b := range bays {
		out = append(out, encoding.Map(map[string]encoding.Value{
			"id":             encoding.String(b.ID),
			"bus_ref":        encoding.String(b.BusRef),
			"apparatus_refs": stringSeq(b.ApparatusRefs),
		}))
	}
	return encoding.Seq(out...)
}

func encodeJunctions(js []Junction) encoding.Value {
	out := make([]encoding.Value, 0, len(js))
	for _, j := range js {
		out = append(out, encoding.Map(map[string]encoding.Value{
			"id":       encoding.String(j.ID),
			"node_ref": encoding.String(j.NodeRef),
		}))
	}
	return encoding.Seq(out...)
}

func encodeCorridors(cs []Corridor) encoding.Value {
	out := make([]encoding.Value, 0, len(cs))
	for _, c := range cs {
		out = append(out, encoding.Map(map[string]encoding.Value{
			"id":          encoding.String(c.ID),
			"branch_refs": stringSeq(c.BranchRefs),
		}))
	}
	return encoding.Seq(out...)
}

func encodeMeasurements(ms []Measurement) encoding.Value {
	out := make([]encoding.Value, 0, len(ms))
	for _, m := range ms {
		out = append(out, encoding.Map(map[string]encoding.Value{
			"id":              encoding.String(m.ID),
			"element_ref":     encoding.String(m.ElementRef),
			"catalog_binding": encodeBinding(m.CatalogBinding),
		}))
	}
	return encoding.Seq(out...)
}

func encodeProtectionAssignments(pas []ProtectionAssignment) encoding.Value {
	out := make([]encoding.Value, 0, len(pas))
	for _, pa := range pas {
		out = append(out, encoding.Map(map[string]encoding.Value{
			"id":                       encoding.String(pa.ID),
			"element_ref":              encoding.String(pa.ElementRef),
			"device_binding":           encodeBinding(pa.DeviceBinding),
			"setting_template_binding": encodeBinding(pa.SettingTemplateBinding),
		}))
	}
	return encoding.Seq(out...)
}

func encodeGenerators(gs []Generator) encoding.Value {
	out := make([]encoding.Value, 0, len(gs))
	for _, g := range gs {
		variant := encoding.Null()
		if g.ConnectionVariant != nil {
			variant = encoding.String(string(*g.ConnectionVariant))
		}
		out = append(out, encoding.Map(map[string]encoding.Value{
			"id":                 encoding.String(g.ID),
			"node_id":            encoding.String(g.NodeID),
			"technology":         encoding.String(string(g.Technology)),
			"connection_variant": variant,
			"substation_ref":     optString(g.SubstationRef),
			"transformer_ref":    optString(g.TransformerRef),
			"catalog_binding":    encodeBinding(g.CatalogBinding),
			"in_service":         encoding.Bool(g.InService),
		}))
	}
	return encoding.Seq(out...)
}

func stringSeq(ss []string) encoding.Value {
	out := make([]encoding.Value, 0, len(ss))
	for _, s := range ss {
		out = append(out, encoding.String(s))
	}
	return encoding.Seq(out...)
}
